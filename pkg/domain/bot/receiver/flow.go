package receiver

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/portal"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

// ErrStale — ответ поиска пришёл после того, как пользователь начал новый
// поиск. Не показывается: такой ответ просто выбрасывается.
var ErrStale = errs.New("search superseded")

// Flow — поиск доступности и отправка заявки, без привязки к Telegram.
// Вся логика выбора здесь и в пакете schedule; бэкенд остаётся единственным
// арбитром: параллельная заявка на тот же слот вернётся отказом.
type Flow struct {
	api      *portal.Client
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewFlow(api *portal.Client, logger zerolog.Logger) *Flow {
	return &Flow{
		api:      api,
		validate: validator.New(),
		logger:   logger,
	}
}

// Search запрашивает доступность на дату и применяет результат к сессии.
// Если за время запроса пользователь запустил новый поиск, результат
// выбрасывается и возвращается ErrStale.
func (f *Flow) Search(ctx context.Context, sess *Session, date string) error {
	gen := sess.BeginSearch(date)

	entries, err := f.api.StaffAvailable(ctx, sess.Token, date)
	if err != nil {
		// Ошибку тоже применяем только к актуальному поиску.
		if sess.ApplySearch(gen, date, nil) {
			return err
		}
		return ErrStale
	}

	if !sess.ApplySearch(gen, date, entries) {
		f.logger.Debug().Str("date", date).Int("gen", gen).Msg("stale search result dropped")
		return ErrStale
	}
	return nil
}

// Submit собирает заявку из черновика и отправляет её.
//
// Локальные отказы (нет даты/времени, не нашёлся специалист, кривой черновик)
// не порождают сетевого вызова. Отказ бэкенда черновик не трогает:
// пользователь правит выбор и пробует ещё раз.
func (f *Flow) Submit(ctx context.Context, sess *Session) (*model.Booking, error) {
	draft := sess.Draft()

	if draft.Date == "" || draft.StartTime == "" {
		return nil, errs.New("Выберите дату и время начала").User()
	}

	staffID := draft.StaffPref
	if staffID == schedule.AnyStaff {
		staff := schedule.ResolveStaff(sess.Available(), draft.StartTime, draft.Duration)
		if staff == nil {
			return nil, errs.New("Нет свободного специалиста на это время").User()
		}
		staffID = staff.ID
	}

	req := model.BookingRequest{
		StaffID:  staffID,
		Date:     draft.Date,
		SlotTime: draft.StartTime,
		Duration: draft.Duration,
	}
	if draft.Message != "" {
		msg := draft.Message
		req.Message = &msg
	}
	if err := f.validate.Struct(req); err != nil {
		return nil, errs.New("Заявка заполнена не полностью").User().Wrap(err)
	}

	booking, err := f.api.CreateBooking(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}

	sess.ClearDraft()
	return booking, nil
}

// SelectableTimes — список времён, которые можно предложить кнопками:
// прошедшие скрыты, остальные проходят через общий предикат выбираемости.
func SelectableTimes(sess *Session) []schedule.TimeSlot {
	draft := sess.Draft()
	entries := sess.Available()
	now := sess.now()

	var out []schedule.TimeSlot
	for _, slot := range schedule.SlotsFor(entries, draft.StaffPref) {
		if schedule.IsPast(draft.Date, slot.Time, now) {
			continue
		}
		if schedule.Selectable(entries, draft.Date, slot.Time, draft.Duration, draft.StaffPref, now) {
			out = append(out, slot)
		}
	}
	return out
}

// EndTime — конец сеанса для подписи на экране подтверждения.
func EndTime(draft BookingDraft) string {
	if draft.StartTime == "" {
		return ""
	}
	return schedule.AddMinutes(draft.StartTime, draft.Duration)
}

// DateChoices — даты под кнопки выбора: сегодня и ещё days-1 вперёд.
func DateChoices(now time.Time, days int) []string {
	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, now.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return out
}

// HumanDate — подпись даты на кнопке.
func HumanDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01 (Mon)")
}
