package receiver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/tg_wellness_bot/pkg/domain/bot/notifier"
	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/portal"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

const genericFail = "Не получилось, попробуйте ещё раз"

// Handler принимает апдейты Telegram и гоняет FSM. Сетевые вызовы к бэкенду
// короткие и идут прямо в цикле; в горутины уходят только поиск доступности
// (его результат фильтруется по поколению) и поллер уведомлений. Обе горутины
// применяют результат и перерисовывают экран под opMu сессии, который
// обработчик держит на весь апдейт.
type Handler struct {
	bot         *tgbotapi.BotAPI
	api         *portal.Client
	flow        *Flow
	store       *Store
	repo        model.SessionRepo
	notifEvery  time.Duration
	bookingDays int
	logger      zerolog.Logger
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	api *portal.Client,
	flow *Flow,
	store *Store,
	repo model.SessionRepo,
	notifEvery time.Duration,
	bookingDays int,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		bot:         bot,
		api:         api,
		flow:        flow,
		store:       store,
		repo:        repo,
		notifEvery:  notifEvery,
		bookingDays: bookingDays,
		logger:      logger,
	}
}

// ---------- Сообщения ----------

func (h *Handler) HandleMessage(ctx context.Context, m *tgbotapi.Message) {
	sess := h.store.Get(m.From.ID)
	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	sess.ChatID = m.Chat.ID
	sess.BookingDays = h.bookingDays

	if m.IsCommand() && m.Command() == "start" {
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		h.startSession(ctx, sess, m.From.ID)
		h.show(sess)
		return
	}

	text := m.Text

	switch sess.State {
	case StateAuthMobile:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		sess.InputMobile = text
		sess.Go(StateAuthPassword)
	case StateAuthPassword:
		// Пароль не должен оставаться в чате.
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		h.login(ctx, sess, m.From.ID, sess.InputMobile, text)
	case StateRegName:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		sess.InputName = text
		sess.Go(StateRegMobile)
	case StateRegMobile:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		sess.InputMobile = text
		sess.Go(StateRegPassword)
	case StateRegPassword:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		h.register(ctx, sess, m.From.ID, text)
	case StateBookMessage:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		sess.SetMessage(text)
		sess.Back()
	case StateAdminAddName:
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		sess.RosterDraft.Name = text
		sess.Go(StateAdminAddState)
	default:
		// Произвольный текст удаляем и напоминаем про кнопки.
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
		remind := tgbotapi.NewMessage(m.Chat.ID, "Пожалуйста, используйте кнопки 👆")
		sent, _ := h.bot.Send(remind)
		go func(chatID int64, mid int) {
			time.Sleep(5 * time.Second)
			_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, mid))
		}(sent.Chat.ID, sent.MessageID)
		return
	}

	h.show(sess)
}

// ---------- Кнопки ----------

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	sess := h.store.Get(cq.From.ID)
	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	sess.ChatID = cq.Message.Chat.ID
	sess.ScreenMsgID = cq.Message.MessageID
	sess.BookingDays = h.bookingDays
	data := cq.Data

	// Экран уведомлений закрывается любым переходом с него.
	if sess.State == StateNotif && data != CbReadAll && !strings.HasPrefix(data, PNotifRead) {
		sess.CancelNotif()
	}

	switch {
	case data == CbStart:
		h.startSession(ctx, sess, cq.From.ID)

	case data == CbLogin:
		sess.Go(StateAuthMobile)
	case data == CbRegister:
		sess.Go(StateRegName)
	case data == CbLogout:
		h.teardown(ctx, sess, cq.From.ID, "Вы вышли из портала.")

	case data == CbBook:
		sess.Go(StateBookDate)
	case data == CbMy:
		h.loadMyBookings(ctx, sess, cq.From.ID)
	case data == CbHelp:
		sess.Go(StateHelp)
	case data == CbBack:
		sess.Back()

	case strings.HasPrefix(data, PD):
		v, _ := Is(data, PD)
		sess.SetDate(v)
	case data == CbSearch:
		h.startSearch(ctx, sess, cq.From.ID)
	case strings.HasPrefix(data, PStaff):
		v, _ := Is(data, PStaff)
		sess.SetStaffPref(v)
		sess.Go(StateBookDuration)
	case strings.HasPrefix(data, PDur):
		v, _ := Is(data, PDur)
		h.pickDuration(sess, v)
	case strings.HasPrefix(data, PT):
		v, _ := Is(data, PT)
		h.pickTime(sess, v)
	case data == CbMsg:
		sess.Go(StateBookMessage)
	case data == CbOk:
		h.submit(ctx, sess, cq.From.ID)

	case data == CbNotif:
		h.openNotifications(ctx, sess, cq.From.ID)
	case data == CbReadAll:
		h.readAllNotifications(ctx, sess, cq.From.ID)
	case strings.HasPrefix(data, PNotifRead):
		v, _ := Is(data, PNotifRead)
		h.readNotification(ctx, sess, cq.From.ID, v)

	case data == CbStaffBookings:
		sess.StatusFilter = ""
		h.loadStaffBookings(ctx, sess, cq.From.ID)
	case data == CbStaffSchedule:
		h.loadStaffSchedule(ctx, sess, cq.From.ID)

	case data == CbAdminQueue:
		sess.StatusFilter = model.StatusPending
		h.loadAdminQueue(ctx, sess, cq.From.ID)
	case strings.HasPrefix(data, PFilter):
		v, _ := Is(data, PFilter)
		h.applyFilter(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PApprove):
		v, _ := Is(data, PApprove)
		h.beginAssign(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PAssign):
		v, _ := Is(data, PAssign)
		h.approve(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PReject):
		v, _ := Is(data, PReject)
		h.reject(ctx, sess, cq.From.ID, v)

	case data == CbAdminAvail:
		sess.AvailDate = sess.now().Format("2006-01-02")
		h.loadAvailability(ctx, sess, cq.From.ID, true)
	case strings.HasPrefix(data, PAvailD):
		v, _ := Is(data, PAvailD)
		sess.AvailDate = v
		h.loadAvailability(ctx, sess, cq.From.ID, false)
	case strings.HasPrefix(data, PAvailTgl):
		v, _ := Is(data, PAvailTgl)
		h.toggleAvailability(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PResched):
		v, _ := Is(data, PResched)
		h.beginReschedule(sess, v)
	case strings.HasPrefix(data, PReschedSt):
		v, _ := Is(data, PReschedSt)
		sess.ReschedStaffID = v
		sess.Go(StateAdminReschedTime)
	case strings.HasPrefix(data, PReschedT):
		v, _ := Is(data, PReschedT)
		h.reschedule(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PCancel):
		v, _ := Is(data, PCancel)
		h.cancelBooking(ctx, sess, cq.From.ID, v)

	case data == CbAdminRoster:
		h.loadRoster(ctx, sess, cq.From.ID, StateAdminRoster)
	case data == CbRosterAdd:
		sess.RosterDraft = model.StaffInput{}
		sess.Go(StateAdminAddName)
	case strings.HasPrefix(data, PRosterSt):
		v, _ := Is(data, PRosterSt)
		h.createStaff(ctx, sess, cq.From.ID, v)
	case strings.HasPrefix(data, PRosterDel):
		v, _ := Is(data, PRosterDel)
		h.deleteStaff(ctx, sess, cq.From.ID, v)
	}

	h.show(sess)
	// Гасим "часики"
	_, _ = h.bot.Request(tgbotapi.NewCallback(cq.ID, ""))
}

// ---------- Сессия / авторизация ----------

// startSession поднимает сессию: если в локальном хранилище лежит токен,
// пробуем его через /auth/me; живой — сразу в главное меню.
func (h *Handler) startSession(ctx context.Context, sess *Session, tgUserID int64) {
	// /start с экрана уведомлений тоже должен останавливать его поллер.
	sess.CancelNotif()
	sess.ResetFlow()

	if sess.Token == "" && h.repo != nil {
		stored, err := h.repo.Load(ctx, tgUserID)
		if err != nil {
			h.logger.Warn().Err(err).Int64("tg_user", tgUserID).Msg("load session failed")
		} else if stored != nil && stored.Token != "" {
			user, err := h.api.Me(ctx, stored.Token)
			if err == nil {
				sess.Token = stored.Token
				sess.User = user
			} else if errors.Is(err, portal.ErrUnauthorized) {
				_ = h.repo.ClearToken(ctx, tgUserID)
			} else {
				h.logger.Warn().Err(err).Msg("token check failed")
			}
		}
	}

	if sess.Token == "" {
		sess.State = StateStart
		sess.history = sess.history[:0]
	}
}

func (h *Handler) login(ctx context.Context, sess *Session, tgUserID int64, mobile, password string) {
	auth, err := h.api.Login(ctx, mobile, password)
	if err != nil {
		sess.SetNotice("⚠️ " + errs.UserText(err, "Не удалось войти"))
		sess.State = StateAuthMobile
		h.logger.Warn().Err(err).Msg("login failed")
		return
	}
	h.activate(ctx, sess, tgUserID, auth)
}

func (h *Handler) register(ctx context.Context, sess *Session, tgUserID int64, password string) {
	auth, err := h.api.Register(ctx, sess.InputName, sess.InputMobile, password)
	if err != nil {
		sess.SetNotice("⚠️ " + errs.UserText(err, "Не удалось зарегистрироваться"))
		sess.State = StateRegName
		h.logger.Warn().Err(err).Msg("register failed")
		return
	}
	h.activate(ctx, sess, tgUserID, auth)
}

func (h *Handler) activate(ctx context.Context, sess *Session, tgUserID int64, auth *model.AuthResponse) {
	sess.Token = auth.Token
	user := auth.User
	sess.User = &user
	sess.InputName, sess.InputMobile = "", ""
	sess.ResetFlow()
	sess.SetNotice("Вы вошли как " + user.Name)

	if h.repo != nil {
		err := h.repo.Save(ctx, model.PortalSession{
			TgUserID: tgUserID,
			TgChatID: sess.ChatID,
			Token:    auth.Token,
			User:     sess.User,
		})
		if err != nil {
			h.logger.Warn().Err(err).Msg("persist session failed")
		}
	}
}

// teardown сносит сессию: логаут и любой 401 приводят сюда.
func (h *Handler) teardown(ctx context.Context, sess *Session, tgUserID int64, notice string) {
	sess.CancelNotif()
	sess.Token = ""
	sess.User = nil
	sess.ResetFlow()
	sess.State = StateStart
	sess.history = sess.history[:0]
	sess.SetNotice(notice)
	if h.repo != nil {
		if err := h.repo.ClearToken(ctx, tgUserID); err != nil {
			h.logger.Warn().Err(err).Msg("clear token failed")
		}
	}
}

// fail показывает ошибку баннером; 401 дополнительно сносит сессию,
// с какого бы экрана ни пришёл.
func (h *Handler) fail(ctx context.Context, sess *Session, tgUserID int64, err error, fallback string) {
	if errors.Is(err, portal.ErrUnauthorized) {
		h.teardown(ctx, sess, tgUserID, "Сессия истекла, войдите заново.")
		return
	}
	sess.SetNotice("⚠️ " + errs.UserText(err, fallback))
}

// ---------- Флоу записи ----------

// startSearch — явный поиск по выбранной дате. Сам запрос уходит в горутину:
// экран сразу перерисовывается в режим «ищу», а опоздавшие ответы по
// перекрытым поискам выбрасываются внутри Flow.Search.
func (h *Handler) startSearch(ctx context.Context, sess *Session, tgUserID int64) {
	date := sess.Draft().Date
	if date == "" {
		sess.SetNotice("Сначала выберите дату")
		return
	}
	if sess.State == StateBookDate {
		sess.Go(StateBookStaff)
	}

	go func() {
		// Сетевая часть без opMu; результат и перерисовка — под ним.
		err := h.flow.Search(ctx, sess, date)
		sess.opMu.Lock()
		defer sess.opMu.Unlock()
		if err != nil {
			if errors.Is(err, ErrStale) {
				return
			}
			h.fail(ctx, sess, tgUserID, err, "Не удалось загрузить доступность")
		}
		h.show(sess)
	}()
}

func (h *Handler) pickDuration(sess *Session, raw string) {
	d, err := strconv.Atoi(raw)
	if err != nil || !validDuration(d) {
		return
	}
	hadTime := sess.Draft().StartTime != ""
	sess.SetDuration(d)

	switch sess.State {
	case StateBookDuration:
		sess.Go(StateBookTime)
	case StateBookConfirm:
		// Смена длительности на подтверждении: время перепроверено и, если
		// перестало влезать, сброшено — тогда назад к выбору времени.
		if hadTime && sess.Draft().StartTime == "" {
			sess.SetNotice("Выбранное время не подходит для новой длительности, выберите другое")
			sess.State = StateBookTime
		}
	}
}

func (h *Handler) pickTime(sess *Session, t string) {
	draft := sess.Draft()
	if !schedule.Selectable(sess.Available(), draft.Date, t, draft.Duration, draft.StaffPref, sess.now()) {
		sess.SetNotice("Это время уже недоступно, выберите другое")
		return
	}
	sess.SetStartTime(t)
	sess.Go(StateBookConfirm)
}

func (h *Handler) submit(ctx context.Context, sess *Session, tgUserID int64) {
	booking, err := h.flow.Submit(ctx, sess)
	if err != nil {
		// Черновик сохраняем: пользователь поправит выбор и повторит.
		h.fail(ctx, sess, tgUserID, err, "Не получилось отправить заявку")
		return
	}
	h.logger.Info().Str("booking", booking.ID).Str("staff", booking.StaffID).Msg("booking submitted")
	sess.ResetFlow()
	sess.SetNotice("✅ Заявка отправлена! Мы сообщим, когда её подтвердят.")
}

// ---------- Списки ----------

func (h *Handler) loadMyBookings(ctx context.Context, sess *Session, tgUserID int64) {
	list, err := h.api.MyBookings(ctx, sess.Token)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Bookings = list
	sess.Go(StateMy)
}

func (h *Handler) loadStaffBookings(ctx context.Context, sess *Session, tgUserID int64) {
	list, err := h.api.StaffBookings(ctx, sess.Token, sess.StatusFilter)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Bookings = list
	if sess.State != StateStaffBookings {
		sess.Go(StateStaffBookings)
	}
}

func (h *Handler) loadStaffSchedule(ctx context.Context, sess *Session, tgUserID int64) {
	start := sess.now()
	end := start.AddDate(0, 0, 14)
	sched, err := h.api.StaffSchedule(ctx, sess.Token, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Listing = FormatSchedule(sched)
	sess.Go(StateStaffSchedule)
}

func (h *Handler) loadAdminQueue(ctx context.Context, sess *Session, tgUserID int64) {
	list, err := h.api.AdminBookings(ctx, sess.Token, sess.StatusFilter)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Bookings = list
	if sess.State != StateAdminQueue {
		sess.Go(StateAdminQueue)
	}
}

func (h *Handler) applyFilter(ctx context.Context, sess *Session, tgUserID int64, v string) {
	if v == "ALL" {
		v = ""
	}
	sess.StatusFilter = v
	switch sess.State {
	case StateStaffBookings:
		h.loadStaffBookings(ctx, sess, tgUserID)
	case StateAdminQueue:
		h.loadAdminQueue(ctx, sess, tgUserID)
	}
}

// ---------- Админ: подтверждение и ростер ----------

func (h *Handler) beginAssign(ctx context.Context, sess *Session, tgUserID int64, bookingID string) {
	sess.AssignBookingID, sess.AssignSlotTime = "", ""
	for _, bk := range sess.Bookings {
		if bk.ID == bookingID {
			sess.AssignBookingID = bk.ID
			sess.AssignSlotTime = bk.SlotTime
		}
	}
	if sess.AssignBookingID == "" {
		return
	}
	roster, err := h.api.AdminStaff(ctx, sess.Token)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Roster = roster
	sess.Go(StateAdminAssign)
}

func (h *Handler) approve(ctx context.Context, sess *Session, tgUserID int64, staffID string) {
	err := h.api.AdminApproveBooking(ctx, sess.Token, sess.AssignBookingID, model.ApproveRequest{
		StaffID:  staffID,
		SlotTime: sess.AssignSlotTime,
	})
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.AssignBookingID, sess.AssignSlotTime = "", ""
	sess.SetNotice("✅ Заявка подтверждена")
	sess.Back() // обратно в очередь
	h.loadAdminQueue(ctx, sess, tgUserID)
}

func (h *Handler) reject(ctx context.Context, sess *Session, tgUserID int64, bookingID string) {
	if err := h.api.AdminRejectBooking(ctx, sess.Token, bookingID); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.SetNotice("Заявка отклонена")
	h.loadAdminQueue(ctx, sess, tgUserID)
}

func (h *Handler) loadRoster(ctx context.Context, sess *Session, tgUserID int64, to State) {
	roster, err := h.api.AdminStaff(ctx, sess.Token)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Roster = roster
	if sess.State != to {
		sess.Go(to)
	}
}

func (h *Handler) createStaff(ctx context.Context, sess *Session, tgUserID int64, state string) {
	sess.RosterDraft.State = state
	if _, err := h.api.AdminCreateStaff(ctx, sess.Token, sess.RosterDraft); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.SetNotice("✅ Специалист добавлен: " + sess.RosterDraft.Name)
	sess.RosterDraft = model.StaffInput{}
	sess.State = StateAdminRoster
	h.loadRoster(ctx, sess, tgUserID, StateAdminRoster)
}

func (h *Handler) deleteStaff(ctx context.Context, sess *Session, tgUserID int64, staffID string) {
	if err := h.api.AdminDeleteStaff(ctx, sess.Token, staffID); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.SetNotice("Специалист удалён")
	h.loadRoster(ctx, sess, tgUserID, StateAdminRoster)
}

// ---------- Админ: календарь доступности ----------

// loadAvailability собирает экран доступности: ростер, слоты специалистов
// вокруг выбранной даты (±7 дней, как в календаре портала) и сеансы на дату.
func (h *Handler) loadAvailability(ctx context.Context, sess *Session, tgUserID int64, enter bool) {
	base, err := time.Parse("2006-01-02", sess.AvailDate)
	if err != nil {
		base = sess.now()
		sess.AvailDate = base.Format("2006-01-02")
	}

	roster, err := h.api.AdminStaff(ctx, sess.Token)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	entries, err := h.api.AdminAvailability(ctx, sess.Token,
		base.AddDate(0, 0, -7).Format("2006-01-02"),
		base.AddDate(0, 0, 7).Format("2006-01-02"))
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	bookings, err := h.api.AdminBookingsRange(ctx, sess.Token, sess.AvailDate, sess.AvailDate)
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}

	sess.Roster = roster
	sess.AvailEntries = entries
	sess.Bookings = bookings
	if enter {
		sess.Go(StateAdminAvail)
	}
}

func (h *Handler) toggleAvailability(ctx context.Context, sess *Session, tgUserID int64, staffID string) {
	in := model.AvailabilityInput{
		StaffID: staffID,
		Date:    sess.AvailDate,
		Slots:   ToggleSlots(sess.AvailEntries, staffID, sess.AvailDate),
	}
	if err := h.api.AdminSetAvailability(ctx, sess.Token, in); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	h.loadAvailability(ctx, sess, tgUserID, false)
}

func (h *Handler) beginReschedule(sess *Session, bookingID string) {
	sess.ReschedBookingID, sess.ReschedStaffID, sess.ReschedDuration = "", "", 0
	for _, bk := range sess.Bookings {
		if bk.ID == bookingID {
			sess.ReschedBookingID = bk.ID
			sess.ReschedStaffID = bk.StaffID
			sess.ReschedDuration = bk.Duration
		}
	}
	if sess.ReschedBookingID == "" {
		return
	}
	if sess.ReschedDuration == 0 {
		sess.ReschedDuration = DefaultDuration
	}
	// Ростер уже загружен экраном доступности.
	sess.Go(StateAdminResched)
}

func (h *Handler) reschedule(ctx context.Context, sess *Session, tgUserID int64, slotTime string) {
	err := h.api.AdminRescheduleBooking(ctx, sess.Token, sess.ReschedBookingID, model.RescheduleRequest{
		StaffID:  sess.ReschedStaffID,
		SlotTime: slotTime,
		Duration: sess.ReschedDuration,
	})
	if err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.ReschedBookingID, sess.ReschedStaffID = "", ""
	sess.SetNotice("✅ Сеанс перенесён")
	sess.Back() // из выбора времени
	sess.Back() // из выбора специалиста, обратно в календарь
	h.loadAvailability(ctx, sess, tgUserID, false)
}

func (h *Handler) cancelBooking(ctx context.Context, sess *Session, tgUserID int64, bookingID string) {
	if err := h.api.AdminCancelBooking(ctx, sess.Token, bookingID); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.SetNotice("Сеанс отменён")
	h.loadAvailability(ctx, sess, tgUserID, false)
}

// availabilityOn — слоты специалиста на дату из загруженного календаря.
func availabilityOn(entries []model.StaffDayAvailability, staffID, date string) []string {
	for _, e := range entries {
		if e.StaffID == staffID && e.DateOnly() == date {
			return e.Slots
		}
	}
	return nil
}

func staffWorks(entries []model.StaffDayAvailability, staffID, date string) bool {
	return len(availabilityOn(entries, staffID, date)) > 0
}

// ToggleSlots — набор слотов после переключения галки доступности:
// у работающего специалиста слоты снимаются, неработающему ставится
// дневной набор целиком.
func ToggleSlots(entries []model.StaffDayAvailability, staffID, date string) []string {
	if staffWorks(entries, staffID, date) {
		return []string{}
	}
	return append([]string(nil), DefaultDaySlots...)
}

// ---------- Уведомления ----------

// openNotifications открывает экран и вешает на него поллер: пока экран
// открыт, счётчик и список обновляются раз в notifEvery; уход с экрана
// (CancelNotif) его останавливает. С флоу записи поллер ничем не делится.
func (h *Handler) openNotifications(ctx context.Context, sess *Session, tgUserID int64) {
	sess.CancelNotif()
	if err := h.refreshNotifications(ctx, sess); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	sess.Go(StateNotif)

	// Токен фиксируем на момент открытия: смена токена сперва отменяет поллер.
	token := sess.Token
	pctx, cancel := context.WithCancel(ctx)
	sess.StopNotif = cancel
	p := notifier.New(h.notifEvery, h.logger, func(tick context.Context) error {
		list, count, err := h.fetchNotifications(tick, token)
		if err != nil {
			return err
		}
		sess.opMu.Lock()
		defer sess.opMu.Unlock()
		sess.Notifications = list
		sess.Unread = count
		if sess.State == StateNotif {
			h.show(sess)
		}
		return nil
	})
	go p.Run(pctx)
}

// fetchNotifications ходит за списком и счётчиком; состояние сессии не трогает.
func (h *Handler) fetchNotifications(ctx context.Context, token string) ([]model.Notification, int, error) {
	list, err := h.api.Notifications(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	count, err := h.api.UnreadCount(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

func (h *Handler) refreshNotifications(ctx context.Context, sess *Session) error {
	list, count, err := h.fetchNotifications(ctx, sess.Token)
	if err != nil {
		return err
	}
	sess.Notifications = list
	sess.Unread = count
	return nil
}

func (h *Handler) readNotification(ctx context.Context, sess *Session, tgUserID int64, id string) {
	if err := h.api.MarkNotificationRead(ctx, sess.Token, id); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	if err := h.refreshNotifications(ctx, sess); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
	}
}

func (h *Handler) readAllNotifications(ctx context.Context, sess *Session, tgUserID int64) {
	if err := h.api.MarkAllNotificationsRead(ctx, sess.Token); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
		return
	}
	if err := h.refreshNotifications(ctx, sess); err != nil {
		h.fail(ctx, sess, tgUserID, err, genericFail)
	}
}

// ---------- Экран ----------

// show рисует текущий экран: редактирует сообщение-экран либо шлёт новое.
func (h *Handler) show(sess *Session) {
	text := RenderText(sess)
	kb := RenderKeyboard(sess)

	if sess.ScreenMsgID == 0 {
		msg := tgbotapi.NewMessage(sess.ChatID, text)
		msg.ReplyMarkup = kb
		sent, err := h.bot.Send(msg)
		if err != nil {
			h.logger.Error().Err(err).Msg("send screen failed")
			return
		}
		sess.ScreenMsgID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(sess.ChatID, sess.ScreenMsgID, text, kb)
	if _, err := h.bot.Send(edit); err != nil {
		h.logger.Warn().Err(err).Msg("edit screen failed")
	}
}

func validDuration(d int) bool {
	for _, x := range Durations {
		if x == d {
			return true
		}
	}
	return false
}
