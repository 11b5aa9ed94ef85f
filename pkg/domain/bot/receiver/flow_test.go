package receiver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/portal"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

const testDate = "2026-09-05"

func testNow() time.Time {
	return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
}

func newSession() *Session {
	return &Session{State: StateMain, Now: testNow}
}

func avail(staffID, name string, slots []schedule.TimeSlot, booked []schedule.Range) schedule.StaffAvailability {
	return schedule.StaffAvailability{
		Staff:        schedule.Staff{ID: staffID, Name: name, State: "Thai"},
		TimeSlots:    slots,
		BookedRanges: booked,
	}
}

func openSlot(t string) schedule.TimeSlot { return schedule.TimeSlot{Time: t, Available: true} }

// backend — минимальный бэкенд для флоу: отдаёт доступность и принимает заявки.
type backend struct {
	entries   []schedule.StaffAvailability
	posts     atomic.Int64
	lastReq   model.BookingRequest
	rejectMsg string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /client/staff-available", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(b.entries)
	})
	mux.HandleFunc("POST /client/bookings", func(w http.ResponseWriter, r *http.Request) {
		b.posts.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&b.lastReq)
		if b.rejectMsg != "" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": b.rejectMsg})
			return
		}
		_ = json.NewEncoder(w).Encode(model.Booking{
			ID: "bk1", StaffID: b.lastReq.StaffID, Date: b.lastReq.Date,
			SlotTime: b.lastReq.SlotTime, Duration: b.lastReq.Duration, Status: model.StatusPending,
		})
	})
	return mux
}

func newFlowAgainst(t *testing.T, b *backend) (*Flow, func()) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	api := portal.New(srv.URL, zerolog.Nop())
	return NewFlow(api, zerolog.Nop()), srv.Close
}

// ---------- FSM ----------

func TestGoBack(t *testing.T) {
	sess := newSession()
	sess.Go(StateBookDate)
	sess.Go(StateBookStaff)
	sess.Back()
	if sess.State != StateBookDate {
		t.Errorf("после Back ожидался StateBookDate, получен %d", sess.State)
	}
	sess.Back()
	sess.Back() // история пуста — остаёмся в главном меню
	if sess.State != StateMain {
		t.Errorf("пустая история ведёт в StateMain, получен %d", sess.State)
	}
}

func TestBeginSearchResetsSelection(t *testing.T) {
	sess := newSession()
	sess.SetDate(testDate)
	sess.SetStaffPref("a")
	sess.SetStartTime("12:00")

	sess.BeginSearch(testDate)

	draft := sess.Draft()
	if draft.StaffPref != schedule.AnyStaff {
		t.Errorf("новый поиск сбрасывает предпочтение в anyone, получено %q", draft.StaffPref)
	}
	if draft.StartTime != "" {
		t.Errorf("новый поиск сбрасывает время, получено %q", draft.StartTime)
	}
	if draft.Duration != DefaultDuration {
		t.Errorf("длительность по умолчанию %d, получено %d", DefaultDuration, draft.Duration)
	}
}

func TestApplySearchDiscardsStale(t *testing.T) {
	sess := newSession()
	genOld := sess.BeginSearch("2026-09-05")
	genNew := sess.BeginSearch("2026-09-06")

	old := []schedule.StaffAvailability{avail("a", "Амина", []schedule.TimeSlot{openSlot("11:00")}, nil)}
	if sess.ApplySearch(genOld, "2026-09-05", old) {
		t.Error("ответ перекрытого поиска должен быть выброшен")
	}
	if sess.Available() != nil {
		t.Error("устаревший снимок не должен примениться")
	}

	fresh := []schedule.StaffAvailability{avail("b", "Бэла", []schedule.TimeSlot{openSlot("12:00")}, nil)}
	if !sess.ApplySearch(genNew, "2026-09-06", fresh) {
		t.Error("актуальный ответ должен примениться")
	}
	if got := sess.Available(); len(got) != 1 || got[0].Staff.ID != "b" {
		t.Errorf("снимок = %+v", got)
	}
}

func TestSetDurationClearsInvalidStart(t *testing.T) {
	sess := newSession()
	gen := sess.BeginSearch(testDate)
	sess.ApplySearch(gen, testDate, []schedule.StaffAvailability{
		avail("a", "Амина", []schedule.TimeSlot{openSlot("20:00")}, nil),
	})
	sess.SetStartTime("20:00")

	// 20:00 на 60 минут заканчивается ровно в 21:00 — валидно.
	sess.SetDuration(60)
	if sess.Draft().StartTime != "20:00" {
		t.Fatal("20:00/60 не должно сбрасываться")
	}

	// 20:00 на 120 минут вылезает за закрытие — время очищается без нового фетча.
	sess.SetDuration(120)
	if sess.Draft().StartTime != "" {
		t.Error("20:00/120 должно очистить выбранное время")
	}
}

func TestSetStaffPrefClearsStart(t *testing.T) {
	sess := newSession()
	sess.SetStartTime("12:00")
	sess.SetStaffPref("a")
	if sess.Draft().StartTime != "" {
		t.Error("смена специалиста сбрасывает выбранное время")
	}
}

// ---------- Отправка ----------

func TestSubmitAnyoneResolvesInFetchOrder(t *testing.T) {
	// Два специалиста с пересекающимися наборами; 15:00 предлагает только B.
	b := &backend{entries: []schedule.StaffAvailability{
		avail("a", "Амина", []schedule.TimeSlot{openSlot("14:00")}, nil),
		avail("b", "Бэла", []schedule.TimeSlot{openSlot("14:00"), openSlot("15:00")}, nil),
	}}
	flow, closeSrv := newFlowAgainst(t, b)
	defer closeSrv()

	sess := newSession()
	if err := flow.Search(context.Background(), sess, testDate); err != nil {
		t.Fatalf("Search: %v", err)
	}
	sess.SetStartTime("15:00")

	booking, err := flow.Submit(context.Background(), sess)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if b.lastReq.StaffID != "b" {
		t.Errorf("в заявке staffId = %q, ожидался b", b.lastReq.StaffID)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("статус новой заявки %q", booking.Status)
	}
	// Успешная отправка очищает черновик.
	if d := sess.Draft(); d.StartTime != "" || d.Date != "" {
		t.Errorf("черновик должен быть очищен: %+v", d)
	}
}

func TestSubmitNoResolvableStaffFailsLocally(t *testing.T) {
	// 19:15 на 120 минут не влезает до закрытия ни у кого.
	b := &backend{entries: []schedule.StaffAvailability{
		avail("a", "Амина", []schedule.TimeSlot{openSlot("19:15")}, nil),
	}}
	flow, closeSrv := newFlowAgainst(t, b)
	defer closeSrv()

	sess := newSession()
	if err := flow.Search(context.Background(), sess, testDate); err != nil {
		t.Fatalf("Search: %v", err)
	}
	sess.SetStartTime("19:15")
	sess.SetDuration(120)
	// SetDuration очистит время; вернём его принудительно, имитируя гонку выбора.
	sess.SetStartTime("19:15")

	if _, err := flow.Submit(context.Background(), sess); err == nil {
		t.Fatal("ожидался локальный отказ")
	}
	if got := b.posts.Load(); got != 0 {
		t.Errorf("локальный отказ не должен ходить в сеть, POST-ов: %d", got)
	}
}

func TestSubmitWithoutDateTimeFailsLocally(t *testing.T) {
	b := &backend{}
	flow, closeSrv := newFlowAgainst(t, b)
	defer closeSrv()

	sess := newSession()
	_, err := flow.Submit(context.Background(), sess)
	if err == nil {
		t.Fatal("пустой черновик не отправляется")
	}
	if got := errs.UserText(err, "generic"); got != "Выберите дату и время начала" {
		t.Errorf("в чат должен уходить текст ошибки, а не fallback: %q", got)
	}
	if got := b.posts.Load(); got != 0 {
		t.Errorf("сетевых вызовов быть не должно, POST-ов: %d", got)
	}
}

func TestSubmitBackendRejectionKeepsDraft(t *testing.T) {
	b := &backend{
		entries: []schedule.StaffAvailability{
			avail("a", "Амина", []schedule.TimeSlot{openSlot("14:00")}, nil),
		},
		rejectMsg: "Slot already taken",
	}
	flow, closeSrv := newFlowAgainst(t, b)
	defer closeSrv()

	sess := newSession()
	if err := flow.Search(context.Background(), sess, testDate); err != nil {
		t.Fatalf("Search: %v", err)
	}
	sess.SetStartTime("14:00")

	if _, err := flow.Submit(context.Background(), sess); err == nil {
		t.Fatal("отказ бэкенда должен вернуться ошибкой")
	}
	// Черновик не тронут: пользователь правит и пробует снова.
	if d := sess.Draft(); d.StartTime != "14:00" || d.Date != testDate {
		t.Errorf("черновик должен сохраниться: %+v", d)
	}
}

func TestSelectableTimesFiltersPast(t *testing.T) {
	now := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC) // искомая дата — сегодня
	sess := &Session{State: StateMain, Now: func() time.Time { return now }}
	gen := sess.BeginSearch(testDate)
	sess.ApplySearch(gen, testDate, []schedule.StaffAvailability{
		avail("a", "Амина", []schedule.TimeSlot{openSlot("11:00"), openSlot("15:00")}, nil),
	})

	times := SelectableTimes(sess)
	if len(times) != 1 || times[0].Time != "15:00" {
		t.Errorf("прошедшие времена должны скрываться: %+v", times)
	}
}

func TestEndTime(t *testing.T) {
	if got := EndTime(BookingDraft{StartTime: "19:30", Duration: 90}); got != "21:00" {
		t.Errorf("EndTime = %q", got)
	}
	if got := EndTime(BookingDraft{}); got != "" {
		t.Errorf("без времени начала конец пустой, получено %q", got)
	}
}
