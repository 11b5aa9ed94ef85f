package receiver

import (
	"context"
	"sync"
	"testing"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
	"github.com/rs/zerolog"
)

// Поллер пишет уведомления в сессию из своей горутины, пока цикл апдейтов
// ходит по экранам. Оба берут opMu; под -race здесь не должно быть гонок.
func TestConcurrentNotifWritesAndNavigation(t *testing.T) {
	sess := newSession()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			// То же, что делает тик поллера под opMu.
			sess.opMu.Lock()
			sess.Notifications = []model.Notification{{ID: "n1", Message: "Заявка подтверждена"}}
			sess.Unread = i
			if sess.State == StateNotif {
				_ = RenderText(sess)
			}
			sess.opMu.Unlock()
		}
	}()

	for i := 0; i < 500; i++ {
		sess.opMu.Lock()
		sess.Go(StateNotif)
		_ = RenderText(sess)
		_ = RenderKeyboard(sess)
		sess.Back()
		sess.opMu.Unlock()
	}
	close(stop)
	wg.Wait()
}

func TestStartCommandStopsNotifPoller(t *testing.T) {
	h := &Handler{logger: zerolog.Nop()}
	sess := newSession()
	sess.Go(StateNotif)
	stopped := false
	sess.StopNotif = func() { stopped = true }

	h.startSession(context.Background(), sess, 1)

	if !stopped {
		t.Error("/start с экрана уведомлений должен останавливать поллер")
	}
	if sess.StopNotif != nil {
		t.Error("ссылка на отменённый поллер должна очищаться")
	}
}

func TestToggleSlots(t *testing.T) {
	entries := []model.StaffDayAvailability{
		{StaffID: "a", Date: "2026-09-05", Slots: []string{"11:00", "12:00"}},
		// Бэкенд может прислать дату ISO-временем.
		{StaffID: "b", Date: "2026-09-05T00:00:00.000Z", Slots: []string{"11:00"}},
	}

	if got := ToggleSlots(entries, "a", "2026-09-05"); len(got) != 0 {
		t.Errorf("у работающего специалиста слоты снимаются, получено %v", got)
	}
	if got := ToggleSlots(entries, "b", "2026-09-05"); len(got) != 0 {
		t.Errorf("ISO-дата должна сопоставляться с YYYY-MM-DD, получено %v", got)
	}
	if got := ToggleSlots(entries, "c", "2026-09-05"); len(got) != len(DefaultDaySlots) {
		t.Errorf("неработающему ставится дневной набор, получено %v", got)
	}
	if got := ToggleSlots(entries, "a", "2026-09-06"); len(got) != len(DefaultDaySlots) {
		t.Errorf("на другую дату специалист не работает, получено %v", got)
	}
}
