package receiver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

// ---------- FSM ----------

type State int

const (
	StateStart State = iota
	StateAuthMobile
	StateAuthPassword
	StateRegName
	StateRegMobile
	StateRegPassword
	StateMain
	StateBookDate
	StateBookStaff
	StateBookDuration
	StateBookTime
	StateBookMessage
	StateBookConfirm
	StateMy
	StateNotif
	StateHelp
	StateStaffBookings
	StateStaffSchedule
	StateAdminQueue
	StateAdminAssign
	StateAdminRoster
	StateAdminAddName
	StateAdminAddState
	StateAdminAvail
	StateAdminResched
	StateAdminReschedTime
)

// DefaultDuration — стартовая длительность сеанса, минуты.
const DefaultDuration = 60

// Durations — допустимые длительности сеанса.
var Durations = []int{60, 90, 120}

// BookingDraft — черновик заявки. Живёт только в памяти: сбрасывается после
// успешной отправки и при уходе из флоу, никуда не персистится.
type BookingDraft struct {
	Date      string // YYYY-MM-DD
	StaffPref string // schedule.AnyStaff или id специалиста
	StartTime string // HH:MM
	Duration  int
	Message   string
}

// Session — состояние диалога одного пользователя Telegram.
//
// Черновик и снимок доступности под mu: их трогает горутина поиска прямо во
// время запроса. Остальные поля под opMu: обработчик апдейтов держит его на
// весь апдейт, а горутины (поиск, поллер уведомлений) берут его перед
// применением результата и перерисовкой экрана.
type Session struct {
	opMu sync.Mutex

	State   State
	history []State

	ChatID      int64
	ScreenMsgID int // сообщение-экран, которое бот редактирует

	Token string
	User  *model.User

	// Буферы текстового ввода (логин/регистрация/ростер).
	InputName   string
	InputMobile string
	RosterDraft model.StaffInput

	// Данные последних загрузок для экранов-списков.
	Listing       string // готовый текст расписания специалиста
	Bookings      []model.Booking
	Roster        []model.StaffInfo
	Notifications []model.Notification
	Unread        int

	// Заявка, которой админ сейчас назначает специалиста.
	AssignBookingID string
	AssignSlotTime  string

	// Экран доступности: выбранная дата и слоты специалистов вокруг неё.
	AvailDate    string
	AvailEntries []model.StaffDayAvailability

	// Сеанс, который админ сейчас переносит.
	ReschedBookingID string
	ReschedStaffID   string
	ReschedDuration  int

	// Фильтр статуса на списковых экранах ("" — все).
	StatusFilter string

	// Сколько дат вперёд предлагать на экране выбора даты.
	BookingDays int

	// Отмена поллера уведомлений; живёт, пока открыт экран уведомлений.
	StopNotif context.CancelFunc

	Now func() time.Time

	mu        sync.Mutex
	notice    string
	draft     BookingDraft
	available []schedule.StaffAvailability
	searchGen int
	searching bool
}

// SetNotice ставит одноразовый баннер над текстом экрана: ошибки,
// подтверждения. Пишется и из горутины поиска, поэтому под мьютексом.
func (s *Session) SetNotice(text string) {
	s.mu.Lock()
	s.notice = text
	s.mu.Unlock()
}

// TakeNotice забирает баннер и гасит его.
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

func (s *Session) Go(to State) {
	s.history = append(s.history, s.State)
	s.State = to
}

func (s *Session) Back() {
	if n := len(s.history); n > 0 {
		s.State = s.history[n-1]
		s.history = s.history[:n-1]
	} else {
		s.State = StateMain
	}
}

func (s *Session) ResetFlow() {
	s.State = StateMain
	s.history = s.history[:0]
	s.mu.Lock()
	s.draft = BookingDraft{}
	s.available = nil
	s.searching = false
	s.mu.Unlock()
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ---------- Черновик и снимок доступности ----------

// SetDate запоминает дату будущего поиска, не трогая прежний снимок.
func (s *Session) SetDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Date = date
}

// BeginSearch начинает новый поиск по дате: сбрасывает выбор специалиста и
// времени (устаревший выбор с другой даты не должен молча пережить поиск)
// и выдаёт номер поколения. Ответ с другим номером будет выброшен.
func (s *Session) BeginSearch(date string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = BookingDraft{
		Date:      date,
		StaffPref: schedule.AnyStaff,
		Duration:  DefaultDuration,
	}
	s.available = nil
	s.searchGen++
	s.searching = true
	return s.searchGen
}

// ApplySearch применяет результат поиска, если он всё ещё актуален:
// номер поколения совпадает и дата не менялась. Опоздавший ответ по
// перекрытому поиску молча выбрасывается.
func (s *Session) ApplySearch(gen int, date string, entries []schedule.StaffAvailability) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.searchGen || date != s.draft.Date {
		return false
	}
	s.available = entries
	s.searching = false
	return true
}

// Searching: идёт ли сейчас поиск (для busy-состояния экрана).
func (s *Session) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// SetStaffPref меняет фильтр специалиста и сбрасывает выбранное время:
// набор валидных времён у каждого специалиста свой.
func (s *Session) SetStaffPref(staffID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.StaffPref = staffID
	s.draft.StartTime = ""
}

// SetDuration меняет длительность и перепроверяет уже выбранное время.
// Старт, переставший влезать (например, 20:00 при переходе 60 → 120 минут),
// очищается без нового похода за данными.
func (s *Session) SetDuration(d int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Duration = d
	if s.draft.StartTime == "" {
		return
	}
	if !schedule.Selectable(s.available, s.draft.Date, s.draft.StartTime, d, s.draft.StaffPref, s.now()) {
		s.draft.StartTime = ""
	}
}

func (s *Session) SetStartTime(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.StartTime = t
}

func (s *Session) SetMessage(m string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Message = m
}

// Draft возвращает копию черновика.
func (s *Session) Draft() BookingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Available возвращает текущий снимок доступности.
func (s *Session) Available() []schedule.StaffAvailability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// ClearDraft сбрасывает черновик после успешной отправки.
func (s *Session) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = BookingDraft{}
	s.available = nil
}

// CancelNotif останавливает поллер уведомлений, если он запущен.
func (s *Session) CancelNotif() {
	if s.StopNotif != nil {
		s.StopNotif()
		s.StopNotif = nil
	}
}

// ---------- Session store (in-memory, потокобезопасно) ----------

type Store struct {
	mu sync.RWMutex
	m  map[int64]*Session
}

func NewStore() *Store {
	return &Store{m: make(map[int64]*Session)}
}

func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[userID]; ok {
		return sess
	}
	se := &Session{State: StateStart}
	s.m[userID] = se
	return se
}

// ---------- Callback keys ----------

const (
	CbStart    = "start"
	CbBook     = "book"
	CbMy       = "my"
	CbNotif    = "notif"
	CbHelp     = "help"
	CbBack     = "back"
	CbOk       = "confirm"
	CbSearch   = "search"
	CbMsg      = "msg"
	CbLogin    = "login"
	CbRegister = "register"
	CbLogout   = "logout"
	CbReadAll  = "readall"

	CbStaffBookings = "stbook"
	CbStaffSchedule = "stsched"
	CbAdminQueue    = "queue"
	CbAdminRoster   = "roster"
	CbRosterAdd     = "radd"
	CbAdminAvail    = "avail"

	PD         = "d:"   // d:2026-09-02
	PStaff     = "st:"  // st:anyone | st:<id>
	PDur       = "dur:" // dur:90
	PT         = "t:"   // t:14:30
	PFilter    = "f:"   // f:PENDING
	PApprove   = "ap:"  // ap:<bookingID>
	PReject    = "rj:"  // rj:<bookingID>
	PAssign    = "as:"  // as:<staffID>
	PRosterDel = "del:" // del:<staffID>
	PNotifRead = "nr:"  // nr:<notificationID>
	PRosterSt  = "rs:"  // rs:Thai (направление нового специалиста)
	PAvailD    = "avd:" // avd:2026-09-02 (дата на экране доступности)
	PAvailTgl  = "avt:" // avt:<staffID> (переключить доступность на дату)
	PResched   = "re:"  // re:<bookingID>
	PReschedSt = "res:" // res:<staffID>
	PReschedT  = "ret:" // ret:14:00
	PCancel    = "cx:"  // cx:<bookingID>
)

func Is(k, prefix string) (string, bool) {
	if strings.HasPrefix(k, prefix) {
		return strings.TrimPrefix(k, prefix), true
	}
	return "", false
}
