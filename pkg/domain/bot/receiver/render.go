package receiver

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

// Направления специалистов, которые понимает бэкенд.
var StaffStates = []string{"Indian", "North-East", "Thai"}

// Дневной набор слотов, который админ ставит специалисту одной кнопкой.
var DefaultDaySlots = []string{
	"11:00", "12:00", "13:00", "14:00", "15:00", "16:00",
	"17:00", "18:00", "19:00", "20:00", "21:00",
}

// Времена, на которые админ может перенести сеанс.
var ReschedTimes = []string{
	"11:00", "12:00", "13:00", "14:00", "15:00", "16:00",
	"17:00", "18:00", "19:00", "20:00",
}

var statusBadge = map[string]string{
	model.StatusPending:  "⏳ Ожидает",
	model.StatusApproved: "✅ Подтверждена",
	model.StatusRejected: "❌ Отклонена",
}

func Badge(status string) string {
	if b, ok := statusBadge[status]; ok {
		return b
	}
	return status
}

// ---------- Тексты экранов ----------

func RenderText(sess *Session) string {
	var b strings.Builder
	if n := sess.TakeNotice(); n != "" {
		b.WriteString(n)
		b.WriteString("\n\n")
	}

	switch sess.State {
	case StateStart:
		b.WriteString("Добро пожаловать в салон wellness-практик! 🌿\nВойдите или зарегистрируйтесь, чтобы записаться на сеанс.")
	case StateAuthMobile:
		b.WriteString("Введите номер телефона сообщением:")
	case StateAuthPassword:
		b.WriteString("Введите пароль сообщением.\nСообщение будет сразу удалено из чата.")
	case StateRegName:
		b.WriteString("Как вас зовут? Отправьте имя сообщением:")
	case StateRegMobile:
		b.WriteString("Введите номер телефона сообщением:")
	case StateRegPassword:
		b.WriteString("Придумайте пароль и отправьте сообщением.\nСообщение будет сразу удалено из чата.")
	case StateMain:
		name := ""
		if sess.User != nil {
			name = ", " + sess.User.Name
		}
		fmt.Fprintf(&b, "Здравствуйте%s! Выберите действие:", name)
	case StateBookDate:
		b.WriteString("Выберите дату сеанса:")
		if d := sess.Draft().Date; d != "" {
			fmt.Fprintf(&b, "\nВыбрано: %s. Нажмите «Найти», чтобы посмотреть свободные окна.", HumanDate(d))
		}
	case StateBookStaff:
		if sess.Searching() {
			b.WriteString("🔍 Ищу свободные окна…")
			break
		}
		draft := sess.Draft()
		fmt.Fprintf(&b, "Свободные специалисты на %s.\nКого предпочитаете?", HumanDate(draft.Date))
	case StateBookDuration:
		b.WriteString("Выберите длительность сеанса:")
	case StateBookTime:
		draft := sess.Draft()
		fmt.Fprintf(&b, "Выберите время начала (%d мин):", draft.Duration)
	case StateBookMessage:
		b.WriteString("Напишите пожелание к сеансу одним сообщением:")
	case StateBookConfirm:
		b.WriteString(renderConfirm(sess))
	case StateMy:
		b.WriteString("Ваши заявки:\n\n")
		b.WriteString(renderBookings(sess.Bookings, true))
	case StateNotif:
		fmt.Fprintf(&b, "🔔 Уведомления (непрочитанных: %d)\n\n", sess.Unread)
		b.WriteString(renderNotifications(sess.Notifications))
	case StateHelp:
		b.WriteString("Нажмите «Запись», выберите дату и нажмите «Найти» — бот покажет свободных специалистов и времена.\nДлительность сеанса: 60, 90 или 120 минут. Заявка уходит администратору и ждёт подтверждения.")
	case StateStaffBookings:
		b.WriteString("Сеансы, назначенные вам")
		if sess.StatusFilter != "" {
			fmt.Fprintf(&b, " (%s)", Badge(sess.StatusFilter))
		}
		b.WriteString(":\n\n")
		b.WriteString(renderBookings(sess.Bookings, false))
	case StateStaffSchedule:
		b.WriteString("Ваше расписание на две недели:\n\n")
		if sess.Listing == "" {
			b.WriteString("Расписание пусто.")
		} else {
			b.WriteString(sess.Listing)
		}
	case StateAdminQueue:
		b.WriteString("Заявки")
		if sess.StatusFilter != "" {
			fmt.Fprintf(&b, " (%s)", Badge(sess.StatusFilter))
		}
		b.WriteString(":\n\n")
		b.WriteString(renderBookings(sess.Bookings, false))
	case StateAdminAssign:
		fmt.Fprintf(&b, "Кого назначить на заявку (время %s)?", schedule.FormatAMPM(sess.AssignSlotTime))
	case StateAdminRoster:
		b.WriteString("Специалисты салона:\n\n")
		b.WriteString(renderRoster(sess.Roster))
	case StateAdminAddName:
		b.WriteString("Имя нового специалиста — сообщением:")
	case StateAdminAddState:
		b.WriteString("Выберите направление специалиста:")
	case StateAdminAvail:
		fmt.Fprintf(&b, "🗓 Доступность на %s\n\n", HumanDate(sess.AvailDate))
		b.WriteString(renderAvailability(sess))
	case StateAdminResched:
		b.WriteString("Перенос сеанса: выберите специалиста.")
	case StateAdminReschedTime:
		fmt.Fprintf(&b, "Перенос сеанса (%d мин): выберите новое время.", sess.ReschedDuration)
	default:
		b.WriteString("Меню")
	}
	return b.String()
}

func renderConfirm(sess *Session) string {
	draft := sess.Draft()
	var b strings.Builder
	b.WriteString("Проверьте заявку:\n")

	who := "Любой свободный специалист"
	if draft.StaffPref != schedule.AnyStaff {
		for _, e := range sess.Available() {
			if e.Staff.ID == draft.StaffPref {
				who = fmt.Sprintf("%s (%s)", e.Staff.Name, e.Staff.State)
			}
		}
	}
	fmt.Fprintf(&b, "Специалист: %s\n", who)
	fmt.Fprintf(&b, "Дата: %s\n", HumanDate(draft.Date))
	fmt.Fprintf(&b, "Время: %s — %s (%d мин)\n",
		schedule.FormatAMPM(draft.StartTime), schedule.FormatAMPM(EndTime(draft)), draft.Duration)
	if draft.Message != "" {
		fmt.Fprintf(&b, "Пожелание: %s\n", draft.Message)
	}
	return b.String()
}

func renderBookings(bookings []model.Booking, own bool) string {
	if len(bookings) == 0 {
		return "Пока пусто."
	}
	var b strings.Builder
	for _, bk := range bookings {
		fmt.Fprintf(&b, "%s — %s %s", Badge(bk.Status), HumanDate(bk.Date), schedule.FormatAMPM(bk.SlotTime))
		if bk.Duration > 0 {
			fmt.Fprintf(&b, " (%d мин)", bk.Duration)
		}
		if own {
			if bk.Staff != nil {
				fmt.Fprintf(&b, "\n   Специалист: %s", bk.Staff.Name)
			}
		} else {
			fmt.Fprintf(&b, "\n   Клиент: %s, %s", bk.Client.Name, bk.Client.Mobile)
		}
		if bk.Message != "" {
			fmt.Fprintf(&b, "\n   Пожелание: %s", bk.Message)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderNotifications(list []model.Notification) string {
	if len(list) == 0 {
		return "Уведомлений пока нет."
	}
	var b strings.Builder
	for i, n := range list {
		if i >= 10 {
			fmt.Fprintf(&b, "… и ещё %d", len(list)-10)
			break
		}
		mark := "🔹"
		if n.IsRead {
			mark = "▫️"
		}
		fmt.Fprintf(&b, "%s %s\n   %s\n", mark, n.Message, n.CreatedAt.Format("02.01.2006 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSchedule собирает текст экрана расписания: по датам, сначала слоты
// доступности, затем назначенные сеансы.
func FormatSchedule(s *model.StaffSchedule) string {
	type day struct {
		slots    []string
		bookings []model.Booking
	}
	byDate := make(map[string]*day)
	getDay := func(date string) *day {
		d, ok := byDate[date]
		if !ok {
			d = &day{}
			byDate[date] = d
		}
		return d
	}
	for _, a := range s.Availability {
		getDay(a.Date).slots = a.Slots
	}
	for _, bk := range s.Bookings {
		d := getDay(bk.Date)
		d.bookings = append(d.bookings, bk)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var b strings.Builder
	for _, date := range dates {
		d := byDate[date]
		fmt.Fprintf(&b, "📅 %s\n", HumanDate(date))
		if len(d.slots) > 0 {
			times := make([]string, 0, len(d.slots))
			for _, t := range d.slots {
				times = append(times, schedule.FormatAMPM(t))
			}
			fmt.Fprintf(&b, "   Окна: %s\n", strings.Join(times, ", "))
		}
		for _, bk := range d.bookings {
			fmt.Fprintf(&b, "   %s %s — %s\n", Badge(bk.Status), schedule.FormatAMPM(bk.SlotTime), bk.Client.Name)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderAvailability — кто из специалистов работает на выбранную дату
// и какие сеансы на неё назначены.
func renderAvailability(sess *Session) string {
	var b strings.Builder
	for _, s := range sess.Roster {
		mark := "➖ не работает"
		if staffWorks(sess.AvailEntries, s.ID, sess.AvailDate) {
			mark = "✅ работает"
		}
		fmt.Fprintf(&b, "%s (%s) — %s\n", s.Name, s.State, mark)
	}
	b.WriteString("\nСеансы на эту дату:\n")
	n := 0
	for _, bk := range sess.Bookings {
		if bk.Status != model.StatusPending && bk.Status != model.StatusApproved {
			continue
		}
		n++
		who := "не назначен"
		if bk.Staff != nil {
			who = bk.Staff.Name
		}
		fmt.Fprintf(&b, "%s %s — %s, клиент %s\n", Badge(bk.Status), schedule.FormatAMPM(bk.SlotTime), who, bk.Client.Name)
	}
	if n == 0 {
		b.WriteString("Сеансов нет.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderRoster(roster []model.StaffInfo) string {
	if len(roster) == 0 {
		return "Специалистов пока нет. Добавьте первого."
	}
	var b strings.Builder
	for _, s := range roster {
		fmt.Fprintf(&b, "• %s — %s\n", s.Name, s.State)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ---------- Клавиатуры ----------

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", CbBack))
}

func RenderKeyboard(sess *Session) tgbotapi.InlineKeyboardMarkup {
	switch sess.State {
	case StateStart:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔑 Войти", CbLogin)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📝 Регистрация", CbRegister)),
		)
	case StateAuthMobile, StateAuthPassword, StateRegName, StateRegMobile, StateRegPassword,
		StateBookMessage, StateAdminAddName, StateMy, StateHelp, StateStaffSchedule:
		return tgbotapi.NewInlineKeyboardMarkup(backRow())
	case StateNotif:
		rows := [][]tgbotapi.InlineKeyboardButton{}
		for _, n := range sess.Notifications {
			if n.IsRead || len(rows) >= 5 {
				continue
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👁 "+truncate(n.Message, 28), PNotifRead+n.ID)))
		}
		if sess.Unread > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Прочитать все", CbReadAll)))
		}
		rows = append(rows, backRow())
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	case StateMain:
		return mainMenu(sess)
	case StateBookDate:
		return dateMenu(sess)
	case StateBookStaff:
		return staffMenu(sess)
	case StateBookDuration:
		return durationMenu()
	case StateBookTime:
		return timeMenu(sess)
	case StateBookConfirm:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Отправить заявку", CbOk)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💬 Пожелание", CbMsg)),
			durationRow(),
			backRow(),
		)
	case StateStaffBookings, StateAdminQueue:
		return bookingListMenu(sess)
	case StateAdminAssign:
		return assignMenu(sess)
	case StateAdminRoster:
		return rosterMenu(sess)
	case StateAdminAddState:
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(StaffStates))
		for _, st := range StaffStates {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(st, PRosterSt+st))
		}
		return tgbotapi.NewInlineKeyboardMarkup(row, backRow())
	case StateAdminAvail:
		return availMenu(sess)
	case StateAdminResched:
		return reschedStaffMenu(sess)
	case StateAdminReschedTime:
		return reschedTimeMenu()
	default:
		return mainMenu(sess)
	}
}

func mainMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	role := model.RoleClient
	if sess.User != nil {
		role = sess.User.Role
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	switch role {
	case model.RoleStaff:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Мои сеансы", CbStaffBookings)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗓 Моё расписание", CbStaffSchedule)),
		)
	case model.RoleAdmin:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📥 Заявки", CbAdminQueue)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗓 Доступность", CbAdminAvail)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👥 Специалисты", CbAdminRoster)),
		)
	default:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💆 Запись", CbBook)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Мои заявки", CbMy)),
		)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔔 Уведомления", CbNotif)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Помощь", CbHelp),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Выйти", CbLogout),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dateMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	days := sess.BookingDays
	if days <= 0 {
		days = 7
	}
	dates := DateChoices(sess.now(), days)
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, d := range dates {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(HumanDate(d), PD+d))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if sess.Draft().Date != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Найти", CbSearch)))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func staffMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if !sess.Searching() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙋 Любой специалист", PStaff+schedule.AnyStaff)))
		for _, e := range sess.Available() {
			label := fmt.Sprintf("%s (%s)", e.Staff.Name, e.Staff.State)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, PStaff+e.Staff.ID)))
		}
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func durationRow() []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(Durations))
	for _, d := range Durations {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d мин", d), fmt.Sprintf("%s%d", PDur, d)))
	}
	return row
}

func durationMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(durationRow(), backRow())
}

func timeMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	slots := SelectableTimes(sess)
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, s := range slots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(schedule.FormatAMPM(s.Time), PT+s.Time))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func bookingListMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	filters := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Все", PFilter+"ALL"),
		tgbotapi.NewInlineKeyboardButtonData("⏳", PFilter+model.StatusPending),
		tgbotapi.NewInlineKeyboardButtonData("✅", PFilter+model.StatusApproved),
		tgbotapi.NewInlineKeyboardButtonData("❌", PFilter+model.StatusRejected),
	)
	rows := [][]tgbotapi.InlineKeyboardButton{filters}

	if sess.State == StateAdminQueue {
		for _, bk := range sess.Bookings {
			if bk.Status != model.StatusPending {
				continue
			}
			label := fmt.Sprintf("%s %s · %s", HumanDate(bk.Date), schedule.FormatAMPM(bk.SlotTime), bk.Client.Name)
			rows = append(rows,
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("✅ "+label, PApprove+bk.ID),
					tgbotapi.NewInlineKeyboardButtonData("❌", PReject+bk.ID),
				))
		}
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func assignMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, s := range sess.Roster {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%s)", s.Name, s.State), PAssign+s.ID)))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// availMenu — календарь доступности: даты, галки по специалистам и кнопки
// переноса/отмены по каждому активному сеансу.
func availMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	days := sess.BookingDays
	if days <= 0 {
		days = 7
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, d := range DateChoices(sess.now(), days) {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(HumanDate(d), PAvailD+d))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	for _, s := range sess.Roster {
		label := "⬜ " + s.Name
		if staffWorks(sess.AvailEntries, s.ID, sess.AvailDate) {
			label = "✅ " + s.Name
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, PAvailTgl+s.ID)))
	}
	for _, bk := range sess.Bookings {
		if bk.Status != model.StatusPending && bk.Status != model.StatusApproved {
			continue
		}
		label := fmt.Sprintf("%s · %s", schedule.FormatAMPM(bk.SlotTime), bk.Client.Name)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ "+label, PResched+bk.ID),
			tgbotapi.NewInlineKeyboardButtonData("🚫", PCancel+bk.ID),
		))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reschedStaffMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, s := range sess.Roster {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%s)", s.Name, s.State), PReschedSt+s.ID)))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reschedTimeMenu() tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	row := []tgbotapi.InlineKeyboardButton{}
	for _, t := range ReschedTimes {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(schedule.FormatAMPM(t), PReschedT+t))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func rosterMenu(sess *Session) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", CbRosterAdd)),
	}
	for _, s := range sess.Roster {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+s.Name, PRosterDel+s.ID)))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
