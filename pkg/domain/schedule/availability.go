package schedule

import (
	"sort"
	"time"
)

// AnyStaff — значение фильтра "без предпочтений": специалиста назначим сами.
const AnyStaff = "anyone"

// Салон закрывается в 21:00, сеанс должен закончиться не позже.
const closingMinute = 21 * 60

// TimeSlot — одна клетка расписания специалиста на дату.
// Available и Busy — независимые флаги бэкенда: клетка может быть
// ни доступной, ни занятой (вне рабочих часов).
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Busy      bool   `json:"busy"`
}

type Staff struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Range — полуоткрытый интервал [Start, End) в минутах дня,
// уже занятый подтверждённой или ожидающей записью.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StaffAvailability — предложение одного специалиста на искомую дату.
type StaffAvailability struct {
	Staff        Staff      `json:"staff"`
	TimeSlots    []TimeSlot `json:"timeSlots"`
	BookedRanges []Range    `json:"bookedRanges"`
}

// Overlaps проверяет пересечение полуоткрытых интервалов:
// [startA, endA) и [r.Start, r.End) пересекаются ⟺ startA < r.End && r.Start < endA.
func Overlaps(startA, endA int, r Range) bool {
	return startA < r.End && r.Start < endA
}

// UnifiedSlots строит объединённый вид по всем специалистам: клетка доступна,
// если доступна хотя бы у одного, и занята, если занята хотя бы у одного.
// Результат отсортирован по времени; лексикографика корректна, формат
// "HH:MM" с нулями.
func UnifiedSlots(entries []StaffAvailability) []TimeSlot {
	merged := make(map[string]*TimeSlot)
	for _, entry := range entries {
		for _, slot := range entry.TimeSlots {
			s, ok := merged[slot.Time]
			if !ok {
				s = &TimeSlot{Time: slot.Time}
				merged[slot.Time] = s
			}
			if slot.Available {
				s.Available = true
			}
			if slot.Busy {
				s.Busy = true
			}
		}
	}

	out := make([]TimeSlot, 0, len(merged))
	for _, s := range merged {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// SlotsFor возвращает клетки для выбранного фильтра: объединённый вид для
// AnyStaff либо клетки конкретного специалиста.
func SlotsFor(entries []StaffAvailability, staffID string) []TimeSlot {
	if staffID == AnyStaff {
		return UnifiedSlots(entries)
	}
	for _, entry := range entries {
		if entry.Staff.ID == staffID {
			return entry.TimeSlots
		}
	}
	return nil
}

// IsPast: прошло ли время слота. Проверяется только когда искомая дата —
// сегодня; будущие даты никогда не "в прошлом".
func IsPast(date, t string, now time.Time) bool {
	if date != now.Format("2006-01-02") {
		return false
	}
	nowMin := now.Hour()*60 + now.Minute()
	return ToMinutes(t) <= nowMin
}

// fits: влезает ли сеанс длительностью duration, начиная со слота slot,
// в расписание специалиста entry. Порядок проверок: граница закрытия,
// пересечение с занятыми интервалами, флаг бэкенда.
func fits(entry StaffAvailability, slot TimeSlot, duration int) bool {
	start := ToMinutes(slot.Time)
	end := start + duration
	if end > closingMinute {
		return false
	}
	for _, r := range entry.BookedRanges {
		if Overlaps(start, end, r) {
			return false
		}
	}
	return slot.Available
}

// Selectable: можно ли выбрать время t длительностью duration на дату date
// при фильтре staffID. Смена duration обязана переоценивать каждый кандидат:
// старт, валидный для 60 минут, может не влезть для 120.
func Selectable(entries []StaffAvailability, date, t string, duration int, staffID string, now time.Time) bool {
	if IsPast(date, t, now) {
		return false
	}
	if staffID == AnyStaff {
		for _, entry := range entries {
			if slot, ok := slotAt(entry, t); ok && fits(entry, slot, duration) {
				return true
			}
		}
		return false
	}
	for _, entry := range entries {
		if entry.Staff.ID != staffID {
			continue
		}
		slot, ok := slotAt(entry, t)
		return ok && fits(entry, slot, duration)
	}
	return false
}

// ResolveStaff назначает специалиста для режима AnyStaff: первый по порядку
// выдачи бэкенда, у кого слот t проходит под duration. Это осознанная
// детерминированная политика "первый подходящий", а не ранжирование.
func ResolveStaff(entries []StaffAvailability, t string, duration int) *Staff {
	for _, entry := range entries {
		if slot, ok := slotAt(entry, t); ok && fits(entry, slot, duration) {
			staff := entry.Staff
			return &staff
		}
	}
	return nil
}

func slotAt(entry StaffAvailability, t string) (TimeSlot, bool) {
	for _, slot := range entry.TimeSlots {
		if slot.Time == t {
			return slot, true
		}
	}
	return TimeSlot{}, false
}
