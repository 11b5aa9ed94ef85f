package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// ToMinutes переводит "HH:MM" в минуту дня. Кривые компоненты считаются нулём,
// как и пустая строка.
func ToMinutes(t string) int {
	h, m := splitClock(t)
	return h*60 + m
}

// AddMinutes прибавляет минуты к "HH:MM" с переходом через полночь.
func AddMinutes(t string, minutes int) string {
	total := ToMinutes(t) + minutes
	total = ((total % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatAMPM переводит 24-часовое "HH:MM" в 12-часовой формат с AM/PM:
// "00:00" -> "12:00 AM", "14:30" -> "2:30 PM".
// Некорректный ввод возвращается как есть, без паники.
func FormatAMPM(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return t
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return t
	}

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h
	switch {
	case h == 0:
		h12 = 12
	case h > 12:
		h12 = h - 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, period)
}

func splitClock(t string) (int, int) {
	parts := strings.SplitN(t, ":", 2)
	var h, m int
	if len(parts) > 0 {
		h, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		m, _ = strconv.Atoi(parts[1])
	}
	return h, m
}
