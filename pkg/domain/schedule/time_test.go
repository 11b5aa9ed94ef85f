package schedule

import "testing"

func TestFormatAMPM(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:00", "12:00 AM"},
		{"00:15", "12:15 AM"},
		{"11:00", "11:00 AM"},
		{"12:00", "12:00 PM"},
		{"12:30", "12:30 PM"},
		{"13:00", "1:00 PM"},
		{"14:30", "2:30 PM"},
		{"23:45", "11:45 PM"},
		// кривой ввод возвращается как есть
		{"", ""},
		{"25:00", "25:00"},
		{"abc", "abc"},
		{"12", "12"},
		{"12:xx", "12:xx"},
	}
	for _, tt := range tests {
		if got := FormatAMPM(tt.in); got != tt.want {
			t.Errorf("FormatAMPM(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddMinutes(t *testing.T) {
	tests := []struct {
		in      string
		minutes int
		want    string
	}{
		{"11:00", 60, "12:00"},
		{"20:00", 60, "21:00"},
		{"19:15", 120, "21:15"},
		{"23:30", 90, "01:00"}, // через полночь
		{"00:00", 1440, "00:00"},
		{"10:45", 15, "11:00"},
	}
	for _, tt := range tests {
		if got := AddMinutes(tt.in, tt.minutes); got != tt.want {
			t.Errorf("AddMinutes(%q, %d) = %q, want %q", tt.in, tt.minutes, got, tt.want)
		}
	}
}

func TestToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"11:00", 660},
		{"19:15", 1155},
		{"20:45", 1245},
		{"", 0},
		{"xx:30", 30},
	}
	for _, tt := range tests {
		if got := ToMinutes(tt.in); got != tt.want {
			t.Errorf("ToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
