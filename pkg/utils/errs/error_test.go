package errs

import (
	"errors"
	"testing"
)

func TestUserTextOnlyUserMarked(t *testing.T) {
	// Служебное сообщение не помечено — в чат идёт fallback.
	if got := UserText(New("request failed"), "Не получилось"); got != "Не получилось" {
		t.Errorf("служебное сообщение не должно показываться: %q", got)
	}

	// Помеченное сообщение показывается как есть.
	if got := UserText(New("Slot already taken").User(), "Не получилось"); got != "Slot already taken" {
		t.Errorf("помеченное сообщение показывается как есть: %q", got)
	}

	// Помеченное сообщение находится и глубже в цепочке.
	wrapped := New("retry exhausted").Wrap(New("Нет свободного специалиста").User())
	if got := UserText(wrapped, "Не получилось"); got != "Нет свободного специалиста" {
		t.Errorf("поиск по цепочке: %q", got)
	}

	// Обычные ошибки всегда дают fallback.
	if got := UserText(errors.New("dial tcp: timeout"), "Не получилось"); got != "Не получилось" {
		t.Errorf("стандартная ошибка даёт fallback: %q", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	inner := New("inner")
	outer := New("outer").Wrap(inner)
	if !errors.Is(outer, inner) {
		t.Error("Wrap должен раскрываться через errors.Is")
	}
}
