package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.example.com", "https://api.example.com"},
		{"http://api.example.com/", "http://api.example.com"},
		{"api.example.com", "https://api.example.com"},
		{"api.example.com///", "https://api.example.com"},
		{"  api.example.com ", "https://api.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBearerAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(model.User{ID: "u1", Role: model.RoleClient})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if _, err := c.Me(context.Background(), "tok-123"); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestNoBearerWhenEmpty(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(model.AuthResponse{Token: "t"})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if _, err := c.Login(context.Background(), "7900", "pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sawHeader {
		t.Error("логин не должен нести Authorization")
	}
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	_, err := c.MyBookings(context.Background(), "stale-token")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ошибка должна раскрываться в ErrUnauthorized: %v", err)
	}
}

func TestBackendErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Slot already taken"})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	_, err := c.CreateBooking(context.Background(), "tok", model.BookingRequest{
		StaffID: "a", Date: "2026-09-05", SlotTime: "12:00", Duration: 60,
	})
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if got := errs.UserText(err, "failed"); got != "Slot already taken" {
		t.Errorf("текст для пользователя = %q, want %q", got, "Slot already taken")
	}
}

func TestBackendErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	_, err := c.MyBookings(context.Background(), "tok")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	// Тело без error: служебное сообщение в чат не утекает, берётся fallback.
	if got := errs.UserText(err, "generic"); got != "generic" {
		t.Errorf("текст = %q", got)
	}
}

func TestIdempotencyKeyOnMutations(t *testing.T) {
	keys := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys[r.Method] = r.Header.Get("X-Idempotency-Key")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode(model.Booking{ID: "b1"})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	ctx := context.Background()
	if _, err := c.CreateBooking(ctx, "tok", model.BookingRequest{StaffID: "a", Date: "2026-09-05", SlotTime: "12:00", Duration: 60}); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := c.MyBookings(ctx, "tok"); err != nil {
		t.Fatalf("MyBookings: %v", err)
	}
	if keys[http.MethodPost] == "" {
		t.Error("POST должен нести ключ идемпотентности")
	}
	if keys[http.MethodGet] != "" {
		t.Error("GET не должен нести ключ идемпотентности")
	}
}

func TestGetRetriesOn5xx(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Booking{})
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if _, err := c.MyBookings(context.Background(), "tok"); err != nil {
		t.Fatalf("после ретрая запрос должен пройти: %v", err)
	}
	if attempts != 2 {
		t.Errorf("ожидалось 2 попытки, было %d", attempts)
	}
}

func TestMutationsDoNotRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	_, err := c.CreateBooking(context.Background(), "tok", model.BookingRequest{StaffID: "a", Date: "2026-09-05", SlotTime: "12:00", Duration: 60})
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if attempts != 1 {
		t.Errorf("мутация не ретраится: попыток %d", attempts)
	}
}

func TestAdminAvailabilityRoundTrip(t *testing.T) {
	var (
		gotQuery  string
		gotInput  model.AvailabilityInput
		gotResch  model.RescheduleRequest
		gotCancel string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/availability", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]model.StaffDayAvailability{
			{StaffID: "a", Date: "2026-09-05T00:00:00.000Z", Slots: []string{"11:00"}},
		})
	})
	mux.HandleFunc("POST /admin/availability", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotInput)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("PATCH /admin/bookings/bk1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotResch)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("PATCH /admin/bookings/bk2/cancel", func(w http.ResponseWriter, r *http.Request) {
		gotCancel = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	ctx := context.Background()

	entries, err := c.AdminAvailability(ctx, "tok", "2026-08-29", "2026-09-12")
	if err != nil {
		t.Fatalf("AdminAvailability: %v", err)
	}
	if gotQuery != "endDate=2026-09-12&startDate=2026-08-29" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(entries) != 1 || entries[0].DateOnly() != "2026-09-05" {
		t.Errorf("ISO-дата должна резаться до YYYY-MM-DD: %+v", entries)
	}

	err = c.AdminSetAvailability(ctx, "tok", model.AvailabilityInput{
		StaffID: "a", Date: "2026-09-05", Slots: []string{},
	})
	if err != nil {
		t.Fatalf("AdminSetAvailability: %v", err)
	}
	if gotInput.StaffID != "a" || gotInput.Slots == nil || len(gotInput.Slots) != 0 {
		t.Errorf("пустой набор слотов должен уйти пустым списком: %+v", gotInput)
	}

	err = c.AdminRescheduleBooking(ctx, "tok", "bk1", model.RescheduleRequest{
		StaffID: "b", SlotTime: "15:00", Duration: 90,
	})
	if err != nil {
		t.Fatalf("AdminRescheduleBooking: %v", err)
	}
	if gotResch.StaffID != "b" || gotResch.SlotTime != "15:00" || gotResch.Duration != 90 {
		t.Errorf("тело переноса = %+v", gotResch)
	}

	if err := c.AdminCancelBooking(ctx, "tok", "bk2"); err != nil {
		t.Fatalf("AdminCancelBooking: %v", err)
	}
	if gotCancel != "/admin/bookings/bk2/cancel" {
		t.Errorf("путь отмены = %q", gotCancel)
	}
}

func TestAdminUpdateStaffEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	err := c.AdminUpdateStaff(context.Background(), "tok", "id/with spaces", model.StaffInput{Name: "Амина", State: "Thai"})
	if err != nil {
		t.Fatalf("AdminUpdateStaff: %v", err)
	}
	if gotPath != "/admin/staff/id%2Fwith%20spaces" {
		t.Errorf("идентификатор должен экранироваться в пути: %q", gotPath)
	}
}

func TestStaffAvailableQuery(t *testing.T) {
	var gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, zerolog.Nop())
	if _, err := c.StaffAvailable(context.Background(), "tok", "2026-09-05"); err != nil {
		t.Fatalf("StaffAvailable: %v", err)
	}
	if gotDate != "2026-09-05" {
		t.Errorf("date = %q", gotDate)
	}
}
