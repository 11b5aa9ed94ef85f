package portal

import (
	"context"
	"net/url"

	"github.com/napryag/tg_wellness_bot/pkg/domain/schedule"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

// StaffAvailable — предложения всех специалистов на дату (YYYY-MM-DD).
func (c *Client) StaffAvailable(ctx context.Context, token, date string) ([]schedule.StaffAvailability, error) {
	q := url.Values{}
	q.Set("date", date)
	var out []schedule.StaffAvailability
	if err := c.get(ctx, "/client/staff-available", token, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBooking отправляет заявку. Принять или отклонить её — дело бэкенда:
// два клиента могли увидеть один и тот же слот свободным, второй получит отказ.
func (c *Client) CreateBooking(ctx context.Context, token string, req model.BookingRequest) (*model.Booking, error) {
	var out model.Booking
	if err := c.post(ctx, "/client/bookings", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyBookings — заявки текущего клиента со статусами.
func (c *Client) MyBookings(ctx context.Context, token string) ([]model.Booking, error) {
	var out []model.Booking
	if err := c.get(ctx, "/client/bookings", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
