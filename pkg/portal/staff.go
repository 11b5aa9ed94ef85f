package portal

import (
	"context"
	"net/url"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

// StaffBookings — заявки, назначенные текущему специалисту.
// Пустой status — без фильтра.
func (c *Client) StaffBookings(ctx context.Context, token, status string) ([]model.Booking, error) {
	var q url.Values
	if status != "" {
		q = url.Values{}
		q.Set("status", status)
	}
	var out []model.Booking
	if err := c.get(ctx, "/staff/bookings", token, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StaffSchedule — доступность и сеансы специалиста за диапазон дат включительно.
func (c *Client) StaffSchedule(ctx context.Context, token, startDate, endDate string) (*model.StaffSchedule, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var out model.StaffSchedule
	if err := c.get(ctx, "/staff/schedule", token, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
