package portal

import (
	"context"
	"net/url"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

func (c *Client) AdminStaff(ctx context.Context, token string) ([]model.StaffInfo, error) {
	var out []model.StaffInfo
	if err := c.get(ctx, "/admin/staff", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminCreateStaff(ctx context.Context, token string, in model.StaffInput) (*model.StaffInfo, error) {
	var out model.StaffInfo
	if err := c.post(ctx, "/admin/staff", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUpdateStaff(ctx context.Context, token, staffID string, in model.StaffInput) error {
	return c.put(ctx, pathID("/admin/staff/%s", staffID), token, in, nil)
}

func (c *Client) AdminDeleteStaff(ctx context.Context, token, staffID string) error {
	return c.delete(ctx, pathID("/admin/staff/%s", staffID), token)
}

// AdminAvailability — слоты всех специалистов за диапазон дат включительно.
func (c *Client) AdminAvailability(ctx context.Context, token, startDate, endDate string) ([]model.StaffDayAvailability, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var out []model.StaffDayAvailability
	if err := c.get(ctx, "/admin/availability", token, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminSetAvailability задаёт слоты специалиста на дату целиком;
// пустой список снимает доступность.
func (c *Client) AdminSetAvailability(ctx context.Context, token string, in model.AvailabilityInput) error {
	return c.post(ctx, "/admin/availability", token, in, nil)
}

// AdminBookings — очередь заявок; обычно запрашивается с фильтром PENDING.
func (c *Client) AdminBookings(ctx context.Context, token, status string) ([]model.Booking, error) {
	var q url.Values
	if status != "" {
		q = url.Values{}
		q.Set("status", status)
	}
	var out []model.Booking
	if err := c.get(ctx, "/admin/bookings", token, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminBookingsRange — заявки за диапазон дат (экран календаря доступности).
func (c *Client) AdminBookingsRange(ctx context.Context, token, startDate, endDate string) ([]model.Booking, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var out []model.Booking
	if err := c.get(ctx, "/admin/bookings", token, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/// AdminRescheduleBooking переносит сеанс: новый специалист, время, длительность.
func (c *Client) AdminRescheduleBooking(ctx context.Context, token, bookingID string, req model.RescheduleRequest) error {
	return c.patch(ctx, pathID("/admin/bookings/%s", bookingID), token, req, nil)
}

func (c *Client) AdminCancelBooking(ctx context.Context, token, bookingID string) error {
	return c.patch(ctx, pathID("/admin/bookings/%s/cancel", bookingID), token, nil, nil)
}

func (c *Client) AdminApproveBooking(ctx context.Context, token, bookingID string, req model.ApproveRequest) error {
	return c.patch(ctx, pathID("/admin/bookings/%s/approve", bookingID), token, req, nil)
}

func (c *Client) AdminRejectBooking(ctx context.Context, token, bookingID string) error {
	return c.patch(ctx, pathID("/admin/bookings/%s/reject", bookingID), token, nil, nil)
}
