package model

import (
	"context"
	"time"
)

// Роли пользователей портала. Роль выдаёт бэкенд, бот только маршрутизирует
// меню по ней.
const (
	RoleClient = "CLIENT"
	RoleStaff  = "STAFF"
	RoleAdmin  = "ADMIN"
)

// Статусы заявки. Назначает и меняет их только бэкенд.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Role   string `json:"role"`
}

// AuthResponse — ответ бэкенда на логин/регистрацию: непрозрачный
// bearer-токен и профиль.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ClientInfo struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

type StaffInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Booking — заявка, как её отдаёт бэкенд.
type Booking struct {
	ID       string     `json:"id"`
	Client   ClientInfo `json:"client"`
	Staff    *StaffInfo `json:"staff,omitempty"`
	StaffID  string     `json:"staffId"`
	Date     string     `json:"date"`
	SlotTime string     `json:"slotTime"`
	Duration int        `json:"duration"`
	Status   string     `json:"status"`
	Message  string     `json:"message,omitempty"`
}

// BookingRequest — тело POST /client/bookings. Проверяется валидатором до
// любого сетевого вызова.
type BookingRequest struct {
	StaffID  string  `json:"staffId" validate:"required"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	SlotTime string  `json:"slotTime" validate:"required,datetime=15:04"`
	Duration int     `json:"duration" validate:"required,oneof=60 90 120"`
	Message  *string `json:"message"`
}

// StaffInput — тело создания/правки специалиста админом.
type StaffInput struct {
	Name  string `json:"name" validate:"required"`
	State string `json:"state" validate:"required"`
}

// ApproveRequest — подтверждение заявки админом с финальным специалистом.
type ApproveRequest struct {
	StaffID  string `json:"staffId" validate:"required"`
	SlotTime string `json:"slotTime" validate:"required"`
}

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// StaffDayAvailability — слоты одного специалиста на одну дату из админского
// календаря. Бэкенд может прислать дату ISO-временем, сравнивать через DateOnly.
type StaffDayAvailability struct {
	StaffID string   `json:"staffId"`
	Date    string   `json:"date"`
	Slots   []string `json:"slots"`
}

// DateOnly — YYYY-MM-DD из даты, которая может прийти ISO-временем.
func (a StaffDayAvailability) DateOnly() string {
	if len(a.Date) > 10 {
		return a.Date[:10]
	}
	return a.Date
}

// AvailabilityInput — тело POST /admin/availability: полный набор слотов
// специалиста на дату. Пустой Slots снимает доступность.
type AvailabilityInput struct {
	StaffID string   `json:"staffId" validate:"required"`
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Slots   []string `json:"slots"`
}

// RescheduleRequest — перенос сеанса админом на другого специалиста и время.
type RescheduleRequest struct {
	StaffID  string `json:"staffId" validate:"required"`
	SlotTime string `json:"slotTime" validate:"required"`
	Duration int    `json:"duration" validate:"required,oneof=60 90 120"`
}

// DayAvailability — слоты специалиста на одну дату в его собственном расписании.
type DayAvailability struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// StaffSchedule — ответ GET /staff/schedule за диапазон дат.
type StaffSchedule struct {
	Availability []DayAvailability `json:"availability"`
	Bookings     []Booking         `json:"bookings"`
}

// PortalSession — то, что бот хранит локально per-пользователь: токен и
// профиль. Черновики заявок сюда не попадают, они живут только в памяти.
type PortalSession struct {
	TgUserID int64
	TgChatID int64
	Token    string
	User     *User
}

// SessionRepo — локальное хранилище сессий портала.
type SessionRepo interface {
	Load(ctx context.Context, tgUserID int64) (*PortalSession, error)
	Save(ctx context.Context, s PortalSession) error
	ClearToken(ctx context.Context, tgUserID int64) error
}
