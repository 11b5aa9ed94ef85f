package portal

import (
	"context"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, mobile, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.post(ctx, "/auth/login", "", loginRequest{Mobile: mobile, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, mobile, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.post(ctx, "/auth/register", "", registerRequest{Name: name, Mobile: mobile, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me — проба сохранённого токена: кто я по мнению бэкенда.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var out model.User
	if err := c.get(ctx, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
