package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

// PGRepo хранит сессии портала (токен + профиль) per-пользователь Telegram.
// Черновики и состояние FSM не персистятся: после рестарта бот пробует
// сохранённый токен через /auth/me и либо продолжает, либо отправляет на логин.
type PGRepo struct{ pool *pgxpool.Pool }

func NewRepo(ctx context.Context, dsn string) (*PGRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGRepo{pool: pool}, nil
}

func (r *PGRepo) Close() { r.pool.Close() }

func (r *PGRepo) Load(ctx context.Context, tgUserID int64) (*model.PortalSession, error) {
	var (
		s       model.PortalSession
		profile []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT tg_user_id, tg_chat_id, token, profile FROM portal_session WHERE tg_user_id=$1`,
		tgUserID,
	).Scan(&s.TgUserID, &s.TgChatID, &s.Token, &profile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(profile) > 0 {
		var u model.User
		if err := json.Unmarshal(profile, &u); err == nil && u.ID != "" {
			s.User = &u
		}
	}
	return &s, nil
}

func (r *PGRepo) Save(ctx context.Context, s model.PortalSession) error {
	var profile []byte
	if s.User != nil {
		profile, _ = json.Marshal(s.User)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portal_session (tg_user_id, tg_chat_id, token, profile, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (tg_user_id) DO UPDATE
		   SET tg_chat_id = EXCLUDED.tg_chat_id,
		       token      = EXCLUDED.token,
		       profile    = EXCLUDED.profile,
		       updated_at = now()
	`, s.TgUserID, s.TgChatID, s.Token, profile)
	return err
}

// ClearToken — разлогин: по явному logout либо по 401 от бэкенда.
func (r *PGRepo) ClearToken(ctx context.Context, tgUserID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE portal_session SET token='', profile=NULL, updated_at=now() WHERE tg_user_id=$1`,
		tgUserID)
	return err
}
