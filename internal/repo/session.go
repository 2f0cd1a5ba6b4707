package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/things/internal/model"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, data model.SessionData, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
	`, id, payload, expiresAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *SessionRepo) Get(ctx context.Context, id string, now time.Time) (model.SessionData, error) {
	var (
		data    model.SessionData
		payload []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT data FROM sessions WHERE id = $1 AND expires_at > $2
	`, id, now).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return data, ErrorNotFound
	}
	if err != nil {
		return data, err
	}
	return data, json.Unmarshal(payload, &data)
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
