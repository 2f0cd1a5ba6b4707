package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/things/internal/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// CreateWithCredential inserts the account and its password in one transaction, so a failing
// password insert leaves no orphaned user row behind.
func (r *UserRepo) CreateWithCredential(ctx context.Context, u model.User, c model.Credential) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (id, email, name)
			VALUES ($1, $2, $3)
			RETURNING id, email, name, created_at
		`, u.ID, u.Email, u.Name).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO passwords (id, user_id, hash, salt)
			VALUES ($1, $2, $3, $4)
		`, uuid.NewString(), u.ID, c.Hash, c.Salt)
		return err
	})
	return u, mapError(err)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, model.Credential, error) {
	var (
		u model.User
		c model.Credential
	)
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.created_at, p.hash, p.salt
		FROM users u
		JOIN passwords p ON p.user_id = u.id
		WHERE u.email = $1
	`, normalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &c.Hash, &c.Salt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, c, ErrorNotFound
	}
	c.UserID = u.ID
	return u, c, err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", normalizeEmail(email),
	).Scan(&exists)
	return exists, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
