package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
)

// TaskRepository stores tasks. Every method is scoped to an owner: a task that belongs to someone
// else is indistinguishable from one that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, ownerID, id, description string) (model.Task, error)
	Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	ClearCompleted(ctx context.Context, ownerID string) ([]model.Task, error)
	DeleteAll(ctx context.Context, ownerID string) ([]model.Task, error)
	ListForOwner(ctx context.Context, ownerID string) ([]model.Task, error)
}

// UserRepository stores accounts and their password records.
type UserRepository interface {
	// CreateWithCredential inserts the user and its password record atomically.
	CreateWithCredential(ctx context.Context, u model.User, c model.Credential) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, model.Credential, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// SessionRepository stores server-side session payloads keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, data model.SessionData, expiresAt time.Time) (string, error)
	// Get returns ErrorNotFound for unknown and for expired sessions.
	Get(ctx context.Context, id string, now time.Time) (model.SessionData, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
