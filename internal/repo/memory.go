package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/things/internal/model"
)

// MemoryTaskRepo keeps tasks in process memory. It is constructed once and owns its lock; it is
// used by the memory store driver and by handler tests.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks []model.Task
	now   func() time.Time
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{now: time.Now}
}

func (r *MemoryTaskRepo) Create(_ context.Context, ownerID, id, description string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	for _, t := range r.tasks {
		if t.ID == id {
			return model.Task{}, ErrorConflict
		}
	}
	t := model.Task{
		ID:          id,
		OwnerID:     ownerID,
		Description: description,
		CreatedAt:   r.now().UTC(),
	}
	r.tasks = append(r.tasks, t)
	return t, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			r.tasks[i] = patch.Apply(t)
			return r.tasks[i], nil
		}
	}
	return model.Task{}, ErrorNotFound
}

func (r *MemoryTaskRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return ErrorNotFound
}

func (r *MemoryTaskRepo) ClearCompleted(_ context.Context, ownerID string) ([]model.Task, error) {
	return r.removeWhere(func(t model.Task) bool {
		return t.OwnerID == ownerID && t.Completed
	}), nil
}

func (r *MemoryTaskRepo) DeleteAll(_ context.Context, ownerID string) ([]model.Task, error) {
	return r.removeWhere(func(t model.Task) bool {
		return t.OwnerID == ownerID
	}), nil
}

func (r *MemoryTaskRepo) ListForOwner(_ context.Context, ownerID string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (r *MemoryTaskRepo) removeWhere(match func(model.Task) bool) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]model.Task, 0)
	kept := r.tasks[:0]
	for _, t := range r.tasks {
		if match(t) {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	r.tasks = kept
	return removed
}

type memoryAccount struct {
	user model.User
	cred model.Credential
}

type MemoryUserRepo struct {
	mu       sync.RWMutex
	accounts map[string]memoryAccount
	byEmail  map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		accounts: make(map[string]memoryAccount),
		byEmail:  make(map[string]string),
	}
}

func (r *MemoryUserRepo) CreateWithCredential(_ context.Context, u model.User, c model.Credential) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)
	if _, taken := r.byEmail[u.Email]; taken {
		return model.User{}, ErrorConflict
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	c.UserID = u.ID
	r.accounts[u.ID] = memoryAccount{user: u, cred: c}
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (model.User, model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return model.User{}, model.Credential{}, ErrorNotFound
	}
	acc := r.accounts[id]
	return acc.user, acc.cred, nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok {
		return model.User{}, ErrorNotFound
	}
	return acc.user, nil
}

func (r *MemoryUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[normalizeEmail(email)]
	return ok, nil
}

type memorySession struct {
	data      model.SessionData
	expiresAt time.Time
}

type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]memorySession)}
}

func (r *MemorySessionRepo) Create(_ context.Context, data model.SessionData, expiresAt time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.sessions[id] = memorySession{data: data, expiresAt: expiresAt}
	return id, nil
}

func (r *MemorySessionRepo) Get(_ context.Context, id string, now time.Time) (model.SessionData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.expiresAt.After(now) {
		return model.SessionData{}, ErrorNotFound
	}
	return s.data, nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if !s.expiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

var (
	_ TaskRepository    = (*MemoryTaskRepo)(nil)
	_ TaskRepository    = (*TaskRepo)(nil)
	_ UserRepository    = (*MemoryUserRepo)(nil)
	_ UserRepository    = (*UserRepo)(nil)
	_ SessionRepository = (*MemorySessionRepo)(nil)
	_ SessionRepository = (*SessionRepo)(nil)
)
