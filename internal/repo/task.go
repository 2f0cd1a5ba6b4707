package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/things/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = "id, user_id, description, completed, created_at, completed_at, editing"

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, ownerID, id, description string) (model.Task, error) {
	if id == "" {
		id = uuid.NewString()
	}
	t, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, user_id, description, completed)
		VALUES ($1, $2, $3, false)
		RETURNING `+taskColumns, id, ownerID, description))
	return t, mapError(err)
}

func (r *TaskRepo) Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET description  = COALESCE($3, description),
		    completed    = COALESCE($4, completed),
		    completed_at = CASE
		                       WHEN $4::boolean IS NULL THEN completed_at
		                       WHEN $4::boolean THEN $5::timestamptz
		                       ELSE NULL
		                   END,
		    editing      = COALESCE($6, editing)
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, ownerID, patch.Description, patch.Completed, patch.CompletedAt, patch.Editing))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, mapError(err)
}

func (r *TaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) ClearCompleted(ctx context.Context, ownerID string) ([]model.Task, error) {
	return r.collect(ctx, `
		DELETE FROM tasks
		WHERE user_id = $1 AND completed = true
		RETURNING `+taskColumns, ownerID)
}

func (r *TaskRepo) DeleteAll(ctx context.Context, ownerID string) ([]model.Task, error) {
	return r.collect(ctx, `
		DELETE FROM tasks
		WHERE user_id = $1
		RETURNING `+taskColumns, ownerID)
}

func (r *TaskRepo) ListForOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	return r.collect(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id
	`, ownerID)
}

func (r *TaskRepo) collect(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.CompletedAt, &t.Editing)
	return t, err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrorConflict
		case "23503":
			// foreign key violation: the owner does not exist
			return ErrorNotFound
		}
	}
	return err
}
