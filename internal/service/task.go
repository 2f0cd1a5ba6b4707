package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/repo"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownIntent  = model.ErrUnknownIntent
)

// FieldError is an ErrInvalidRequest naming the offending form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidRequest }

func missing(field string) error {
	return &FieldError{Field: field, Message: strings.ToUpper(field[:1]) + field[1:] + " is required"}
}

// Result describes what a dispatched mutation did.
type Result struct {
	Intent  model.Intent `json:"intent"`
	Task    *model.Task  `json:"task,omitempty"`
	Removed []model.Task `json:"removed,omitempty"`
}

// IntentRouter validates a mutation request and applies it through the TaskRepository.
// Validation happens before any store access, and every store call is scoped to the owner.
type IntentRouter struct {
	repo repo.TaskRepository
	now  func() time.Time
}

func NewIntentRouter(repo repo.TaskRepository) *IntentRouter {
	return &IntentRouter{repo: repo, now: time.Now}
}

func (s *IntentRouter) Dispatch(ctx context.Context, intent string, fields map[string]string, ownerID string) (Result, error) {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return Result{}, missing(model.FieldIntent)
	}
	in, err := model.ParseIntent(intent)
	if err != nil {
		return Result{}, err
	}

	req, err := validate(in, fields)
	if err != nil {
		return Result{Intent: in}, err
	}

	res := Result{Intent: in}
	switch in {
	case model.IntentCreateTask:
		t, err := s.repo.Create(ctx, ownerID, req.id, req.description)
		if err != nil {
			return res, err
		}
		res.Task = &t

	case model.IntentToggleCompletion:
		completed := !req.completed
		res.Task, err = s.update(ctx, ownerID, req.id, model.TaskPatch{
			Completed:   &completed,
			CompletedAt: s.now().UTC(),
		})

	case model.IntentEditTask:
		editing := true
		res.Task, err = s.update(ctx, ownerID, req.id, model.TaskPatch{Editing: &editing})

	case model.IntentSaveTask:
		editing := false
		res.Task, err = s.update(ctx, ownerID, req.id, model.TaskPatch{
			Description: &req.description,
			Editing:     &editing,
		})

	case model.IntentDeleteTask:
		err = s.repo.Delete(ctx, ownerID, req.id)
		if errors.Is(err, repo.ErrorNotFound) {
			err = nil
		}

	case model.IntentClearCompleted:
		res.Removed, err = s.repo.ClearCompleted(ctx, ownerID)

	case model.IntentDeleteAll:
		res.Removed, err = s.repo.DeleteAll(ctx, ownerID)
	}
	return res, err
}

func (s *IntentRouter) update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	t, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type request struct {
	id          string
	description string
	completed   bool
}

func validate(in model.Intent, fields map[string]string) (request, error) {
	var req request
	get := func(name string) string { return strings.TrimSpace(fields[name]) }

	if in.TargetsTask() {
		req.id = get(model.FieldID)
		if req.id == "" {
			return req, missing(model.FieldID)
		}
	}

	switch in {
	case model.IntentCreateTask:
		req.description = get(model.FieldDescription)
		if req.description == "" {
			return req, missing(model.FieldDescription)
		}
		if id := get(model.FieldID); id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return req, &FieldError{Field: model.FieldID, Message: "Id must be a UUID"}
			}
			req.id = id
		}

	case model.IntentToggleCompletion:
		raw := get(model.FieldCompleted)
		if raw == "" {
			return req, missing(model.FieldCompleted)
		}
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return req, &FieldError{Field: model.FieldCompleted, Message: "Completed must be true or false"}
		}
		req.completed = completed

	case model.IntentSaveTask:
		req.description = get(model.FieldDescription)
		if req.description == "" {
			return req, missing(model.FieldDescription)
		}
	}
	return req, nil
}
