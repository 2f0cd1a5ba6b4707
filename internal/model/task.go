package model

import "time"

type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Editing     bool       `json:"editing"`
}

// TaskPatch carries the fields an update is allowed to touch. Nil fields are left as they are.
// CompletedAt is only consulted when Completed is set.
type TaskPatch struct {
	Description *string
	Completed   *bool
	CompletedAt time.Time
	Editing     *bool
}

// Apply returns a copy of t with the patch applied, keeping completed and completed_at in step.
func (p TaskPatch) Apply(t Task) Task {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		if t.Completed {
			at := p.CompletedAt
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
	}
	if p.Editing != nil {
		t.Editing = *p.Editing
	}
	return t
}
