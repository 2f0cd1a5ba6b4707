package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownIntent = errors.New("unknown intent")

// Intent names the kind of change a mutation request carries.
type Intent string

const (
	IntentCreateTask       Intent = "CREATE_TASK"
	IntentToggleCompletion Intent = "TOGGLE_COMPLETION"
	IntentEditTask         Intent = "EDIT_TASK"
	IntentSaveTask         Intent = "SAVE_TASK"
	IntentDeleteTask       Intent = "DELETE_TASK"
	IntentClearCompleted   Intent = "CLEAR_COMPLETED"
	IntentDeleteAll        Intent = "DELETE_ALL"
)

// Intents lists every recognised intent in a stable order.
var Intents = []Intent{
	IntentCreateTask,
	IntentToggleCompletion,
	IntentEditTask,
	IntentSaveTask,
	IntentDeleteTask,
	IntentClearCompleted,
	IntentDeleteAll,
}

// ParseIntent accepts only the closed set of intents above.
func ParseIntent(s string) (Intent, error) {
	for _, in := range Intents {
		if string(in) == s {
			return in, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// TargetsTask reports whether the intent acts on a single task named by id.
func (i Intent) TargetsTask() bool {
	switch i {
	case IntentToggleCompletion, IntentEditTask, IntentSaveTask, IntentDeleteTask:
		return true
	}
	return false
}

// Form field names shared by the mutation endpoint and pending mutations.
const (
	FieldIntent      = "intent"
	FieldID          = "id"
	FieldDescription = "description"
	FieldCompleted   = "completed"
)

// PendingMutation is a mutation the client has submitted but the server has not yet confirmed.
type PendingMutation struct {
	Intent      Intent            `json:"intent"`
	TaskID      string            `json:"task_id,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at,omitempty"`
}

func (m PendingMutation) Field(name string) string {
	if m.Fields == nil {
		return ""
	}
	return m.Fields[name]
}

// ID returns the task id the mutation names, falling back to the id form field.
func (m PendingMutation) ID() string {
	if m.TaskID != "" {
		return m.TaskID
	}
	return m.Field(FieldID)
}
