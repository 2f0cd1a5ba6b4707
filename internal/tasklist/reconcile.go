// Package tasklist computes what the task list should look like while mutations are still in flight.
// Everything here except Presenter is a pure function of its inputs.
package tasklist

import (
	"strconv"
	"strings"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
)

// Reconcile folds pending mutations over the confirmed list and returns the list to render.
//
// Mutations are applied one at a time in submission order, the way the server will apply them, so
// the later mutation for a task wins and a bulk removal only sees tasks as they stood when it was
// submitted. Mutations naming an unknown id are ignored. confirmed is never modified.
func Reconcile(confirmed []model.Task, pending []model.PendingMutation, now time.Time) []model.Task {
	work := make([]model.Task, len(confirmed), len(confirmed)+len(pending))
	copy(work, confirmed)

	find := func(id string) int {
		if id == "" {
			return -1
		}
		for i := range work {
			if work[i].ID == id {
				return i
			}
		}
		return -1
	}

	for i, m := range pending {
		switch m.Intent {
		case model.IntentCreateTask:
			description := strings.TrimSpace(m.Field(model.FieldDescription))
			id := ProvisionalID(m, i)
			if description == "" || find(id) >= 0 {
				continue
			}
			work = append(work, model.Task{
				ID:          id,
				Description: description,
				CreatedAt:   at(m, now),
			})

		case model.IntentToggleCompletion:
			idx := find(m.ID())
			if idx < 0 {
				continue
			}
			was, err := strconv.ParseBool(strings.TrimSpace(m.Field(model.FieldCompleted)))
			if err != nil {
				continue
			}
			completed := !was
			work[idx] = model.TaskPatch{Completed: &completed, CompletedAt: at(m, now)}.Apply(work[idx])

		case model.IntentEditTask:
			if idx := find(m.ID()); idx >= 0 {
				work[idx].Editing = true
			}

		case model.IntentSaveTask:
			idx := find(m.ID())
			description := strings.TrimSpace(m.Field(model.FieldDescription))
			if idx < 0 || description == "" {
				continue
			}
			work[idx].Description = description
			work[idx].Editing = false

		case model.IntentDeleteTask:
			if id := m.ID(); id != "" {
				work = remove(work, func(t model.Task) bool { return t.ID == id })
			}

		case model.IntentClearCompleted:
			work = remove(work, func(t model.Task) bool { return t.Completed })

		case model.IntentDeleteAll:
			work = work[:0]
		}
	}
	return work
}

// ProvisionalID is the id a pending create is shown under: the client-supplied id, or a placeholder
// derived from its position when the client sent none.
func ProvisionalID(m model.PendingMutation, index int) string {
	if id := strings.TrimSpace(m.ID()); id != "" {
		return id
	}
	return "pending-" + strconv.Itoa(index)
}

func at(m model.PendingMutation, now time.Time) time.Time {
	if !m.SubmittedAt.IsZero() {
		return m.SubmittedAt.UTC()
	}
	return now.UTC()
}

func remove(work []model.Task, match func(model.Task) bool) []model.Task {
	kept := work[:0]
	for _, t := range work {
		if !match(t) {
			kept = append(kept, t)
		}
	}
	return kept
}
