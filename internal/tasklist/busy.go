package tasklist

import "github.com/BuzzLyutic/things/internal/model"

// BusyIDs returns the ids of tasks whose controls must stay disabled until the mutations touching
// them resolve. tasks is the reconciled list.
func BusyIDs(tasks []model.Task, pending []model.PendingMutation) map[string]bool {
	busy := make(map[string]bool)
	var clearing, deletingAll bool
	for i, m := range pending {
		switch m.Intent {
		case model.IntentClearCompleted:
			clearing = true
		case model.IntentDeleteAll:
			deletingAll = true
		case model.IntentCreateTask:
			busy[ProvisionalID(m, i)] = true
		default:
			if id := m.ID(); id != "" {
				busy[id] = true
			}
		}
	}

	for _, t := range tasks {
		if deletingAll || (clearing && t.Completed) {
			busy[t.ID] = true
		}
	}
	return busy
}

// CanClearCompleted reports whether the clear-completed control should be enabled.
func CanClearCompleted(tasks []model.Task, pending []model.PendingMutation) bool {
	if hasPending(pending, model.IntentClearCompleted) {
		return false
	}
	for _, t := range tasks {
		if t.Completed {
			return true
		}
	}
	return false
}

func CanDeleteAll(tasks []model.Task, pending []model.PendingMutation) bool {
	return len(tasks) > 0 && !hasPending(pending, model.IntentDeleteAll)
}

func hasPending(pending []model.PendingMutation, in model.Intent) bool {
	for _, m := range pending {
		if m.Intent == in {
			return true
		}
	}
	return false
}
