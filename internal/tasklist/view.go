package tasklist

import "github.com/BuzzLyutic/things/internal/model"

// Visible returns the tasks the view shows, in their original order.
func Visible(tasks []model.Task, view model.View) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		switch view {
		case model.ViewActive:
			if t.Completed {
				continue
			}
		case model.ViewCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func CountTasks(tasks []model.Task) model.Counts {
	c := model.Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Remaining = c.Total - c.Completed
	if c.Total > 0 {
		c.PercentComplete = float64(c.Completed) / float64(c.Total) * 100
	}
	return c
}
