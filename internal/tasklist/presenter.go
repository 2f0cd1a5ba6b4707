package tasklist

import (
	"context"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/service"
)

type Lister interface {
	ListForOwner(ctx context.Context, ownerID string) ([]model.Task, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, intent string, fields map[string]string, ownerID string) (service.Result, error)
}

type Row struct {
	Task        model.Task `json:"task"`
	Busy        bool       `json:"busy"`
	Provisional bool       `json:"provisional"`
}

// Page is everything a renderer needs to draw the task list.
type Page struct {
	View              model.View   `json:"view"`
	Rows              []Row        `json:"rows"`
	Counts            model.Counts `json:"counts"`
	CanClearCompleted bool         `json:"can_clear_completed"`
	CanDeleteAll      bool         `json:"can_delete_all"`
}

// Tasks returns the tasks of the visible rows.
func (p Page) Tasks() []model.Task {
	out := make([]model.Task, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Task
	}
	return out
}

// Build reconciles, filters and counts. Counts cover the whole reconciled list, not just the view.
func Build(confirmed []model.Task, pending []model.PendingMutation, view model.View, now time.Time) Page {
	tasks := Reconcile(confirmed, pending, now)

	known := make(map[string]bool, len(confirmed))
	for _, t := range confirmed {
		known[t.ID] = true
	}
	busy := BusyIDs(tasks, pending)

	visible := Visible(tasks, view)
	rows := make([]Row, len(visible))
	for i, t := range visible {
		rows[i] = Row{Task: t, Busy: busy[t.ID], Provisional: !known[t.ID]}
	}

	return Page{
		View:              view,
		Rows:              rows,
		Counts:            CountTasks(tasks),
		CanClearCompleted: CanClearCompleted(tasks, pending),
		CanDeleteAll:      CanDeleteAll(tasks, pending),
	}
}

// Presenter ties the store, the intent router and the pure list functions together for one owner
// at a time.
type Presenter struct {
	tasks  Lister
	router Dispatcher
	now    func() time.Time
}

func NewPresenter(tasks Lister, router Dispatcher) *Presenter {
	return &Presenter{tasks: tasks, router: router, now: time.Now}
}

func (p *Presenter) Present(ctx context.Context, ownerID string, view model.View, pending []model.PendingMutation) (Page, error) {
	confirmed, err := p.tasks.ListForOwner(ctx, ownerID)
	if err != nil {
		return Page{}, err
	}
	return Build(confirmed, pending, view, p.now()), nil
}

func (p *Presenter) Submit(ctx context.Context, ownerID, intent string, fields map[string]string) (service.Result, error) {
	return p.router.Dispatch(ctx, intent, fields, ownerID)
}
