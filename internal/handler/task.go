package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/repo"
	"github.com/BuzzLyutic/things/internal/service"
	"github.com/BuzzLyutic/things/internal/session"
	"github.com/BuzzLyutic/things/internal/tasklist"
	"github.com/BuzzLyutic/things/pkg/respond"
)

const (
	maxBodyBytes  = 1 << 20
	maxPendingLen = 100
)

type TaskHandler struct {
	presenter *tasklist.Presenter
	auth      *service.AuthService
	pages     *renderer
	logger    *zap.Logger
}

func NewTaskHandler(presenter *tasklist.Presenter, auth *service.AuthService, pages *renderer, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		presenter: presenter,
		auth:      auth,
		pages:     pages,
		logger:    logger,
	}
}

type homeVM struct {
	baseVM
	UserName    string
	Page        tasklist.Page
	Views       []model.View
	Error       string
	FieldErrors map[string]string
}

// Home renders the owner's task list for the requested view.
func (h *TaskHandler) Home(w http.ResponseWriter, r *http.Request) {
	view := model.ParseView(r.URL.Query().Get("view"))
	h.renderHome(w, r, http.StatusOK, view, "", nil)
}

// Mutate is the form-post mutation endpoint behind the home page.
func (h *TaskHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderHome(w, r, http.StatusBadRequest, model.ViewAll, "invalid form", nil)
		return
	}
	view := model.ParseView(r.PostForm.Get("view"))

	result, err := h.presenter.Submit(r.Context(), ownerFrom(r.Context()), r.PostForm.Get(model.FieldIntent), formFields(r.PostForm))
	if wantsJSON(r) {
		h.respondMutation(w, r, result, err)
		return
	}
	if err != nil {
		code, message, fields := h.classify(r, err)
		h.renderHome(w, r, code, view, message, fields)
		return
	}
	http.Redirect(w, r, "/?view="+url.QueryEscape(string(view)), http.StatusSeeOther)
}

// MutateJSON is the mutation endpoint for script clients; it always answers with an envelope.
func (h *TaskHandler) MutateJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	result, err := h.presenter.Submit(r.Context(), ownerFrom(r.Context()), r.PostForm.Get(model.FieldIntent), formFields(r.PostForm))
	h.respondMutation(w, r, result, err)
}

type listResponse struct {
	View   model.View   `json:"view"`
	Tasks  []model.Task `json:"tasks"`
	Counts model.Counts `json:"counts"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	view := model.ParseView(r.URL.Query().Get("view"))

	page, err := h.presenter.Present(r.Context(), ownerFrom(r.Context()), view, nil)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, listResponse{View: page.View, Tasks: page.Tasks(), Counts: page.Counts})
}

type previewRequest struct {
	View    string                  `json:"view"`
	Pending []model.PendingMutation `json:"pending"`
}

// Preview returns the list as it will look once the supplied in-flight mutations land.
func (h *TaskHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Pending) > maxPendingLen {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d pending mutations", maxPendingLen))
		return
	}
	for _, m := range req.Pending {
		if _, err := model.ParseIntent(string(m.Intent)); err != nil {
			h.handleErrors(w, r, err)
			return
		}
	}

	page, err := h.presenter.Present(r.Context(), ownerFrom(r.Context()), model.ParseView(req.View), req.Pending)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, page)
}

func (h *TaskHandler) respondMutation(w http.ResponseWriter, r *http.Request, result service.Result, err error) {
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, result)
}

func (h *TaskHandler) renderHome(w http.ResponseWriter, r *http.Request, code int, view model.View, message string, fields map[string]string) {
	ctx := r.Context()
	owner := ownerFrom(ctx)

	page, err := h.presenter.Present(ctx, owner, view, nil)
	if err != nil {
		h.logger.Error("failed to load tasks", zap.Error(err))
		http.Error(w, "an unexpected error occurred", http.StatusInternalServerError)
		return
	}

	vm := homeVM{
		baseVM:      baseVM{Title: "Things", Theme: session.Theme(r), ReturnTo: "/?view=" + url.QueryEscape(string(view))},
		Page:        page,
		Views:       model.Views,
		Error:       message,
		FieldErrors: fields,
	}
	if user, err := h.auth.User(ctx, owner); err == nil {
		vm.UserName = user.Name
	}
	if err := h.pages.render(w, code, "home.html", vm); err != nil {
		h.logger.Error("failed to render home", zap.Error(err))
	}
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	code, message, fields := h.classify(r, err)
	if fields != nil {
		respond.FieldErrors(w, r, code, message, fields)
		return
	}
	respond.Error(w, r, code, message)
}

// classify maps a mutation error to a status, a user-facing message and optional field messages.
// Unexpected errors are logged with the intent and owner of the request.
func (h *TaskHandler) classify(r *http.Request, err error) (int, string, map[string]string) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, fe.Message, map[string]string{fe.Field: fe.Message}
	case errors.Is(err, service.ErrUnknownIntent):
		return http.StatusBadRequest, "unknown intent", nil
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request", nil
	case errors.Is(err, repo.ErrorNotFound):
		return http.StatusNotFound, "task not found", nil
	case errors.Is(err, repo.ErrorConflict):
		return http.StatusConflict, "task already exists", nil
	default:
		h.logger.Error("internal error",
			zap.Error(err),
			zap.String("intent", r.PostForm.Get(model.FieldIntent)),
			zap.String("owner_id", ownerFrom(r.Context())),
		)
		return http.StatusInternalServerError, "an unexpected error occurred", nil
	}
}

func formFields(form url.Values) map[string]string {
	fields := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
