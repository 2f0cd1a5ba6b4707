package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/service"
	"github.com/BuzzLyutic/things/internal/session"
	"github.com/BuzzLyutic/things/pkg/respond"
)

// Messages shown on the credential forms.
const (
	msgBadCredentials = "Incorrect email or password"
	msgEmailTaken     = "The email address is already taken"
	msgUnexpected     = "An unexpected error occurred"
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	pages    *renderer
	logger   *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, pages *renderer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}
}

type authVM struct {
	baseVM
	Name        string
	Email       string
	Error       string
	FieldErrors map[string]string
}

// RequireOwner resolves the session into an owner id. Pages redirect to /signin and API routes get a
// 401 envelope; either way a stale cookie is cleared.
func (h *AuthHandler) RequireOwner(api bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := h.sessions.CurrentOwnerID(r)
			if err != nil {
				if !errors.Is(err, session.ErrUnauthenticated) {
					h.logger.Error("failed to load session", zap.Error(err))
				}
				h.sessions.Clear(w)
				if api {
					respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
					return
				}
				http.Redirect(w, r, "/signin", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
		})
	}
}

func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, http.StatusOK, "signup.html", "Sign up", authVM{})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, "signup.html", "Sign up", authVM{Error: "invalid form"})
		return
	}
	vm := authVM{Name: r.PostForm.Get("name"), Email: r.PostForm.Get("email")}

	_, err := h.auth.CreateAccount(r.Context(), vm.Name, vm.Email, r.PostForm.Get("password"))
	if err != nil {
		code := h.formError(&vm, err)
		h.renderForm(w, r, code, "signup.html", "Sign up", vm)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, http.StatusOK, "signin.html", "Sign in", authVM{})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, "signin.html", "Sign in", authVM{Error: "invalid form"})
		return
	}
	vm := authVM{Email: r.PostForm.Get("email")}

	owner, err := h.auth.Authenticate(r.Context(), vm.Email, r.PostForm.Get("password"))
	if err != nil {
		code := h.formError(&vm, err)
		h.renderForm(w, r, code, "signin.html", "Sign in", vm)
		return
	}

	if err := h.sessions.Commit(r.Context(), w, r, owner); err != nil {
		h.logger.Error("failed to commit session", zap.Error(err))
		vm.Error = msgUnexpected
		h.renderForm(w, r, http.StatusInternalServerError, "signin.html", "Sign in", vm)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Error("failed to destroy session", zap.Error(err))
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// Theme stores the theme preference and sends the browser back where it came from.
func (h *AuthHandler) Theme(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	theme := model.Theme(r.PostForm.Get("theme"))
	if !theme.Valid() {
		respond.Error(w, r, http.StatusBadRequest, "invalid theme")
		return
	}
	session.SetTheme(w, theme)
	http.Redirect(w, r, session.SafeRedirect(r.PostForm.Get("returnTo")), http.StatusSeeOther)
}

func (h *AuthHandler) signedIn(r *http.Request) bool {
	_, err := h.sessions.CurrentOwnerID(r)
	return err == nil
}

// formError fills vm from a credential flow error and returns the status to render with. Store
// failures were already logged and redacted by the auth service.
func (h *AuthHandler) formError(vm *authVM, err error) int {
	var fields service.FormErrors
	switch {
	case errors.As(err, &fields):
		vm.FieldErrors = fields
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		vm.FieldErrors = map[string]string{"email": msgEmailTaken}
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		vm.Error = msgBadCredentials
		return http.StatusBadRequest
	default:
		vm.Error = msgUnexpected
		return http.StatusInternalServerError
	}
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, code int, name, title string, vm authVM) {
	vm.baseVM = baseVM{Title: title, Theme: session.Theme(r), ReturnTo: r.URL.Path}
	if err := h.pages.render(w, code, name, vm); err != nil {
		h.logger.Error("failed to render page", zap.Error(err), zap.String("page", name))
	}
}
