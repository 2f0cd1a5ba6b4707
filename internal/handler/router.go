package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/internal/service"
	"github.com/BuzzLyutic/things/internal/session"
	"github.com/BuzzLyutic/things/internal/tasklist"
	"github.com/BuzzLyutic/things/pkg/respond"
)

type Deps struct {
	Presenter *tasklist.Presenter
	Auth      *service.AuthService
	Sessions  *session.Manager
	Logger    *zap.Logger
	// Ping reports store health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) (http.Handler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	tasks := NewTaskHandler(d.Presenter, d.Auth, pages, d.Logger)
	auth := NewAuthHandler(d.Auth, d.Sessions, pages, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", health(d.Ping))

	r.Get("/signup", auth.SignUpPage)
	r.Post("/signup", auth.SignUp)
	r.Get("/signin", auth.SignInPage)
	r.Post("/signin", auth.SignIn)
	r.Post("/actions/signout", auth.SignOut)
	r.Post("/actions/theme", auth.Theme)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOwner(false))
		r.Get("/", tasks.Home)
		r.Post("/", tasks.Mutate)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(auth.RequireOwner(true))
		r.Get("/", tasks.List)
		r.Post("/", tasks.MutateJSON)
		r.Post("/preview", tasks.Preview)
	})

	return r, nil
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type ctxKey int

const ownerKey ctxKey = 0

func withOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

func ownerFrom(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey).(string)
	return id
}
