package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BuzzLyutic/things/internal/config"
	"github.com/BuzzLyutic/things/internal/handler"
	"github.com/BuzzLyutic/things/internal/repo"
	"github.com/BuzzLyutic/things/internal/service"
	"github.com/BuzzLyutic/things/internal/session"
	"github.com/BuzzLyutic/things/internal/tasklist"
	"github.com/BuzzLyutic/things/internal/worker"
	"github.com/BuzzLyutic/things/migrations"
)

var rootCmd = &cobra.Command{
	Use:          "things",
	Short:        "Personal to-do list web application",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type stores struct {
	tasks    repo.TaskRepository
	users    repo.UserRepository
	sessions repo.SessionRepository
	ping     func(ctx context.Context) error
	close    func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("Using the in-memory store; data is lost on restart")
		return stores{
			tasks:    repo.NewMemoryTaskRepo(),
			users:    repo.NewMemoryUserRepo(),
			sessions: repo.NewMemorySessionRepo(),
			close:    func() {},
		}, nil
	}

	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return stores{}, err
	}
	if _, err := migrations.Apply(ctx, pool, logger); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("apply migrations: %w", err)
	}
	return stores{
		tasks:    repo.NewTaskRepo(pool),
		users:    repo.NewUserRepo(pool),
		sessions: repo.NewSessionRepo(pool),
		ping:     pool.Ping,
		close:    pool.Close,
	}, nil
}

func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Successfully connected to the Database!")
	return pool, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.StoreDriver != config.DriverPostgres {
		return errors.New("migrate requires STORE_DRIVER=postgres")
	}

	ctx := cmd.Context()
	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := migrations.Apply(ctx, pool, logger)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.Int("count", n))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	sessions, err := session.NewManager(st.sessions, session.Options{
		Secrets: cfg.SessionSecrets,
		TTL:     cfg.SessionTTL,
		Secure:  cfg.CookieSecure,
	})
	if err != nil {
		return err
	}

	router, err := handler.NewRouter(handler.Deps{
		Presenter: tasklist.NewPresenter(st.tasks, service.NewIntentRouter(st.tasks)),
		Auth:      service.NewAuthService(st.users, service.NewPasswordHasher(), logger),
		Sessions:  sessions,
		Logger:    logger,
		Ping:      st.ping,
	})
	if err != nil {
		return err
	}

	sweeper := worker.NewSweeper(st.sessions, logger, cfg.SweepSchedule)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start session sweeper: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			logger.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
		"session-sweeper": func(ctx context.Context) error {
			cancel()
			return sweeper.Stop(ctx)
		},
	})

	code := <-wait
	logger.Info("Server stopped", zap.Int("exit_code", code))
	if code != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", code)
	}
	return nil
}
