// Package testdb provides a migrated Postgres database for integration tests.
package testdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/migrations"
)

// Setup returns a pool on a migrated database. TEST_DATABASE_URL wins when set; otherwise a
// postgres container is started. The test is skipped when no docker provider is reachable.
func Setup(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		pool := connect(t, ctx, url)
		return pool, pool.Close
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool := connect(t, ctx, connStr)

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}
	return pool, cleanup
}

func connect(t *testing.T, ctx context.Context, url string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}
	if _, err := migrations.Apply(ctx, pool, zap.NewNop()); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return pool
}

// TruncateTables empties every application table.
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE tasks, sessions, passwords, users CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedUser inserts a bare account (no password) and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
	`, id, fmt.Sprintf("%s-%s@example.com", name, id[:8]), name)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// SeedTasks creates count tasks for the owner and returns their ids in creation order.
func SeedTasks(t *testing.T, pool *pgxpool.Pool, ownerID string, count int) []string {
	t.Helper()

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var id string
		err := pool.QueryRow(context.Background(), `
			INSERT INTO tasks (id, user_id, description, created_at)
			VALUES ($1, $2, $3, now() + make_interval(secs => $4))
			RETURNING id
		`, uuid.NewString(), ownerID, fmt.Sprintf("Task %d", i+1), float64(i)).Scan(&id)
		if err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// WaitForCondition polls condition until it holds or timeout passes.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
