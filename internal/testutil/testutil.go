// Package testutil starts the backing services used by the integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	database "github.com/sebuszqo/FinanceManager/db"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewPostgres returns a migrated database. TEST_DATABASE_URL points the tests at an existing
// server; otherwise a disposable postgres container is started and removed on cleanup.
func NewPostgres(t testing.TB) *database.DBService {
	t.Helper()
	ctx := context.Background()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		container, err := postgres.RunContainer(ctx,
			testcontainers.WithImage("postgres:16-alpine"),
			postgres.WithDatabase("finance_test"),
			postgres.WithUsername("finance"),
			postgres.WithPassword("finance"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("failed to terminate postgres container: %v", err)
			}
		})

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("postgres connection string: %v", err)
		}
	}

	if err := database.Migrate(connStr, DiscardLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dbService, err := database.NewDBService(ctx, connStr, database.Options{MaxOpenConns: 20})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { dbService.Close() })

	if _, err := dbService.DB.ExecContext(ctx, "TRUNCATE user_categories"); err != nil {
		t.Fatalf("truncate user_categories: %v", err)
	}
	return dbService
}

// NewRedis returns a client for a flushed Redis database, from TEST_REDIS_URL or a container.
func NewRedis(t testing.TB) *redis.Client {
	t.Helper()
	ctx := context.Background()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
		if err != nil {
			t.Skipf("redis container unavailable: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("failed to terminate redis container: %v", err)
			}
		})

		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			t.Fatalf("redis endpoint: %v", err)
		}
		redisURL = fmt.Sprintf("redis://%s/0", endpoint)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}
