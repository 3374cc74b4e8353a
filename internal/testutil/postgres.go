//go:build integration

// Package testutil starts throwaway PostgreSQL instances for integration tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/bookmarks/internal/config"
	"github.com/vadimbarashkov/bookmarks/pkg/postgres"
)

// migrationsPath returns the file:// source of the repository's migrations
// regardless of the working directory of the test binary.
func migrationsPath(t testing.TB) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to resolve testutil source path")
	}

	root := filepath.Join(filepath.Dir(file), "..", "..")
	return "file://" + filepath.ToSlash(filepath.Join(root, "migrations"))
}

// NewPostgres starts a postgres container, applies all migrations and returns a
// connected pool. Everything is torn down when the test finishes.
func NewPostgres(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "bookmarks"

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	pgPort, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := config.Postgres{
		User:     pgUser,
		Password: pgPassword,
		Host:     pgHost,
		Port:     pgPort.Int(),
		DB:       pgDB,
		SSLMode:  "disable",
	}

	if _, err := postgres.RunMigrations(migrationsPath(t), cfg.DSN()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := postgres.New(ctx, cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// Truncate empties the bookmarks table and resets its identity sequence.
func Truncate(t testing.TB, db *sqlx.DB) {
	t.Helper()

	if _, err := db.Exec(`TRUNCATE TABLE bookmarks RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("Failed to clean bookmarks table: %v", err)
	}
}
