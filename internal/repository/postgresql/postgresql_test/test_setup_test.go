package postgresql_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

// TestMain connects to TEST_DATABASE_URL, or starts a disposable PostgreSQL container.
// Every test in the package is skipped when neither is available.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	var container testcontainers.Container
	if dsn == "" {
		var err error
		container, dsn, err = startPostgres(ctx)
		if err != nil {
			slog.Warn("postgres unavailable, repository tests will be skipped", "error", err)
		}
	}

	if dsn != "" {
		db, err := database.NewPostgreSQLDB(dsn)
		if err != nil {
			slog.Warn("failed to connect to test database", "error", err)
		} else if err := postgresql.Migrate(ctx, db); err != nil {
			slog.Warn("failed to migrate test database", "error", err)
			db.Close()
		} else {
			testDB = db
		}
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			slog.Warn("failed to terminate postgres container", "error", err)
		}
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "attendance_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container, "", fmt.Errorf("failed to get mapped port: %w", err)
	}

	return container, fmt.Sprintf("postgres://postgres:postgres@%s:%s/attendance_test?sslmode=disable", host, port.Port()), nil
}

// setupTestDatabase skips the test without a database and truncates every table.
func setupTestDatabase(t *testing.T) *database.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("no PostgreSQL available: set TEST_DATABASE_URL or run Docker")
	}

	_, err := testDB.Exec(context.Background(), `TRUNCATE TABLE
		audit_logs, leave_balance_entries, leave_applications, leave_balances,
		attendances, employees, holidays, weekly_offs, branch_settings, branches CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return testDB
}
