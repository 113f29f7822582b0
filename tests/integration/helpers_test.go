//go:build integration

package integration

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/apidockhq/apidock/pkg/api"
	"github.com/apidockhq/apidock/pkg/auth"
	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// setupPostgres starts a disposable PostgreSQL container, runs all
// migrations, and returns a connected pool plus a cleanup function.
func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("apidock_test"),
		postgres.WithUsername("apidock"),
		postgres.WithPassword("apidock_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, reputation.NewSQLStore(db).Migrate(ctx))
	require.NoError(t, wiki.NewSQLPageStore(db).Migrate(ctx))
	require.NoError(t, auth.NewSQLService(db).Migrate(ctx))

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database: %v", err)
		}
		// Fresh context: the test's context may already be cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

// testStack bundles the full service stack wired over one database
type testStack struct {
	db      *sql.DB
	ledger  *reputation.Ledger
	wikiSvc *wiki.Service
	authSvc *auth.SQLService
	httpSrv *httptest.Server
}

// newTestStack wires the production components over the given database
// and exposes them through a real HTTP listener.
func newTestStack(t *testing.T, db *sql.DB) *testStack {
	t.Helper()

	calc, err := reputation.NewCalculator(reputation.DefaultThresholds())
	require.NoError(t, err)
	ledger := reputation.NewLedger(
		reputation.NewSQLStore(db),
		reputation.NewPointsConfig(reputation.DefaultPointValues(), nil),
		calc,
	)

	validator := wiki.NewValidator(wiki.DefaultPolicy())
	wikiSvc := wiki.NewService(wiki.NewSQLPageStore(db), validator, ledger)
	authSvc := auth.NewSQLService(db)

	logger := observability.NewLogger(observability.ErrorLevel, nil)
	server := api.NewServer(ledger, wikiSvc, validator, authSvc, logger)
	httpSrv := httptest.NewServer(server.Handler())
	t.Cleanup(httpSrv.Close)

	return &testStack{
		db:      db,
		ledger:  ledger,
		wikiSvc: wikiSvc,
		authSvc: authSvc,
		httpSrv: httpSrv,
	}
}

// seedUser inserts a user and issues a bearer token for it
func seedUser(t *testing.T, stack *testStack, id int64, username string, isAdmin bool) string {
	t.Helper()
	ctx := context.Background()

	_, err := stack.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, is_admin, is_active, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5)`,
		id, username, username+"@example.com", isAdmin, time.Now().UTC(),
	)
	require.NoError(t, err)

	_, token, err := stack.authSvc.CreateToken(ctx, id, "integration", nil)
	require.NoError(t, err)
	return token
}
