package authpage_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	authpage "github.com/goliatone/go-authpage"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func init() {
	authpage.SetPasswordHashCost(4)
}

// MockAuthenticator implements authpage.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, email, username, password string) (string, error) {
	args := m.Called(ctx, email, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, email, username, password string, pc authpage.PageContext) (string, error) {
	args := m.Called(ctx, email, username, password, pc)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (authpage.Session, error) {
	args := m.Called(token)
	session, _ := args.Get(0).(authpage.Session)
	return session, args.Error(1)
}

// MockUsers implements authpage.Users. Repository methods the tests do not
// stub fall through to the nil embedded interface.
type MockUsers struct {
	mock.Mock
	authpage.Users
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*authpage.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*authpage.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *authpage.User, _ ...repository.InsertCriteria) (*authpage.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*authpage.User)
	return user, args.Error(1)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *authpage.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *authpage.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUsers) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, bun.Tx{})
}

// testConfig implements authpage.Config
type testConfig struct {
	signingKey  string
	contextKey  string
	expiration  int
	issuer      string
	audience    []string
	submitDelay time.Duration
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey: "test-signing-key",
		contextKey: "auth_token",
		expiration: 1,
		issuer:     "go-authpage-test",
		audience:   []string{"notes"},
	}
}

func (c *testConfig) GetSigningKey() string         { return c.signingKey }
func (c *testConfig) GetContextKey() string         { return c.contextKey }
func (c *testConfig) GetTokenExpiration() int       { return c.expiration }
func (c *testConfig) GetIssuer() string             { return c.issuer }
func (c *testConfig) GetAudience() []string         { return c.audience }
func (c *testConfig) GetSubmitDelay() time.Duration { return c.submitDelay }

// recordingLogger keeps every message it receives
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg) }

func (l *recordingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// newTestDB returns a migrated in-memory database
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, authpage.Migrate(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// newRouterServer returns a fiber backed router server, with the auth views
// loaded when views is set
func newRouterServer(views bool) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		cfg := fiber.Config{PassLocalsToViews: true}
		if views {
			cfg.Views = authpage.NewViewEngine(false)
		}
		return fiber.New(cfg)
	})
}
