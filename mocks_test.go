package identity_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-identity"
)

// MockUserStore implements identity.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetByEmailFingerprint(ctx context.Context, fingerprint string) (*identity.User, error) {
	args := m.Called(ctx, fingerprint)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, record *identity.User) (*identity.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, id uuid.UUID, update identity.UserUpdate) (*identity.User, error) {
	args := m.Called(ctx, id, update)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

// MockMailer implements identity.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg identity.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTokenService implements identity.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueAccessToken(id uuid.UUID, email string) (string, error) {
	args := m.Called(id, email)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueRefreshToken(id uuid.UUID, email string) (string, error) {
	args := m.Called(id, email)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateAccessToken(raw string) (*identity.TokenClaims, error) {
	args := m.Called(raw)
	claims, _ := args.Get(0).(*identity.TokenClaims)
	return claims, args.Error(1)
}

func (m *MockTokenService) ValidateRefreshToken(raw string) (*identity.TokenClaims, error) {
	args := m.Called(raw)
	claims, _ := args.Get(0).(*identity.TokenClaims)
	return claims, args.Error(1)
}

// testConfig implements identity.Config with fixed values
type testConfig struct {
	accessKey  string
	refreshKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   []string
	mailSender string
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessKey:  "access-signing-secret",
		refreshKey: "refresh-signing-secret",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		issuer:     "identity-test",
		audience:   []string{"identity-clients"},
		mailSender: "noreply@example.com",
	}
}

func (c *testConfig) GetAccessSigningKey() string            { return c.accessKey }
func (c *testConfig) GetAccessTokenDuration() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshSigningKey() string           { return c.refreshKey }
func (c *testConfig) GetRefreshTokenDuration() time.Duration { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                      { return c.issuer }
func (c *testConfig) GetAudience() []string                  { return c.audience }
func (c *testConfig) GetMailSender() string                  { return c.mailSender }

// silentLogger swallows log output during tests
type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}
