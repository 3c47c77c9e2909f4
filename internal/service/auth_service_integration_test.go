package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/metrics"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/Baaaki/buy-sell-store/internal/testutil"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// AuthServiceIntegrationTestSuite covers registration, sessions and
// profile management.
type AuthServiceIntegrationTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis

	authService *service.AuthService
	userService *service.UserService
}

func (s *AuthServiceIntegrationTestSuite) SetupSuite() {
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())

	userRepo := repository.NewUserRepository(s.testDB.DB)
	sessions := repository.NewSessionRepository(s.testRedis.Client)
	s.authService = service.NewAuthService(userRepo, sessions, "test-secret-key", time.Hour, "development")
	s.userService = service.NewUserService(userRepo, sessions)
}

func (s *AuthServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
	s.testRedis.Teardown(s.T())
}

func (s *AuthServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()
}

func aliceInput() service.RegisterInput {
	return service.RegisterInput{
		Login:     "alice",
		Email:     "alice@example.com",
		Password:  "SecurePass123",
		Role:      models.RoleSeller,
		BirthDate: "1990-05-17",
		City:      "Berlin",
	}
}

func (s *AuthServiceIntegrationTestSuite) TestRegister() {
	user, err := s.authService.Register(context.Background(), aliceInput())
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "alice", user.Login)
	assert.Equal(s.T(), models.RoleSeller, user.Role)
	assert.NotEqual(s.T(), "SecurePass123", user.PasswordHash)
	require.NotNil(s.T(), user.BirthDate)
	assert.Equal(s.T(), 1990, user.BirthDate.Year())
}

func (s *AuthServiceIntegrationTestSuite) TestRegisterDuplicateLogin() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)

	in := aliceInput()
	in.Email = "other@example.com"
	_, err = s.authService.Register(ctx, in)

	assert.ErrorIs(s.T(), err, service.ErrLoginTaken)
	assert.EqualError(s.T(), err, "user with login 'alice' already exists")
}

func (s *AuthServiceIntegrationTestSuite) TestRegisterDuplicateEmail() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)

	in := aliceInput()
	in.Login = "alice2"
	_, err = s.authService.Register(ctx, in)

	assert.ErrorIs(s.T(), err, service.ErrEmailTaken)
}

func (s *AuthServiceIntegrationTestSuite) TestRegisterFutureBirthDate() {
	in := aliceInput()
	in.BirthDate = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	_, err := s.authService.Register(context.Background(), in)
	assert.ErrorContains(s.T(), err, "birthDate must not be in the future")
}

func (s *AuthServiceIntegrationTestSuite) TestLoginLogoutCycle() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)

	// Either login or email identifies the account.
	_, _, err = s.authService.Login(ctx, "alice@example.com", "SecurePass123")
	require.NoError(s.T(), err)

	user, token, err := s.authService.Login(ctx, "alice", "SecurePass123")
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), token)

	p, err := s.authService.Authenticate(ctx, token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, p.UserID)
	assert.Equal(s.T(), models.RoleSeller, p.Role)

	current, err := s.authService.CurrentUser(ctx, p)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", current.Login)

	require.NoError(s.T(), s.authService.Logout(ctx, p))

	_, err = s.authService.Authenticate(ctx, token)
	assert.ErrorIs(s.T(), err, service.ErrUnauthenticated)
}

func (s *AuthServiceIntegrationTestSuite) TestLoginInvalidCredentials() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)

	_, _, err = s.authService.Login(ctx, "alice", "WrongPassword")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	_, _, err = s.authService.Login(ctx, "nobody", "SecurePass123")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
}

func (s *AuthServiceIntegrationTestSuite) TestAuthenticateGarbageToken() {
	_, err := s.authService.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(s.T(), err, service.ErrUnauthenticated)
}

func (s *AuthServiceIntegrationTestSuite) TestCurrentUserWithoutPrincipal() {
	_, err := s.authService.CurrentUser(context.Background(), service.Principal{})
	assert.ErrorIs(s.T(), err, service.ErrUnauthenticated)
}

func (s *AuthServiceIntegrationTestSuite) TestUpdateProfile() {
	ctx := context.Background()
	user, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)
	actor := service.Principal{UserID: user.ID, Login: user.Login, Role: user.Role, SessionID: "sid"}

	city := "Paris"
	password := "NewSecurePass456"
	profile, err := s.userService.Update(ctx, user.ID, service.UpdateProfileInput{
		City:     &city,
		Password: &password,
	}, actor)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Paris", profile.City)
	assert.Equal(s.T(), "1990-05-17", profile.BirthDate)
	assert.Equal(s.T(), models.RoleSeller, profile.Role)

	_, _, err = s.authService.Login(ctx, "alice", "NewSecurePass456")
	assert.NoError(s.T(), err)
}

func (s *AuthServiceIntegrationTestSuite) TestUpdateOtherProfileDenied() {
	ctx := context.Background()
	alice, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)
	bob := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleBuyer)

	city := "Rome"
	_, err = s.userService.Update(ctx, alice.ID, service.UpdateProfileInput{City: &city},
		service.Principal{UserID: bob.ID, Login: bob.Login, Role: bob.Role, SessionID: "sid"})
	assert.ErrorIs(s.T(), err, service.ErrAccessDenied)
}

func (s *AuthServiceIntegrationTestSuite) TestUpdateEmailTaken() {
	ctx := context.Background()
	alice, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleBuyer)

	email := "bob@example.com"
	_, err = s.userService.Update(ctx, alice.ID, service.UpdateProfileInput{Email: &email},
		service.Principal{UserID: alice.ID, Login: alice.Login, Role: alice.Role, SessionID: "sid"})
	assert.ErrorIs(s.T(), err, service.ErrEmailTaken)
}

func (s *AuthServiceIntegrationTestSuite) TestDeleteAccountRevokesSessions() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, aliceInput())
	require.NoError(s.T(), err)

	_, token, err := s.authService.Login(ctx, "alice", "SecurePass123")
	require.NoError(s.T(), err)
	_, _, err = s.authService.Login(ctx, "alice", "SecurePass123")
	require.NoError(s.T(), err)
	p, err := s.authService.Authenticate(ctx, token)
	require.NoError(s.T(), err)

	revoked := promtestutil.ToFloat64(metrics.SessionsTotal.WithLabelValues("revoked"))
	require.NoError(s.T(), s.userService.Delete(ctx, p.UserID, p))
	assert.Equal(s.T(), revoked+2, promtestutil.ToFloat64(metrics.SessionsTotal.WithLabelValues("revoked")))

	_, err = s.authService.Authenticate(ctx, token)
	assert.ErrorIs(s.T(), err, service.ErrUnauthenticated)

	_, err = s.userService.Get(ctx, p.UserID)
	assert.ErrorIs(s.T(), err, service.ErrUserNotFound)
}

func TestAuthServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceIntegrationTestSuite))
}
