package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/broker"
	"github.com/Baaaki/buy-sell-store/internal/config"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/router"
	"github.com/Baaaki/buy-sell-store/internal/testutil"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// apiSuite is the shared HTTP fixture: the full router over SQLite and
// miniredis.
type apiSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	router    *gin.Engine
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())

	cfg := &config.Config{
		JWTSecret:            "test-secret-key",
		JWTExpiry:            time.Hour,
		Environment:          "development",
		CORSOrigins:          []string{"http://localhost:5173"},
		RateLimitMaxRequests: 1000,
		RateLimitWindow:      time.Minute,
		RateLimitBlockTime:   time.Minute,
	}

	s.router = router.New(router.Deps{
		Config: cfg,
		DB:     s.testDB.DB,
		Redis:  s.testRedis.Client,
		Events: broker.NewRedisEventBroker(s.testRedis.Client),
	})
}

func (s *apiSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
	s.testRedis.Teardown(s.T())
}

func (s *apiSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()
}

// do sends body as JSON. A non-nil session cookie authenticates the request.
func (s *apiSuite) do(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// decodeList requires the body to be a top-level JSON array.
func (s *apiSuite) decodeList(w *httptest.ResponseRecorder) []map[string]any {
	var out []map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// login signs in a fixture user and returns the session cookie.
func (s *apiSuite) login(identifier string) *http.Cookie {
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"login":    identifier,
		"password": testutil.DefaultPassword,
	}, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	s.T().Fatal("login did not set a session cookie")
	return nil
}

// AuthHandlerIntegrationTestSuite covers the auth and profile endpoints.
type AuthHandlerIntegrationTestSuite struct {
	apiSuite
}

func registerAlice() map[string]string {
	return map[string]string{
		"login":    "alice",
		"email":    "alice@example.com",
		"password": "SecurePass123",
		"role":     "BUYER",
	}
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterSuccess() {
	w := s.do(http.MethodPost, "/api/auth/register", registerAlice(), nil)

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	response := s.decode(w)
	assert.Equal(s.T(), "User registered successfully", response["message"])

	user := response["user"].(map[string]any)
	assert.Equal(s.T(), "alice", user["login"])
	assert.Equal(s.T(), "alice@example.com", user["email"])
	assert.Equal(s.T(), "BUYER", user["role"])
	assert.NotContains(s.T(), user, "passwordHash")
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterDuplicateLogin() {
	require.Equal(s.T(), http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", registerAlice(), nil).Code)

	body := registerAlice()
	body["email"] = "alice2@example.com"
	w := s.do(http.MethodPost, "/api/auth/register", body, nil)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	assert.Equal(s.T(), "user with login 'alice' already exists", s.decode(w)["message"])
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterInvalidInput() {
	testCases := []struct {
		name     string
		mutate   func(map[string]string)
		expected string
	}{
		{
			name:     "Non alphanumeric login",
			mutate:   func(b map[string]string) { b["login"] = "alice!" },
			expected: "login must contain only letters and digits",
		},
		{
			name:     "Invalid email",
			mutate:   func(b map[string]string) { b["email"] = "invalid-email" },
			expected: "email must be a valid email",
		},
		{
			name:     "Short password",
			mutate:   func(b map[string]string) { b["password"] = "short" },
			expected: "password must be at least 8 characters",
		},
		{
			name:     "Unknown role",
			mutate:   func(b map[string]string) { b["role"] = "ADMIN" },
			expected: "role must be one of",
		},
		{
			name:     "Future birth date",
			mutate:   func(b map[string]string) { b["birthDate"] = "2999-01-01" },
			expected: "birthDate must not be in the future",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			body := registerAlice()
			tc.mutate(body)

			w := s.do(http.MethodPost, "/api/auth/register", body, nil)

			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
			assert.Contains(s.T(), s.decode(w)["message"], tc.expected)
		})
	}
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginSetsSessionCookie() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)

	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"login":    "bob",
		"password": testutil.DefaultPassword,
	}, nil)

	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "Hello, bob!", s.decode(w)["message"])

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(s.T(), session)
	assert.True(s.T(), session.HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, session.SameSite)
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginWithEmail() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)

	session := s.login("bob@example.com")
	assert.NotEmpty(s.T(), session.Value)
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginInvalidCredentials() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)

	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"login":    "bob",
		"password": "WrongPassword",
	}, nil)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Empty(s.T(), w.Result().Cookies())
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginMissingFields() {
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"login": "bob"}, nil)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestMeAndLogout() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	session := s.login("bob")

	w := s.do(http.MethodGet, "/api/users/me", nil, session)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "bob", s.decode(w)["login"])

	w = s.do(http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assertSessionCleared(s.T(), w)

	w = s.do(http.MethodGet, "/api/users/me", nil, session)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestBearerToken() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	session := s.login("bob")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Value)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestProtectedRouteWithoutSession() {
	w := s.do(http.MethodGet, "/api/products", nil, nil)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestUpdateOwnProfile() {
	bob := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	session := s.login("bob")

	w := s.do(http.MethodPatch, "/api/users/"+bob.ID.String(), map[string]string{"city": "Lisbon"}, session)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "Lisbon", s.decode(w)["city"])
}

func (s *AuthHandlerIntegrationTestSuite) TestUpdateOtherProfileForbidden() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	carol := testutil.CreateTestUser(s.T(), s.testDB.DB, "carol", "carol@example.com", models.RoleBuyer)
	session := s.login("bob")

	w := s.do(http.MethodPatch, "/api/users/"+carol.ID.String(), map[string]string{"city": "Lisbon"}, session)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/users/"+carol.ID.String(), nil, session)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestDeleteOwnAccount() {
	bob := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	session := s.login("bob")

	w := s.do(http.MethodDelete, "/api/users/"+bob.ID.String(), nil, session)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assertSessionCleared(s.T(), w)

	w = s.do(http.MethodGet, "/api/users/me", nil, session)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestGetUserInvalidID() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", "bob@example.com", models.RoleSeller)
	session := s.login("bob")

	w := s.do(http.MethodGet, "/api/users/not-a-uuid", nil, session)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *AuthHandlerIntegrationTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func assertSessionCleared(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0, "cookie must be expired")
			assert.True(t, c.HttpOnly)
			return
		}
	}
	t.Fatal("response did not clear the session cookie")
}

func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
