package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/metrics"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/utils"
	"github.com/Baaaki/buy-sell-store/internal/validation"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Login       string      `json:"login" validate:"required,alphanum,max=30"`
	Email       string      `json:"email" validate:"required,email,max=100"`
	Password    string      `json:"password" validate:"required,min=8,max=128"`
	Role        models.Role `json:"role" validate:"required,oneof=SUPPLIER SELLER BUYER"`
	BirthDate   string      `json:"birthDate" validate:"omitempty,datetime=2006-01-02,notfuture"`
	City        string      `json:"city" validate:"max=100"`
	Description string      `json:"description" validate:"max=1000"`
}

type AuthService struct {
	userRepo      *repository.UserRepository
	sessions      *repository.SessionRepository
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sessions *repository.SessionRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	environment string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessions:      sessions,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// SessionTTL is the lifetime of a login session and its token.
func (s *AuthService) SessionTTL() time.Duration {
	return s.jwtExpiration
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing user registration",
		zap.String("login", in.Login),
		zap.String("email", in.Email),
		zap.String("role", string(in.Role)),
	)

	if err := validation.Struct(in); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("login", in.Login),
			zap.Error(err),
		)
		return nil, err
	}

	existing, err := s.userRepo.GetUserByLogin(ctx, in.Login)
	if err != nil {
		logger.Log.Error("Failed to check login existence", zap.String("login", in.Login), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Login already exists", zap.String("login", in.Login))
		return nil, newError(ErrLoginTaken, "user with login '%s' already exists", in.Login)
	}

	existing, err = s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		logger.Log.Error("Failed to check email existence", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", in.Email))
		return nil, newError(ErrEmailTaken, "user with email '%s' already exists", in.Email)
	}

	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	hashDuration := time.Since(hashStart)

	user := &models.User{
		Login:        in.Login,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		City:         in.City,
		Description:  in.Description,
		Role:         in.Role,
	}
	if in.BirthDate != "" {
		bd, _ := time.Parse(validation.DateLayout, in.BirthDate)
		user.BirthDate = &bd
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateUser(ctx, in.Login, in.Email)
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("login", in.Login),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("login", user.Login),
		zap.String("role", string(user.Role)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// Login verifies the credentials and opens a session. identifier is either
// the login or the email of the account.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	start := time.Now()

	user, err := s.userRepo.GetUserByLogin(ctx, identifier)
	if err == nil && user == nil {
		user, err = s.userRepo.GetUserByEmail(ctx, identifier)
	}
	if err != nil {
		logger.Log.Error("Failed to look up user", zap.String("identifier", identifier), zap.Error(err))
		return nil, "", err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("identifier", identifier))
		return nil, "", ErrInvalidCredentials
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, "", err
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password", zap.String("user_id", user.ID.String()))
		return nil, "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, user.ID, s.jwtExpiration); err != nil {
		logger.Log.Error("Failed to create session", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, "", err
	}

	token, err := utils.GenerateToken(user, sessionID, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate session token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, "", err
	}

	metrics.SessionsTotal.WithLabelValues("opened").Inc()

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("login", user.Login),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

// Authenticate resolves a session token into the principal bound to it.
// The token must be valid and its session must still be registered.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	userID, ok, err := s.sessions.Lookup(ctx, claims.SessionID())
	if err != nil {
		return Principal{}, err
	}
	if !ok || userID != claims.UserID {
		return Principal{}, ErrUnauthenticated
	}

	return Principal{
		UserID:    claims.UserID,
		Login:     claims.Login,
		Role:      claims.Role,
		SessionID: claims.SessionID(),
	}, nil
}

// Logout invalidates the caller's session.
func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}

	if err := s.sessions.Delete(ctx, p.SessionID, p.UserID); err != nil {
		logger.Log.Error("Failed to delete session", zap.String("user_id", p.UserID.String()), zap.Error(err))
		return err
	}

	metrics.SessionsTotal.WithLabelValues("logout").Inc()

	logger.Log.Info("User logged out", zap.String("user_id", p.UserID.String()))
	return nil
}

// CurrentUser loads the account bound to p.
func (s *AuthService) CurrentUser(ctx context.Context, p Principal) (*models.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// duplicateUser names the unique key a rejected insert collided with. The
// login is checked first; anything else can only be the email index.
func (s *AuthService) duplicateUser(ctx context.Context, login, email string) error {
	existing, err := s.userRepo.GetUserByLogin(ctx, login)
	if err == nil && existing != nil {
		logger.Log.Warn("Login taken by concurrent registration", zap.String("login", login))
		return newError(ErrLoginTaken, "user with login '%s' already exists", login)
	}
	logger.Log.Warn("Email taken by concurrent registration", zap.String("email", email))
	return newError(ErrEmailTaken, "user with email '%s' already exists", email)
}
