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

// UserProfile is the public view of an account.
type UserProfile struct {
	ID          uuid.UUID   `json:"id"`
	Login       string      `json:"login"`
	Email       string      `json:"email"`
	BirthDate   string      `json:"birthDate,omitempty"`
	City        string      `json:"city,omitempty"`
	Description string      `json:"description,omitempty"`
	Role        models.Role `json:"role"`
}

func NewUserProfile(u *models.User) UserProfile {
	p := UserProfile{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		City:        u.City,
		Description: u.Description,
		Role:        u.Role,
	}
	if u.BirthDate != nil {
		p.BirthDate = u.BirthDate.Format(validation.DateLayout)
	}
	return p
}

// UpdateProfileInput holds the profile fields a user may change. Nil
// fields are left untouched. Login and role are immutable.
type UpdateProfileInput struct {
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=128"`
	BirthDate   *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02,notfuture"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UserService struct {
	userRepo *repository.UserRepository
	sessions *repository.SessionRepository
}

func NewUserService(userRepo *repository.UserRepository, sessions *repository.SessionRepository) *UserService {
	return &UserService{userRepo: userRepo, sessions: sessions}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (UserProfile, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	if user == nil {
		return UserProfile{}, newError(ErrUserNotFound, "user %s not found", id)
	}
	return NewUserProfile(user), nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateProfileInput, actor Principal) (UserProfile, error) {
	if err := validation.Struct(in); err != nil {
		return UserProfile{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	if user == nil {
		return UserProfile{}, newError(ErrUserNotFound, "user %s not found", id)
	}
	if actor.UserID != user.ID {
		logger.Log.Warn("Profile update denied",
			zap.String("user_id", id.String()),
			zap.String("actor_id", actor.UserID.String()),
		)
		return UserProfile{}, newError(ErrAccessDenied, "user %s may not modify profile %s", actor.Login, id)
	}

	if in.Email != nil && *in.Email != user.Email {
		other, err := s.userRepo.GetUserByEmail(ctx, *in.Email)
		if err != nil {
			return UserProfile{}, err
		}
		if other != nil {
			return UserProfile{}, newError(ErrEmailTaken, "user with email '%s' already exists", *in.Email)
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return UserProfile{}, err
		}
		user.PasswordHash = hash
	}
	if in.BirthDate != nil {
		bd, _ := time.Parse(validation.DateLayout, *in.BirthDate)
		user.BirthDate = &bd
	}
	if in.City != nil {
		user.City = *in.City
	}
	if in.Description != nil {
		user.Description = *in.Description
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		// Email is the only unique column an update can touch.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Warn("Email taken by concurrent update", zap.String("user_id", id.String()))
			return UserProfile{}, newError(ErrEmailTaken, "user with email '%s' already exists", user.Email)
		}
		logger.Log.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return UserProfile{}, err
	}

	logger.Log.Info("User profile updated", zap.String("user_id", id.String()))
	return NewUserProfile(user), nil
}

// Delete removes the caller's own account and revokes all its sessions.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID, actor Principal) error {
	if actor.UserID != id {
		return newError(ErrAccessDenied, "user %s may not delete account %s", actor.Login, id)
	}

	deleted, err := s.userRepo.DeleteUser(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete user", zap.String("user_id", id.String()), zap.Error(err))
		return err
	}
	if !deleted {
		return newError(ErrUserNotFound, "user %s not found", id)
	}

	revoked, err := s.sessions.DeleteAll(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to revoke sessions of deleted user", zap.String("user_id", id.String()), zap.Error(err))
		return err
	}
	metrics.SessionsTotal.WithLabelValues("revoked").Add(float64(revoked))

	logger.Log.Info("User deleted", zap.String("user_id", id.String()), zap.Int64("sessions_revoked", revoked))
	return nil
}
