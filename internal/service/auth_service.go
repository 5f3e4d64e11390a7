package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/auth"
	"github.com/jobboard/job-board/internal/config"
	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/validation"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

const defaultUserName = "Anonymous"

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Name     string `json:"name" label:"Name" validate:"required,max=100"`
	Email    string `json:"email" label:"Email" validate:"required,email,max=255"`
	Password string `json:"password" label:"Password" validate:"required,min=8,max=72"`
}

// AdminProfileInput is a partial update; nil fields are left unchanged.
type AdminProfileInput struct {
	Name     *string `json:"name" label:"Name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" label:"Email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" label:"Password" validate:"omitempty,min=8,max=72"`
}

// AuthResult is returned by sign-up and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and lazy provisioning of users.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	validator  *validation.Validator
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, v *validation.Validator, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		validator:  v,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a USER account with a password and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: &hash, Role: domain.UserRoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login checks credentials. Unknown emails, password-less accounts and wrong passwords are
// reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperrors.NewUnauthorized("invalid credentials")
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !user.HasPassword() {
		return nil, invalid
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, invalid
	}
	return s.issue(user)
}

// EnsureUser returns the caller's user row, creating it from the identity's email and name
// when the identity provider vouched for someone not stored yet.
func (s *AuthService) EnsureUser(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if identity.UserID != "" {
		user, err := s.users.GetByID(ctx, identity.UserID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		if identity.Email == "" {
			return nil, apperrors.NewUnauthorized("Unauthorized")
		}
	}

	email := normalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		identity.UserID = user.ID
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = defaultUserName
	}
	user = &domain.User{Name: name, Email: email, Role: domain.UserRoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewInternalError(err)
		}
		// a concurrent request provisioned the same email first
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	} else {
		s.logger.Info("user provisioned", zap.String("user_id", user.ID))
	}
	identity.UserID = user.ID
	return user, nil
}

// UpdateAdminProfile changes the calling admin's own name, email or password.
func (s *AuthService) UpdateAdminProfile(ctx context.Context, identity *domain.Identity, in AdminProfileInput) (*domain.User, error) {
	if !identity.IsAdmin() || identity.UserID == "" {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("Unauthorized")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = &hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(domain.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) validate(in any) error {
	return validateInput(s.validator, in, "Invalid input")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateInput converts validator field errors into a ValidationFailed domain error.
func validateInput(v *validation.Validator, in any, message string) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		return apperrors.NewFieldValidationError(message, fields)
	}
	return apperrors.NewInternalError(err)
}
