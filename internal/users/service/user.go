package service

import (
	"context"
	"errors"
	userserrors "roombook/internal/users/errors"
	"roombook/internal/users/repository"
	"roombook/internal/users/validator"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
	"time"
)

const invalidCredentials = "Invalid email or password"

type TokenIssuer interface {
	Issue(userID, email, role string) (string, time.Time, error)
}

type UserService interface {
	Register(ctx context.Context, reg *model.Registration) (*model.Session, error)
	Login(ctx context.Context, creds *model.Credentials) (*model.Session, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	tokens    TokenIssuer
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, validator *validator.UserValidator, tokens TokenIssuer, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		tokens:    tokens,
		cfg:       cfg,
	}
}

// Register creates an account and signs it in. Addresses listed in
// ADMIN_EMAILS get the admin role; everyone else is a plain user.
func (s *userService) Register(ctx context.Context, reg *model.Registration) (*model.Session, error) {
	reg.Email = sanitizer.NormalizeEmail(reg.Email)
	reg.FirstName = sanitizer.NormalizeName(reg.FirstName)
	reg.LastName = sanitizer.NormalizeName(reg.LastName)
	reg.Phone = sanitizer.NormalizeMobile(reg.Phone, sanitizer.DefaultRegion)

	if err := s.validator.Validate(reg); err != nil {
		return nil, s.validationError("Registration validation failed", err)
	}

	hash, err := auth.HashPassword(reg.Password, s.cfg.BcryptCost)
	if err != nil {
		s.cfg.Log.Error("Failed to hash password", "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	role := model.RoleUser
	if s.cfg.IsAdminEmail(reg.Email) {
		role = model.RoleAdmin
	}

	user := &model.User{
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Phone:        reg.Phone,
		IsActive:     true,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("An account with this email already exists")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return nil, s.translateStoreError(err)
	}

	s.cfg.Log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return s.session(user)
}

func (s *userService) Login(ctx context.Context, creds *model.Credentials) (*model.Session, error) {
	creds.Email = sanitizer.NormalizeEmail(creds.Email)
	if err := s.validator.Validate(creds); err != nil {
		return nil, s.validationError("Login validation failed", err)
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		s.cfg.Log.Error("Failed to load user", "error", err)
		return nil, s.translateStoreError(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, creds.Password) {
		s.cfg.Log.Warn("Rejected login", "user_id", user.ID)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	if !user.IsActive {
		return nil, apperrors.Forbidden("Account is disabled")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.cfg.Log.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	return s.session(user)
}

func (s *userService) session(user *model.User) (*model.Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.cfg.Log.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &model.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *userService) validationError(message string, err error) error {
	var fieldErrs validation.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, fieldErrs.Details())
	}
	return apperrors.Internal(message, err)
}

func (s *userService) translateStoreError(err error) error {
	if errors.Is(err, userserrors.ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return apperrors.Unavailable("User store", err)
	}
	return apperrors.Internal("User store operation failed", err)
}
