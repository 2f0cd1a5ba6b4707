package service

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/things/internal/model"
	"github.com/BuzzLyutic/things/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("incorrect email or password")
	ErrEmailTaken = errors.New("email address already taken")
	// ErrUnexpected replaces store failures in credential flows so no internal detail reaches the user.
	ErrUnexpected = errors.New("an unexpected error occurred")
)

const (
	minNameLength     = 2
	minPasswordLength = 8
)

// FormErrors maps form field names to user-facing messages.
type FormErrors map[string]string

func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e FormErrors) Unwrap() error { return ErrValidation }

type AuthService struct {
	users  repo.UserRepository
	hasher *PasswordHasher
	logger *zap.Logger
}

func NewAuthService(users repo.UserRepository, hasher *PasswordHasher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Authenticate returns the owner id for a matching email and password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	if errs := ValidateSignIn(email, password); errs != nil {
		return "", errs
	}

	user, cred, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrorNotFound) {
		return "", ErrAuth
	}
	if err != nil {
		s.logger.Error("failed to look up account", zap.Error(err))
		return "", ErrUnexpected
	}

	if !s.hasher.Verify(password, cred.Hash, cred.Salt) {
		return "", ErrAuth
	}
	return user.ID, nil
}

// CreateAccount registers a user and its password record together and returns the new owner id.
func (s *AuthService) CreateAccount(ctx context.Context, name, email, password string) (string, error) {
	if errs := ValidateSignUp(name, email, password); errs != nil {
		return "", errs
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return "", ErrUnexpected
	}
	if exists {
		return "", ErrEmailTaken
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return "", ErrUnexpected
	}

	user, err := s.users.CreateWithCredential(ctx,
		model.User{Name: strings.TrimSpace(name), Email: email},
		model.Credential{Hash: hash, Salt: salt},
	)
	switch {
	case errors.Is(err, repo.ErrorConflict):
		return "", ErrEmailTaken
	case err != nil:
		s.logger.Error("failed to create account", zap.Error(err))
		return "", ErrUnexpected
	}
	return user.ID, nil
}

func (s *AuthService) User(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func ValidateSignUp(name, email, password string) error {
	errs := FormErrors{}
	if len([]rune(strings.TrimSpace(name))) < minNameLength {
		errs["name"] = "Name must be at least 2 characters"
	}
	validateEmail(errs, email)
	if len(password) < minPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func ValidateSignIn(email, password string) error {
	errs := FormErrors{}
	validateEmail(errs, email)
	if password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEmail(errs FormErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required"
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Email address is invalid"
	}
}
