package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidName is returned when the display name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidEmail is returned when the email doesn't meet constraints.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned when the password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with hashed password and returns a JWT token
// plus the created user.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *store.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(name) < 2 || len(name) > 64 {
		return "", nil, ErrInvalidName
	}
	if !strings.Contains(email, "@") || len(email) > 254 {
		return "", nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return "", nil, ErrInvalidPassword
	}

	// Check if user already exists
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, hashedPassword)
	if err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Name, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Login validates credentials and returns a JWT token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Name, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Verify validates a bearer token and returns the user id it was issued for.
// It satisfies the socket core's token verifier contract.
func (s *Service) Verify(tokenString string) (int64, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
