package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultTokenExpiration applies when no expiration is configured
	DefaultTokenExpiration = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingSigningKey  = errors.New("token signing key is not configured")
)

// UserService defines the interface for report account logic
type UserService interface {
	CreateUser(ctx context.Context, username, password string, email *string, role string) (*domain.User, error)
	EnsureUser(ctx context.Context, username, password string, email *string, role string) (bool, error)
	Login(ctx context.Context, username, password string) (accessToken string, user *domain.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo   repository.UserRepository
	jwtSecret  string
	expiration time.Duration
	now        func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, jwtSecret string, expiration time.Duration) UserService {
	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}
	return &userService{
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		expiration: expiration,
		now:        time.Now,
	}
}

// CreateUser stores a new account with a hashed password
func (s *userService) CreateUser(ctx context.Context, username, password string, email *string, role string) (*domain.User, error) {
	if role != domain.RoleReporter && role != domain.RoleAdmin {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Role:         role,
		CreatedAt:    s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// EnsureUser creates the account unless one with the same username exists.
// It reports whether an account was created.
func (s *userService) EnsureUser(ctx context.Context, username, password string, email *string, role string) (bool, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}

	if _, err := s.CreateUser(ctx, username, password, email, role); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login authenticates a user and returns a signed access token
func (s *userService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if s.jwtSecret == "" {
			return nil, ErrMissingSigningKey
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken signs an HS256 token carrying username and role
func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	if s.jwtSecret == "" {
		return "", ErrMissingSigningKey
	}

	issuedAt := s.now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
