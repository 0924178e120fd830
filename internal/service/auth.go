package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/pkg/jwt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	tokenTypeBearer = "Bearer"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthService handles registration, login and access tokens
type AuthService struct {
	userRepo UserRepository
	jwt      *jwt.Service
	hashCost int
	logger   *slog.Logger
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo   UserRepository
	JWTService *jwt.Service
	// BcryptCost overrides the hashing cost; zero uses the default
	BcryptCost int
	Logger     *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcryptCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo: cfg.UserRepo,
		jwt:      cfg.JWTService,
		hashCost: cost,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// Register creates a new user account and signs them in
func (s *AuthService) Register(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	username := strings.TrimSpace(creds.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(creds.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, Hash: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Login verifies credentials and returns a fresh access token
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// IssueToken signs an access token for an existing user
func (s *AuthService) IssueToken(ctx context.Context, username string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwt.Sign(jwt.Claims{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.jwt.GetExpiration().Seconds()),
	}, nil
}

func validateUsername(username string) error {
	if len(username) < model.MinUsernameLength || len(username) > model.MaxUsernameLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < model.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > model.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
