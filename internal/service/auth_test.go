package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/pkg/jwt"
)

// Mock implementations

type mockUserRepo struct {
	users     map[string]*model.User
	createErr error
	getErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Username]; ok {
		return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
	}
	user.ID = "user-" + user.Username
	user.CreatedAt = time.Now()
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.users[username], nil
}

func createTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return jwt.NewTestService(privateKey, "test-issuer", time.Hour)
}

func newTestAuthService(t *testing.T, repo *mockUserRepo) (*AuthService, *jwt.Service) {
	t.Helper()
	jwtSvc := createTestJWTService(t)
	return NewAuthService(AuthServiceConfig{
		UserRepo:   repo,
		JWTService: jwtSvc,
		BcryptCost: bcrypt.MinCost,
		Logger:     discardLogger(),
	}), jwtSvc
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc, jwtSvc := newTestAuthService(t, repo)

	resp, err := svc.Register(context.Background(), model.Credentials{Username: " alice ", Password: "password123"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.User.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.User.Username)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", resp.ExpiresIn)
	}
	if resp.User.Hash == "password123" {
		t.Error("password stored in plain text")
	}

	claims, err := jwtSvc.Validate(resp.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Username != "alice" {
		t.Errorf("claims = %+v, want user %s alice", claims, resp.User.ID)
	}
	if claims.Subject != resp.User.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, resp.User.ID)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		creds model.Credentials
		want  error
	}{
		{"short username", model.Credentials{Username: "ab", Password: "password123"}, ErrInvalidUsername},
		{"long username", model.Credentials{Username: strings.Repeat("a", 65), Password: "password123"}, ErrInvalidUsername},
		{"bad characters", model.Credentials{Username: "al ice", Password: "password123"}, ErrInvalidUsername},
		{"slash", model.Credentials{Username: "../etc", Password: "password123"}, ErrInvalidUsername},
		{"short password", model.Credentials{Username: "alice", Password: "short"}, ErrPasswordTooShort},
		{"long password", model.Credentials{Username: "alice", Password: strings.Repeat("p", 129)}, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAuthService(t, newMockUserRepo())
			_, err := svc.Register(context.Background(), tt.creds)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.Credentials{Username: "alice", Password: "password123"}); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(ctx, model.Credentials{Username: "alice", Password: "password456"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestAuthService_Register_RaceOnCreate(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = fmt.Errorf("%w: username already exists", database.ErrDuplicate)
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), model.Credentials{Username: "alice", Password: "password123"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.Credentials{Username: "alice", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	resp, err := svc.Login(ctx, model.Credentials{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected access token")
	}

	if _, err := svc.Login(ctx, model.Credentials{Username: "alice", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, model.Credentials{Username: "bob", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_Login_RepoError(t *testing.T) {
	repo := newMockUserRepo()
	repo.getErr = errors.New("db down")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), model.Credentials{Username: "alice", Password: "password123"})
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want repository error", err)
	}
}

func TestAuthService_IssueToken(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.IssueToken(ctx, "alice"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("IssueToken() for unknown user error = %v", err)
	}

	if _, err := svc.Register(ctx, model.Credentials{Username: "alice", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	resp, err := svc.IssueToken(ctx, "alice")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if resp.User.Username != "alice" {
		t.Errorf("username = %q", resp.User.Username)
	}
}
