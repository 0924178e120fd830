package surreal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. A taken username yields database.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		CREATE $user CONTENT {
			username: $username,
			password: $password,
			created_at: $now
		}
	`
	vars := map[string]interface{}{
		"user":     recordID(tableUsers, user.ID),
		"username": user.Username,
		"password": user.Hash,
		"now":      datetime(now),
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if errors.Is(database.Classify(err), database.ErrDuplicate) {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "SELECT * FROM $user", map[string]interface{}{
		"user": recordID(tableUsers, id),
	})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "SELECT * FROM users WHERE username = $username LIMIT 1", map[string]interface{}{
		"username": username,
	})
}

func (r *UserRepository) first(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	rows := database.Rows(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &model.User{
		ID:        recordKey(row["id"]),
		Username:  getString(row, "username"),
		Hash:      getString(row, "password"),
		CreatedAt: parseTime(row["created_at"]),
	}, nil
}
