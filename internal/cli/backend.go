package cli

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/forgo/recipebook/internal/config"
	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/repository"
	"github.com/forgo/recipebook/internal/repository/surreal"
	"github.com/forgo/recipebook/internal/service"
)

// migrator is satisfied by both the relational and the SurrealDB migrators
type migrator interface {
	Up(ctx context.Context) ([]string, error)
	Down(ctx context.Context, steps int) ([]string, error)
	Status(ctx context.Context) ([]database.MigrationStatus, error)
}

// backend is an opened storage backend with its repositories
type backend struct {
	Recipes     service.RecipeRepository
	Ingredients service.IngredientRepository
	Users       service.UserRepository
	Migrator    migrator
	Ping        func(ctx context.Context) error
	Close       func() error
}

// openBackend connects to the configured driver. SurrealDB goes through the
// query-level Database interface; every SQL driver goes through GORM.
func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	if cfg.Driver == config.DriverSurrealDB {
		return openSurreal(ctx, cfg, logger)
	}

	db, err := database.OpenGorm(ctx, database.Config{Driver: cfg.Driver, DSN: cfg.DSN}, logger)
	if err != nil {
		return nil, err
	}
	return gormBackend(db, logger)
}

func gormBackend(db *gorm.DB, logger *slog.Logger) (*backend, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return &backend{
		Recipes:     repository.NewRecipeRepository(db),
		Ingredients: repository.NewIngredientRepository(db),
		Users:       repository.NewUserRepository(db),
		Migrator:    database.NewMigrator(db, logger),
		Ping:        sqlDB.PingContext,
		Close:       func() error { return database.CloseGorm(db) },
	}, nil
}

func openSurreal(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}

	logger.Info("connected to database",
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)
	return &backend{
		Recipes:     surreal.NewRecipeRepository(db),
		Ingredients: surreal.NewIngredientRepository(db),
		Users:       surreal.NewUserRepository(db),
		Migrator:    database.NewSurrealMigrator(db, logger),
		Ping:        db.Ping,
		Close:       db.Close,
	}, nil
}
