package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Migration is one versioned schema change with its inverse
type Migration struct {
	Version string
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

// MigrationStatus reports whether a migration has been applied
type MigrationStatus struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

type schemaMigration struct {
	Version   string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// Migrator applies and reverts the relational migrations, recording
// progress in schema_migrations. Each migration runs in its own transaction.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	log        *slog.Logger
}

// NewMigrator creates a migrator for the built-in migrations
func NewMigrator(db *gorm.DB, log *slog.Logger) *Migrator {
	return NewMigratorWith(db, log, Migrations())
}

// NewMigratorWith creates a migrator for an explicit, ordered migration list
func NewMigratorWith(db *gorm.DB, log *slog.Logger, migrations []Migration) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{
		db:         db,
		migrations: migrations,
		log:        log.With(slog.String("component", "migrator")),
	}
}

func (m *Migrator) applied(ctx context.Context) (map[string]schemaMigration, error) {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var rows []schemaMigration
	if err := db.Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	out := make(map[string]schemaMigration, len(rows))
	for _, row := range rows {
		out[row.Version] = row
	}
	return out, nil
}

// Up applies every pending migration in order and returns their versions
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return versions, fmt.Errorf("migration %s_%s failed: %w", mig.Version, mig.Name, err)
		}

		m.log.Info("migration applied", slog.String("version", mig.Version), slog.String("name", mig.Name))
		versions = append(versions, mig.Version)
	}
	return versions, nil
}

// Down reverts up to steps applied migrations, newest first
func (m *Migrator) Down(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, errors.New("steps must be positive")
	}

	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var versions []string
	for i := len(m.migrations) - 1; i >= 0 && len(versions) < steps; i-- {
		mig := m.migrations[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mig.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&schemaMigration{Version: mig.Version}).Error
		})
		if err != nil {
			return versions, fmt.Errorf("rollback of %s_%s failed: %w", mig.Version, mig.Name, err)
		}

		m.log.Info("migration reverted", slog.String("version", mig.Version), slog.String("name", mig.Name))
		versions = append(versions, mig.Version)
	}
	return versions, nil
}

// Status lists every known migration and whether it is applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if row, ok := done[mig.Version]; ok {
			at := row.AppliedAt
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// Migrations returns the relational schema history in order
func Migrations() []Migration {
	return []Migration{
		{
			Version: "20220801000000",
			Name:    "initial",
			Up: func(tx *gorm.DB) error {
				return tx.Migrator().CreateTable(
					&m001User{},
					&m001Recipe{},
					&m001Ingredient{},
					&m001IngredientsRecipe{},
					&m001IngredientQuantity{},
					&m001IngredientQuantityIngredients{},
				)
			},
			Down: func(tx *gorm.DB) error {
				for _, table := range []string{
					"ingredient_quantity_ingredients",
					"ingredient_quantity",
					"ingredients_recipe",
					"ingredients",
					"recipe",
					"users",
				} {
					if err := tx.Migrator().DropTable(table); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: "20220811200528",
			Name:    "drop_ingredient_quantity",
			Up: func(tx *gorm.DB) error {
				if err := tx.Migrator().DropTable("ingredient_quantity_ingredients"); err != nil {
					return err
				}
				if err := tx.Migrator().DropTable("ingredient_quantity"); err != nil {
					return err
				}
				for _, column := range []string{"ingredient_quantity", "ingredient_unit"} {
					if err := dropColumn(tx, "recipe", &m001Recipe{}, column); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(tx *gorm.DB) error {
				if err := tx.Migrator().CreateTable(&m001IngredientQuantity{}, &m001IngredientQuantityIngredients{}); err != nil {
					return err
				}
				for _, field := range []string{"IngredientQuantity", "IngredientUnit"} {
					if err := tx.Migrator().AddColumn(&m001Recipe{}, field); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// dropColumn removes a column in place. gorm's SQLite DropColumn rebuilds
// the table, and dropping recipe would cascade into ingredients_recipe.
func dropColumn(tx *gorm.DB, table string, model interface{}, column string) error {
	if !tx.Migrator().HasColumn(model, column) {
		return nil
	}
	if tx.Dialector.Name() != "sqlite" {
		return tx.Migrator().DropColumn(model, column)
	}
	return tx.Exec(fmt.Sprintf("ALTER TABLE `%s` DROP COLUMN `%s`", table, column)).Error
}

// Schema snapshot as of 20220801000000. These types are frozen; later
// changes get their own migration.

type m001User struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Username  string    `gorm:"size:64;not null;uniqueIndex"`
	Password  string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (m001User) TableName() string { return "users" }

type m001Recipe struct {
	ID                 string    `gorm:"primaryKey;size:64"`
	UserID             string    `gorm:"size:64;not null;index"`
	Name               string    `gorm:"size:255;not null;default:''"`
	Method             string    `gorm:"type:text;not null;default:''"`
	Difficulty         string    `gorm:"size:255;not null;default:''"`
	Portion            *int      `gorm:"column:portion"`
	Tags               *string   `gorm:"size:255"`
	PrepTime           *int      `gorm:"column:prep_time"`
	ImageName          *string   `gorm:"size:255"`
	IngredientQuantity *int      `gorm:"column:ingredient_quantity"`
	IngredientUnit     *string   `gorm:"column:ingredient_unit;size:255"`
	CreatedAt          time.Time `gorm:"not null;index"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (m001Recipe) TableName() string { return "recipe" }

type m001Ingredient struct {
	ID       string  `gorm:"primaryKey;size:64"`
	Name     string  `gorm:"size:255;not null"`
	Quantity float64 `gorm:"not null"`
	Unit     *string `gorm:"size:255"`
}

func (m001Ingredient) TableName() string { return "ingredients" }

type m001IngredientsRecipe struct {
	IngredientsID string         `gorm:"primaryKey;size:64"`
	RecipeID      string         `gorm:"primaryKey;size:64;index"`
	Ingredients   m001Ingredient `gorm:"foreignKey:IngredientsID;constraint:OnDelete:CASCADE"`
	Recipe        m001Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (m001IngredientsRecipe) TableName() string { return "ingredients_recipe" }

type m001IngredientQuantity struct {
	ID   string  `gorm:"primaryKey;size:64"`
	Name *string `gorm:"size:255"`
}

func (m001IngredientQuantity) TableName() string { return "ingredient_quantity" }

type m001IngredientQuantityIngredients struct {
	IngredientQuantityID string `gorm:"primaryKey;size:64"`
	IngredientsID        string `gorm:"primaryKey;size:64;index"`
}

func (m001IngredientQuantityIngredients) TableName() string {
	return "ingredient_quantity_ingredients"
}
