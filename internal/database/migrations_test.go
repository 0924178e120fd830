package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openSQLite(t *testing.T, driver string) *gorm.DB {
	t.Helper()

	db, err := OpenGorm(context.Background(), Config{
		Driver: driver,
		DSN:    filepath.Join(t.TempDir(), "nested", "test.db"),
	}, quietLogger())
	if err != nil && driver == DriverSQLite3 && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("mattn/go-sqlite3 requires cgo")
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseGorm(db) })
	return db
}

func TestOpenGorm_Drivers(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			db := openSQLite(t, driver)

			var fk int
			require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
			assert.Equal(t, 1, fk, "foreign keys should be enabled")
		})
	}
}

func TestOpenGorm_UnsupportedDriver(t *testing.T) {
	_, err := OpenGorm(context.Background(), Config{Driver: "mysql", DSN: "x"}, quietLogger())
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestSQLiteDSN(t *testing.T) {
	dir := t.TempDir()

	dsn, err := sqliteDSN(DriverSQLite, filepath.Join(dir, "a", "b.db"))
	require.NoError(t, err)
	assert.Contains(t, dsn, "_pragma=foreign_keys(1)")
	assert.DirExists(t, filepath.Join(dir, "a"))

	dsn, err = sqliteDSN(DriverSQLite3, filepath.Join(dir, "c.db"))
	require.NoError(t, err)
	assert.Contains(t, dsn, "_foreign_keys=on")

	dsn, err = sqliteDSN(DriverSQLite, "file:x.db?mode=ro")
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?mode=ro", dsn)

	_, err = sqliteDSN(DriverSQLite, "")
	assert.Error(t, err)
}

func TestMigrator_UpAppliesAllInOrder(t *testing.T) {
	db := openSQLite(t, DriverSQLite)
	m := NewMigrator(db, quietLogger())
	ctx := context.Background()

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20220801000000", "20220811200528"}, applied)

	mig := db.Migrator()
	for _, table := range []string{"users", "recipe", "ingredients", "ingredients_recipe", "schema_migrations"} {
		assert.True(t, mig.HasTable(table), "expected table %s", table)
	}
	assert.False(t, mig.HasTable("ingredient_quantity"))
	assert.False(t, mig.HasTable("ingredient_quantity_ingredients"))
	assert.False(t, mig.HasColumn(&m001Recipe{}, "ingredient_quantity"))
	assert.False(t, mig.HasColumn(&m001Recipe{}, "ingredient_unit"))
	assert.True(t, mig.HasColumn(&m001Recipe{}, "prep_time"))

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again, "second run should be a no-op")
}

func TestMigrator_DownRestoresLegacySchema(t *testing.T) {
	db := openSQLite(t, DriverSQLite)
	m := NewMigrator(db, quietLogger())
	ctx := context.Background()

	_, err := m.Up(ctx)
	require.NoError(t, err)

	reverted, err := m.Down(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"20220811200528"}, reverted)

	mig := db.Migrator()
	assert.True(t, mig.HasTable("ingredient_quantity"))
	assert.True(t, mig.HasTable("ingredient_quantity_ingredients"))
	assert.True(t, mig.HasColumn(&m001Recipe{}, "ingredient_quantity"))
	assert.True(t, mig.HasColumn(&m001Recipe{}, "ingredient_unit"))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.NotNil(t, status[0].AppliedAt)
	assert.False(t, status[1].Applied)

	reverted, err = m.Down(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"20220801000000"}, reverted)
	assert.False(t, mig.HasTable("recipe"))
}

func TestMigrator_DropColumnKeepsJoinRows(t *testing.T) {
	db := openSQLite(t, DriverSQLite)
	ctx := context.Background()
	all := Migrations()

	_, err := NewMigratorWith(db, quietLogger(), all[:1]).Up(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Exec("INSERT INTO recipe (id, user_id, created_at, updated_at) VALUES ('r1', 'u1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)").Error)
	require.NoError(t, db.Exec("INSERT INTO ingredients (id, name, quantity) VALUES ('i1', 'Salt', 1)").Error)
	require.NoError(t, db.Exec("INSERT INTO ingredients_recipe (ingredients_id, recipe_id) VALUES ('i1', 'r1')").Error)

	_, err = NewMigratorWith(db, quietLogger(), all).Up(ctx)
	require.NoError(t, err)

	var links int64
	require.NoError(t, db.Table("ingredients_recipe").Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	db := openSQLite(t, DriverSQLite)
	_, err := NewMigrator(db, quietLogger()).Down(context.Background(), 0)
	assert.Error(t, err)
}

func TestSurrealMigrations_Embedded(t *testing.T) {
	migrations, err := SurrealMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "20220801000000", migrations[0].Version)
	assert.Equal(t, "initial", migrations[0].Name)
	assert.Contains(t, migrations[0].Up, "DEFINE TABLE IF NOT EXISTS ingredients_recipe TYPE RELATION")
	assert.NotEmpty(t, migrations[0].Down)

	assert.Equal(t, "20220811200528", migrations[1].Version)
	assert.Equal(t, "drop_ingredient_quantity", migrations[1].Name)
	assert.Contains(t, migrations[1].Down, "ingredient_unit")
}
