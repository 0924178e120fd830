package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"
)

//go:embed surql/*.surql
var surqlFS embed.FS

// SurrealMigration is one versioned SurrealQL schema change
type SurrealMigration struct {
	Version string
	Name    string
	Up      string
	Down    string
}

// SurrealMigrations loads the embedded SurrealQL migrations in version order.
// Files are named <version>_<name>.up.surql and <version>_<name>.down.surql.
func SurrealMigrations() ([]SurrealMigration, error) {
	entries, err := fs.ReadDir(surqlFS, "surql")
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*SurrealMigration)
	for _, entry := range entries {
		file := entry.Name()
		var direction string
		switch {
		case strings.HasSuffix(file, ".up.surql"):
			direction = "up"
		case strings.HasSuffix(file, ".down.surql"):
			direction = "down"
		default:
			continue
		}

		key := strings.TrimSuffix(file, "."+direction+".surql")
		version, name, ok := strings.Cut(key, "_")
		if !ok {
			return nil, fmt.Errorf("migration file %q has no version prefix", file)
		}

		content, err := fs.ReadFile(surqlFS, "surql/"+file)
		if err != nil {
			return nil, err
		}

		mig, exists := byKey[key]
		if !exists {
			mig = &SurrealMigration{Version: version, Name: name}
			byKey[key] = mig
		}
		if direction == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	out := make([]SurrealMigration, 0, len(byKey))
	for _, mig := range byKey {
		if mig.Up == "" {
			return nil, fmt.Errorf("migration %s_%s has no up script", mig.Version, mig.Name)
		}
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// SurrealMigrator applies the embedded SurrealQL migrations, recording them
// in the schema_migrations table.
type SurrealMigrator struct {
	db  Database
	log *slog.Logger
}

// NewSurrealMigrator creates a SurrealDB migrator
func NewSurrealMigrator(db Database, log *slog.Logger) *SurrealMigrator {
	if log == nil {
		log = slog.Default()
	}
	return &SurrealMigrator{db: db, log: log.With(slog.String("component", "migrator"))}
}

func (m *SurrealMigrator) applied(ctx context.Context) (map[string]time.Time, error) {
	if err := m.db.Execute(ctx, "DEFINE TABLE IF NOT EXISTS schema_migrations SCHEMALESS", nil); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	results, err := m.db.Query(ctx, "SELECT version, applied_at FROM schema_migrations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	out := make(map[string]time.Time)
	for _, row := range Rows(results, 0) {
		version, _ := row["version"].(string)
		if version == "" {
			continue
		}
		var at time.Time
		switch v := row["applied_at"].(type) {
		case time.Time:
			at = v
		case string:
			at, _ = time.Parse(time.RFC3339Nano, v)
		}
		out[version] = at
	}
	return out, nil
}

// Up applies every pending migration and returns their versions
func (m *SurrealMigrator) Up(ctx context.Context) ([]string, error) {
	migrations, err := SurrealMigrations()
	if err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, mig := range migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}

		batch := NewAtomicBatch().
			Add(mig.Up, nil).
			Add("CREATE schema_migrations CONTENT { version: $version, name: $name, applied_at: time::now() }",
				map[string]interface{}{"version": mig.Version, "name": mig.Name})
		if err := batch.Execute(ctx, m.db); err != nil {
			return versions, fmt.Errorf("migration %s_%s failed: %w", mig.Version, mig.Name, err)
		}

		m.log.Info("migration applied", slog.String("version", mig.Version), slog.String("name", mig.Name))
		versions = append(versions, mig.Version)
	}
	return versions, nil
}

// Down reverts up to steps applied migrations, newest first
func (m *SurrealMigrator) Down(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, errors.New("steps must be positive")
	}
	migrations, err := SurrealMigrations()
	if err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var versions []string
	for i := len(migrations) - 1; i >= 0 && len(versions) < steps; i-- {
		mig := migrations[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}

		batch := NewAtomicBatch()
		if mig.Down != "" {
			batch.Add(mig.Down, nil)
		}
		batch.Add("DELETE schema_migrations WHERE version = $version", map[string]interface{}{"version": mig.Version})
		if err := batch.Execute(ctx, m.db); err != nil {
			return versions, fmt.Errorf("rollback of %s_%s failed: %w", mig.Version, mig.Name, err)
		}

		m.log.Info("migration reverted", slog.String("version", mig.Version), slog.String("name", mig.Name))
		versions = append(versions, mig.Version)
	}
	return versions, nil
}

// Status lists every embedded migration and whether it is applied
func (m *SurrealMigrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	migrations, err := SurrealMigrations()
	if err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(migrations))
	for _, mig := range migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := done[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}
