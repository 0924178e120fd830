package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidName is returned for recipe IDs or file names that would
	// escape the uploads directory.
	ErrInvalidName = errors.New("invalid image path")

	// ErrNotFound is returned by Open when no such image is stored.
	ErrNotFound = errors.New("image not found")
)

// LocalImageStore keeps recipe images on the local filesystem under
// <dir>/<recipe id>/<name>.
type LocalImageStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocalImageStore creates a store rooted at dir
func NewLocalImageStore(dir string, logger *slog.Logger) *LocalImageStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalImageStore{
		dir:    dir,
		logger: logger.With(slog.String("component", "image_store")),
	}
}

// Dir returns the root directory of the store
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func cleanSegment(s string) (string, error) {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return s, nil
}

func (s *LocalImageStore) recipeDir(recipeID string) (string, error) {
	id, err := cleanSegment(strings.ReplaceAll(recipeID, ":", "_"))
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id), nil
}

// Save writes r to the recipe's directory as name. The file appears
// atomically; a failed write leaves nothing behind. It returns the stored
// name.
func (s *LocalImageStore) Save(ctx context.Context, recipeID, name string, r io.Reader) (string, error) {
	dir, err := s.recipeDir(recipeID)
	if err != nil {
		return "", err
	}
	if name, err = cleanSegment(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info("image stored",
		slog.String("recipe_id", recipeID),
		slog.String("name", name),
		slog.Int64("bytes", n),
	)
	return name, nil
}

// Delete removes every image stored for a recipe. A recipe without images
// is not an error.
func (s *LocalImageStore) Delete(ctx context.Context, recipeID string) error {
	dir, err := s.recipeDir(recipeID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	return nil
}

// Remove deletes a single stored image. A missing file is not an error.
func (s *LocalImageStore) Remove(ctx context.Context, recipeID, name string) error {
	dir, err := s.recipeDir(recipeID)
	if err != nil {
		return err
	}
	if name, err = cleanSegment(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	s.logger.Debug("image removed",
		slog.String("recipe_id", recipeID),
		slog.String("name", name),
	)
	return nil
}

// Open returns a stored image for reading. The caller closes it.
func (s *LocalImageStore) Open(recipeID, name string) (*os.File, error) {
	dir, err := s.recipeDir(recipeID)
	if err != nil {
		return nil, err
	}
	if name, err = cleanSegment(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}
