package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) path(shotID string) (string, error) {
	if shotID == "" || strings.ContainsAny(shotID, `/\`) || strings.Contains(shotID, "..") {
		return "", fmt.Errorf("invalid path")
	}
	return filepath.Join(ls.basePath, ObjectName(shotID)), nil
}

func (ls *LocalStorage) Put(ctx context.Context, shotID string, r io.Reader) error {
	fullPath, err := ls.path(shotID)
	if err != nil {
		return err
	}

	dst, err := os.CreateTemp(ls.basePath, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := dst.Name()

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) Exists(ctx context.Context, shotID string) (bool, error) {
	fullPath, err := ls.path(shotID)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// Open returns an *os.File, so callers may use it as an io.ReadSeeker.
func (ls *LocalStorage) Open(ctx context.Context, shotID string) (io.ReadCloser, error) {
	fullPath, err := ls.path(shotID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, shotID)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, shotID string) error {
	fullPath, err := ls.path(shotID)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (ls *LocalStorage) DeleteAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage directory: %w", err)
	}

	deleted := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), mediaExt) {
			continue
		}
		if err := os.Remove(filepath.Join(ls.basePath, entry.Name())); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", entry.Name(), err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}
