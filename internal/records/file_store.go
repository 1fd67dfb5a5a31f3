package records

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const unitExt = ".json"

// FileStore keeps one JSON file per record in a single directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(kind Kind, id string) string {
	return filepath.Join(s.dir, kind.UnitName(id)+unitExt)
}

func (s *FileStore) unitIDs(kind Kind) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, unitExt) || strings.HasPrefix(name, ".") {
			continue
		}
		if id, ok := kind.IDFromUnit(strings.TrimSuffix(name, unitExt)); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) List(ctx context.Context, kind Kind) ([]Unit, []Warning, error) {
	ids, err := s.unitIDs(kind)
	if err != nil {
		return nil, nil, err
	}

	units := make([]Unit, 0, len(ids))
	var warnings []Warning
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		data, err := os.ReadFile(s.path(kind, id))
		if err != nil {
			warnings = append(warnings, Warning{Kind: kind, Unit: kind.UnitName(id), Reason: err.Error()})
			continue
		}
		units = append(units, Unit{Kind: kind, ID: id, Data: data})
	}
	return units, warnings, nil
}

func (s *FileStore) Get(ctx context.Context, kind Kind, id string) (Unit, error) {
	if err := ValidateID(id); err != nil {
		return Unit{}, err
	}
	data, err := os.ReadFile(s.path(kind, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Unit{}, fmt.Errorf("%w: %s", ErrNotFound, kind.UnitName(id))
		}
		return Unit{}, fmt.Errorf("failed to read %s: %w", kind.UnitName(id), err)
	}
	return Unit{Kind: kind, ID: id, Data: data}, nil
}

// Put writes through a temp file and renames it into place, so readers never
// observe a partially written unit.
func (s *FileStore) Put(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".unit-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", kind.UnitName(id), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", kind.UnitName(id), err)
	}
	if err := os.Rename(tmpPath, s.path(kind, id)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save %s: %w", kind.UnitName(id), err)
	}
	return nil
}

func (s *FileStore) DeleteAll(ctx context.Context, kind Kind) (int, error) {
	ids, err := s.unitIDs(kind)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	for _, id := range ids {
		if err := os.Remove(s.path(kind, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", kind.UnitName(id), err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}
