package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tmpSuffix = ".tmp"

// FSStore keeps each blob as one file named by its id under a data
// directory. Writes go through a temp file plus rename so a crash mid-write
// never leaves a readable half blob.
type FSStore struct {
	dir string
}

var _ Store = (*FSStore)(nil)

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return nil
}

func (s *FSStore) Put(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, id+"-*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("failed to store report bytes: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to store report bytes: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to store report bytes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store report bytes: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store report bytes: %w", err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read report bytes: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete report bytes: %w", err)
	}
	return nil
}

func (s *FSStore) IDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list blob dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}
