package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// FileStore persists heatmap sets as JSON files in a directory, one file per
// run ID. Writes go through a temp file and rename so a crashed save never
// leaves a partial set behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store in the given directory.
// The directory is created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the set atomically under its run ID.
func (s *FileStore) Save(ctx context.Context, set *heat.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	data, err := heat.MarshalSet(set)
	if err != nil {
		return err
	}

	path := s.path(set.ID)
	tmp, err := os.CreateTemp(s.dir, ".heatset-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads one set by run ID.
func (s *FileStore) Load(ctx context.Context, id string) (*heat.Set, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return heat.UnmarshalSet(data)
}

// Latest returns the most recently built set.
func (s *FileStore) Latest(ctx context.Context) (*heat.Set, error) {
	sets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, ErrEmpty
	}
	latest := sets[0]
	for _, set := range sets[1:] {
		if set.BuiltAt.After(latest.BuiltAt) {
			latest = set
		}
	}
	return latest, nil
}

// List summarizes all stored sets, newest first.
func (s *FileStore) List(ctx context.Context) ([]SetInfo, error) {
	sets, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(sets, func(i, j int) bool {
		return sets[i].BuiltAt.After(sets[j].BuiltAt)
	})
	out := make([]SetInfo, len(sets))
	for i, set := range sets {
		out[i] = info(set)
	}
	return out, nil
}

// Close does nothing for file stores.
func (s *FileStore) Close(ctx context.Context) error { return nil }

func (s *FileStore) load(ctx context.Context) ([]*heat.Set, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var sets []*heat.Set
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		set, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
