package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inamate/vecdraw/internal/document"
)

// FileStore keeps one JSON file per design in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create design dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(ctx context.Context, d Design) error {
	d, err := Prepare(d, s.now())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal design: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, d.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write design: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close design: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(d.ID)); err != nil {
		return fmt.Errorf("rename design: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (Design, error) {
	if err := checkID(id); err != nil {
		return Design{}, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path(id))
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return Design{}, ErrNotFound
	}
	if err != nil {
		return Design{}, fmt.Errorf("read design: %w", err)
	}
	return decode(data)
}

func decode(data []byte) (Design, error) {
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return Design{}, fmt.Errorf("decode design: %w", err)
	}
	if _, err := document.Import(d.Snapshot); err != nil {
		return Design{}, fmt.Errorf("design %s: %w", d.ID, err)
	}
	return d, nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read design dir: %w", err)
	}

	out := []Summary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read design: %w", err)
		}
		var d Design
		if err := json.Unmarshal(data, &d); err != nil {
			continue
		}
		out = append(out, Summary{ID: d.ID, Name: d.Name, UpdatedAt: d.UpdatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	return nil
}
