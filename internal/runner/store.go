// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Handle records a container the tool started, keyed by box name.
	// Handles survive process restarts so stop/remove/status work across
	// invocations.
	Handle struct {
		ID            string    `toml:"id"`
		Name          string    `toml:"name"`
		Image         string    `toml:"image"`
		HostPort      int       `toml:"host_port"`
		ContainerPort int       `toml:"container_port"`
		CreatedAt     time.Time `toml:"created_at"`
	}

	// Store persists handles as a TOML file. Every operation is a full
	// read-modify-write; the file is small and a single user owns it, so
	// no locking is needed.
	Store struct {
		path string
	}

	storeFile struct {
		Boxes map[string]Handle `toml:"boxes"`
	}
)

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStorePath returns the per-user handle store location.
func DefaultStorePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache dir: %w", err)
	}
	return filepath.Join(dir, "sshbox", "boxes.toml"), nil
}

// Get returns the handle for a box name, if one is tracked.
func (s *Store) Get(name string) (Handle, bool, error) {
	file, err := s.load()
	if err != nil {
		return Handle{}, false, err
	}
	h, ok := file.Boxes[name]
	return h, ok, nil
}

// Put records or replaces the handle for its box name.
func (s *Store) Put(h Handle) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	file.Boxes[h.Name] = h
	return s.save(file)
}

// Delete drops the handle for a box name. Deleting an untracked name is
// not an error.
func (s *Store) Delete(name string) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := file.Boxes[name]; !ok {
		return nil
	}
	delete(file.Boxes, name)
	return s.save(file)
}

// List returns all tracked handles sorted by box name.
func (s *Store) List() ([]Handle, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	handles := make([]Handle, 0, len(file.Boxes))
	for _, h := range file.Boxes {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })
	return handles, nil
}

// load reads the store file. A missing file yields an empty store so the
// first run works without any setup.
func (s *Store) load() (*storeFile, error) {
	file := &storeFile{Boxes: map[string]Handle{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return nil, fmt.Errorf("reading handle store: %w", err)
	}
	if err := toml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("parsing handle store %s: %w", s.path, err)
	}
	if file.Boxes == nil {
		file.Boxes = map[string]Handle{}
	}
	return file, nil
}

func (s *Store) save(file *storeFile) error {
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding handle store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating handle store dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing handle store: %w", err)
	}
	return nil
}
