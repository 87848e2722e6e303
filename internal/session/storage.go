package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"farm-to-keells/internal/farmer"
)

// ErrNoSession is returned when nothing has been persisted yet.
var ErrNoSession = errors.New("session: no stored session")

// Storage persists the logged-in farmer between runs.
type Storage interface {
	Load() (*farmer.Farmer, error)
	Save(f *farmer.Farmer) error
	Clear() error
}

// FileStorage keeps the session blob in a single JSON file.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Load() (*farmer.Farmer, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var f farmer.Farmer
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, errors.New("session: stored farmer has no id")
	}
	return &f, nil
}

// Save writes to a temp file in the same directory and renames it over the
// blob, so a crash never leaves a half-written session.
func (s *FileStorage) Save(f *farmer.Farmer) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
