package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/rs/zerolog/log"
)

// Store wraps the download directory. Every name is resolved inside Dir.
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// EnsureDir creates the directory if it does not exist yet.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return &domain.LocalIOError{Op: "mkdir", Path: s.Dir, Err: err}
	}
	return nil
}

// Path returns the on-disk path for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// List returns entry names in directory enumeration order. The order is not
// sorted and may differ between filesystems.
func (s *Store) List() ([]string, error) {
	dir, err := os.Open(s.Dir)
	if err != nil {
		return nil, &domain.LocalIOError{Op: "list", Path: s.Dir, Err: err}
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, &domain.LocalIOError{Op: "list", Path: s.Dir, Err: err}
	}
	return names, nil
}

func (s *Store) Write(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domain.LocalIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LocalIOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Stat describes a stored file.
func (s *Store) Stat(name string) (domain.LocalFile, error) {
	path, err := s.resolve(name)
	if err != nil {
		return domain.LocalFile{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.LocalFile{}, &domain.LocalIOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return domain.LocalFile{}, &domain.LocalIOError{Op: "stat", Path: path, Err: errors.New("is a directory")}
	}
	return domain.LocalFile{Name: info.Name(), Path: path, Size: info.Size()}, nil
}

// Delete removes name and reports whether it succeeded. Failures are logged,
// never returned.
func (s *Store) Delete(name string) bool {
	path, err := s.resolve(name)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("error deleting file")
		return false
	}
	if err := os.Remove(path); err != nil {
		log.Error().Err(err).Str("file", path).Msg("error deleting file")
		return false
	}
	return true
}

func (s *Store) resolve(name string) (string, error) {
	base := filepath.Base(name)
	if name == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", &domain.LocalIOError{Op: "resolve", Path: name, Err: fmt.Errorf("invalid file name %q", name)}
	}
	return filepath.Join(s.Dir, base), nil
}
