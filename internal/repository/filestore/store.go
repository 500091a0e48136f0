// Package filestore keeps slot content as files under a workspace directory:
//
//	<root>/<kind>/<slot>
//
// Writes are atomic (temp file + fsync + rename), so a reader never sees a
// half-written blob.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid key")

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) resolve(key string) (string, error) {
	parts := strings.Split(key, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `\`+"\x00") {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(append([]string{s.root}, parts...)...), nil
}

// within rejects references outside the workspace.
func (s *Store) within(ref string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(ref))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("reference %q is outside the workspace", ref)
	}
	return nil
}

func (s *Store) Locate(key string) string {
	p, err := s.resolve(key)
	if err != nil {
		return ""
	}
	return p
}

func (s *Store) Save(_ context.Context, key string, data []byte) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func (s *Store) Read(_ context.Context, ref string) ([]byte, error) {
	if err := s.within(ref); err != nil {
		return nil, err
	}
	return os.ReadFile(ref)
}

// Delete is idempotent: a missing file is not an error.
func (s *Store) Delete(_ context.Context, ref string) error {
	if err := s.within(ref); err != nil {
		return err
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Exists(_ context.Context, ref string) (bool, error) {
	if err := s.within(ref); err != nil {
		return false, err
	}
	fi, err := os.Stat(ref)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// SweepTemp removes temp files that an interrupted Save left in the
// directory of kind. A missing directory is not an error.
func (s *Store) SweepTemp(_ context.Context, kind string) error {
	dir, err := s.resolve(kind)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.Contains(e.Name(), tempInfix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const tempInfix = ".tmp."

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+tempInfix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
