package utils

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// TempFiles is a registry of temporary files owned by one run. The driver that creates it is
// responsible for calling Close, which removes every file still registered.
type TempFiles struct {
	mu     sync.Mutex
	files  map[string]struct{}
	closed bool
}

// NewTempFiles returns an empty registry.
func NewTempFiles() *TempFiles {
	return &TempFiles{files: map[string]struct{}{}}
}

// TempPath creates an empty temporary file in dir, registers it and returns its path.
func (tf *TempFiles) TempPath(dir, pattern string) (string, error) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if tf.closed {
		return "", errors.New("temporary file registry is closed")
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", errors.Wrap(err, "error creating temporary file")
	}
	if err := f.Close(); err != nil {
		return "", multierr.Combine(err, os.Remove(f.Name()))
	}
	tf.files[f.Name()] = struct{}{}
	return f.Name(), nil
}

// Add registers an existing path for removal at Close.
func (tf *TempFiles) Add(path string) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.files[path] = struct{}{}
}

// Commit renames a registered temporary file to dst and stops tracking it.
func (tf *TempFiles) Commit(tmp, dst string) error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if _, ok := tf.files[tmp]; !ok {
		return errors.Errorf("%q is not a registered temporary file", tmp)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return errors.Wrapf(err, "error moving %q to %q", tmp, dst)
	}
	delete(tf.files, tmp)
	return nil
}

// Paths returns the registered paths in sorted order.
func (tf *TempFiles) Paths() []string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	paths := make([]string, 0, len(tf.files))
	for p := range tf.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close removes every registered file. Files that are already gone are not errors.
func (tf *TempFiles) Close() error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	var errs error
	for p := range tf.files {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
		}
		delete(tf.files, p)
	}
	tf.closed = true
	return errs
}
