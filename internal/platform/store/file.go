// Package store provides flat-file JSON persistence for the clinicbook
// service. Each File wraps one JSON document that is read fully into memory
// at startup and rewritten in full on every mutation.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// File is a whole-document JSON store backed by a single file on disk.
type File struct {
	path   string
	logger zerolog.Logger
}

// NewFile returns a store for the document at path.
func NewFile(path string, logger zerolog.Logger) *File {
	return &File{path: path, logger: logger}
}

// Path returns the location of the backing file.
func (f *File) Path() string { return f.path }

// Load reads the document into v. A missing or unreadable file is not an
// error: the failure is logged and v is left at its zero value, so callers
// start from an empty state.
func (f *File) Load(v interface{}) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.logger.Warn().Err(err).Str("path", f.path).Msg("loading store, starting empty")
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		f.logger.Warn().Err(err).Str("path", f.path).Msg("corrupt store file, starting empty")
		return nil
	}
	return nil
}

// Save rewrites the whole document from v. The write is synchronous; the
// caller decides whether a failure is fatal.
func (f *File) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory for %s: %w", f.path, err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}
