// Package filestore keeps a whole JSON document in a single file.
//
// Every Update is a read-modify-write of the entire file performed under one
// writer lock, and the new content replaces the old file through an atomic
// rename. Concurrent writers in the same process therefore serialize: the
// second writer reads what the first one wrote. Separate processes sharing a
// file are not coordinated.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Document is a JSON file holding one value of type T.
type Document[T any] struct {
	path   string
	logger *zap.Logger

	mu sync.RWMutex
}

// Open prepares a document at path, creating parent directories.
// The file itself is created on the first write.
func Open[T any](path string, logger *zap.Logger) (*Document[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir for %s: %w", path, err)
	}
	return &Document[T]{path: path, logger: logger.With(zap.String("file", path))}, nil
}

func (d *Document[T]) Path() string { return d.path }

// Read returns the current value. A missing or empty file reads as the zero value.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.load()
}

// Update loads the document, applies fn and writes the result back while
// holding the writer lock. If fn returns an error nothing is written.
func (d *Document[T]) Update(ctx context.Context, fn func(*T) error) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.load()
	if err != nil {
		return v, err
	}
	if err := ctx.Err(); err != nil {
		return v, err
	}
	if err := fn(&v); err != nil {
		return v, err
	}
	if err := d.store(v); err != nil {
		return v, err
	}
	return v, nil
}

// Replace overwrites the whole document.
func (d *Document[T]) Replace(ctx context.Context, v T) error {
	_, err := d.Update(ctx, func(cur *T) error {
		*cur = v
		return nil
	})
	return err
}

func (d *Document[T]) load() (T, error) {
	var v T
	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		d.logger.Error("filestore read failed", zap.Error(err))
		return v, fmt.Errorf("filestore: read %s: %w", d.path, err)
	}
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		d.logger.Error("filestore decode failed", zap.Error(err))
		return v, fmt.Errorf("filestore: decode %s: %w", d.path, err)
	}
	return v, nil
}

func (d *Document[T]) store(v T) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", d.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		cleanup()
		return fmt.Errorf("filestore: rename into %s: %w", d.path, err)
	}
	d.logger.Debug("filestore written", zap.Int("bytes", len(raw)))
	return nil
}
