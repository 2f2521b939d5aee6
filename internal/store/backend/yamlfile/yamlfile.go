// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package yamlfile implements a store backend on top of a single YAML defaults file.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	name     = "yamlfile"
	fileMode = 0o600
	dirMode  = 0o700
)

// Backend stores all entries in one YAML file. Writes go to a temporary file that is renamed over
// the original, so a crash never leaves a half written file behind.
type Backend struct {
	path string
	mu   sync.Mutex
}

// New returns a Backend for the file at path. The parent directory is created if needed.
func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("path to the defaults file is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("failed to create directory for defaults file: %w", err)
	}
	return &Backend{path: path}, nil
}

func (b *Backend) Name() string {
	return name
}

func (b *Backend) Write(_ context.Context, entries map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.readFile()
	if err != nil {
		return err
	}
	maps.Copy(current, entries)

	data, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".parking-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary defaults file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary defaults file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary defaults file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary defaults file: %w", err)
	}
	if err = os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("failed to set defaults file permissions: %w", err)
	}
	if err = os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to replace defaults file: %w", err)
	}
	return nil
}

func (b *Backend) Read(_ context.Context, keys []string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.readFile()
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := current[key]; ok {
			result[key] = val
		}
	}
	return result, nil
}

func (b *Backend) Close() error {
	return nil
}

// readFile returns the decoded file content. A missing file is an empty set of defaults.
func (b *Backend) readFile() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file %q: %w", b.path, err)
	}
	if err = yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode defaults file %q: %w", b.path, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return entries, nil
}
