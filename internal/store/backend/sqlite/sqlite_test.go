// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package sqlite

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/record"
	"github.com/wneessen/parking-memo/internal/store"
	"github.com/wneessen/parking-memo/internal/vartype"
)

func TestNew(t *testing.T) {
	t.Run("new backend on a file", func(t *testing.T) {
		backend, err := New(t.Context(), filepath.Join(t.TempDir(), "db", "parking.db"))
		if err != nil {
			t.Fatalf("failed to create backend: %s", err)
		}
		t.Cleanup(func() { _ = backend.Close() })
		if backend.Name() != name {
			t.Errorf("expected backend name to be %q, got %q", name, backend.Name())
		}
	})
	t.Run("empty path fails", func(t *testing.T) {
		if _, err := New(t.Context(), ""); err == nil {
			t.Error("expected backend creation to fail")
		}
	})
}

func TestBackend_ReadWrite(t *testing.T) {
	backend, err := New(t.Context(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create backend: %s", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	t.Run("reading without keys returns no entries", func(t *testing.T) {
		entries, err := backend.Read(t.Context(), nil)
		if err != nil {
			t.Fatalf("failed to read entries: %s", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %v", entries)
		}
	})
	t.Run("missing keys are not returned", func(t *testing.T) {
		entries, err := backend.Read(t.Context(), record.Keys)
		if err != nil {
			t.Fatalf("failed to read entries: %s", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %v", entries)
		}
	})
	t.Run("writes overwrite previous values", func(t *testing.T) {
		if err = backend.Write(t.Context(), map[string]string{record.KeyLatitude: "1", record.KeyAddress: "A"}); err != nil {
			t.Fatalf("failed to write entries: %s", err)
		}
		if err = backend.Write(t.Context(), map[string]string{record.KeyLatitude: "2"}); err != nil {
			t.Fatalf("failed to write entries: %s", err)
		}
		entries, err := backend.Read(t.Context(), []string{record.KeyLatitude, record.KeyAddress})
		if err != nil {
			t.Fatalf("failed to read entries: %s", err)
		}
		if entries[record.KeyLatitude] != "2" {
			t.Errorf("expected latitude to be %q, got %q", "2", entries[record.KeyLatitude])
		}
		if entries[record.KeyAddress] != "A" {
			t.Errorf("expected address to be %q, got %q", "A", entries[record.KeyAddress])
		}
	})
	t.Run("write on a closed database fails", func(t *testing.T) {
		closed, err := New(t.Context(), ":memory:")
		if err != nil {
			t.Fatalf("failed to create backend: %s", err)
		}
		_ = closed.Close()
		if err = closed.Write(t.Context(), map[string]string{record.KeyLatitude: "1"}); err == nil {
			t.Error("expected write to fail")
		}
	})
}

func TestBackend_store(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parking.db")
	log := logger.NewLogger(slog.LevelError, io.Discard)

	backend, err := New(t.Context(), path)
	if err != nil {
		t.Fatalf("failed to create backend: %s", err)
	}
	s, err := store.New(backend, log)
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}
	want := record.New(-33.8688, 151.2093)
	want.Accuracy = vartype.NewVariable(5.0)
	want.Address = vartype.NewVariable("George St (Sydney), Sydney")
	s.Save(t.Context(), want)
	if err = s.Close(); err != nil {
		t.Fatalf("failed to close store: %s", err)
	}

	backend, err = New(t.Context(), path)
	if err != nil {
		t.Fatalf("failed to reopen backend: %s", err)
	}
	s, err = store.New(backend, log)
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	got, ok := s.Load(t.Context())
	if !ok {
		t.Fatal("expected record to be present")
	}
	if got != want {
		t.Errorf("expected record to be %+v, got %+v", want, got)
	}
	if got.Timestamp.IsSet() {
		t.Error("expected timestamp to be unset")
	}
}
