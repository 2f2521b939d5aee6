// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package redis

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/record"
	"github.com/wneessen/parking-memo/internal/store"
	"github.com/wneessen/parking-memo/internal/testhelper"
	"github.com/wneessen/parking-memo/internal/vartype"
)

const envTestAddr = "PARKINGMEMO_TEST_REDIS_ADDR"

func testConfig(t *testing.T) Config {
	t.Helper()
	testhelper.PerformIntegrationTests(t)
	addr := os.Getenv(envTestAddr)
	if addr == "" {
		t.Skipf("%s not set, skipping redis tests", envTestAddr)
	}
	return Config{Addr: addr, KeyPrefix: "parking-memo-test:" + uuid.NewString() + ":"}
}

func TestNew(t *testing.T) {
	t.Run("empty address fails", func(t *testing.T) {
		if _, err := New(t.Context(), Config{}); err == nil {
			t.Error("expected backend creation to fail")
		}
	})
	t.Run("unreachable server fails", func(t *testing.T) {
		testhelper.PerformIntegrationTests(t)
		if _, err := New(t.Context(), Config{Addr: "127.0.0.1:1"}); err == nil {
			t.Error("expected backend creation to fail")
		}
	})
	t.Run("new backend connects", func(t *testing.T) {
		backend, err := New(t.Context(), testConfig(t))
		if err != nil {
			t.Fatalf("failed to create backend: %s", err)
		}
		t.Cleanup(func() { _ = backend.Close() })
		if backend.Name() != name {
			t.Errorf("expected backend name to be %q, got %q", name, backend.Name())
		}
	})
}

func TestBackend_store(t *testing.T) {
	backend, err := New(t.Context(), testConfig(t))
	if err != nil {
		t.Fatalf("failed to create backend: %s", err)
	}
	s, err := store.New(backend, logger.NewLogger(slog.LevelError, io.Discard))
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, ok := s.Load(t.Context()); ok {
		t.Fatal("expected no record in a fresh key space")
	}
	want := record.New(48.8566, 2.3522)
	want.Accuracy = vartype.NewVariable(30.0)
	want.Timestamp = vartype.NewVariable("Oct. 19, 2026")
	s.Save(t.Context(), want)

	got, ok := s.Load(t.Context())
	if !ok {
		t.Fatal("expected record to be present")
	}
	if got != want {
		t.Errorf("expected record to be %+v, got %+v", want, got)
	}
}
