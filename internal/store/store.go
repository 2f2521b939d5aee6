// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package store persists the single parking record as independent key/value entries.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/record"
	"github.com/wneessen/parking-memo/internal/vartype"
)

var ErrNoBackend = errors.New("a storage backend is required")

// Backend is a key/value storage. Write must replace all given entries in one commit where the
// storage supports it. Read returns only the keys that exist.
type Backend interface {
	Name() string
	Write(ctx context.Context, entries map[string]string) error
	Read(ctx context.Context, keys []string) (map[string]string, error)
	Close() error
}

// Store saves and loads the parking record. Storage failures are logged and never returned.
type Store struct {
	backend Backend
	logger  *logger.Logger
}

// New returns a Store on top of the given backend.
func New(backend Backend, log *logger.Logger) (*Store, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Store{backend: backend, logger: log}, nil
}

// Name returns the name of the underlying backend.
func (s *Store) Name() string {
	return s.backend.Name()
}

// Save overwrites the persisted record with rec. Unset optional fields are written as empty values so
// that nothing of a previous record survives. A record outside the WGS84 range is not written.
func (s *Store) Save(ctx context.Context, rec record.Record) {
	if !rec.Valid() {
		s.logger.Error("refusing to save parking record with out of range coordinates",
			slog.Float64("lat", rec.Latitude), slog.Float64("lon", rec.Longitude))
		return
	}
	entries := map[string]string{
		record.KeyLatitude:  formatFloat(rec.Latitude),
		record.KeyLongitude: formatFloat(rec.Longitude),
		record.KeyPrecision: rec.Accuracy.Format(formatFloat),
		record.KeyAddress:   rec.Address.Or(""),
		record.KeyTimestamp: rec.Timestamp.Or(""),
	}

	if err := s.backend.Write(ctx, entries); err != nil {
		s.logger.Error("failed to save parking record", logger.Err(err),
			slog.String("backend", s.backend.Name()))
		return
	}
	s.logger.Debug("parking record saved", slog.String("backend", s.backend.Name()),
		slog.Float64("lat", rec.Latitude), slog.Float64("lon", rec.Longitude))
}

// Load returns the persisted record. The second return value is false if nothing usable is stored:
// a missing, unparsable or 0.0 latitude or longitude all count as absent.
func (s *Store) Load(ctx context.Context) (record.Record, bool) {
	entries, err := s.backend.Read(ctx, record.Keys)
	if err != nil {
		s.logger.Error("failed to load parking record", logger.Err(err),
			slog.String("backend", s.backend.Name()))
		return record.Record{}, false
	}

	var rec record.Record
	var ok bool
	if rec.Latitude, ok = parseFloat(entries, record.KeyLatitude); !ok || rec.Latitude == 0 {
		return record.Record{}, false
	}
	if rec.Longitude, ok = parseFloat(entries, record.KeyLongitude); !ok || rec.Longitude == 0 {
		return record.Record{}, false
	}
	rec.Accuracy = vartype.Maybe(parseFloat(entries, record.KeyPrecision))
	rec.Address = vartype.NonZero(entries[record.KeyAddress])
	rec.Timestamp = vartype.NonZero(entries[record.KeyTimestamp])
	return rec, true
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'g', -1, 64)
}

func parseFloat(entries map[string]string, key string) (float64, bool) {
	raw, ok := entries[key]
	if !ok || raw == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}
