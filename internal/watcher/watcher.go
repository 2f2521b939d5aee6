// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package watcher turns the location bus into start/stop subscriptions with plain callbacks.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/parking-memo/internal/geobus"
	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/vartype"
)

const busBufferSize = 16

var ErrNoProviders = errors.New("at least one location provider is required")

// Update is a single position report.
type Update struct {
	Latitude  float64
	Longitude float64
	Accuracy  vartype.VarFloat64
	Source    string
	At        time.Time
}

// Subscription is a running position stream. Stop may be called any number of times.
type Subscription struct {
	id   string
	stop func()
	once sync.Once
}

// newSubscription returns a Subscription that runs stop on its first Stop call.
func newSubscription(id string, stop func()) *Subscription {
	return &Subscription{id: id, stop: stop}
}

// ID returns the bus key of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Stop ends the stream. It does not wait for callbacks that are already running.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// Watcher starts and stops position streams over a set of providers.
type Watcher struct {
	bus       *geobus.GeoBus
	providers []geobus.Provider
	logger    *logger.Logger
}

func New(bus *geobus.GeoBus, providers []geobus.Provider, log *logger.Logger) (*Watcher, error) {
	if bus == nil {
		return nil, errors.New("location bus is required")
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Watcher{bus: bus, providers: providers, logger: log}, nil
}

// Available reports whether at least one provider can deliver positions. Providers that cannot check
// their availability count as available.
func (w *Watcher) Available(ctx context.Context) bool {
	for _, provider := range w.providers {
		checker, ok := provider.(geobus.AvailabilityChecker)
		if !ok {
			return true
		}
		if checker.Available(ctx) {
			return true
		}
		w.logger.Debug("location provider unavailable", "provider", provider.Name())
	}
	return false
}

// Start runs all providers and calls onUpdate for every position and onError for every provider
// failure until the subscription is stopped or ctx is done. Callbacks run on a single goroutine.
func (w *Watcher) Start(ctx context.Context, onUpdate func(Update), onError func(error)) (*Subscription, error) {
	if onUpdate == nil {
		return nil, errors.New("update callback is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to start location watcher: %w", err)
	}
	if onError == nil {
		onError = func(error) {}
	}

	id := uuid.NewString()
	results, unsub := w.bus.Subscribe(id, busBufferSize)
	trackCtx, cancel := context.WithCancel(ctx)

	go w.bus.NewOrchestrator(w.providers).Track(trackCtx, id)
	go func() {
		defer unsub()
		for {
			select {
			case <-trackCtx.Done():
				return
			case r, ok := <-results:
				if !ok {
					return
				}
				if trackCtx.Err() != nil {
					return
				}
				if r.Err != nil {
					onError(fmt.Errorf("location provider %s failed: %w", r.Source, r.Err))
					continue
				}
				onUpdate(toUpdate(r))
			}
		}
	}()

	return newSubscription(id, cancel), nil
}

// Stop ends sub. A nil subscription is ignored.
func (w *Watcher) Stop(sub *Subscription) {
	sub.Stop()
}

func toUpdate(r geobus.Result) Update {
	update := Update{
		Latitude:  r.Lat,
		Longitude: r.Lon,
		Source:    r.Source,
		At:        r.At,
	}
	if r.AccuracyMeters > 0 && r.AccuracyMeters < geobus.AccuracyUnknown {
		update.Accuracy = vartype.NewVariable(r.AccuracyMeters)
	}
	return update
}
