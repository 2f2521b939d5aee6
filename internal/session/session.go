// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package session implements the parking session: it switches between recalling the saved parking
// spot and tracking the live position, resolves addresses and saves the spot on request.
//
// All session state is owned by a single event loop started with Run. Location updates, geocode
// completions and user commands are queued as events, so no state is shared between goroutines.
// Display snapshots are published to subscribers after every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wneessen/parking-memo/internal/geobus"
	"github.com/wneessen/parking-memo/internal/geocode"
	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/record"
	"github.com/wneessen/parking-memo/internal/vartype"
	"github.com/wneessen/parking-memo/internal/watcher"
)

const eventBufferSize = 32

var (
	// ErrNotTracking is returned by Save outside of tracking mode.
	ErrNotTracking = errors.New("parking spot can only be saved while tracking")
	// ErrNoFix is returned by Save before the first position arrived.
	ErrNoFix = errors.New("no position received yet")
	// ErrStopped is returned by commands once the event loop has ended.
	ErrStopped = errors.New("parking session is not running")
	// ErrRunning is returned by Run if the event loop is already running.
	ErrRunning = errors.New("parking session is already running")
)

// Formatter produces the user-facing texts of the session.
type Formatter interface {
	RecallText(rec record.Record) string
	TrackingText(rec record.Record) string
	NoPositionText() string
	UpdatingText() string
	Timestamp(t time.Time) string
	MarkerTitle() string
	LocationAlert() Alert
}

// LocationWatcher streams position updates.
type LocationWatcher interface {
	Available(ctx context.Context) bool
	Start(ctx context.Context, onUpdate func(watcher.Update), onError func(error)) (*watcher.Subscription, error)
	Stop(sub *watcher.Subscription)
}

// RecordStore persists the parking record.
type RecordStore interface {
	Save(ctx context.Context, rec record.Record)
	Load(ctx context.Context) (record.Record, bool)
}

type event func(ctx context.Context)

// Session is a parking session. Create it with New and start its event loop with Run.
type Session struct {
	watcher  LocationWatcher
	geocoder geocode.Geocoder
	store    RecordStore
	format   Formatter
	logger   *logger.Logger
	now      func() time.Time

	events  chan event
	quit    chan struct{}
	running atomic.Bool

	// owned by the event loop
	mode     Mode
	epoch    uint64
	sub      *watcher.Subscription
	live     record.Record
	hasFix   bool
	saved    record.Record
	hasSaved bool
	alert    *Alert
	display  Display

	subLock     sync.RWMutex
	subscribers map[int]chan Display
	nextSubID   int
	current     Display
}

// New returns a Session in recalling mode.
func New(locWatcher LocationWatcher, geocoder geocode.Geocoder, store RecordStore, format Formatter,
	log *logger.Logger,
) (*Session, error) {
	switch {
	case locWatcher == nil:
		return nil, errors.New("location watcher is required")
	case geocoder == nil:
		return nil, errors.New("geocoder is required")
	case store == nil:
		return nil, errors.New("record store is required")
	case format == nil:
		return nil, errors.New("formatter is required")
	case log == nil:
		return nil, errors.New("logger is required")
	}

	return &Session{
		watcher:     locWatcher,
		geocoder:    geocoder,
		store:       store,
		format:      format,
		logger:      log,
		now:         time.Now,
		events:      make(chan event, eventBufferSize),
		quit:        make(chan struct{}),
		mode:        ModeRecalling,
		subscribers: make(map[int]chan Display),
	}, nil
}

// Run enters recalling mode and processes events until ctx is done. The watcher is stopped and all
// subscriber channels are closed on return. Run can only be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.shutdown()

	s.enterRecalling(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			ev(ctx)
		}
	}
}

// SetMode switches the session into mode. Selecting the current mode enters it again.
func (s *Session) SetMode(ctx context.Context, mode Mode) error {
	return s.do(ctx, func(loopCtx context.Context) error {
		switch mode {
		case ModeRecalling:
			s.enterRecalling(loopCtx)
		case ModeTracking:
			s.enterTracking(loopCtx)
		default:
			return fmt.Errorf("unsupported session mode: %d", mode)
		}
		return nil
	})
}

// Toggle switches between recalling and tracking mode.
func (s *Session) Toggle(ctx context.Context) error {
	return s.do(ctx, func(loopCtx context.Context) error {
		if s.mode == ModeTracking {
			s.enterRecalling(loopCtx)
			return nil
		}
		s.enterTracking(loopCtx)
		return nil
	})
}

// Save stamps the current time on the live record and persists it. It fails outside of tracking
// mode and before the first position arrived.
func (s *Session) Save(ctx context.Context) error {
	return s.do(ctx, func(loopCtx context.Context) error {
		if s.mode != ModeTracking {
			return ErrNotTracking
		}
		if !s.hasFix {
			return ErrNoFix
		}

		rec := s.live
		rec.Timestamp.Set(s.format.Timestamp(s.now()))
		s.store.Save(loopCtx, rec)
		s.saved, s.hasSaved = rec, true
		s.logger.Info("parking spot saved", slog.Float64("lat", rec.Latitude),
			slog.Float64("lon", rec.Longitude), slog.String("address", rec.Address.Value()))

		s.emitLive()
		return nil
	})
}

// Resume handles the application coming back to the foreground. It checks the location
// availability, reloads the saved spot in recalling mode and starts a watcher in tracking mode if
// none is running yet.
func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, func(loopCtx context.Context) error {
		s.logger.Debug("resuming parking session", slog.String("mode", s.mode.String()))
		available := s.checkAvailability(loopCtx)
		switch s.mode {
		case ModeRecalling:
			s.emitRecall(loopCtx)
		case ModeTracking:
			if available && s.sub == nil {
				s.startWatcher(loopCtx)
				return nil
			}
			s.refresh()
		}
		return nil
	})
}

// CheckAvailability re-checks the location availability. The alert is set or cleared accordingly
// and a tracking session without a running watcher is started once a provider becomes available.
func (s *Session) CheckAvailability(ctx context.Context) error {
	return s.do(ctx, func(loopCtx context.Context) error {
		hadAlert := s.alert != nil
		available := s.checkAvailability(loopCtx)
		if s.mode == ModeTracking && available && s.sub == nil {
			s.startWatcher(loopCtx)
			return nil
		}
		if hadAlert != (s.alert != nil) {
			s.refresh()
		}
		return nil
	})
}

// Mode returns the mode of the last published display.
func (s *Session) Mode() Mode {
	return s.Current().Mode
}

// Current returns the last published display.
func (s *Session) Current() Display {
	s.subLock.RLock()
	defer s.subLock.RUnlock()
	return s.current
}

// Subscribe returns a channel that receives every published display, starting with the current
// one. Slow subscribers miss displays. The returned function ends the subscription.
func (s *Session) Subscribe(buffer int) (<-chan Display, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Display, buffer)

	// shutdown closes quit before it takes subLock, so a subscriber registered while quit is open
	// is always closed by shutdown.
	s.subLock.Lock()
	defer s.subLock.Unlock()
	select {
	case <-s.quit:
		close(ch)
		return ch, func() {}
	default:
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	if s.running.Load() {
		ch <- s.current
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subLock.Lock()
			defer s.subLock.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

func (s *Session) shutdown() {
	s.stopWatcher()
	close(s.quit)

	s.subLock.Lock()
	defer s.subLock.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// do runs fn on the event loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)
	ev := func(loopCtx context.Context) {
		result <- fn(loopCtx)
	}
	select {
	case s.events <- ev:
	case <-s.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-s.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues ev without waiting for it. It reports false if the event loop has ended.
func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) enterRecalling(ctx context.Context) {
	s.stopWatcher()
	s.mode = ModeRecalling
	s.epoch++
	s.live.Reset()
	s.hasFix = false
	s.logger.Info("parking session mode changed", slog.String("mode", s.mode.String()))
	s.emitRecall(ctx)
}

func (s *Session) enterTracking(ctx context.Context) {
	s.stopWatcher()
	s.mode = ModeTracking
	s.epoch++
	s.live.Reset()
	s.hasFix = false
	s.saved, s.hasSaved = s.store.Load(ctx)
	s.logger.Info("parking session mode changed", slog.String("mode", s.mode.String()))

	available := s.checkAvailability(ctx)
	s.publish(s.updatingDisplay())
	if !available {
		return
	}
	s.startWatcher(ctx)
}

// checkAvailability sets or clears the location alert.
func (s *Session) checkAvailability(ctx context.Context) bool {
	if s.watcher.Available(ctx) {
		s.alert = nil
		return true
	}
	s.logger.Warn("no location provider available")
	alert := s.format.LocationAlert()
	s.alert = &alert
	return false
}

func (s *Session) startWatcher(ctx context.Context) {
	epoch := s.epoch
	onUpdate := func(update watcher.Update) {
		s.post(func(loopCtx context.Context) {
			if s.epoch != epoch {
				return
			}
			s.handleUpdate(loopCtx, update)
		})
	}
	onError := func(err error) {
		s.post(func(context.Context) {
			if s.epoch != epoch {
				return
			}
			s.logger.Error("location update failed", logger.Err(err))
		})
	}

	sub, err := s.watcher.Start(ctx, onUpdate, onError)
	if err != nil {
		s.logger.Error("failed to start location watcher", logger.Err(err))
		alert := s.format.LocationAlert()
		s.alert = &alert
		s.publish(s.updatingDisplay())
		return
	}
	s.sub = sub
	s.logger.Debug("location watcher started", slog.String("subscription", sub.ID()))
	if s.display.Kind != KindUpdating {
		s.publish(s.updatingDisplay())
	}
}

func (s *Session) stopWatcher() {
	if s.sub == nil {
		return
	}
	s.watcher.Stop(s.sub)
	s.logger.Debug("location watcher stopped", slog.String("subscription", s.sub.ID()))
	s.sub = nil
}

func (s *Session) handleUpdate(ctx context.Context, update watcher.Update) {
	s.logger.Debug("position update received", slog.Float64("lat", update.Latitude),
		slog.Float64("lon", update.Longitude), slog.String("accuracy", update.Accuracy.String()),
		slog.String("source", update.Source))

	s.live.Latitude = update.Latitude
	s.live.Longitude = update.Longitude
	s.live.Accuracy = update.Accuracy
	s.hasFix = true
	s.emitLive()

	epoch := s.epoch
	go func() {
		address := geocode.UnknownLocation
		addr, err := s.geocoder.Reverse(ctx, update.Latitude, update.Longitude)
		switch {
		case err != nil:
			s.logger.Warn("failed to resolve address", logger.Err(err), slog.String("geocoder", s.geocoder.Name()))
		default:
			address = geocode.Describe(addr)
		}
		s.post(func(context.Context) {
			if s.epoch != epoch {
				s.logger.Debug("discarding address of a previous tracking run", slog.String("address", address))
				return
			}
			s.live.Address = vartype.NewVariable(address)
			s.emitLive()
		})
	}()
}

// refresh publishes the display of the current mode again, e.g. after the alert changed.
func (s *Session) refresh() {
	d := s.display
	d.Alert = s.alert
	if d.Mode == ModeTracking && (d.Kind == KindUpdating || d.Kind == KindUnavailable) {
		d = s.updatingDisplay()
	}
	s.publish(d)
}

func (s *Session) emitRecall(ctx context.Context) {
	rec, ok := s.store.Load(ctx)
	if !ok {
		s.publish(Display{
			Mode:        ModeRecalling,
			Kind:        KindNoPosition,
			Text:        s.format.NoPositionText(),
			InfoVisible: true,
			Alert:       s.alert,
		})
		return
	}

	d := Display{
		Mode:         ModeRecalling,
		Kind:         KindSaved,
		Text:         s.format.RecallText(rec),
		Centered:     true,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Accuracy:     rec.Accuracy,
		RegionRadius: RegionRadius,
		Marker:       true,
		MarkerTitle:  s.format.MarkerTitle(),
		Timestamp:    rec.Timestamp.Value(),
		InfoVisible:  true,
		Alert:        s.alert,
	}
	if rec.HasAddress() {
		d.highlight(rec.Address.Value())
	}
	s.publish(d)
}

func (s *Session) updatingDisplay() Display {
	kind := KindUpdating
	if s.alert != nil && s.sub == nil {
		kind = KindUnavailable
	}
	return Display{
		Mode:        ModeTracking,
		Kind:        kind,
		Text:        s.format.UpdatingText(),
		SaveVisible: true,
		Alert:       s.alert,
	}
}

func (s *Session) emitLive() {
	if !s.hasFix {
		s.publish(s.updatingDisplay())
		return
	}

	text := s.format.TrackingText(s.live)
	if text == "" {
		text = s.format.UpdatingText()
	}
	d := Display{
		Mode:         ModeTracking,
		Kind:         KindLive,
		Text:         text,
		Centered:     true,
		Latitude:     s.live.Latitude,
		Longitude:    s.live.Longitude,
		Accuracy:     s.live.Accuracy,
		RegionRadius: RegionRadius,
		SaveVisible:  true,
		Alert:        s.alert,
	}
	if s.live.HasAddress() {
		d.highlight(s.live.Address.Value())
	}
	if s.hasSaved {
		live := geobus.Coordinate{Lat: s.live.Latitude, Lon: s.live.Longitude}
		spot := geobus.Coordinate{Lat: s.saved.Latitude, Lon: s.saved.Longitude}
		d.DistanceToSaved = vartype.NewVariable(live.DistanceTo(spot))
	}
	s.publish(d)
}

func (s *Session) publish(d Display) {
	s.display = d

	s.subLock.Lock()
	defer s.subLock.Unlock()
	s.current = d
	for id, ch := range s.subscribers {
		select {
		case ch <- d:
		default:
			s.logger.Warn("display subscriber is too slow, dropping display", slog.Int("subscriber", id))
		}
	}
}
