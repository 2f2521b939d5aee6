// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/parking-memo/internal/config"
	"github.com/wneessen/parking-memo/internal/geobus"
	"github.com/wneessen/parking-memo/internal/geocode"
	"github.com/wneessen/parking-memo/internal/http"
	"github.com/wneessen/parking-memo/internal/job"
	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/presenter"
	"github.com/wneessen/parking-memo/internal/session"
	"github.com/wneessen/parking-memo/internal/store"
	"github.com/wneessen/parking-memo/internal/watcher"
)

const (
	displayBufferSize = 8
	cacheMissTTL      = time.Minute * 5
)

type Service struct {
	config    *config.Config
	geobus    *geobus.GeoBus
	http      *http.Client
	logger    *logger.Logger
	presenter *presenter.Presenter
	scheduler gocron.Scheduler
	t         *spreak.Localizer

	input        io.Reader
	output       io.Writer
	outputLock   sync.Mutex
	signals      signalSource
	sleepMonitor func(context.Context)

	// Set up by Run
	geocoder  geocode.Geocoder
	providers []geobus.Provider
	session   *session.Session
	store     *store.Store
	jobs      []*job.Job
}

func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer) (*Service, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if t == nil {
		return nil, errors.New("localizer is required")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	service := &Service{
		config:    conf,
		geobus:    geobus.New(log),
		http:      http.New(log),
		logger:    log,
		presenter: pres,
		scheduler: scheduler,
		t:         t,
		input:     os.Stdin,
		output:    os.Stdout,
		signals:   stdLibSignalSource{},
	}
	service.sleepMonitor = service.monitorSleepResume
	return service, nil
}

// Run sets up storage, geocoding and location providers and runs the parking session until ctx is
// done or the quit command is received.
func (s *Service) Run(ctx context.Context) (err error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	backend, err := s.selectBackend(runCtx)
	if err != nil {
		return fmt.Errorf("failed to open storage backend: %w", err)
	}
	s.store, err = store.New(backend, s.logger)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to create record store: %w", err), backend.Close())
	}
	defer func() {
		if closeErr := s.store.Close(); closeErr != nil {
			s.logger.Error("failed to close storage backend", logger.Err(closeErr))
		}
	}()

	s.geocoder, err = s.selectGeocodeProvider()
	if err != nil {
		return fmt.Errorf("failed to create geocode provider: %w", err)
	}
	if s.providers == nil {
		if s.providers, err = s.selectGeobusProviders(); err != nil {
			return fmt.Errorf("failed to create location providers: %w", err)
		}
	}
	locWatcher, err := watcher.New(s.geobus, s.providers, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create location watcher: %w", err)
	}
	s.session, err = session.New(locWatcher, s.geocoder, s.store, s.presenter, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create parking session: %w", err)
	}

	if err = s.createScheduledJob(runCtx, s.config.Intervals.Output, s.printCurrent,
		"display_output_job"); err != nil {
		return err
	}
	if err = s.createScheduledJob(runCtx, s.config.Intervals.Availability, s.checkAvailability,
		"availability_check_job"); err != nil {
		return err
	}
	s.scheduler.Start()
	defer func() {
		if shutdownErr := s.scheduler.Shutdown(); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shut down scheduler: %w", shutdownErr))
		}
	}()
	for _, j := range s.jobs {
		go j.Start(runCtx)
	}

	displays, unsub := s.session.Subscribe(displayBufferSize)
	defer unsub()
	go s.printDisplays(runCtx, displays)
	go s.handleSignals(runCtx)
	go s.readCommands(runCtx, cancel)
	if s.sleepMonitor != nil {
		go s.sleepMonitor(runCtx)
	}

	s.logger.Info("parking memo started", slog.String("storage", s.store.Name()),
		slog.String("geocoder", s.geocoder.Name()), slog.Int("location_providers", len(s.providers)))
	return s.session.Run(runCtx)
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

func (s *Service) checkAvailability(ctx context.Context) {
	if err := s.session.CheckAvailability(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("failed to check location availability", logger.Err(err))
	}
}
