// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/parking-memo/internal/logger"
)

const (
	logindInterface   = "org.freedesktop.login1.Manager"
	logindSleepMember = "PrepareForSleep"

	resumeDebounce   = 2 * time.Second
	signalBufferSize = 8

	busRetryDelay    = 5 * time.Second
	wakeupSettleTime = 10 * time.Second
)

// monitorSleepResume resumes the parking session whenever logind reports the end of a system sleep.
// Lost bus connections are re-established until ctx is done.
func (s *Service) monitorSleepResume(ctx context.Context) {
	var lastResume atomic.Int64
	for {
		conn, ok := s.subscribeSleepSignal(ctx)
		if !ok {
			return
		}

		sigCh := make(chan *dbus.Signal, signalBufferSize)
		conn.Signal(sigCh)
		s.watchSleepSignals(ctx, sigCh, &lastResume)
		conn.RemoveSignal(sigCh)
		if err := conn.Close(); err != nil {
			s.logger.Debug("failed to close system bus connection", logger.Err(err))
		}

		if !sleepCtx(ctx, busRetryDelay) {
			return
		}
	}
}

// subscribeSleepSignal connects to the system bus and subscribes to PrepareForSleep. It retries
// until it succeeds or ctx is done.
func (s *Service) subscribeSleepSignal(ctx context.Context) (*dbus.Conn, bool) {
	for {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err == nil {
			err = conn.AddMatchSignal(dbus.WithMatchInterface(logindInterface),
				dbus.WithMatchMember(logindSleepMember))
			if err == nil {
				s.logger.Debug("subscribed to dbus signal", slog.String("interface", logindInterface),
					slog.String("member", logindSleepMember))
				return conn, true
			}
			_ = conn.Close()
		}
		s.logger.Debug("failed to subscribe to sleep signal, retrying", logger.Err(err))
		if !sleepCtx(ctx, busRetryDelay) {
			return nil, false
		}
	}
}

// watchSleepSignals returns when ctx is done or the signal channel is closed.
func (s *Service) watchSleepSignals(ctx context.Context, sigCh <-chan *dbus.Signal, lastResume *atomic.Int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case sgn, ok := <-sigCh:
			if !ok {
				return
			}
			if !isResumeSignal(sgn) {
				continue
			}
			s.handleResumeEvent(ctx, lastResume)
		}
	}
}

// isResumeSignal reports whether sgn is PrepareForSleep(false), sent when the system woke up.
func isResumeSignal(sgn *dbus.Signal) bool {
	if sgn == nil || len(sgn.Body) != 1 {
		return false
	}
	sleeping, ok := sgn.Body[0].(bool)
	return ok && !sleeping
}

// handleResumeEvent debounces resume signals, waits for the location services to come back and
// then resumes the parking session.
func (s *Service) handleResumeEvent(ctx context.Context, lastResume *atomic.Int64) {
	now := time.Now().UnixNano()
	if time.Duration(now-lastResume.Load()) < resumeDebounce {
		return
	}
	lastResume.Store(now)

	if !sleepCtx(ctx, wakeupSettleTime) {
		return
	}
	s.logger.Debug("system resumed from sleep, resuming parking session")
	s.runCommand(ctx, cmdResume, nil)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
