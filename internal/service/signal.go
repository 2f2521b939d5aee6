// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// stdLibSignalSource is the production implementation.
type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// handleSignals maps SIGUSR1 to toggle, SIGUSR2 to save and SIGHUP to resume.
func (s *Service) handleSignals(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP)
	defer s.signals.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			s.logger.Debug("received signal", slog.String("signal", sig.String()))
			var cmd command
			switch sig {
			case syscall.SIGUSR1:
				cmd = cmdToggle
			case syscall.SIGUSR2:
				cmd = cmdSave
			case syscall.SIGHUP:
				cmd = cmdResume
			default:
				continue
			}
			s.runCommand(ctx, cmd, nil)
		}
	}
}
