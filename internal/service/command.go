// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/session"
)

type command string

const (
	cmdRecall command = "recall"
	cmdTrack  command = "track"
	cmdToggle command = "toggle"
	cmdSave   command = "save"
	cmdResume command = "resume"
	cmdQuit   command = "quit"
)

var errUnknownCommand = errors.New("unknown command")

// readCommands executes one command per input line until the input ends or ctx is done.
func (s *Service) readCommands(ctx context.Context, quit func()) {
	if s.input == nil {
		return
	}
	scanner := bufio.NewScanner(s.input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		s.runCommand(ctx, command(line), quit)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Error("failed to read commands", logger.Err(err))
	}
}

func (s *Service) runCommand(ctx context.Context, cmd command, quit func()) {
	err := s.execute(ctx, cmd, quit)
	switch {
	case err == nil:
		s.logger.Debug("command executed", slog.String("command", string(cmd)))
	case errors.Is(err, session.ErrNotTracking), errors.Is(err, session.ErrNoFix):
		s.logger.Warn("parking spot not saved", logger.Err(err))
	case errors.Is(err, context.Canceled), errors.Is(err, session.ErrStopped):
	default:
		s.logger.Error("failed to execute command", slog.String("command", string(cmd)), logger.Err(err))
	}
}

func (s *Service) execute(ctx context.Context, cmd command, quit func()) error {
	switch cmd {
	case cmdRecall:
		return s.session.SetMode(ctx, session.ModeRecalling)
	case cmdTrack:
		return s.session.SetMode(ctx, session.ModeTracking)
	case cmdToggle:
		return s.session.Toggle(ctx)
	case cmdSave:
		return s.session.Save(ctx)
	case cmdResume:
		return s.session.Resume(ctx)
	case cmdQuit:
		if quit != nil {
			s.logger.Info("quit command received, shutting down")
			quit()
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}
