// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"

	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/session"
)

// printDisplays writes every published display until ctx is done or the channel is closed.
func (s *Service) printDisplays(ctx context.Context, displays <-chan session.Display) {
	for {
		select {
		case <-ctx.Done():
			return
		case display, ok := <-displays:
			if !ok {
				return
			}
			s.printDisplay(display)
		}
	}
}

// printCurrent writes the current display again.
func (s *Service) printCurrent(context.Context) {
	if s.session == nil {
		return
	}
	s.printDisplay(s.session.Current())
}

func (s *Service) printDisplay(display session.Display) {
	output, err := s.presenter.Render(display)
	if err != nil {
		s.logger.Error("failed to render display template", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if err = json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode display output", logger.Err(err))
	}
}
