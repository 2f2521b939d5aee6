// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package job runs small housekeeping tasks at a fixed interval next to the scheduler.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wneessen/parking-memo/internal/logger"
)

// Job is a named task that runs at a fixed interval and never overlaps with itself. A panicking
// task is logged and the job keeps running.
type Job struct {
	name     string
	interval time.Duration
	task     func(context.Context)
	logger   *logger.Logger
	runs     atomic.Int64
}

// New returns a Job that runs task every interval.
func New(name string, interval time.Duration, task func(context.Context), log *logger.Logger) *Job {
	return &Job{
		name:     name,
		interval: interval,
		task:     task,
		logger:   log,
	}
}

// Name returns the name of the job.
func (j *Job) Name() string {
	return j.name
}

// Runs returns the number of completed runs.
func (j *Job) Runs() int64 {
	return j.runs.Load()
}

// Start runs the job until ctx is done. A tick that fires while the previous run is still busy is
// skipped.
func (j *Job) Start(ctx context.Context) {
	if j.task == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	busy := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case busy <- struct{}{}:
				go func() {
					defer func() { <-busy }()
					j.run(ctx)
				}()
			default:
				j.log("job still running, skipping tick")
			}
		}
	}
}

func (j *Job) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && j.logger != nil {
			j.logger.Error("job panicked", slog.String("job", j.name),
				logger.Err(fmt.Errorf("panic: %v", r)))
		}
	}()
	j.task(ctx)
	j.runs.Add(1)
	j.log("job completed")
}

func (j *Job) log(msg string) {
	if j.logger == nil {
		return
	}
	j.logger.Debug(msg, slog.String("job", j.name))
}
