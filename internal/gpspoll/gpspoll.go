// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpspoll probes a running gpsd for the current fix of its receiver.
package gpspoll

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

const (
	accuracy3DFix = 10  // typical consumer receiver with open sky
	accuracy2DFix = 25  // altitude unknown, horizontal error grows
	accuracyNoFix = 1e6 // not usable for a parking spot

	defaultProbeTimeout = time.Second * 2
	watchRequest        = `?WATCH={"enable":true,"json":true}` + "\n"
)

var (
	// ErrNoDevice is returned when gpsd runs without an attached receiver.
	ErrNoDevice = errors.New("gpsd has no GPS receiver attached")
	// ErrNoReport is returned when gpsd closed the stream before sending a position report.
	ErrNoReport = errors.New("no position report received from gpsd")
)

// Prober dials gpsd, enables watch mode and waits for the first position report.
type Prober struct {
	addr    string
	timeout time.Duration
	dialFn  func(ctx context.Context, addr string) (net.Conn, error)
}

// Fix is a single position report of the receiver.
type Fix struct {
	Lat  float64
	Lon  float64
	Acc  float64
	Mode int
	Time time.Time
}

// report holds the fields of the gpsd reports the prober reads. gpsd sends one JSON object per line
// and tells them apart by class.
type report struct {
	Class   string            `json:"class"`
	Message string            `json:"message"`
	Devices []json.RawMessage `json:"devices"`
	Time    time.Time         `json:"time"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Mode    int               `json:"mode"`
	Epx     float64           `json:"epx"`
	Epy     float64           `json:"epy"`
	Eph     float64           `json:"eph"`
}

// New returns a Prober for the gpsd instance at host and port.
func New(host, port string) *Prober {
	dialer := &net.Dialer{}
	return &Prober{
		addr:    net.JoinHostPort(host, port),
		timeout: defaultProbeTimeout,
		dialFn: func(ctx context.Context, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
	}
}

// Addr returns the gpsd address in host:port form.
func (p *Prober) Addr() string {
	return p.addr
}

// Probe returns the first position report gpsd sends after watch mode is enabled. Without a deadline
// on ctx the probe gives up after two seconds.
func (p *Prober) Probe(ctx context.Context) (Fix, error) {
	conn, err := p.dialFn(ctx, p.addr)
	if err != nil {
		return Fix{}, fmt.Errorf("failed to dial gpsd at %q: %w", p.addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(p.timeout)
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err = fmt.Fprint(conn, watchRequest); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Fix{}, ctxErr
		}
		return Fix{}, fmt.Errorf("failed to enable gpsd watch mode: %w", err)
	}

	fix, err := readFix(bufio.NewScanner(conn))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Fix{}, ctxErr
	}
	return fix, err
}

// readFix scans gpsd reports until a TPV report arrives. An ERROR report or an empty device list
// ends the scan early.
func readFix(scanner *bufio.Scanner) (Fix, error) {
	for scanner.Scan() {
		var rep report
		if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
			continue
		}
		switch rep.Class {
		case "ERROR":
			return Fix{}, fmt.Errorf("gpsd reported an error: %s", rep.Message)
		case "DEVICES":
			if len(rep.Devices) == 0 {
				return Fix{}, ErrNoDevice
			}
		case "TPV":
			return Fix{
				Lat:  rep.Lat,
				Lon:  rep.Lon,
				Acc:  HorizontalAccuracy(rep.Eph, rep.Epx, rep.Epy, rep.Mode),
				Mode: rep.Mode,
				Time: rep.Time,
			}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Fix{}, fmt.Errorf("failed to read gpsd reports: %w", err)
	}
	return Fix{}, ErrNoReport
}

// Has2DFix reports whether the receiver knows at least its horizontal position.
func (f Fix) Has2DFix() bool {
	return f.Mode >= 2
}

// HorizontalAccuracy returns the horizontal error of a report in meters. Receivers that do not send
// eph are estimated from epx and epy, and without any error estimate the fix mode decides.
func HorizontalAccuracy(eph, epx, epy float64, mode int) float64 {
	if eph > 0 {
		return eph
	}
	if epx > 0 && epy > 0 {
		return math.Hypot(epx, epy)
	}
	switch {
	case mode >= 3:
		return accuracy3DFix
	case mode == 2:
		return accuracy2DFix
	default:
		return accuracyNoFix
	}
}
