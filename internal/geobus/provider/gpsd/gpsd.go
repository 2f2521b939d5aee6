// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/parking-memo/internal/geobus"
	"github.com/wneessen/parking-memo/internal/gpspoll"
)

const (
	name         = "gpsd"
	probeTimeout = time.Second * 3
	listenerSize = 8
)

// watchSession is the subset of a go-gpsd session the provider uses.
type watchSession interface {
	AddFilter(class string, filter gpsd.Filter)
	Watch() chan bool
}

// GeolocationGPSDProvider streams every TPV report with at least a 2D fix from gpsd. All streams share
// one gpsd session, which is dialed on first use and redialed when it ends. go-gpsd sessions cannot be
// closed, so the session lives as long as the process.
type GeolocationGPSDProvider struct {
	name   string
	addr   string
	period time.Duration
	ttl    time.Duration

	dialFn  func(addr string) (watchSession, error)
	probeFn func(ctx context.Context) (gpspoll.Fix, error)

	mu        sync.Mutex
	started   bool
	listeners map[chan geobus.Result]struct{}
}

func NewGeolocationGPSDProvider(host, port string) *GeolocationGPSDProvider {
	addr := net.JoinHostPort(host, port)
	prober := gpspoll.New(host, port)
	return &GeolocationGPSDProvider{
		name:   name,
		addr:   addr,
		period: time.Second * 10,
		ttl:    time.Second * 30,
		dialFn: func(addr string) (watchSession, error) {
			return gpsd.Dial(addr)
		},
		probeFn:   prober.Probe,
		listeners: make(map[chan geobus.Result]struct{}),
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

// Available reports whether gpsd answers with a position report.
func (p *GeolocationGPSDProvider) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, err := p.probeFn(ctx)
	return err == nil
}

// LookupStream forwards gpsd reports for key until ctx is done.
func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)
	listener := make(chan geobus.Result, listenerSize)

	p.mu.Lock()
	p.listeners[listener] = struct{}{}
	if !p.started {
		p.started = true
		go p.run()
	}
	p.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			p.mu.Lock()
			delete(p.listeners, listener)
			p.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case r := <-listener:
				r.Key = key
				select {
				case <-ctx.Done():
					return
				case out <- r:
				}
			}
		}
	}()
	return out
}

// run keeps a gpsd session alive and dispatches its reports to all listeners.
func (p *GeolocationGPSDProvider) run() {
	for {
		session, err := p.dialFn(p.addr)
		if err != nil {
			p.dispatch(geobus.Result{Source: p.name, Err: fmt.Errorf("failed to connect to gpsd at %q: %w",
				p.addr, err)})
			time.Sleep(p.period)
			continue
		}

		session.AddFilter("TPV", func(r any) {
			tpv, ok := r.(*gpsd.TPVReport)
			if !ok || tpv.Mode < gpsd.Mode2D {
				return
			}
			p.dispatch(p.createResult(geobus.Coordinate{
				Lat: tpv.Lat,
				Lon: tpv.Lon,
				Acc: gpspoll.HorizontalAccuracy(0, tpv.Epx, tpv.Epy, int(tpv.Mode)),
			}))
		})
		<-session.Watch()

		p.dispatch(geobus.Result{Source: p.name, Err: fmt.Errorf("connection to gpsd at %q lost", p.addr)})
		time.Sleep(p.period)
	}
}

// dispatch hands r to every listener without blocking the gpsd reader.
func (p *GeolocationGPSDProvider) dispatch(r geobus.Result) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for listener := range p.listeners {
		select {
		case listener <- r:
		default:
		}
	}
}

// createResult composes and returns a Result using provided geolocation data and metadata.
func (p *GeolocationGPSDProvider) createResult(coord geobus.Coordinate) geobus.Result {
	return geobus.Result{
		Lat:            coord.Lat,
		Lon:            coord.Lon,
		AccuracyMeters: coord.Acc,
		Source:         p.name,
		At:             time.Now(),
		TTL:            p.ttl,
	}
}
