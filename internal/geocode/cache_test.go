// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"
)

const (
	testHitTTL  = 200 * time.Millisecond
	testMissTTL = 100 * time.Millisecond
	testLat     = 52.5129
	testLon     = 13.3910
)

var testAddress = Address{
	Name:        "Quartier 205",
	SubLocality: "Mitte",
	Locality:    "Berlin",
	DisplayName: "Quartier 205, Friedrichstraße 67, 10117 Berlin, Germany",
	Country:     "Germany",
	State:       "Berlin",
	Postcode:    "10117",
	Street:      "Friedrichstraße",
	HouseNumber: "67",
}

type mockCoder struct {
	calls atomic.Int32
}

func (c *mockCoder) Name() string { return "mock" }

func (c *mockCoder) Reverse(_ context.Context, lat, lon float64) (Address, error) {
	c.calls.Add(1)
	if lat == 1 && lon == -1 {
		return Address{}, errors.New("lookup intentionally failed")
	}
	addr := testAddress
	addr.Latitude = lat
	addr.Longitude = lon
	if lat == testLat && lon == testLon {
		addr.AddressFound = true
	}
	return addr, nil
}

func TestNewCachedGeocoder(t *testing.T) {
	t.Run("a new geocoder should be returned", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
		if coder.Name() != "geocoder cache using mock" {
			t.Errorf("expected geocoder name to be 'geocoder cache using mock', got %q", coder.Name())
		}
	})
}

func TestCachedGeocoder_Reverse(t *testing.T) {
	t.Run("first lookup is a cache miss", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		addr, err := coder.Reverse(t.Context(), testLat, testLon)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
		if addr.DisplayName != testAddress.DisplayName {
			t.Errorf("expected address to be %q, got %q", testAddress.DisplayName, addr.DisplayName)
		}
	})
	t.Run("a second lookup in the same cell hits the cache", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testLat, testLon); err != nil {
			t.Fatal(err)
		}
		center := cacheCell(testLat, testLon).LatLng()
		addr, err := coder.Reverse(t.Context(), center.Lat.Degrees(), center.Lng.Degrees())
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cached result")
		}
		if mock.calls.Load() != 1 {
			t.Errorf("expected 1 upstream call, got %d", mock.calls.Load())
		}
	})
	t.Run("a lookup one block away is a cache miss", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testLat, testLon); err != nil {
			t.Fatal(err)
		}
		addr, err := coder.Reverse(t.Context(), testLat+0.001, testLon)
		if err != nil {
			t.Fatal(err)
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
	})
	t.Run("failed lookups return an error and are not cached", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		for range 2 {
			if _, err := coder.Reverse(t.Context(), 1, -1); err == nil {
				t.Fatal("expected an error")
			}
		}
		if mock.calls.Load() != 2 {
			t.Errorf("expected 2 upstream calls, got %d", mock.calls.Load())
		}
	})
	t.Run("entries expire after their TTL", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
			if _, err := coder.Reverse(t.Context(), testLat, testLon); err != nil {
				t.Fatal(err)
			}
			if _, err := coder.Reverse(t.Context(), 2, -2); err != nil {
				t.Fatal(err)
			}

			time.Sleep(testMissTTL + time.Millisecond)
			addr, err := coder.Reverse(t.Context(), 2, -2)
			if err != nil {
				t.Fatal(err)
			}
			if addr.CacheHit {
				t.Error("expected miss entry to be expired")
			}
			addr, err = coder.Reverse(t.Context(), testLat, testLon)
			if err != nil {
				t.Fatal(err)
			}
			if !addr.CacheHit {
				t.Error("expected hit entry to be alive")
			}

			time.Sleep(testHitTTL)
			addr, err = coder.Reverse(t.Context(), testLat, testLon)
			if err != nil {
				t.Fatal(err)
			}
			if addr.CacheHit {
				t.Error("expected hit entry to be expired")
			}
		})
	})
}

func TestCachedGeocoder_Purge(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testLat, testLon); err != nil {
			t.Fatal(err)
		}
		if _, err := coder.Reverse(t.Context(), 2, -2); err != nil {
			t.Fatal(err)
		}
		time.Sleep(testMissTTL)
		purged, remaining := coder.Purge()
		if purged != 1 || remaining != 1 {
			t.Errorf("expected 1 purged and 1 remaining entry, got %d and %d", purged, remaining)
		}
		time.Sleep(testHitTTL)
		if purged, remaining = coder.Purge(); purged != 1 || remaining != 0 {
			t.Errorf("expected 1 purged and no remaining entry, got %d and %d", purged, remaining)
		}
	})
}

func TestCacheCell(t *testing.T) {
	t.Run("parking rows a few meters apart get different cells", func(t *testing.T) {
		near := cacheCell(testLat, testLon)
		if near.Level() != cacheCellLevel {
			t.Errorf("expected cell level %d, got %d", cacheCellLevel, near.Level())
		}
		far := cacheCell(testLat+0.0002, testLon)
		if near == far {
			t.Error("expected positions 22 meters apart to use different cells")
		}
	})
	t.Run("the cell center maps to its own cell", func(t *testing.T) {
		cell := cacheCell(testLat, testLon)
		center := cell.LatLng()
		if got := cacheCell(center.Lat.Degrees(), center.Lng.Degrees()); got != cell {
			t.Errorf("expected cell %s, got %s", cell, got)
		}
	})
}
