// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/wneessen/parking-memo/internal/geocode"
	"github.com/wneessen/parking-memo/internal/http"
	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/testhelper"
)

const (
	cityExpected = "Quartier 205 (Mitte), Berlin"
	cityFile     = "../../../../testdata/geocode-earth_berlin.json"
	emptyFile    = "../../../../testdata/geocode-earth_empty.json"
	cityLat      = 52.5129
	cityLon      = 13.3910
	testAPIKey   = "test-api-key"
)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		coder := testCoder(t)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		coder := testCoder(t)
		if coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestGeocodeEarth_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		var query string
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			query = req.URL.RawQuery
			return fileResponse(t, cityFile, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if got := geocode.Describe(addr); got != cityExpected {
			t.Errorf("expected description to be %q, got %q", cityExpected, got)
		}
		if addr.Latitude != 52.5128838 || addr.Longitude != 13.3909612 {
			t.Errorf("expected coordinates from the feature geometry, got %f/%f", addr.Latitude, addr.Longitude)
		}
		if !strings.Contains(query, "api_key="+testAPIKey) {
			t.Errorf("expected query to carry the API key, got %q", query)
		}
	})
	t.Run("empty feature collection is not found", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, emptyFile, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), 0.5, -30)
		if err != nil {
			t.Fatal(err)
		}
		if addr.AddressFound {
			t.Error("expected address to be not found")
		}
	})
	t.Run("non-200 response fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, emptyFile, 429), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		_, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if !strings.Contains(err.Error(), "429") {
			t.Errorf("expected error to contain the status code, got %s", err)
		}
	})
	t.Run("reverse geocoding fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		if _, err := coder.Reverse(t.Context(), cityLat, cityLon); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func TestGeocodeEarth_Reverse_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := os.Getenv("GEOCODE_EARTH_API_KEY")
	if apikey == "" {
		t.Skip("GEOCODE_EARTH_API_KEY not set, skipping integration test")
	}
	coder := New(http.New(logger.New(slog.LevelDebug)), language.English, apikey)
	addr, err := coder.Reverse(t.Context(), cityLat, cityLon)
	if err != nil {
		t.Fatal(err)
	}
	if !addr.AddressFound {
		t.Fatal("expected address to be found")
	}
}

func fileResponse(t *testing.T, file string, code int) *stdhttp.Response {
	t.Helper()
	data, err := os.Open(file)
	if err != nil {
		t.Fatalf("failed to open JSON response file: %s", err)
	}
	return &stdhttp.Response{
		StatusCode: code,
		Body:       data,
		Header:     make(stdhttp.Header),
	}
}

func testCoder(_ *testing.T) geocode.Geocoder {
	testHttpClient := http.New(logger.New(slog.LevelDebug))
	return New(testHttpClient, language.English, testAPIKey)
}

func testCoderWithRoundtripFunc(_ *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) geocode.Geocoder {
	testHttpClient := http.New(logger.New(slog.LevelDebug))
	testHttpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(testHttpClient, language.English, testAPIKey)
}
