// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

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
	cityExpected      = "Quartier 205 (Mitte), Berlin"
	cityFile          = "../../../../testdata/nominatim_berlin.json"
	cityFileBrokenLat = "../../../../testdata/nominatim_berlin_brokenlat.json"
	cityFileBrokenLon = "../../../../testdata/nominatim_berlin_brokenlon.json"
	seaFile           = "../../../../testdata/nominatim_sea.json"

	villageExpected = "High Street 12, Marshfield"
	villageFile     = "../../../../testdata/nominatim_marshfield.json"

	townExpected = "Otley"
	townFile     = "../../../../testdata/nominatim_otley.json"

	cityLat, cityLon       = 52.5129, 13.3910
	villageLat, villageLon = 51.46292, -2.31850
	townLat, townLon       = 53.90712, -1.69404
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

func TestNominatim_Reverse(t *testing.T) {
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
		if addr.Latitude != 52.5128838 {
			t.Errorf("expected latitude to be %f, got %f", 52.5128838, addr.Latitude)
		}
		if !strings.Contains(query, "accept-language=en") {
			t.Errorf("expected query to carry the language, got %q", query)
		}
	})
	t.Run("reverse geocoding with town set uses the town as locality", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, townFile, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), townLat, townLon)
		if err != nil {
			t.Fatal(err)
		}
		if addr.Locality != townExpected {
			t.Errorf("expected locality to be %q, got %q", townExpected, addr.Locality)
		}
		if addr.SubLocality != "" {
			t.Errorf("expected no sub-locality, got %q", addr.SubLocality)
		}
	})
	t.Run("reverse geocoding without a name falls back to the street", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, villageFile, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), villageLat, villageLon)
		if err != nil {
			t.Fatal(err)
		}
		if got := geocode.Describe(addr); got != villageExpected {
			t.Errorf("expected description to be %q, got %q", villageExpected, got)
		}
	})
	t.Run("coordinates without an address are not found", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, seaFile, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		addr, err := coder.Reverse(t.Context(), 0.5, -30)
		if err != nil {
			t.Fatal(err)
		}
		if addr.AddressFound {
			t.Error("expected address to be not found")
		}
		if got := geocode.Describe(addr); got != geocode.UnknownLocation {
			t.Errorf("expected description to be %q, got %q", geocode.UnknownLocation, got)
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
	t.Run("reverse geocoding fails on non-200 response", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, seaFile, 503), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		_, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if !strings.Contains(err.Error(), "503") {
			t.Errorf("expected error to contain the status code, got %s", err)
		}
	})
	t.Run("reverse geocoding fails on NaN latitude response", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, cityFileBrokenLat, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		_, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if !strings.Contains(err.Error(), "failed to parse latitude") {
			t.Errorf("expected error to contain 'failed to parse latitude', got %s", err)
		}
	})
	t.Run("reverse geocoding fails on NaN longitude response", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, cityFileBrokenLon, 200), nil
		}

		coder := testCoderWithRoundtripFunc(t, rtFn)
		_, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if !strings.Contains(err.Error(), "failed to parse longitude") {
			t.Errorf("expected error to contain 'failed to parse longitude', got %s", err)
		}
	})
}

func TestNominatim_Reverse_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		coder := testCoder(t)
		addr, err := coder.Reverse(t.Context(), cityLat, cityLon)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.Locality != "Berlin" {
			t.Errorf("expected locality to be %q, got %q", "Berlin", addr.Locality)
		}
	})
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
	testLang := language.English
	return New(testHttpClient, testLang)
}

func testCoderWithRoundtripFunc(_ *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) geocode.Geocoder {
	testHttpClient := http.New(logger.New(slog.LevelDebug))
	testHttpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	testLang := language.English
	return New(testHttpClient, testLang)
}
