// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package record

import (
	"testing"

	"github.com/wneessen/parking-memo/internal/vartype"
)

func TestRecord_Absent(t *testing.T) {
	tests := []struct {
		name   string
		rec    Record
		absent bool
	}{
		{"zero record", Record{}, true},
		{"latitude zero", New(0, 13.391), true},
		{"longitude zero", New(52.5129, 0), true},
		{"latitude zero with all optional fields", Record{
			Longitude: 13.391,
			Accuracy:  vartype.NewVariable(5.0),
			Address:   vartype.NewVariable("Friedrichstraße (Mitte), Berlin"),
			Timestamp: vartype.NewVariable("Oct. 19, 2026, 9:41 a.m."),
		}, true},
		{"regular spot", New(52.5129, 13.391), false},
		{"negative coordinates", New(-33.8688, -151.2093), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.rec.Absent() != tc.absent {
				t.Errorf("expected absent to be %t, got %t", tc.absent, tc.rec.Absent())
			}
		})
	}
}

func TestRecord_Valid(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lon   float64
		valid bool
	}{
		{"berlin", 52.5129, 13.391, true},
		{"north pole", 90, 0, true},
		{"date line", -45, -180, true},
		{"latitude out of range", 90.1, 0, false},
		{"longitude out of range", 0, 180.5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if New(tc.lat, tc.lon).Valid() != tc.valid {
				t.Errorf("expected valid to be %t", tc.valid)
			}
		})
	}
}

func TestRecord_HasAddress(t *testing.T) {
	rec := New(52.5129, 13.391)
	if rec.HasAddress() {
		t.Error("expected new record to have no address")
	}
	rec.Address.Set("")
	if rec.HasAddress() {
		t.Error("expected empty address to count as no address")
	}
	rec.Address.Set("Downtown")
	if !rec.HasAddress() {
		t.Error("expected record to have an address")
	}
	rec.Reset()
	if rec.HasAddress() || rec.Latitude != 0 {
		t.Error("expected reset record to be empty")
	}
}
