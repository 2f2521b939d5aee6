// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package record holds the parking spot record and the key layout it is persisted with.
package record

import (
	"github.com/wneessen/parking-memo/internal/vartype"
)

// Keys of the five persisted entries. There is no schema versioning.
const (
	KeyLatitude  = "parking_latitude"
	KeyLongitude = "parking_longitude"
	KeyPrecision = "parking_precision"
	KeyAddress   = "parking_address"
	KeyTimestamp = "parking_timestamp"
)

// Keys lists all persisted keys in write order.
var Keys = []string{KeyLatitude, KeyLongitude, KeyPrecision, KeyAddress, KeyTimestamp}

// Record is a single parking spot. Accuracy, address and timestamp are optional: the address is
// only known once reverse geocoding completed and the timestamp is only set when the record is saved.
type Record struct {
	Latitude  float64
	Longitude float64
	Accuracy  vartype.VarFloat64
	Address   vartype.VarString
	Timestamp vartype.VarString
}

// New returns a record for the given coordinates without any optional field set.
func New(lat, lon float64) Record {
	return Record{Latitude: lat, Longitude: lon}
}

// Valid reports whether the coordinates are within the WGS84 range.
func (r Record) Valid() bool {
	return r.Latitude >= -90 && r.Latitude <= 90 && r.Longitude >= -180 && r.Longitude <= 180
}

// Absent reports whether the record counts as "nothing saved". A latitude or longitude of exactly 0.0
// marks absence, which also hides real spots on the equator or the prime meridian.
func (r Record) Absent() bool {
	return r.Latitude == 0 || r.Longitude == 0
}

// HasAddress reports whether a non-empty address is known.
func (r Record) HasAddress() bool {
	return r.Address.IsSet() && r.Address.Value() != ""
}

// Reset clears the record to its zero state.
func (r *Record) Reset() {
	*r = Record{}
}
