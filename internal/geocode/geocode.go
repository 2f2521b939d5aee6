// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode turns coordinates into human-readable place descriptions.
package geocode

import (
	"context"
	"strings"
)

// UnknownLocation is shown whenever a lookup fails or yields nothing usable.
const UnknownLocation = "<unknown location>"

// Address is the result of a reverse lookup. Name, SubLocality and Locality are the parts used for
// the place description, the remaining fields are informational.
type Address struct {
	AddressFound bool
	CacheHit     bool
	Latitude     float64
	Longitude    float64
	Name         string
	SubLocality  string
	Locality     string
	DisplayName  string
	Country      string
	State        string
	Postcode     string
	Street       string
	HouseNumber  string
}

// Geocoder resolves coordinates into an Address.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// Describe composes the place description for addr. Parts are appended in the order name,
// " (subLocality)", ", locality". A locality without name yields a leading ", ".
func Describe(addr Address) string {
	var sb strings.Builder
	if addr.Name != "" {
		sb.WriteString(addr.Name)
	}
	if addr.SubLocality != "" {
		sb.WriteString(" (")
		sb.WriteString(addr.SubLocality)
		sb.WriteString(")")
	}
	if addr.Locality != "" {
		sb.WriteString(", ")
		sb.WriteString(addr.Locality)
	}
	if sb.Len() == 0 {
		return UnknownLocation
	}
	return sb.String()
}

// streetName joins a street and house number the way most providers label a building.
func streetName(street, number string) string {
	switch {
	case street == "":
		return ""
	case number == "":
		return street
	default:
		return street + " " + number
	}
}

// NameFromStreet returns name if set, otherwise the street with house number.
func NameFromStreet(name, street, number string) string {
	if name != "" {
		return name
	}
	return streetName(street, number)
}

// FirstNonEmpty returns the first non-empty value.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
