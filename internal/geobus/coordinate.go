// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters
const EarthRadius = 6371008.8

// Coordinate represents a geographic coordinate.
type Coordinate struct {
	Lat float64
	Lon float64
	Acc float64
}

// DistanceTo returns the great-circle distance to other in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	from := s2.LatLngFromDegrees(c.Lat, c.Lon)
	to := s2.LatLngFromDegrees(other.Lat, other.Lon)
	return from.Distance(to).Radians() * EarthRadius
}

// Equal reports whether both coordinates point to the same position. Accuracy is not compared.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Lon == other.Lon
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
