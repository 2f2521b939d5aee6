// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package session

import (
	"strings"

	"github.com/wneessen/parking-memo/internal/vartype"
)

// RegionRadius is the radius in meters of the map region around a centered point.
const RegionRadius = 100.0

// Mode is the mode of a parking session.
type Mode int

const (
	ModeRecalling Mode = iota
	ModeTracking
)

func (m Mode) String() string {
	switch m {
	case ModeRecalling:
		return "recalling"
	case ModeTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// Kind describes what a Display shows.
type Kind int

const (
	// KindNoPosition is shown in recalling mode when nothing was saved yet
	KindNoPosition Kind = iota
	// KindSaved shows the saved parking spot with a marker
	KindSaved
	// KindUpdating is shown in tracking mode until the first position arrives
	KindUpdating
	// KindLive follows the live position without a marker
	KindLive
	// KindUnavailable is shown in tracking mode when no location provider is available
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNoPosition:
		return "no-position"
	case KindSaved:
		return "saved"
	case KindUpdating:
		return "updating"
	case KindLive:
		return "live"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Alert is a dialog the user has to dismiss.
type Alert struct {
	Title   string
	Message string
}

// Display is a read-only snapshot of everything a UI needs to draw the session.
type Display struct {
	Mode Mode
	Kind Kind
	Text string

	// HighlightStart and HighlightEnd are the byte offsets of the address within Text. Both are 0
	// if Text contains no address.
	HighlightStart int
	HighlightEnd   int

	// Centered is true if the map should be centered on Latitude/Longitude with RegionRadius.
	Centered     bool
	Latitude     float64
	Longitude    float64
	Accuracy     vartype.VarFloat64
	RegionRadius float64

	Marker      bool
	MarkerTitle string
	Timestamp   string

	SaveVisible bool
	InfoVisible bool
	Alert       *Alert

	// DistanceToSaved is the distance in meters from the live position to the saved spot.
	DistanceToSaved vartype.VarFloat64
}

func (d *Display) highlight(address string) {
	d.HighlightStart, d.HighlightEnd = highlightSpan(d.Text, address)
}

func highlightSpan(text, address string) (int, int) {
	if address == "" {
		return 0, 0
	}
	idx := strings.Index(text, address)
	if idx < 0 {
		return 0, 0
	}
	return idx, idx + len(address)
}
