// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"truncate":    truncate,
		"center":      center,
		"floatFormat": floatFormat,
		"loc":         p.loc,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	return p.localizer.Get(val)
}

// truncate shortens val to width terminal cells. A width of 0 or less disables truncation.
func truncate(val string, width int) string {
	if width <= 0 {
		return val
	}
	return runewidth.Truncate(val, width, ellipsis)
}

// center pads val on both sides to width terminal cells.
func center(val string, width int) string {
	cells := runewidth.StringWidth(val)
	if cells >= width {
		return val
	}
	left := (width - cells) / 2
	return strings.Repeat(" ", left) + val + strings.Repeat(" ", width-cells-left)
}

func floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}
