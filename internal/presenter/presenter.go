// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/it"
	"github.com/vorlif/spreak"

	"github.com/wneessen/parking-memo/internal/config"
	"github.com/wneessen/parking-memo/internal/record"
	"github.com/wneessen/parking-memo/internal/session"
)

// OutputClass is the CSS class every output line carries.
const OutputClass = "parking-memo"

// Output is a single JSON line for the status bar.
type Output struct {
	Text    string   `json:"text"`
	Tooltip string   `json:"tooltip"`
	Class   []string `json:"class"`
	Alt     string   `json:"alt"`
}

// TemplateContext wraps a display with localized presentation fields.
type TemplateContext struct {
	session.Display

	ModeName string
	Saved    string
	Distance string
}

type Presenter struct {
	TextTemplate    *template.Template
	TooltipTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New parses the configured templates and verifies that they render.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	pres := &Presenter{
		localizer: loc,
		humanizer: humanize.MustNew(humanize.WithLocale(it.New())).CreateHumanizer(loc.Language()),
	}

	var err error
	pres.TextTemplate, err = template.New("text").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	pres.TooltipTemplate, err = template.New("tooltip").Funcs(pres.templateFuncMap()).
		Parse(conf.Templates.Tooltip)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tooltip template: %w", err)
	}

	sample := session.Display{Mode: session.ModeTracking, Kind: session.KindLive, Text: pres.UpdatingText()}
	sample.Alert = &session.Alert{Title: pres.LocationAlert().Title}
	if _, err = pres.Render(sample); err != nil {
		return nil, err
	}

	return pres, nil
}

// RecallText describes a saved parking spot. A record without an address gets a fixed text.
func (p *Presenter) RecallText(rec record.Record) string {
	if !rec.HasAddress() {
		return p.localizer.Get("Parking position saved, address unknown.")
	}
	if !rec.Accuracy.IsSet() {
		return p.localizer.Getf("You parked at %s.", rec.Address.Value())
	}
	return p.localizer.Getf("You parked at %s. Detection precision: %s meters.", rec.Address.Value(),
		formatAccuracy(rec.Accuracy.Value()))
}

// TrackingText describes the live position. It is empty until the address is known.
func (p *Presenter) TrackingText(rec record.Record) string {
	if !rec.HasAddress() {
		return ""
	}
	text := p.localizer.Getf("You are parking at %s. ", rec.Address.Value())
	if rec.Accuracy.IsSet() {
		text += p.localizer.Getf("Precision: %s meters.", formatAccuracy(rec.Accuracy.Value()))
	}
	return text
}

func (p *Presenter) NoPositionText() string {
	return p.localizer.Get("no position saved!")
}

func (p *Presenter) UpdatingText() string {
	return p.localizer.Get("updating position...")
}

// Timestamp formats t as date and time of the active locale.
func (p *Presenter) Timestamp(t time.Time) string {
	return p.humanizer.FormatTime(t, humanize.DateTimeFormat)
}

func (p *Presenter) MarkerTitle() string {
	return p.localizer.Get("Parking")
}

func (p *Presenter) LocationAlert() session.Alert {
	return session.Alert{
		Title: p.localizer.Get("Warning!"),
		Message: p.localizer.Get("Location services are disabled, the application cannot be used. " +
			"Enable gpsd, a geolocation file or a network location provider in the configuration."),
	}
}

func (p *Presenter) BuildContext(display session.Display) TemplateContext {
	ctx := TemplateContext{Display: display, ModeName: p.localizer.Get("Recall")}
	if display.Mode == session.ModeTracking {
		ctx.ModeName = p.localizer.Get("Track")
	}
	if display.Timestamp != "" {
		ctx.Saved = p.localizer.Getf("Saved: %s", display.Timestamp)
	}
	if display.DistanceToSaved.IsSet() {
		ctx.Distance = p.localizer.Getf("Distance to your car: %s", formatDistance(display.DistanceToSaved.Value()))
	}
	return ctx
}

// Render executes the templates for display.
func (p *Presenter) Render(display session.Display) (Output, error) {
	ctx := p.BuildContext(display)

	textBuf := bytes.NewBuffer(nil)
	if err := p.TextTemplate.Execute(textBuf, ctx); err != nil {
		return Output{}, fmt.Errorf("failed to render text template: %w", err)
	}
	tooltipBuf := bytes.NewBuffer(nil)
	if err := p.TooltipTemplate.Execute(tooltipBuf, ctx); err != nil {
		return Output{}, fmt.Errorf("failed to render tooltip template: %w", err)
	}

	return Output{
		Text:    textBuf.String(),
		Tooltip: tooltipBuf.String(),
		Class:   []string{OutputClass, display.Kind.String()},
		Alt:     display.Mode.String(),
	}, nil
}

// formatAccuracy always prints at least one decimal, so 5 becomes "5.0" and 12.5 stays "12.5".
func formatAccuracy(val float64) string {
	out := strconv.FormatFloat(val, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
