// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("english locale returns the source texts", func(t *testing.T) {
		loc, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		want := "no position saved!"
		if got := loc.Get("no position saved!"); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
	t.Run("italian locale translates", func(t *testing.T) {
		loc, err := New("it")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		tests := []struct {
			msgID string
			want  string
		}{
			{"no position saved!", "nessuna posizione salvata!"},
			{"updating position...", "aggiornamento posizione..."},
			{"Warning!", "Attenzione!"},
			{"Parking", "Parcheggio"},
		}
		for _, tc := range tests {
			if got := loc.Get(tc.msgID); got != tc.want {
				t.Errorf("expected %q to translate to %q, got %q", tc.msgID, tc.want, got)
			}
		}
		want := "Hai parcheggiato in Via Roma. Precisione del rilevamento: 5.0 metri."
		got := loc.Getf("You parked at %s. Detection precision: %s meters.", "Via Roma", "5.0")
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
	t.Run("unknown language falls back to the source texts", func(t *testing.T) {
		loc, err := New("ja")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := loc.Get("Parking"); got != "Parking" {
			t.Errorf("expected source text, got %q", got)
		}
	})
}

func TestTag(t *testing.T) {
	if tag := Tag("it-IT"); tag != language.Make("it-IT") {
		t.Errorf("expected it-IT tag, got %s", tag)
	}
	if tag := Tag(""); tag == language.Und {
		t.Error("expected detected or fallback tag, got undefined")
	}
}
