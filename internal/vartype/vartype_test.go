// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package vartype

import (
	"fmt"
	"testing"
)

func TestNewVariable(t *testing.T) {
	t.Run("a new variable is set", func(t *testing.T) {
		v := NewVariable(12.5)
		if !v.IsSet() {
			t.Fatal("expected variable to be set")
		}
		if v.Value() != 12.5 {
			t.Errorf("expected value to be %f, got %f", 12.5, v.Value())
		}
	})
	t.Run("the zero value is unset", func(t *testing.T) {
		var v VarString
		if v.IsSet() {
			t.Fatal("expected variable to be unset")
		}
		if v.String() != "<unset>" {
			t.Errorf("expected placeholder string, got %q", v.String())
		}
	})
}

func TestVariable_SetReset(t *testing.T) {
	var v VarString
	v.Set("Downtown")
	if !v.IsSet() || v.Value() != "Downtown" {
		t.Fatalf("expected variable to hold %q, got %q (set: %t)", "Downtown", v.Value(), v.IsSet())
	}
	if v.String() != "Downtown" {
		t.Errorf("expected string to be %q, got %q", "Downtown", v.String())
	}
	v.Reset()
	if v.IsSet() {
		t.Error("expected variable to be unset after reset")
	}
	if v.Value() != "" {
		t.Errorf("expected zero value after reset, got %q", v.Value())
	}
}

func TestMaybe(t *testing.T) {
	lookup := func(entries map[string]float64, key string) (float64, bool) {
		val, ok := entries[key]
		return val, ok
	}
	entries := map[string]float64{"parking_precision": 12.5}

	if v := Maybe(lookup(entries, "parking_precision")); !v.IsSet() || v.Value() != 12.5 {
		t.Errorf("expected variable to be set to 12.5, got %s", v)
	}
	if v := Maybe(lookup(entries, "missing")); v.IsSet() {
		t.Errorf("expected variable to be unset, got %s", v)
	}
}

func TestNonZero(t *testing.T) {
	tests := []struct {
		name  string
		value string
		isset bool
	}{
		{"address", "Via Roma", true},
		{"empty entry", "", false},
		{"whitespace is a value", " ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if v := NonZero(tc.value); v.IsSet() != tc.isset {
				t.Errorf("expected set to be %t, got %t", tc.isset, v.IsSet())
			}
		})
	}
	if v := NonZero(0.0); v.IsSet() {
		t.Error("expected zero float to be unset")
	}
}

func TestVariable_Or(t *testing.T) {
	var v VarString
	if got := v.Or("unknown"); got != "unknown" {
		t.Errorf("expected default for unset variable, got %q", got)
	}
	v.Set("")
	if got := v.Or("unknown"); got != "" {
		t.Errorf("expected set empty value to win over default, got %q", got)
	}
}

func TestVariable_Format(t *testing.T) {
	meters := func(val float64) string { return fmt.Sprintf("%.1f m", val) }
	var v VarFloat64
	if got := v.Format(meters); got != "" {
		t.Errorf("expected unset variable to format empty, got %q", got)
	}
	v.Set(25)
	if got := v.Format(meters); got != "25.0 m" {
		t.Errorf("expected %q, got %q", "25.0 m", got)
	}
}
