// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package vartype provides optional values for record fields that may be absent.
package vartype

import (
	"fmt"
)

type (
	// VarFloat64 is an optional float64, used for accuracies and distances.
	VarFloat64 = Variable[float64]

	// VarString is an optional string, used for addresses and timestamps.
	VarString = Variable[string]
)

// Variable holds a value together with the information whether it was ever set. The zero Variable is
// unset.
type Variable[T any] struct {
	value T
	isset bool
}

// NewVariable returns a Variable that is set to value.
func NewVariable[T any](value T) Variable[T] {
	return Variable[T]{value: value, isset: true}
}

// Maybe returns a Variable that is set to value only if ok is true. It takes the result of a
// lookup in the "value, ok" form directly.
func Maybe[T any](value T, ok bool) Variable[T] {
	if !ok {
		return Variable[T]{}
	}
	return NewVariable(value)
}

// NonZero returns a Variable that is unset if value is the zero value of T. Persisted entries use
// the zero value to mark absence.
func NonZero[T comparable](value T) Variable[T] {
	var zero T
	return Maybe(value, value != zero)
}

// Reset marks the Variable as unset and drops its value.
func (v *Variable[T]) Reset() {
	*v = Variable[T]{}
}

// Set assigns val and marks the Variable as set.
func (v *Variable[T]) Set(val T) {
	v.value = val
	v.isset = true
}

// Value returns the stored value, or the zero value of T if unset.
func (v Variable[T]) Value() T {
	return v.value
}

// Or returns the stored value, or def if unset.
func (v Variable[T]) Or(def T) T {
	if !v.isset {
		return def
	}
	return v.value
}

// IsSet reports whether a value was set.
func (v Variable[T]) IsSet() bool {
	return v.isset
}

// Format returns fn applied to the value, or an empty string if unset.
func (v Variable[T]) Format(fn func(T) string) string {
	if !v.isset {
		return ""
	}
	return fn(v.value)
}

func (v Variable[T]) String() string {
	if !v.isset {
		return "<unset>"
	}
	return fmt.Sprint(v.value)
}
