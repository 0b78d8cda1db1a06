package ot

import "fmt"

// Option holds a value which may not be known yet. Subsetting uses it for the
// lookup and feature index maps of layout tables, which are unset until the
// table has been pruned. An empty map is a valid value: all lookups dropped.
type Option[T any] struct {
	value *T
}

// Some wraps a known value.
func Some[T any](v T) Option[T] {
	return Option[T]{value: &v}
}

// None is the unset Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) IsSome() bool { return o.value != nil }
func (o Option[T]) IsNone() bool { return o.value == nil }

// Unwrap returns the value and whether it is set.
func (o Option[T]) Unwrap() (T, bool) {
	if o.value == nil {
		var zero T
		return zero, false
	}
	return *o.value, true
}

// Or returns the value, or def if unset.
func (o Option[T]) Or(def T) T {
	if o.value == nil {
		return def
	}
	return *o.value
}

func (o Option[T]) String() string {
	if o.value == nil {
		return "none"
	}
	return fmt.Sprintf("some(%v)", *o.value)
}

// Index looks up key in an optional index map. It reports false if the map is
// unset or does not contain key.
func Index[K comparable, V any](o Option[map[K]V], key K) (V, bool) {
	m := o.Or(nil)
	v, ok := m[key]
	return v, ok
}
