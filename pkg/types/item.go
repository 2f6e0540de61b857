// Package types defines the stream items, callbacks and errors shared by the pattern runtime
package types

// Item is a stream element that is either a data value or the end-of-stream marker
type Item[T any] struct {
	value T
	end   bool
}

// Value wraps v as a data item
func Value[T any](v T) Item[T] {
	return Item[T]{value: v}
}

// End returns the end-of-stream marker
func End[T any]() Item[T] {
	return Item[T]{end: true}
}

// IsEnd reports whether the item marks the end of the stream
func (i Item[T]) IsEnd() bool {
	return i.end
}

// Get returns the wrapped value and false for the end marker
func (i Item[T]) Get() (T, bool) {
	return i.value, !i.end
}

// MustGet returns the wrapped value and panics on the end marker
func (i Item[T]) MustGet() T {
	if i.end {
		panic("types: MustGet called on end-of-stream item")
	}
	return i.value
}
