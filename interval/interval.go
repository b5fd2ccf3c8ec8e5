// Package interval implements the overlap tests used for availability checks.
//
// Equipment is reserved by calendar day, so a borrow period is a closed
// interval and touching endpoints overlap. Rooms are booked by time of day,
// so a slot is half-open and a slot ending at T does not collide with one
// starting at T.
package interval

import "cmp"

type Span[T cmp.Ordered] struct {
	Start T
	End   T
}

func New[T cmp.Ordered](start, end T) Span[T] { return Span[T]{Start: start, End: end} }

// Closed reports whether the span is usable as a closed interval (start <= end).
func (s Span[T]) Closed() bool { return s.Start <= s.End }

// HalfOpen reports whether the span is non-empty as a half-open interval (start < end).
func (s Span[T]) HalfOpen() bool { return s.Start < s.End }

// OverlapsInclusive covers containment in both directions and partial overlap,
// with shared endpoints counting as overlap.
func OverlapsInclusive[T cmp.Ordered](a, b Span[T]) bool {
	return a.Start <= b.End && b.Start <= a.End
}

func OverlapsHalfOpen[T cmp.Ordered](a, b Span[T]) bool {
	return a.Start < b.End && b.Start < a.End
}

// FirstOverlap returns the index of the first span in existing that overlaps
// candidate under the given test, or -1.
func FirstOverlap[T cmp.Ordered](candidate Span[T], existing []Span[T], overlaps func(a, b Span[T]) bool) int {
	for i, s := range existing {
		if overlaps(candidate, s) {
			return i
		}
	}
	return -1
}
