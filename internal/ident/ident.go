// Package ident generates the integer primary keys used across decks,
// note-types, notes and cards.
package ident

import "time"

// Millis converts t to epoch milliseconds, the unit id seeds are taken in.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Seconds converts t to epoch seconds, used for the collection creation time.
func Seconds(t time.Time) int64 {
	return t.Unix()
}

// Sequence is the running-counter id policy used for bulk construction from a
// fully specified input list. Caller-supplied ids are honored when they do not
// collide with anything already handed out; colliding or absent ids are
// replaced with the next id above the high-water mark.
//
// For a fixed input sequence the outputs are deterministic.
type Sequence struct {
	mark int64
}

// NewSequence returns a Sequence whose first synthesized id is start.
func NewSequence(start int64) *Sequence {
	return &Sequence{mark: start - 1}
}

// Next returns id unchanged if it is above the high-water mark, advancing the
// mark to it. Otherwise it synthesizes mark+1. Pass 0 for "no caller id".
func (s *Sequence) Next(id int64) int64 {
	if id > s.mark {
		s.mark = id
		return id
	}
	s.mark++
	return s.mark
}
