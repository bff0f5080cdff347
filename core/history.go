package core

import (
	"fmt"
	"iter"
)

// History is an immutable ordered snapshot of one agent's turns. Insertion
// order, chronological order and sequence-number order coincide.
//
// A History value is copy-on-load: stores hand out fresh slices so callers
// can never mutate persisted state through a snapshot.
type History []Turn

// LastSeq returns the sequence number of the newest turn, or 0 when empty.
func (h History) LastSeq() int {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1].Seq
}

// NextSeq returns the sequence number the next appended turn must carry.
func (h History) NextSeq() int { return h.LastSeq() + 1 }

// Validate checks the sequence-number invariant: strictly increasing and
// gapless from the first retained turn.
func (h History) Validate() error {
	for i := 1; i < len(h); i++ {
		if h[i].Seq != h[i-1].Seq+1 {
			return fmt.Errorf("sequence gap at index %d: %d follows %d", i, h[i].Seq, h[i-1].Seq)
		}
	}
	return nil
}

// Match lazily yields the turns whose content contains term
// (case-insensitive), in chronological order. The sequence is finite and
// restartable; an absent term yields nothing.
func (h History) Match(term string) iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		for _, t := range h {
			if t.Matches(term) && !yield(t) {
				return
			}
		}
	}
}

// Tail returns the newest n turns (all of them when n exceeds the length).
func (h History) Tail(n int) History {
	if n >= len(h) {
		return h
	}
	return h[len(h)-n:]
}

// Clone returns a deep-enough copy safe for independent mutation. Turns are
// value types; only the backing slice needs duplicating.
func (h History) Clone() History {
	c := make(History, len(h))
	copy(c, h)
	return c
}
