// Package history stores successive snapshots compactly so they can be
// restored newest first.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrEmpty is returned when removing from an empty stack.
var ErrEmpty = errors.New("history is empty")

// DefaultDiffTimeout bounds the time spent computing one diff. A timed-out
// diff is less compact but still exact.
const DefaultDiffTimeout = 100 * time.Millisecond

// DiffStack is a stack of texts. Only the newest text is kept in full;
// each older one is kept as a delta from its successor.
type DiffStack struct {
	dmp *diffmatchpatch.DiffMatchPatch
	// entries holds deltas, oldest first, followed by the newest full text.
	entries []string
}

func NewDiffStack() *DiffStack {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = DefaultDiffTimeout
	return &DiffStack{dmp: dmp}
}

// SetTimeout changes the diff timeout. Zero means no limit.
func (s *DiffStack) SetTimeout(d time.Duration) { s.dmp.DiffTimeout = d }

// Append pushes text as the newest entry.
func (s *DiffStack) Append(text string) {
	if len(s.entries) == 0 {
		s.entries = append(s.entries, text)
		return
	}
	prev := s.entries[len(s.entries)-1]
	diffs := s.dmp.DiffMain(text, prev, false)
	diffs = s.dmp.DiffCleanupEfficiency(diffs)
	s.entries[len(s.entries)-1] = s.dmp.DiffToDelta(diffs)
	s.entries = append(s.entries, text)
}

// Remove pops and returns the newest text.
func (s *DiffStack) Remove() (string, error) {
	if len(s.entries) == 0 {
		return "", ErrEmpty
	}
	newest := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	if len(s.entries) == 0 {
		return newest, nil
	}
	delta := s.entries[len(s.entries)-1]
	diffs, err := s.dmp.DiffFromDelta(newest, delta)
	if err != nil {
		return "", fmt.Errorf("rebuild previous entry: %w", err)
	}
	s.entries[len(s.entries)-1] = s.dmp.DiffText2(diffs)
	return newest, nil
}

// Peek returns the newest text without removing it.
func (s *DiffStack) Peek() (string, error) {
	if len(s.entries) == 0 {
		return "", ErrEmpty
	}
	return s.entries[len(s.entries)-1], nil
}

func (s *DiffStack) Len() int { return len(s.entries) }

func (s *DiffStack) IsEmpty() bool { return len(s.entries) == 0 }

// Size is the number of bytes held, a measure of compactness.
func (s *DiffStack) Size() int {
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}
