package history

import "time"

// History pairs each text snapshot with metadata that is small enough to
// keep in full.
type History[M any] struct {
	texts *DiffStack
	meta  []M
}

func New[M any]() *History[M] {
	return &History[M]{texts: NewDiffStack()}
}

// SetDiffTimeout bounds the time spent diffing one snapshot.
func (h *History[M]) SetDiffTimeout(d time.Duration) { h.texts.SetTimeout(d) }

// Push records a snapshot.
func (h *History[M]) Push(text string, meta M) {
	h.texts.Append(text)
	h.meta = append(h.meta, meta)
}

// Pop removes and returns the newest snapshot.
func (h *History[M]) Pop() (string, M, error) {
	var zero M
	text, err := h.texts.Remove()
	if err != nil {
		return "", zero, err
	}
	meta := h.meta[len(h.meta)-1]
	h.meta = h.meta[:len(h.meta)-1]
	return text, meta, nil
}

// PeekMeta returns the metadata of the newest snapshot.
func (h *History[M]) PeekMeta() (M, bool) {
	var zero M
	if len(h.meta) == 0 {
		return zero, false
	}
	return h.meta[len(h.meta)-1], true
}

func (h *History[M]) Len() int { return len(h.meta) }

func (h *History[M]) IsEmpty() bool { return len(h.meta) == 0 }

// Size reports the bytes held by the text snapshots.
func (h *History[M]) Size() int { return h.texts.Size() }
