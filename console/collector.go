// Package console collects what a program logs, one bin per step, so
// that stepping backward can drop the output of the undone step.
package console

import (
	"errors"

	"github.com/example/jsviz/trace"
)

// ErrNoBin is returned when logging or popping without an open bin.
var ErrNoBin = errors.New("no open console bin")

// Collector is a stack of output bins.
type Collector struct {
	bins [][]trace.Output
}

func NewCollector() *Collector {
	return &Collector{}
}

// NewBin opens a bin that receives subsequent logs.
func (c *Collector) NewBin() {
	c.bins = append(c.bins, nil)
}

// PopBin discards the newest bin and its contents.
func (c *Collector) PopBin() error {
	if len(c.bins) == 0 {
		return ErrNoBin
	}
	c.bins = c.bins[:len(c.bins)-1]
	return nil
}

// Log appends content, logged from source line, to the newest bin.
func (c *Collector) Log(content string, line int) error {
	if len(c.bins) == 0 {
		return ErrNoBin
	}
	last := len(c.bins) - 1
	c.bins[last] = append(c.bins[last], trace.Output{Content: content, Line: line})
	return nil
}

// All returns the contents of every bin, oldest first.
func (c *Collector) All() []trace.Output {
	out := []trace.Output{}
	for _, bin := range c.bins {
		out = append(out, bin...)
	}
	return out
}

// Bins is the number of open bins.
func (c *Collector) Bins() int { return len(c.bins) }
