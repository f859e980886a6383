// Package visualizer steps a program forward and backward and describes
// every position as a trace.Step.
package visualizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/console"
	"github.com/example/jsviz/history"
	"github.com/example/jsviz/interpreter"
	"github.com/example/jsviz/lint"
	"github.com/example/jsviz/parser"
	"github.com/example/jsviz/runtime"
	"github.com/example/jsviz/stepper"
	"github.com/example/jsviz/trace"
)

var (
	ErrLastStep         = errors.New("execution already ended")
	ErrFirstStep        = errors.New("there is no previous step")
	ErrUnnamedFunction  = errors.New("host functions must have a name")
	ErrRestrictedSyntax = errors.New("restricted syntax")
)

// Mode is the granularity of a forward or backward step.
type Mode int

const (
	Micro Mode = iota
	Macro
)

func (m Mode) String() string {
	if m == Macro {
		return "macro"
	}
	return "micro"
}

// ParseMode accepts "micro" and "macro".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "micro":
		return Micro, nil
	case "macro":
		return Macro, nil
	}
	return Micro, fmt.Errorf("unknown step mode %q", s)
}

// HostFunction is a Go function callable from the program. log appends a
// line of output tagged with the line of the call.
type HostFunction struct {
	Name string
	Fn   func(log func(string), args ...any) (any, error)
}

type execution int

const (
	notStarted execution = iota
	started
	finished
)

// StatusKind tells whether the program is running or how it ended.
type StatusKind int

const (
	Started StatusKind = iota
	FinishedOK
	FinishedException
)

func (k StatusKind) String() string {
	switch k {
	case FinishedOK:
		return "finished ok"
	case FinishedException:
		return "finished exception"
	}
	return "started"
}

// Status describes the execution. Exception is set for
// FinishedException.
type Status struct {
	Kind      StatusKind
	Exception string
}

// saved is what a history entry keeps besides the stepper snapshot text.
type saved struct {
	internal  stepper.Internal
	exception *runtime.Value
	state     execution
}

type Option func(*Session)

func WithFunctions(fns ...HostFunction) Option {
	return func(s *Session) { s.functions = append(s.functions, fns...) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithDiffTimeout bounds the time spent diffing one history snapshot.
func WithDiffTimeout(d time.Duration) Option {
	return func(s *Session) { s.diffTimeout = d }
}

// Session is one visualization of one program. It is not safe for
// concurrent use.
type Session struct {
	id          uuid.UUID
	source      string
	program     *ast.Program
	functions   []HostFunction
	log         zerolog.Logger
	diffTimeout time.Duration

	stepper   *stepper.Stepper
	exception *runtime.Value
	state     execution

	history *history.History[saved]
	console *console.Collector
}

// New parses source and takes the first step into it. A source using
// restricted syntax is rejected with ErrRestrictedSyntax.
func New(source string, opts ...Option) (*Session, error) {
	s := &Session{
		id:          uuid.New(),
		source:      source,
		log:         zerolog.Nop(),
		diffTimeout: history.DefaultDiffTimeout,
		history:     history.New[saved](),
		console:     console.NewCollector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id.String()).Logger()
	s.history.SetDiffTimeout(s.diffTimeout)
	for _, fn := range s.functions {
		if fn.Name == "" {
			return nil, ErrUnnamedFunction
		}
	}

	prog, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if diags := lint.Restricted(prog); len(diags) > 0 {
		d := diags[0]
		return nil, fmt.Errorf("%w: %d:%d: %s", ErrRestrictedSyntax, d.Line, d.Column, d.Message)
	}
	s.program = prog

	st, err := stepper.New(prog, s.stepperOptions()...)
	if err != nil {
		return nil, err
	}
	s.stepper = st
	s.log.Debug().Int("functions", len(s.functions)).Msg("session created")

	if err := s.StepForward(Micro); err != nil {
		return nil, fmt.Errorf("first step: %w", err)
	}
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Source returns the program text.
func (s *Session) Source() string { return s.source }

func (s *Session) stepperOptions() []stepper.Option {
	natives := make([]interpreter.Option, 0, len(s.functions))
	for _, fn := range s.functions {
		natives = append(natives, interpreter.WithNative(fn.Name, s.wrap(fn)))
	}
	return []stepper.Option{
		stepper.WithLogger(s.log),
		stepper.WithInterpreterOptions(natives...),
	}
}

// wrap adapts a host function to the evaluator. Output is tagged with the
// line of the call site; a host error is a fault of the step.
func (s *Session) wrap(fn HostFunction) runtime.NativeFunc {
	return func(c *runtime.NativeCall) (runtime.Value, error) {
		line := 0
		if c.Site != nil {
			line = c.Site.Location().Start.Line
		}
		var logErr error
		log := func(content string) {
			if err := s.console.Log(content, line); err != nil && logErr == nil {
				logErr = err
			}
		}
		args := make([]any, len(c.Args))
		for i, a := range c.Args {
			args[i] = toHost(c.Heap, a)
		}
		res, err := fn.Fn(log, args...)
		if err != nil {
			return runtime.Undefined, fmt.Errorf("host function %s: %w", fn.Name, err)
		}
		if logErr != nil {
			return runtime.Undefined, fmt.Errorf("host function %s: %w", fn.Name, logErr)
		}
		return fromHost(c.Heap, res)
	}
}

// StepForward advances to the next step of the given mode, the end of the
// program or an uncaught exception.
func (s *Session) StepForward(mode Mode) error {
	if s.IsLastStep() {
		return ErrLastStep
	}
	if s.state == started {
		if err := s.saveState(); err != nil {
			return err
		}
	}
	s.console.NewBin()
	s.state = started
	s.exception = nil

	res, err := s.stepper.Step()
	for err == nil && mode == Macro && res.Kind == stepper.Micro {
		if err = s.saveState(); err != nil {
			return err
		}
		s.console.NewBin()
		res, err = s.stepper.Step()
	}
	if err != nil {
		return fmt.Errorf("step forward: %w", err)
	}

	switch res.Kind {
	case stepper.End:
		s.state = finished
	case stepper.UncaughtException:
		s.state = finished
		exc := res.Exception
		s.exception = &exc
	}
	s.log.Debug().
		Stringer("mode", mode).
		Stringer("kind", res.Kind).
		Int("history", s.history.Len()).
		Msg("stepped forward")
	return nil
}

// StepBackward returns to the previous step of the given mode, or to the
// first step.
func (s *Session) StepBackward(mode Mode) error {
	if s.IsFirstStep() {
		return ErrFirstStep
	}
	for {
		if err := s.console.PopBin(); err != nil {
			return err
		}
		text, meta, err := s.history.Pop()
		if err != nil {
			return err
		}
		st, err := stepper.Restore(s.program, stepper.Snapshot{Interpreter: text, Internal: meta.internal}, s.stepperOptions()...)
		if err != nil {
			return fmt.Errorf("step backward: %w", err)
		}
		s.stepper = st
		s.exception = meta.exception
		s.state = meta.state
		if mode != Macro || s.history.IsEmpty() || meta.internal.Kind == stepper.Macro {
			break
		}
	}
	s.log.Debug().Stringer("mode", mode).Int("history", s.history.Len()).Msg("stepped backward")
	return nil
}

func (s *Session) saveState() error {
	snap, err := s.stepper.Serialize()
	if err != nil {
		return err
	}
	if k := snap.Internal.Kind; k != stepper.Micro && k != stepper.Macro {
		return fmt.Errorf("save state: cannot save a %s step", k)
	}
	s.history.Push(snap.Interpreter, saved{
		internal:  snap.Internal,
		exception: s.exception,
		state:     s.state,
	})
	return nil
}

// Status reports whether the program is running or how it ended.
func (s *Session) Status() Status {
	switch {
	case s.state != finished:
		return Status{Kind: Started}
	case s.exception == nil:
		return Status{Kind: FinishedOK}
	}
	return Status{
		Kind:      FinishedException,
		Exception: errorToString(s.stepper.Interpreter().Heap(), *s.exception),
	}
}

// IsFirstStep reports whether there is no step to go back to.
func (s *Session) IsFirstStep() bool { return s.history.IsEmpty() }

// IsLastStep reports whether the program ended.
func (s *Session) IsLastStep() bool { return s.state == finished }

// RunToEnd steps forward until the program ends and returns every step
// from the current one on.
func (s *Session) RunToEnd(mode Mode) (*trace.Trace, error) {
	t := &trace.Trace{ProgramCode: s.source}
	for {
		step, err := s.CollectState()
		if err != nil {
			return nil, err
		}
		t.Steps = append(t.Steps, step)
		if s.IsLastStep() {
			return t, nil
		}
		if err := s.StepForward(mode); err != nil {
			return nil, err
		}
	}
}
