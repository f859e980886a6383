// Package stepper groups evaluator steps into the steps a reader sees.
//
// A micro step stops at every expression and statement of interest; a
// macro step stops only at statements and at top-level expressions,
// skipping the sub-expressions of a node it has already stopped at.
package stepper

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/interpreter"
	"github.com/example/jsviz/runtime"
)

var (
	// ErrNotStarted is returned when a snapshot is requested before the
	// first step.
	ErrNotStarted = errors.New("stepper not started")

	// ErrFinished is returned by Step once the program ended or threw.
	ErrFinished = errors.New("stepper already finished")
)

// Kind tells what a call to Step stopped at.
type Kind int

const (
	// Micro stops at every expression and statement of interest.
	Micro Kind = iota
	// Macro stops at statements and top-level expressions. A macro step is
	// also a micro step.
	Macro
	// End means the program finished.
	End
	// UncaughtException means the program threw an exception it did not
	// catch.
	UncaughtException
)

func (k Kind) String() string {
	switch k {
	case Micro:
		return "micro"
	case Macro:
		return "macro"
	case End:
		return "end"
	case UncaughtException:
		return "uncaught exception"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Finished reports whether k ends stepping.
func (k Kind) Finished() bool { return k == End || k == UncaughtException }

// Result is returned by Step. Exception is set for UncaughtException.
type Result struct {
	Kind      Kind
	Exception runtime.Value
}

var (
	microSkipOwn = ast.NewKindSet(
		ast.KindProgram,
		ast.KindEmptyStatement,
		ast.KindExpressionStatement,
	)

	microSkipChildren = ast.NewKindSet()

	macroSkipOwn = microSkipOwn.Union(ast.NewKindSet(
		ast.KindBlockStatement,
		ast.KindIfStatement,
		ast.KindLabeledStatement,
		ast.KindWithStatement,
		ast.KindSwitchStatement,
		ast.KindTryStatement,
		ast.KindWhileStatement,
		ast.KindDoWhileStatement,
		ast.KindForStatement,
		ast.KindForInStatement,
	))

	macroSkipChildren = microSkipChildren.Union(ast.NewKindSet(
		ast.KindReturnStatement,
		ast.KindThrowStatement,
		ast.KindVariableDeclaration,

		ast.KindThisExpression,
		ast.KindArrayLiteral,
		ast.KindObjectLiteral,
		ast.KindSequenceExpression,
		ast.KindUnaryExpression,
		ast.KindBinaryExpression,
		ast.KindAssignmentExpression,
		ast.KindUpdateExpression,
		ast.KindLogicalExpression,
		ast.KindConditionalExpression,
		ast.KindNewExpression,
		ast.KindCallExpression,
		ast.KindMemberExpression,
	))
)

// Top records the depth and scope of the state stack after a step.
type Top struct {
	Depth int              `json:"depth"`
	Scope runtime.ObjectID `json:"scopeId"`
}

// Anchor is a state whose descendants are skipped in the anchor's mode.
// It is valid while the state stack still holds State at Index.
type Anchor struct {
	Index int    `json:"index"`
	Depth int    `json:"depth"`
	Mode  Kind   `json:"mode"`
	State uint64 `json:"state"`
}

// Internal is the stepper's own state.
type Internal struct {
	Prev    Top      `json:"prevTop"`
	Kind    Kind     `json:"stepKind"`
	Anchors []Anchor `json:"anchors"`
}

// Snapshot fully describes a stepper: the evaluator text and the
// stepper's own state.
type Snapshot struct {
	Interpreter string   `json:"interpreter"`
	Internal    Internal `json:"internal"`
}

type options struct {
	log    zerolog.Logger
	interp []interpreter.Option
}

type Option func(*options)

// WithLogger sets the logger that receives a trace event per evaluator
// step.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithInterpreterOptions passes options to the underlying evaluator.
func WithInterpreterOptions(opts ...interpreter.Option) Option {
	return func(o *options) { o.interp = append(o.interp, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.interp = append([]interpreter.Option{interpreter.WithLogger(o.log)}, o.interp...)
	return o
}

// Stepper drives an interpreter until the next step of interest.
type Stepper struct {
	interp  *interpreter.Interpreter
	log     zerolog.Logger
	prev    Top
	anchors []Anchor
	last    *Result
}

// New builds a stepper over a fresh evaluator of prog.
func New(prog *ast.Program, opts ...Option) (*Stepper, error) {
	o := buildOptions(opts)
	interp, err := interpreter.New(prog, o.interp...)
	if err != nil {
		return nil, err
	}
	return &Stepper{interp: interp, log: o.log, prev: Top{Depth: -1, Scope: -1}}, nil
}

// Restore rebuilds a stepper from a snapshot of a stepper over prog.
// Natives are bound again from opts. Anchors whose state has already left
// the stack are dropped; every other anchor must match the stack.
func Restore(prog *ast.Program, snap Snapshot, opts ...Option) (*Stepper, error) {
	o := buildOptions(opts)
	interp, err := interpreter.Restore(prog, snap.Interpreter, o.interp...)
	if err != nil {
		return nil, err
	}
	stack := interp.StateStack()
	anchors := liveAnchors(snap.Internal.Anchors, stack)
	for _, a := range anchors {
		if !onStack(a, stack) {
			return nil, fmt.Errorf("restore stepper: anchor %d does not match the state stack", a.Index)
		}
	}
	last := Result{Kind: snap.Internal.Kind}
	return &Stepper{
		interp:  interp,
		log:     o.log,
		prev:    snap.Internal.Prev,
		anchors: anchors,
		last:    &last,
	}, nil
}

func (s *Stepper) Interpreter() *interpreter.Interpreter { return s.interp }

// Started reports whether Step has been called.
func (s *Stepper) Started() bool { return s.last != nil }

// Last returns the result of the latest Step. The exception of a restored
// stepper is not recovered.
func (s *Stepper) Last() (Result, error) {
	if s.last == nil {
		return Result{}, ErrNotStarted
	}
	return *s.last, nil
}

// Serialize returns a snapshot from which Restore rebuilds an equivalent
// stepper.
func (s *Stepper) Serialize() (Snapshot, error) {
	if s.last == nil {
		return Snapshot{}, ErrNotStarted
	}
	text, err := s.interp.Serialize()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Interpreter: text,
		Internal: Internal{
			Prev:    s.prev,
			Kind:    s.last.Kind,
			Anchors: liveAnchors(s.anchors, s.interp.StateStack()),
		},
	}, nil
}

func (s *Stepper) finish(r Result) (Result, error) {
	s.last = &r
	return r, nil
}

// Step advances the interpreter to the next micro step, the end of the
// program, or an uncaught exception. Host faults are returned as errors.
func (s *Stepper) Step() (Result, error) {
	if s.last != nil && s.last.Kind.Finished() {
		return Result{}, ErrFinished
	}
	for {
		res := s.interp.Step()
		switch res.Outcome {
		case interpreter.Ended:
			return s.finish(Result{Kind: End})
		case interpreter.Exception:
			return s.finish(Result{Kind: UncaughtException, Exception: res.Value})
		case interpreter.Fault:
			return Result{}, res.Err
		}

		stack := s.interp.StateStack()
		if len(stack) == 0 {
			return Result{}, fmt.Errorf("%w: state stack is empty", interpreter.ErrFault)
		}
		st := stack[len(stack)-1]
		if s.interp.IsInternal(st.Node) {
			continue
		}
		node := s.interp.Node(st.Node)
		kind := node.Kind()
		top := Top{Depth: len(stack), Scope: st.Scope}
		s.log.Trace().Stringer("node", kind).Int("depth", len(stack)).Int("anchors", len(s.anchors)).Msg("evaluator step")

		// The last step of a return or throw, and the step resuming a caller
		// after its callee returned, are kept although they backtrack.
		lastReturn := kind == ast.KindReturnStatement && st.Done
		lastThrow := kind == ast.KindThrowStatement && st.Done
		resuming := len(stack) <= s.prev.Depth && st.Scope != s.prev.Scope
		if lastReturn || lastThrow || resuming {
			s.prev = top
			return s.finish(Result{Kind: Macro})
		}

		if len(stack) <= s.prev.Depth {
			s.prev = top
			continue
		}
		s.prev = top

		s.anchors = s.anchors[:live(s.anchors, stack)]

		skipMacro := false
		if len(s.anchors) > 0 {
			a := s.anchors[len(s.anchors)-1]
			anchorNode := s.interp.Node(stack[a.Index].Node)
			descendant := len(stack) > a.Depth
			inside := within(node, anchorNode)
			if descendant && inside {
				if a.Mode == Micro {
					continue
				}
				skipMacro = true
			}
		}

		switch {
		case microSkipChildren.Has(kind):
			s.anchors = append(s.anchors, Anchor{Index: len(stack) - 1, Depth: len(stack), Mode: Micro, State: st.ID})
		case macroSkipChildren.Has(kind):
			s.anchors = append(s.anchors, Anchor{Index: len(stack) - 1, Depth: len(stack), Mode: Macro, State: st.ID})
		}

		if !macroSkipOwn.Has(kind) && !skipMacro {
			return s.finish(Result{Kind: Macro})
		}
		if !microSkipOwn.Has(kind) {
			return s.finish(Result{Kind: Micro})
		}
	}
}

func onStack(a Anchor, stack []*interpreter.State) bool {
	return a.Index >= 0 && a.Index < len(stack) && stack[a.Index].ID == a.State
}

// live counts the anchors below the ones whose state has left the stack.
// Anchors are pushed in stack order, so the finished ones are always on
// top.
func live(anchors []Anchor, stack []*interpreter.State) int {
	n := len(anchors)
	for n > 0 && !onStack(anchors[n-1], stack) {
		n--
	}
	return n
}

func liveAnchors(anchors []Anchor, stack []*interpreter.State) []Anchor {
	return append([]Anchor(nil), anchors[:live(anchors, stack)]...)
}

// within reports whether n lies inside the source range of outer.
func within(n, outer ast.Node) bool {
	l, o := n.Location(), outer.Location()
	return l.Start.Offset >= o.Start.Offset && l.End.Offset <= o.End.Offset
}
