package interpreter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/builtins"
	"github.com/example/jsviz/parser"
	"github.com/example/jsviz/runtime"
)

// polyfillFirstID keeps polyfill node ids clear of user program ids.
const polyfillFirstID ast.NodeID = 1 << 24

// DefaultMaxDepth bounds the state stack.
const DefaultMaxDepth = 10000

var (
	// ErrFault wraps every host-side failure reported through a Fault
	// result.
	ErrFault = errors.New("interpreter fault")

	// ErrCorruptSnapshot is returned by Restore for unusable input.
	ErrCorruptSnapshot = errors.New("corrupt interpreter snapshot")

	// ErrStackOverflow is the Fault of a state stack deeper than the
	// configured maximum.
	ErrStackOverflow = fmt.Errorf("%w: maximum call depth exceeded", ErrFault)
)

// Outcome classifies the result of one evaluator step.
type Outcome int

const (
	Advanced Outcome = iota
	Ended
	Exception
	Fault
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case Ended:
		return "ended"
	case Exception:
		return "exception"
	}
	return "fault"
}

// Result is returned by Step. Value holds the thrown value of an
// Exception; Err the cause of a Fault.
type Result struct {
	Outcome Outcome
	Value   runtime.Value
	Err     error
}

// Reference is an assignable location produced by identifiers and member
// expressions evaluated for their components.
type Reference struct {
	Base    runtime.Value    `json:"base"`
	Scope   runtime.ObjectID `json:"scope,omitempty"`
	Name    string           `json:"name"`
	IsScope bool             `json:"isScope,omitempty"`
}

// State is one frame of the evaluator's explicit stack: a node being
// evaluated in a scope plus whatever partial results it has gathered.
type State struct {
	ID    uint64           `json:"id"`
	Node  ast.NodeID       `json:"node"`
	Scope runtime.ObjectID `json:"scope"`
	Phase int              `json:"phase,omitempty"`
	N     int              `json:"n,omitempty"`
	M     int              `json:"m,omitempty"`
	// Done marks a return or throw whose argument has been scheduled.
	Done bool `json:"done,omitempty"`
	// HasValue is set when a child delivered its result into Value.
	HasValue   bool            `json:"hasValue,omitempty"`
	Value      runtime.Value   `json:"value"`
	Left       runtime.Value   `json:"left"`
	Ref        *Reference      `json:"ref,omitempty"`
	Values     []runtime.Value `json:"values,omitempty"`
	Func       runtime.Value   `json:"func"`
	This       runtime.Value   `json:"this"`
	Keys       []string        `json:"keys,omitempty"`
	Components bool            `json:"components,omitempty"`
	Labels     []string        `json:"labels,omitempty"`
	Default    int             `json:"default,omitempty"`
}

// Interpreter evaluates a program one small step at a time. Its whole
// state is the heap and the state stack, both serializable.
type Interpreter struct {
	program  *ast.Program
	polyfill *ast.Program
	nodes    map[ast.NodeID]ast.Node

	heap    *runtime.Heap
	natives runtime.Natives
	global  runtime.ObjectID
	stack   []*State
	nextID  uint64

	hostFuncs map[string]runtime.NativeFunc
	log       zerolog.Logger
	maxDepth  int
}

type Option func(*Interpreter)

// WithLogger sets the logger; steps are logged at trace level.
func WithLogger(l zerolog.Logger) Option {
	return func(interp *Interpreter) { interp.log = l }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(interp *Interpreter) { interp.maxDepth = n }
}

// WithNative exposes fn as the global name of the interpreted program.
// Natives are declared before the program's own declarations.
func WithNative(name string, fn runtime.NativeFunc) Option {
	return func(interp *Interpreter) { interp.hostFuncs[name] = fn }
}

func newInterpreter(program *ast.Program, opts []Option) (*Interpreter, error) {
	interp := &Interpreter{
		program:   program,
		nodes:     make(map[ast.NodeID]ast.Node),
		hostFuncs: make(map[string]runtime.NativeFunc),
		log:       zerolog.Nop(),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(interp)
	}
	polyfill, err := parser.Parse(builtins.Polyfills,
		parser.WithSourceName(builtins.PolyfillSource), parser.WithFirstID(polyfillFirstID))
	if err != nil {
		return nil, fmt.Errorf("%w: polyfills: %v", ErrFault, err)
	}
	interp.polyfill = polyfill
	interp.index(program)
	interp.index(polyfill)
	return interp, nil
}

func (interp *Interpreter) index(program *ast.Program) {
	ast.Inspect(program, func(n ast.Node) bool {
		interp.nodes[n.Location().ID] = n
		return true
	})
}

func hostNativeName(name string) string { return "host." + name }

// New prepares program for stepping: builtins are installed, polyfills
// run to completion and the program's declarations are hoisted. No step
// of the program itself is taken.
func New(program *ast.Program, opts ...Option) (*Interpreter, error) {
	interp, err := newInterpreter(program, opts)
	if err != nil {
		return nil, err
	}
	interp.heap = runtime.NewHeap()
	scope, natives := builtins.Install(interp.heap)
	interp.global = scope.ID
	interp.natives = natives

	interp.push(interp.polyfill, interp.global)
	interp.hoist(interp.polyfill, interp.global)
	for {
		res := interp.Step()
		if res.Outcome == Ended {
			break
		}
		if res.Outcome != Advanced {
			return nil, fmt.Errorf("%w: polyfills did not complete: %s", ErrFault, res.Outcome)
		}
	}
	builtins.HidePolyfills(interp.heap)
	interp.stack = nil

	global := interp.heap.Bindings(interp.global)
	for _, name := range sortedNames(interp.hostFuncs) {
		if name == "" {
			return nil, fmt.Errorf("%w: host function without a name", ErrFault)
		}
		interp.natives[hostNativeName(name)] = interp.hostFuncs[name]
		fn := interp.heap.NewFunction(&runtime.Function{Name: name, Native: hostNativeName(name)})
		global.PutHidden(name, runtime.NewRef(fn.ID))
	}

	interp.push(program, interp.global)
	interp.hoist(program, interp.global)
	return interp, nil
}

type snapshot struct {
	Heap   *runtime.Heap    `json:"heap"`
	Global runtime.ObjectID `json:"global"`
	Stack  []*State         `json:"stack"`
	NextID uint64           `json:"nextId"`
}

// Serialize returns a complete, deterministic description of the
// evaluator. Equal evaluators produce equal text.
func (interp *Interpreter) Serialize() (string, error) {
	data, err := json.Marshal(snapshot{
		Heap:   interp.heap,
		Global: interp.global,
		Stack:  interp.stack,
		NextID: interp.nextID,
	})
	if err != nil {
		return "", fmt.Errorf("serialize evaluator: %w", err)
	}
	return string(data), nil
}

// Restore rebuilds an evaluator from Serialize output. program must be the
// program the snapshot was taken from; host functions are rebound by
// name from the options.
func Restore(program *ast.Program, text string, opts ...Option) (*Interpreter, error) {
	interp, err := newInterpreter(program, opts)
	if err != nil {
		return nil, err
	}
	snap := snapshot{Heap: runtime.NewHeap()}
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	for _, st := range snap.Stack {
		if st == nil || interp.nodes[st.Node] == nil || snap.Heap.Scope(st.Scope) == nil {
			return nil, fmt.Errorf("%w: state references unknown node or scope", ErrCorruptSnapshot)
		}
	}
	interp.heap = snap.Heap
	interp.global = snap.Global
	interp.stack = snap.Stack
	interp.nextID = snap.NextID
	interp.natives = builtins.Natives()
	for name, fn := range interp.hostFuncs {
		interp.natives[hostNativeName(name)] = fn
	}
	return interp, nil
}

// StateStack returns the state stack, bottom first. Callers must not
// modify it.
func (interp *Interpreter) StateStack() []*State { return interp.stack }

// Top returns the state on top of the stack, or nil.
func (interp *Interpreter) Top() *State {
	if len(interp.stack) == 0 {
		return nil
	}
	return interp.stack[len(interp.stack)-1]
}

func (interp *Interpreter) Heap() *runtime.Heap { return interp.heap }

func (interp *Interpreter) Program() *ast.Program { return interp.program }

// GlobalScope is the id of the global scope, which is also the id of the
// global object.
func (interp *Interpreter) GlobalScope() runtime.ObjectID { return interp.global }

// Node resolves a node id of the program or of the polyfills.
func (interp *Interpreter) Node(id ast.NodeID) ast.Node { return interp.nodes[id] }

// IsInternal reports whether a node belongs to polyfill code.
func (interp *Interpreter) IsInternal(id ast.NodeID) bool {
	n := interp.nodes[id]
	return n != nil && n.Location().Source == builtins.PolyfillSource
}

// Text returns the source text of n.
func (interp *Interpreter) Text(n ast.Node) string {
	if n.Location().Source == builtins.PolyfillSource {
		return interp.polyfill.Text(n)
	}
	return interp.program.Text(n)
}

// FunctionNode returns the AST of an interpreted function object.
func (interp *Interpreter) FunctionNode(fn *runtime.Object) ast.Function {
	if !fn.IsCallable() || fn.Func.IsNative() {
		return nil
	}
	f, _ := interp.nodes[fn.Func.Node].(ast.Function)
	return f
}

// Step performs one evaluator step.
func (interp *Interpreter) Step() (res Result) {
	st := interp.Top()
	if st == nil {
		return Result{Outcome: Ended}
	}
	node := interp.nodes[st.Node]
	if prog, ok := node.(*ast.Program); ok && st.N >= len(prog.Body) {
		return Result{Outcome: Ended}
	}
	interp.log.Trace().
		Stringer("node", node.Kind()).
		Int("depth", len(interp.stack)).
		Int("phase", st.Phase).
		Msg("step")

	if err := interp.dispatch(st, node); err != nil {
		return interp.fail(err)
	}
	if len(interp.stack) > interp.maxDepth {
		interp.log.Error().Int("depth", len(interp.stack)).Msg("state stack overflow")
		return Result{Outcome: Fault, Err: ErrStackOverflow}
	}
	return Result{Outcome: Advanced}
}

// Run steps until the program ends, throws or faults.
func (interp *Interpreter) Run() Result {
	for {
		if res := interp.Step(); res.Outcome != Advanced {
			return res
		}
	}
}

// thrown carries an interpreted value being thrown.
type thrown struct {
	value runtime.Value
}

func (t *thrown) Error() string { return "uncaught exception" }

// fail converts an error from a step function into a Result. Runtime
// errors become interpreted Error objects.
func (interp *Interpreter) fail(err error) Result {
	var t *thrown
	if errors.As(err, &t) {
		return Result{Outcome: Exception, Value: t.value}
	}
	var rt *runtime.Throw
	if errors.As(err, &rt) {
		return Result{Outcome: Exception, Value: interp.newError(rt.Type, rt.Message)}
	}
	interp.log.Error().Err(err).Msg("evaluator fault")
	if errors.Is(err, ErrFault) {
		return Result{Outcome: Fault, Err: err}
	}
	return Result{Outcome: Fault, Err: fmt.Errorf("%w: %w", ErrFault, err)}
}

func (interp *Interpreter) newError(errorType, message string) runtime.Value {
	obj := interp.heap.NewError(errorType, message)
	obj.PutHidden("stack", runtime.NewString(interp.StackTrace()))
	return runtime.NewRef(obj.ID)
}

// StackTrace describes the interpreted call stack, innermost call first.
func (interp *Interpreter) StackTrace() string {
	var lines []string
	var pos ast.Node
	if top := interp.Top(); top != nil {
		pos = interp.nodes[top.Node]
	}
	at := func(name string, n ast.Node) {
		if n == nil || n.Location().Source == builtins.PolyfillSource {
			lines = append(lines, "    at "+name+" (native)")
			return
		}
		start := n.Location().Start
		lines = append(lines, fmt.Sprintf("    at %s (%d:%d)", name, start.Line, start.Column))
	}
	for i := len(interp.stack) - 1; i >= 0; i-- {
		st := interp.stack[i]
		if !interp.isActiveCall(st) {
			continue
		}
		at(interp.functionName(st.Func), pos)
		pos = interp.nodes[st.Node]
	}
	at("<global>", pos)
	return strings.Join(lines, "\n")
}

func (interp *Interpreter) functionName(fn runtime.Value) string {
	if obj := interp.heap.Deref(fn); obj.IsCallable() && obj.Func.Name != "" {
		return obj.Func.Name
	}
	return "<anon>"
}

// ---------- stack operations ----------

func (interp *Interpreter) push(node ast.Node, scope runtime.ObjectID) *State {
	interp.nextID++
	st := &State{ID: interp.nextID, Node: node.Location().ID, Scope: scope}
	interp.stack = append(interp.stack, st)
	return st
}

func (interp *Interpreter) pushComponents(node ast.Node, scope runtime.ObjectID) *State {
	st := interp.push(node, scope)
	switch node.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		st.Components = true
	}
	return st
}

func (interp *Interpreter) pop() {
	interp.stack[len(interp.stack)-1] = nil
	interp.stack = interp.stack[:len(interp.stack)-1]
}

// ret pops the current state and hands v to its parent.
func (interp *Interpreter) ret(v runtime.Value) {
	interp.pop()
	if parent := interp.Top(); parent != nil {
		parent.Value = v
		parent.HasValue = true
	}
}

// retRef pops the current state and hands a reference to its parent.
func (interp *Interpreter) retRef(ref *Reference) {
	interp.pop()
	if parent := interp.Top(); parent != nil {
		parent.Ref = ref
		parent.HasValue = true
	}
}

// take consumes the value delivered by a child.
func (st *State) take() runtime.Value {
	st.HasValue = false
	return st.Value
}

func sortedNames(m map[string]runtime.NativeFunc) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
