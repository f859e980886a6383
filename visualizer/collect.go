package visualizer

import (
	"fmt"
	"strconv"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/interpreter"
	"github.com/example/jsviz/runtime"
	"github.com/example/jsviz/trace"
)

// CollectState describes the current position. It does not change the
// session.
func (s *Session) CollectState() (*trace.Step, error) {
	interp := s.stepper.Interpreter()
	h := interp.Heap()
	stack := interp.StateStack()
	if len(stack) == 0 {
		return nil, fmt.Errorf("%w: empty state stack", interpreter.ErrFault)
	}
	top := stack[len(stack)-1]
	node := interp.Node(top.Node)
	loc := node.Location()

	step := &trace.Step{
		Stdout:    s.console.All(),
		LineStart: loc.Start.Line,
		LineEnd:   loc.End.Line,
		ColStart:  loc.Start.Column,
		ColEnd:    loc.End.Column,
		Event:     trace.EventStepLine,
		Heap:      map[string]trace.HeapElement{},
	}

	throwing := node.Kind() == ast.KindThrowStatement && top.Done && top.HasValue
	switch {
	case throwing:
		step.Event = trace.EventException
		msg := errorToString(h, top.Value)
		step.ExceptionMessage = &msg
	case s.exception != nil:
		step.Event = trace.EventException
		msg := errorToString(h, *s.exception)
		step.ExceptionMessage = &msg
	case node.Kind() == ast.KindReturnStatement && top.Done:
		step.Event = trace.EventReturn
	}

	b := &heapBuilder{interp: interp, heap: step.Heap}
	for i, st := range stack {
		// Consecutive states of one scope make one frame; the last of them
		// may hold a return value.
		if i < len(stack)-1 && stack[i+1].Scope == st.Scope {
			continue
		}
		if interp.IsInternal(st.Node) {
			continue
		}
		frame, err := b.frame(st, stack)
		if err != nil {
			return nil, err
		}
		step.StackFrames = append(step.StackFrames, frame)
	}
	if n := len(step.StackFrames); n > 0 {
		step.FunctionName = step.StackFrames[n-1].FunctionName
	}
	return step, nil
}

type heapBuilder struct {
	interp *interpreter.Interpreter
	heap   map[string]trace.HeapElement
}

func (b *heapBuilder) frame(st *interpreter.State, stack []*interpreter.State) (trace.StackFrame, error) {
	h := b.interp.Heap()
	name, locals, fnNode, err := b.describeScope(st, stack)
	if err != nil {
		return trace.StackFrame{}, err
	}
	bindings := h.Bindings(st.Scope)
	if bindings == nil {
		return trace.StackFrame{}, fmt.Errorf("%w: scope %d has no bindings", interpreter.ErrFault, st.Scope)
	}

	code := fnNode.Location()
	state := b.interp.Node(st.Node).Location()
	frame := trace.StackFrame{
		FrameID:        int64(st.Scope),
		FunctionName:   name,
		FunctionCode:   b.interp.Text(fnNode),
		CodeLineStart:  code.Start.Line,
		CodeColStart:   code.Start.Column,
		CodeLineEnd:    code.End.Line,
		CodeColEnd:     code.End.Column,
		StateLineStart: state.Start.Line,
		StateColStart:  state.Start.Column,
		StateLineEnd:   state.End.Line,
		StateColEnd:    state.End.Column,
		Locals:         make(map[string]trace.Value, len(locals)),
		OrderedLocals:  locals,
	}
	for _, local := range locals {
		v, ok := bindings.Own(local)
		if !ok {
			return trace.StackFrame{}, fmt.Errorf("%w: %q is not bound in scope %d", interpreter.ErrFault, local, st.Scope)
		}
		frame.Locals[local] = b.value(v)
	}
	if b.interp.Node(st.Node).Kind() == ast.KindReturnStatement && st.Done && st.HasValue {
		ret := b.value(st.Value)
		frame.ReturnValue = &ret
	}
	return frame, nil
}

// describeScope names the function owning the scope of st and lists its
// locals. A function scope is attributed to the function of the nearest
// call or new expression below the first state of that scope.
func (b *heapBuilder) describeScope(st *interpreter.State, stack []*interpreter.State) (string, []string, ast.Node, error) {
	interp := b.interp
	if st.Scope == interp.GlobalScope() {
		prog := interp.Program()
		return "<global>", ast.CollectLocals(prog), prog, nil
	}

	first := 0
	for first < len(stack) && stack[first].Scope != st.Scope {
		first++
	}
	var call *interpreter.State
	for i := first - 1; i >= 0; i-- {
		switch interp.Node(stack[i].Node).Kind() {
		case ast.KindCallExpression, ast.KindNewExpression:
			call = stack[i]
		}
		if call != nil {
			break
		}
	}
	if call == nil {
		return "", nil, nil, fmt.Errorf("%w: no call expression below scope %d", interpreter.ErrFault, st.Scope)
	}
	fnObj := interp.Heap().Deref(call.Func)
	fn := interp.FunctionNode(fnObj)
	if fn == nil {
		return "", nil, nil, fmt.Errorf("%w: call below scope %d has no interpreted function", interpreter.ErrFault, st.Scope)
	}

	name := fnObj.Func.Name
	if name == "" {
		name = "<anon>"
	}
	_, params, body := fn.Signature()
	locals := []string{"this"}
	for _, p := range params {
		locals = append(locals, p.Name)
	}
	locals = append(locals, ast.CollectLocals(body)...)
	return name, locals, fn, nil
}

func (b *heapBuilder) value(v runtime.Value) trace.Value {
	switch v.Type {
	case runtime.TypeUndefined:
		return trace.Undefined()
	case runtime.TypeNull:
		return trace.Null()
	case runtime.TypeBoolean:
		return trace.Bool(v.Bool)
	case runtime.TypeNumber:
		return trace.Number(v.Number)
	case runtime.TypeString:
		return trace.String(v.Str)
	}
	obj := b.interp.Heap().Deref(v)
	if obj == nil {
		return trace.Undefined()
	}
	if obj.Primitive != nil && obj.Class != runtime.ClassObject {
		return b.value(*obj.Primitive)
	}
	b.add(obj)
	return trace.Pointer(heapID(obj.ID))
}

func heapID(id runtime.ObjectID) string { return strconv.FormatInt(int64(id), 10) }

// add materializes obj and everything reachable from it. An object is
// added before its properties are visited, so cycles terminate.
func (b *heapBuilder) add(obj *runtime.Object) {
	id := heapID(obj.ID)
	if _, ok := b.heap[id]; ok {
		return
	}
	elem := trace.HeapElement{ID: id}
	b.heap[id] = elem

	switch {
	case obj.IsCallable():
		elem.Kind = trace.HeapFunction
		elem.Name = obj.Func.Name
		if fn := b.interp.FunctionNode(obj); fn != nil {
			elem.Code = b.interp.Text(fn)
		} else {
			elem.Code = trace.NativeCode
		}
	case obj.Class == runtime.ClassError, obj.Primitive != nil:
		elem.Kind = trace.HeapObject
	case obj.Class == runtime.ClassArray, obj.Class == runtime.ClassArguments:
		elem.Kind = trace.HeapArray
		elem.Values = make([]trace.Value, len(obj.Elems))
		for i, e := range obj.Elems {
			elem.Values[i] = b.value(e)
		}
	default:
		elem.Kind = trace.HeapObject
	}
	if elem.Kind == trace.HeapObject && obj.Class != runtime.ClassError && obj.Primitive == nil {
		for _, k := range obj.VisibleKeys() {
			v, _ := obj.Own(k)
			elem.Entries = append(elem.Entries, trace.Entry{Key: k, Value: b.value(v)})
		}
	}
	if elem.Kind == trace.HeapFunction {
		for _, k := range obj.VisibleKeys() {
			v, _ := obj.Own(k)
			b.value(v)
		}
	}
	b.heap[id] = elem
}

// errorToString describes a thrown value: primitives as their string,
// objects as name, message and stack.
func errorToString(h *runtime.Heap, v runtime.Value) string {
	obj := h.Deref(v)
	if !v.IsObject() || obj == nil {
		return h.ToString(v)
	}
	out := "<Unknown Error>: "
	if h.Has(obj, "name") {
		out = h.ToString(h.GetFrom(obj, "name")) + ": "
	}
	if h.Has(obj, "message") {
		out += h.ToString(h.GetFrom(obj, "message"))
	} else {
		out += "<no message>"
	}
	if h.Has(obj, "stack") {
		out += "\n" + h.ToString(h.GetFrom(obj, "stack"))
	} else {
		out += "\n<no stack>"
	}
	return out
}
