package runtime

// NewScope creates a scope with a fresh bindings object.
func (h *Heap) NewScope(parent ObjectID, strict bool) *Scope {
	return h.NewScopeWith(h.Alloc(ClassObject, 0), parent, strict)
}

// NewScopeWith creates a scope over an existing bindings object.
func (h *Heap) NewScopeWith(bindings *Object, parent ObjectID, strict bool) *Scope {
	s := &Scope{ID: bindings.ID, Parent: parent, Strict: strict}
	h.scopes[s.ID] = s
	return s
}

func (h *Heap) Scope(id ObjectID) *Scope {
	return h.scopes[id]
}

// Bindings returns the object holding the variables of a scope.
func (h *Heap) Bindings(scope ObjectID) *Object {
	return h.objects[scope]
}

// Declare creates or overwrites a binding in the given scope only.
func (h *Heap) Declare(scope ObjectID, name string, v Value) {
	h.Bindings(scope).Put(name, v)
}

// Lookup resolves name through the scope chain.
func (h *Heap) Lookup(scope ObjectID, name string) (Value, bool) {
	for s := h.scopes[scope]; s != nil; s = h.scopes[s.Parent] {
		if v, ok := h.objects[s.ID].Own(name); ok {
			return v, true
		}
		if s.Parent == 0 {
			break
		}
	}
	return Undefined, false
}

// Assign updates the nearest binding of name. Assigning an undeclared
// name is a ReferenceError in strict scopes.
func (h *Heap) Assign(scope ObjectID, name string, v Value) error {
	var last *Scope
	for s := h.scopes[scope]; s != nil; s = h.scopes[s.Parent] {
		if _, ok := h.objects[s.ID].Own(name); ok {
			h.objects[s.ID].Put(name, v)
			return nil
		}
		last = s
		if s.Parent == 0 {
			break
		}
	}
	if start := h.scopes[scope]; start == nil || start.Strict || last == nil {
		return Throwf("ReferenceError", "%s is not defined", name)
	}
	h.objects[last.ID].Put(name, v)
	return nil
}
