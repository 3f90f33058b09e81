package rdl

// BeginUpdate opens an update transaction on the object. Transactions
// nest; only the outermost EndUpdate closes it.
func (o *SceneObject) BeginUpdate() {
	o.updateDepth++
}

// EndUpdate closes the innermost open transaction. Calling it with no
// transaction open does nothing.
func (o *SceneObject) EndUpdate() {
	if o.updateDepth == 0 {
		return
	}
	o.updateDepth--
	if o.updateDepth == 0 {
		o.index = nil
	}
}

// InUpdate reports whether a transaction is open.
func (o *SceneObject) InUpdate() bool { return o.updateDepth > 0 }

// UpdateGuard is an open transaction. Close it with defer so the
// transaction ends on every return path:
//
//	g := obj.UpdateGuard()
//	defer g.Close()
type UpdateGuard struct {
	obj    *SceneObject
	closed bool
}

// UpdateGuard opens a transaction and returns its guard.
func (o *SceneObject) UpdateGuard() *UpdateGuard {
	o.BeginUpdate()
	return &UpdateGuard{obj: o}
}

// Close ends the transaction. Only the first call has an effect.
func (g *UpdateGuard) Close() {
	if g == nil || g.closed {
		return
	}
	g.closed = true
	g.obj.EndUpdate()
}

// Update runs fn inside a transaction. The transaction is closed even if
// fn returns an error or panics.
func (o *SceneObject) Update(fn func() error) error {
	g := o.UpdateGuard()
	defer g.Close()
	return fn()
}
