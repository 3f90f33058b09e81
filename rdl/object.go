package rdl

import (
	"fmt"
)

// slot holds the state of one attribute on one object. Blurrable
// attributes use both values; all others use values[TimestepBegin].
type slot struct {
	values         [NumTimesteps]Value
	binding        *SceneObject
	changed        bool
	bindingChanged bool
}

// SceneObject is a named instance of a SceneClass. Objects are created by
// a SceneContext and live as long as it does.
//
// An object has no internal locking: writes must come from a single
// goroutine, and readers may only run while no update is open.
type SceneObject struct {
	name        string
	class       *SceneClass
	ctx         *SceneContext
	slots       []slot
	dirty       bool
	updateDepth int
	index       *assignmentIndex
}

func newSceneObject(ctx *SceneContext, class *SceneClass, name string) *SceneObject {
	o := &SceneObject{
		name:  name,
		class: class,
		ctx:   ctx,
		slots: make([]slot, class.NumAttributes()),
		dirty: true,
	}
	for i, a := range class.attrs {
		for ts := range o.slots[i].values {
			o.slots[i].values[ts] = a.def.Clone()
		}
	}
	return o
}

// Name returns the object's unique name.
func (o *SceneObject) Name() string { return o.name }

// SceneClass returns the object's class.
func (o *SceneObject) SceneClass() *SceneClass { return o.class }

// ClassName is shorthand for SceneClass().Name().
func (o *SceneObject) ClassName() string { return o.class.name }

// Context returns the context that owns the object.
func (o *SceneObject) Context() *SceneContext { return o.ctx }

// Interface returns the capability bits of the object's class.
func (o *SceneObject) Interface() Interface { return o.class.iface }

// IsA reports whether the object provides every capability in iface.
func (o *SceneObject) IsA(iface Interface) bool { return o.class.iface.Has(iface) }

func (o *SceneObject) String() string {
	return fmt.Sprintf("%s(%q)", o.class.name, o.name)
}

func (o *SceneObject) lookup(name string) (*Attribute, *slot, error) {
	a, err := o.class.Attribute(name)
	if err != nil {
		return nil, nil, err
	}
	return a, &o.slots[a.index], nil
}

// timestepIndex validates an optional timestep selector and maps it to a
// slot index for the attribute.
func timestepIndex(a *Attribute, ts []Timestep) (int, error) {
	if len(ts) > 1 {
		return 0, fmt.Errorf("%w: expected at most one timestep, got %d", ErrInvalidKey, len(ts))
	}
	if len(ts) == 0 {
		return int(TimestepBegin), nil
	}
	if ts[0] > TimestepEnd {
		return 0, fmt.Errorf("%w: %s is not a timestep", ErrInvalidKey, ts[0])
	}
	if !a.IsBlurrable() {
		return int(TimestepBegin), nil
	}
	return int(ts[0]), nil
}

// ============================================================
// Values
// ============================================================

// Get returns the value of an attribute. The optional timestep selects
// the motion blur sample of a blurrable attribute and defaults to
// TimestepBegin.
func (o *SceneObject) Get(name string, ts ...Timestep) (Value, error) {
	a, s, err := o.lookup(name)
	if err != nil {
		return Value{}, err
	}
	i, err := timestepIndex(a, ts)
	if err != nil {
		return Value{}, err
	}
	return s.values[i].Clone(), nil
}

// Set writes the value of an attribute. The value must have the
// attribute's exact type, and referenced objects must belong to the same
// context and provide the attribute's object type. A write outside an
// open update is wrapped in one.
func (o *SceneObject) Set(name string, v Value, ts ...Timestep) error {
	a, s, err := o.lookup(name)
	if err != nil {
		return err
	}
	i, err := timestepIndex(a, ts)
	if err != nil {
		return err
	}
	if err := o.checkValue(a, v); err != nil {
		return err
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	s.values[i] = v.Clone()
	s.changed = true
	o.touch()
	return nil
}

func (o *SceneObject) checkValue(a *Attribute, v Value) error {
	if v.Type() != a.typ {
		return fmt.Errorf("%w: %s.%s is %s, got %s", ErrTypeMismatch, o.name, a.name, a.typ, v.Type())
	}
	for _, ref := range v.objs {
		if err := o.checkRef(a, ref); err != nil {
			return err
		}
	}
	return nil
}

func (o *SceneObject) checkRef(a *Attribute, ref *SceneObject) error {
	if ref == nil {
		return nil
	}
	if ref.ctx != o.ctx {
		return fmt.Errorf("%w: %s belongs to another context", ErrTypeMismatch, ref.name)
	}
	if a.objectType != 0 && !ref.IsA(a.objectType) {
		return fmt.Errorf("%w: %s.%s needs %s, %s is %s",
			ErrTypeMismatch, o.name, a.name, a.objectType, ref.name, ref.Interface())
	}
	return nil
}

func (o *SceneObject) touch() {
	o.dirty = true
	o.index = nil
}

// ============================================================
// Default and change tracking
// ============================================================

func (o *SceneObject) isDefaultAt(a *Attribute) bool {
	s := &o.slots[a.index]
	if !s.values[TimestepBegin].Equal(a.def) {
		return false
	}
	return !a.IsBlurrable() || s.values[TimestepEnd].Equal(a.def)
}

// IsDefault reports whether the attribute holds its default value at
// every timestep it stores.
func (o *SceneObject) IsDefault(name string) (bool, error) {
	a, _, err := o.lookup(name)
	if err != nil {
		return false, err
	}
	return o.isDefaultAt(a), nil
}

// IsDefaultAndUnbound reports whether the attribute holds its default
// value and has no binding.
func (o *SceneObject) IsDefaultAndUnbound(name string) (bool, error) {
	a, s, err := o.lookup(name)
	if err != nil {
		return false, err
	}
	return s.binding == nil && o.isDefaultAt(a), nil
}

// HasChanged reports whether the attribute value was written since the
// last commit.
func (o *SceneObject) HasChanged(name string) (bool, error) {
	_, s, err := o.lookup(name)
	if err != nil {
		return false, err
	}
	return s.changed, nil
}

// HasBindingChanged reports whether the binding was written since the
// last commit.
func (o *SceneObject) HasBindingChanged(name string) (bool, error) {
	_, s, err := o.lookup(name)
	if err != nil {
		return false, err
	}
	return s.bindingChanged, nil
}

// IsDirty reports whether anything on the object changed since the last
// commit.
func (o *SceneObject) IsDirty() bool { return o.dirty }

// RequestUpdate marks the object dirty without changing any value.
func (o *SceneObject) RequestUpdate() { o.dirty = true }

// CommitChanges clears the dirty flag and every changed flag.
func (o *SceneObject) CommitChanges() {
	for i := range o.slots {
		o.slots[i].changed = false
		o.slots[i].bindingChanged = false
	}
	o.dirty = false
}

// ResetToDefault restores an attribute's default at both timesteps and
// clears its changed flag. Bindings are left alone.
func (o *SceneObject) ResetToDefault(name string) error {
	a, _, err := o.lookup(name)
	if err != nil {
		return err
	}
	o.resetAt(a)
	return nil
}

// ResetAllToDefault resets every attribute.
func (o *SceneObject) ResetAllToDefault() {
	for _, a := range o.class.attrs {
		o.resetAt(a)
	}
}

func (o *SceneObject) resetAt(a *Attribute) {
	s := &o.slots[a.index]
	for ts := range s.values {
		s.values[ts] = a.def.Clone()
	}
	s.changed = false
	o.index = nil
}

// ============================================================
// Bindings
// ============================================================

// Binding returns the object bound to a bindable attribute, or nil.
func (o *SceneObject) Binding(name string) (*SceneObject, error) {
	a, s, err := o.lookup(name)
	if err != nil {
		return nil, err
	}
	if !a.IsBindable() {
		return nil, fmt.Errorf("%w: %s.%s is not bindable", ErrTypeMismatch, o.name, name)
	}
	return s.binding, nil
}

// SetBinding binds another object to a bindable attribute. A nil target
// removes the binding.
func (o *SceneObject) SetBinding(name string, target *SceneObject) error {
	a, s, err := o.lookup(name)
	if err != nil {
		return err
	}
	if !a.IsBindable() {
		return fmt.Errorf("%w: %s.%s is not bindable", ErrTypeMismatch, o.name, name)
	}
	if target != nil && target.ctx != o.ctx {
		return fmt.Errorf("%w: %s belongs to another context", ErrTypeMismatch, target.name)
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	s.binding = target
	s.bindingChanged = true
	o.touch()
	return nil
}

// ============================================================
// Copying
// ============================================================

// CopyAll copies every value and binding from src, which must have the
// same class. Attributes whose state differs are marked changed.
func (o *SceneObject) CopyAll(src *SceneObject) error {
	if src == nil || src.class != o.class || src.ctx != o.ctx {
		return fmt.Errorf("%w: cannot copy %v into %v", ErrTypeMismatch, src, o)
	}
	if src == o {
		return nil
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	for _, a := range o.class.attrs {
		o.copySlot(a, &src.slots[a.index])
	}
	return nil
}

// CopyValues copies one attribute from src. Both classes must declare the
// attribute with the same type.
func (o *SceneObject) CopyValues(name string, src *SceneObject) error {
	a, _, err := o.lookup(name)
	if err != nil {
		return err
	}
	if src == nil || src.ctx != o.ctx {
		return fmt.Errorf("%w: cannot copy %v into %v", ErrTypeMismatch, src, o)
	}
	sa, ss, err := src.lookup(name)
	if err != nil {
		return err
	}
	if sa.typ != a.typ {
		return fmt.Errorf("%w: %s.%s is %s, %s.%s is %s", ErrTypeMismatch, o.name, name, a.typ, src.name, name, sa.typ)
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	o.copySlot(a, ss)
	return nil
}

func (o *SceneObject) copySlot(a *Attribute, from *slot) {
	s := &o.slots[a.index]
	for ts := range s.values {
		if !s.values[ts].Equal(from.values[ts]) {
			s.values[ts] = from.values[ts].Clone()
			s.changed = true
		}
	}
	if s.binding != from.binding {
		s.binding = from.binding
		s.bindingChanged = true
	}
	if s.changed || s.bindingChanged {
		o.touch()
	}
}

// ============================================================
// Typed getters
// ============================================================

func (o *SceneObject) GetBool(name string, ts ...Timestep) (bool, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func (o *SceneObject) GetInt(name string, ts ...Timestep) (int32, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

func (o *SceneObject) GetLong(name string, ts ...Timestep) (int64, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

func (o *SceneObject) GetFloat(name string, ts ...Timestep) (float32, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return 0, err
	}
	return v.AsFloat()
}

func (o *SceneObject) GetDouble(name string, ts ...Timestep) (float64, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

func (o *SceneObject) GetString(name string, ts ...Timestep) (string, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

func (o *SceneObject) GetRgb(name string, ts ...Timestep) (Rgb, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return Rgb{}, err
	}
	return v.AsRgb()
}

func (o *SceneObject) GetVec3f(name string, ts ...Timestep) (Vec3f, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return Vec3f{}, err
	}
	return v.AsVec3f()
}

func (o *SceneObject) GetMat4d(name string, ts ...Timestep) (Mat4d, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return Mat4d{}, err
	}
	return v.AsMat4d()
}

func (o *SceneObject) GetSceneObject(name string, ts ...Timestep) (*SceneObject, error) {
	v, err := o.Get(name, ts...)
	if err != nil {
		return nil, err
	}
	return v.AsSceneObject()
}

// GetSceneObjects reads a SceneObjectVector or SceneObjectIndexable.
func (o *SceneObject) GetSceneObjects(name string) ([]*SceneObject, error) {
	v, err := o.Get(name)
	if err != nil {
		return nil, err
	}
	return v.AsSceneObjectVector()
}

// The views below read intrinsic attributes that every class with the
// capability declares, so lookups cannot fail once the type is checked.

func (o *SceneObject) boolAttr(name string) bool {
	b, _ := o.GetBool(name)
	return b
}

func (o *SceneObject) intAttr(name string) int32 {
	n, _ := o.GetInt(name)
	return n
}

func (o *SceneObject) floatAttr(name string) float32 {
	f, _ := o.GetFloat(name)
	return f
}

func (o *SceneObject) stringAttr(name string) string {
	s, _ := o.GetString(name)
	return s
}

func (o *SceneObject) objectAttr(name string) *SceneObject {
	ref, _ := o.GetSceneObject(name)
	return ref
}

// rawObjects returns the stored references without copying.
func (o *SceneObject) rawObjects(name string) []*SceneObject {
	a, s, err := o.lookup(name)
	if err != nil || a.typ.Category() != CategoryObject {
		return nil
	}
	return s.values[TimestepBegin].objs
}

// rawStrings returns the stored strings without copying.
func (o *SceneObject) rawStrings(name string) []string {
	a, s, err := o.lookup(name)
	if err != nil || a.typ.Category() != CategoryString {
		return nil
	}
	return s.values[TimestepBegin].strs
}
