package rdl

import (
	"fmt"
	"slices"
)

// Collections keep their tables in ordinary attributes, so the codecs
// carry them like any other value.
const (
	attrGeometries   = "geometries"
	attrParts        = "parts"
	attrLights       = "lights"
	attrLightFilters = "lightfilters"
	attrStatic       = "static"
)

// MemberAttributes names the attributes holding the members of a set,
// or the columns of a TraceSet or Layer table in row order. Other
// classes have none.
func (c *SceneClass) MemberAttributes() []string {
	switch {
	case c.IsA(InterfaceLayer):
		attrs := []string{attrGeometries, attrParts}
		for _, m := range layerBundleAttributes {
			attrs = append(attrs, m.name)
		}
		return attrs
	case c.IsA(InterfaceTraceSet):
		return []string{attrGeometries, attrParts}
	case c.IsA(InterfaceGeometrySet):
		return []string{attrGeometries}
	case c.IsA(InterfaceLightSet):
		return []string{attrLights}
	case c.IsA(InterfaceLightFilterSet):
		return []string{attrLightFilters}
	}
	return nil
}

// ============================================================
// Member lists
// ============================================================

func (o *SceneObject) containsMember(attr string, m *SceneObject) bool {
	return m != nil && slices.Contains(o.rawObjects(attr), m)
}

func (o *SceneObject) addMember(attr string, m *SceneObject) error {
	a, s, err := o.lookup(attr)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: cannot add a null member to %s", ErrTypeMismatch, o.name)
	}
	if err := o.checkRef(a, m); err != nil {
		return err
	}
	if slices.Contains(s.values[TimestepBegin].objs, m) {
		return nil
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	v := &s.values[TimestepBegin]
	v.objs = append(slices.Clone(v.objs), m)
	s.changed = true
	o.touch()
	return nil
}

func (o *SceneObject) removeMember(attr string, m *SceneObject) error {
	_, s, err := o.lookup(attr)
	if err != nil {
		return err
	}
	v := &s.values[TimestepBegin]
	i := slices.Index(v.objs, m)
	if m == nil || i < 0 {
		return nil
	}
	guard := o.UpdateGuard()
	defer guard.Close()
	v.objs = slices.Delete(slices.Clone(v.objs), i, i+1)
	s.changed = true
	o.touch()
	return nil
}

func (o *SceneObject) clearMembers(attrs ...string) {
	guard := o.UpdateGuard()
	defer guard.Close()
	for _, attr := range attrs {
		_, s, err := o.lookup(attr)
		if err != nil {
			continue
		}
		v := &s.values[TimestepBegin]
		if v.Len() > 0 {
			v.bools, v.ints, v.floats, v.strs, v.objs = nil, nil, nil, nil, nil
			s.changed = true
		}
	}
	o.touch()
}

// anyDirty reports whether a member object changed since its last commit.
func anyDirty(objs []*SceneObject) bool {
	for _, m := range objs {
		if m != nil && m.IsDirty() {
			return true
		}
	}
	return false
}

// ============================================================
// GeometrySet
// ============================================================

type GeometrySet struct{ *SceneObject }

func (g *GeometrySet) Add(geo *Geometry) error {
	return g.addMember(attrGeometries, viewObject(geo))
}

func (g *GeometrySet) Remove(geo *Geometry) error {
	return g.removeMember(attrGeometries, viewObject(geo))
}

func (g *GeometrySet) Contains(geo *Geometry) bool {
	return g.containsMember(attrGeometries, viewObject(geo))
}

func (g *GeometrySet) Clear() { g.clearMembers(attrGeometries) }

// Members returns the geometries in insertion order.
func (g *GeometrySet) Members() []*Geometry {
	var out []*Geometry
	for _, o := range g.rawObjects(attrGeometries) {
		if geo, ok := o.AsGeometry(); ok {
			out = append(out, geo)
		}
	}
	return out
}

func (g *GeometrySet) Len() int { return len(g.rawObjects(attrGeometries)) }

// IsStatic reports whether the set is frozen after the first render pass.
func (g *GeometrySet) IsStatic() bool { return g.boolAttr(attrStatic) }

func (g *GeometrySet) SetStatic(b bool) error { return g.Set(attrStatic, BoolValue(b)) }

// HaveGeometriesChanged reports whether the membership or any member
// changed since the last commit.
func (g *GeometrySet) HaveGeometriesChanged() bool {
	changed, _ := g.HasChanged(attrGeometries)
	return changed || anyDirty(g.rawObjects(attrGeometries))
}

type ShadowReceiverSet struct{ GeometrySet }

// ============================================================
// LightSet
// ============================================================

type LightSet struct{ *SceneObject }

func (l *LightSet) Add(light *Light) error {
	return l.addMember(attrLights, viewObject(light))
}

func (l *LightSet) Remove(light *Light) error {
	return l.removeMember(attrLights, viewObject(light))
}

func (l *LightSet) Contains(light *Light) bool {
	return l.containsMember(attrLights, viewObject(light))
}

func (l *LightSet) Clear() { l.clearMembers(attrLights) }

func (l *LightSet) Members() []*Light {
	var out []*Light
	for _, o := range l.rawObjects(attrLights) {
		if light, ok := o.AsLight(); ok {
			out = append(out, light)
		}
	}
	return out
}

func (l *LightSet) Len() int { return len(l.rawObjects(attrLights)) }

// HaveLightsChanged reports whether the membership or any member light
// changed since the last commit.
func (l *LightSet) HaveLightsChanged() bool {
	changed, _ := l.HasChanged(attrLights)
	return changed || anyDirty(l.rawObjects(attrLights))
}

type ShadowSet struct{ LightSet }

// ============================================================
// LightFilterSet
// ============================================================

type LightFilterSet struct{ *SceneObject }

func (l *LightFilterSet) Add(f *LightFilter) error {
	return l.addMember(attrLightFilters, viewObject(f))
}

func (l *LightFilterSet) Remove(f *LightFilter) error {
	return l.removeMember(attrLightFilters, viewObject(f))
}

func (l *LightFilterSet) Contains(f *LightFilter) bool {
	return l.containsMember(attrLightFilters, viewObject(f))
}

func (l *LightFilterSet) Clear() { l.clearMembers(attrLightFilters) }

func (l *LightFilterSet) Members() []*LightFilter {
	var out []*LightFilter
	for _, o := range l.rawObjects(attrLightFilters) {
		if f, ok := o.AsLightFilter(); ok {
			out = append(out, f)
		}
	}
	return out
}

func (l *LightFilterSet) Len() int { return len(l.rawObjects(attrLightFilters)) }

// ============================================================
// View plumbing
// ============================================================

// objectView is implemented by every capability view through its
// embedded *SceneObject.
type objectView interface {
	object() *SceneObject
}

func (o *SceneObject) object() *SceneObject { return o }

// viewObject unwraps a possibly nil view.
func viewObject[V interface {
	*T
	objectView
}, T any](v V) *SceneObject {
	if v == nil {
		return nil
	}
	return v.object()
}
