package rdl

import "slices"

// Bundle columns of a Layer table, parallel to "geometries" and "parts".
const (
	attrSurfaceShaders     = "surface_shaders"
	attrLightSets          = "lightsets"
	attrDisplacements      = "displacements"
	attrVolumeShaders      = "volume_shaders"
	attrLightFilterSets    = "lightfiltersets"
	attrShadowSets         = "shadowsets"
	attrShadowReceiverSets = "shadowreceiversets"
)

var layerBundleAttributes = []struct {
	name  string
	iface Interface
}{
	{attrSurfaceShaders, InterfaceMaterial},
	{attrLightSets, InterfaceLightSet},
	{attrDisplacements, InterfaceDisplacement},
	{attrVolumeShaders, InterfaceVolumeShader},
	{attrLightFilterSets, InterfaceLightFilterSet},
	{attrShadowSets, InterfaceShadowSet},
	{attrShadowReceiverSets, InterfaceShadowReceiverSet},
}

// LayerAssignment is the bundle bound to one (geometry, part) row. Nil
// members are unset.
type LayerAssignment struct {
	Material          *Material
	LightSet          *LightSet
	Displacement      *Displacement
	VolumeShader      *VolumeShader
	LightFilterSet    *LightFilterSet
	ShadowSet         *ShadowSet
	ShadowReceiverSet *ShadowReceiverSet
}

// objects lists the members in layerBundleAttributes order.
func (b LayerAssignment) objects() []*SceneObject {
	return []*SceneObject{
		viewObject(b.Material),
		viewObject(b.LightSet),
		viewObject(b.Displacement),
		viewObject(b.VolumeShader),
		viewObject(b.LightFilterSet),
		viewObject(b.ShadowSet),
		viewObject(b.ShadowReceiverSet),
	}
}

// Layer binds (geometry, part) rows to material and lighting bundles. It
// is a TraceSet with one extra column per bundle member.
type Layer struct{ TraceSet }

// Assign binds a material and a light set to (geo, part). Re-assigning a
// pair replaces its bundle and returns the same id.
func (l *Layer) Assign(geo *Geometry, part string, mat *Material, ls *LightSet) (int, error) {
	return l.AssignBundle(geo, part, LayerAssignment{Material: mat, LightSet: ls})
}

// AssignBundle binds a full bundle to (geo, part).
func (l *Layer) AssignBundle(geo *Geometry, part string, b LayerAssignment) (int, error) {
	members := b.objects()
	for i, m := range layerBundleAttributes {
		a, _, err := l.lookup(m.name)
		if err != nil {
			return -1, err
		}
		if err := l.checkRef(a, members[i]); err != nil {
			return -1, err
		}
	}

	guard := l.UpdateGuard()
	defer guard.Close()
	id, _, err := l.assign(viewObject(geo), part)
	if err != nil {
		return -1, err
	}
	for i, m := range layerBundleAttributes {
		l.setBundleMember(m.name, id, members[i])
	}
	return id, nil
}

// setBundleMember writes one cell, padding the column with nulls up to
// the row. The column is marked changed only when the cell changes.
func (l *Layer) setBundleMember(attr string, id int, m *SceneObject) {
	_, s, err := l.lookup(attr)
	if err != nil {
		return
	}
	v := &s.values[TimestepBegin]
	if id < len(v.objs) && v.objs[id] == m {
		return
	}
	col := slices.Clone(v.objs)
	if id >= len(col) {
		col = append(col, make([]*SceneObject, id+1-len(col))...)
	}
	col[id] = m
	v.objs = col
	s.changed = true
	l.dirty = true
}

func (l *Layer) bundleMember(attr string, id int) *SceneObject {
	col := l.rawObjects(attr)
	if id < 0 || id >= len(col) || id >= l.AssignmentCount() {
		return nil
	}
	return col[id]
}

// Lookup returns the whole bundle of a row. Unknown ids give an empty
// bundle.
func (l *Layer) Lookup(id int) LayerAssignment {
	return LayerAssignment{
		Material:          l.LookupMaterial(id),
		LightSet:          l.LookupLightSet(id),
		Displacement:      l.LookupDisplacement(id),
		VolumeShader:      l.LookupVolumeShader(id),
		LightFilterSet:    l.LookupLightFilterSet(id),
		ShadowSet:         l.LookupShadowSet(id),
		ShadowReceiverSet: l.LookupShadowReceiverSet(id),
	}
}

func (l *Layer) LookupMaterial(id int) *Material {
	m, _ := l.bundleMember(attrSurfaceShaders, id).AsMaterial()
	return m
}

func (l *Layer) LookupLightSet(id int) *LightSet {
	m, _ := l.bundleMember(attrLightSets, id).AsLightSet()
	return m
}

func (l *Layer) LookupDisplacement(id int) *Displacement {
	m, _ := l.bundleMember(attrDisplacements, id).AsDisplacement()
	return m
}

func (l *Layer) LookupVolumeShader(id int) *VolumeShader {
	m, _ := l.bundleMember(attrVolumeShaders, id).AsVolumeShader()
	return m
}

func (l *Layer) LookupLightFilterSet(id int) *LightFilterSet {
	m, _ := l.bundleMember(attrLightFilterSets, id).AsLightFilterSet()
	return m
}

func (l *Layer) LookupShadowSet(id int) *ShadowSet {
	m, _ := l.bundleMember(attrShadowSets, id).AsShadowSet()
	return m
}

func (l *Layer) LookupShadowReceiverSet(id int) *ShadowReceiverSet {
	m, _ := l.bundleMember(attrShadowReceiverSets, id).AsShadowReceiverSet()
	return m
}

// LightSetsChanged reports whether any row's light set changed since the
// last commit.
func (l *Layer) LightSetsChanged() bool {
	changed, _ := l.HasChanged(attrLightSets)
	return changed
}

// Clear empties the table and every bundle column.
func (l *Layer) Clear() { l.clearMembers(l.class.MemberAttributes()...) }

