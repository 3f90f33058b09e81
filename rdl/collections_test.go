package rdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geometry(t *testing.T, sc *SceneContext, name string) *Geometry {
	t.Helper()
	g, err := mustCreate(t, sc, "SphereGeometry", name).ToGeometry()
	require.NoError(t, err)
	return g
}

// ============================================================
// Downcasts
// ============================================================

func TestDowncastLaw(t *testing.T) {
	sc := newTestContext(t)
	for _, o := range []*SceneObject{
		mustCreate(t, sc, "SphereGeometry", "/geo"),
		mustCreate(t, sc, "PerspectiveCamera", "/cam"),
		mustCreate(t, sc, "BaseMaterial", "/mat"),
		mustCreate(t, sc, ClassShadowSet, "/shadow"),
		mustCreate(t, sc, ClassLayer, "/layer"),
	} {
		for _, c := range capabilities {
			_, err := o.to(c.bit)
			if o.IsA(c.bit) {
				assert.NoError(t, err, "%s as %s", o, c.name)
			} else {
				assert.ErrorIs(t, err, ErrTypeMismatch, "%s as %s", o, c.name)
			}
		}
	}
}

// to dispatches to the ToX downcast of a capability bit.
func (o *SceneObject) to(bit Interface) (any, error) {
	switch bit {
	case InterfaceGeneric:
		return o, nil
	case InterfaceGeometrySet:
		return o.ToGeometrySet()
	case InterfaceLayer:
		return o.ToLayer()
	case InterfaceLightSet:
		return o.ToLightSet()
	case InterfaceNode:
		return o.ToNode()
	case InterfaceCamera:
		return o.ToCamera()
	case InterfaceEnvMap:
		return o.ToEnvMap()
	case InterfaceGeometry:
		return o.ToGeometry()
	case InterfaceLight:
		return o.ToLight()
	case InterfaceShader:
		return o.ToShader()
	case InterfaceDisplacement:
		return o.ToDisplacement()
	case InterfaceMap:
		return o.ToMap()
	case InterfaceRootShader:
		return o.ToRootShader()
	case InterfaceMaterial:
		return o.ToMaterial()
	case InterfaceVolumeShader:
		return o.ToVolumeShader()
	case InterfaceRenderOutput:
		return o.ToRenderOutput()
	case InterfaceUserData:
		return o.ToUserData()
	case InterfaceMetadata:
		return o.ToMetadata()
	case InterfaceLightFilter:
		return o.ToLightFilter()
	case InterfaceTraceSet:
		return o.ToTraceSet()
	case InterfaceJoint:
		return o.ToJoint()
	case InterfaceLightFilterSet:
		return o.ToLightFilterSet()
	case InterfaceShadowSet:
		return o.ToShadowSet()
	case InterfaceNormalMap:
		return o.ToNormalMap()
	case InterfaceDisplayFilter:
		return o.ToDisplayFilter()
	case InterfaceShadowReceiverSet:
		return o.ToShadowReceiverSet()
	}
	return nil, nil
}

func TestCheckedDowncast(t *testing.T) {
	sc := newTestContext(t)
	cam := mustCreate(t, sc, "PerspectiveCamera", "/cam")

	c, ok := cam.AsCamera()
	require.True(t, ok)
	assert.Equal(t, float32(1), c.Near())
	require.NoError(t, c.SetFar(500))
	assert.Equal(t, float32(500), c.Far())

	_, ok = cam.AsLight()
	assert.False(t, ok)

	var null *SceneObject
	_, ok = null.AsCamera()
	assert.False(t, ok)
	_, err := null.ToCamera()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	sv, ok := sc.SceneVariables().SceneObject.AsSceneVariables()
	require.True(t, ok)
	assert.Equal(t, SceneVariablesName, sv.Name())
	_, err = cam.ToSceneVariables()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestViewHelpers(t *testing.T) {
	sc := newTestContext(t)
	geo := geometry(t, sc, "/geo")
	assert.Equal(t, SideMeshDefault, geo.SideType())
	assert.Equal(t, VisibleAll, geo.VisibilityMask())
	require.NoError(t, geo.Set("visible_shadow", BoolValue(false)))
	assert.Equal(t, VisibleAll&^VisibleShadow, geo.VisibilityMask())

	require.NoError(t, geo.SetNodeXform(Translate(1, 0, 0), TimestepEnd))
	assert.True(t, geo.NodeXform().ApproxEqual(Mat4dIdentity()))
	assert.Equal(t, Vec3d{1, 0, 0}, geo.NodeXform(TimestepEnd).Translation())

	light, err := mustCreate(t, sc, "RectLight", "/light").ToLight()
	require.NoError(t, err)
	assert.True(t, light.IsOn())
	assert.Equal(t, Rgb{1, 1, 1}, light.Color())
	filter := mustCreate(t, sc, "DecayLightFilter", "/filter")
	require.NoError(t, light.Set("light_filters", SceneObjectVectorValue([]*SceneObject{filter})))
	require.Len(t, light.LightFilters(), 1)
	assert.True(t, light.LightFilters()[0].IsOn())
}

// ============================================================
// Sets
// ============================================================

func TestGeometrySetSemantics(t *testing.T) {
	sc := newTestContext(t)
	set, err := mustCreate(t, sc, ClassGeometrySet, "/geoset").ToGeometrySet()
	require.NoError(t, err)
	a, b := geometry(t, sc, "/a"), geometry(t, sc, "/b")

	require.NoError(t, set.Add(a))
	require.NoError(t, set.Add(a))
	require.NoError(t, set.Add(b))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(a))
	assert.True(t, set.IsStatic())

	sc.CommitAllChanges()
	assert.False(t, set.HaveGeometriesChanged())
	require.NoError(t, set.Remove(geometry(t, sc, "/c")))
	assert.False(t, set.IsDirty(), "removing an absent member is a no-op")

	require.NoError(t, a.Set("subdivisions", IntValue(1)))
	assert.True(t, set.HaveGeometriesChanged(), "a dirty member counts as a change")

	require.NoError(t, set.Remove(a))
	assert.False(t, set.Contains(a))
	assert.Equal(t, []*Geometry{b}, set.Members())

	set.Clear()
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.InUpdate())

	assert.ErrorIs(t, set.Add(nil), ErrTypeMismatch)
}

func TestLightSetSemantics(t *testing.T) {
	sc := newTestContext(t)
	ls, err := mustCreate(t, sc, ClassShadowSet, "/shadows").ToShadowSet()
	require.NoError(t, err)
	light, _ := mustCreate(t, sc, "RectLight", "/light").ToLight()

	require.NoError(t, ls.Add(light))
	assert.True(t, ls.Contains(light))
	assert.True(t, ls.HaveLightsChanged())
	sc.CommitAllChanges()
	assert.False(t, ls.HaveLightsChanged())
	ls.Clear()
	assert.True(t, ls.HaveLightsChanged())
	assert.Empty(t, ls.Members())
}

func TestLightFilterSet(t *testing.T) {
	sc := newTestContext(t)
	fs, err := mustCreate(t, sc, ClassLightFilterSet, "/filters").ToLightFilterSet()
	require.NoError(t, err)
	f, _ := mustCreate(t, sc, "DecayLightFilter", "/f").ToLightFilter()
	require.NoError(t, fs.Add(f))
	assert.Equal(t, 1, fs.Len())
	require.NoError(t, fs.Remove(f))
	assert.False(t, fs.Contains(f))
}

// ============================================================
// TraceSet
// ============================================================

func TestTraceSetDedup(t *testing.T) {
	sc := newTestContext(t)
	ts, err := mustCreate(t, sc, ClassTraceSet, "/trace").ToTraceSet()
	require.NoError(t, err)
	a, b := geometry(t, sc, "/a"), geometry(t, sc, "/b")

	id0, err := ts.Assign(a, "")
	require.NoError(t, err)
	id1, _ := ts.Assign(a, "lid")
	id2, _ := ts.Assign(b, "")
	again, _ := ts.Assign(a, "lid")

	assert.Equal(t, []int{0, 1, 2}, []int{id0, id1, id2})
	assert.Equal(t, id1, again)
	assert.Equal(t, 3, ts.AssignmentCount())

	assert.Equal(t, id2, ts.AssignmentID(b, ""))
	assert.Equal(t, -1, ts.AssignmentID(b, "lid"))
	assert.Equal(t, []int{0, 1}, ts.AssignmentIDs(a))
	assert.True(t, ts.Contains(b))

	g, part := ts.LookupGeomAndPart(id1)
	assert.Same(t, a.SceneObject, g.SceneObject)
	assert.Equal(t, "lid", part)
	g, _ = ts.LookupGeomAndPart(99)
	assert.Nil(t, g)

	ts.Clear()
	assert.Equal(t, 0, ts.AssignmentCount())
	assert.Equal(t, -1, ts.AssignmentID(a, ""))
}

func TestTraceSetIdsSurviveRemoval(t *testing.T) {
	sc := newTestContext(t)
	ts, _ := mustCreate(t, sc, ClassTraceSet, "/trace").ToTraceSet()
	a, b := geometry(t, sc, "/a"), geometry(t, sc, "/b")
	_, _ = ts.Assign(a, "")
	idB, _ := ts.Assign(b, "")

	require.NoError(t, sc.RemoveSceneObject("/a"))
	assert.Equal(t, idB, ts.AssignmentID(b, ""))
	assert.Equal(t, 2, ts.AssignmentCount())
	g, _ := ts.LookupGeomAndPart(0)
	assert.Nil(t, g)
}

// ============================================================
// Layer
// ============================================================

func TestLayerAssignAndLookup(t *testing.T) {
	sc := newTestContext(t)
	layer, err := mustCreate(t, sc, ClassLayer, "/layer").ToLayer()
	require.NoError(t, err)
	geoA := geometry(t, sc, "/geoA")
	matX, _ := mustCreate(t, sc, "BaseMaterial", "/matX").ToMaterial()
	lsY, _ := mustCreate(t, sc, ClassLightSet, "/lsY").ToLightSet()

	id, err := layer.Assign(geoA, "", matX, lsY)
	require.NoError(t, err)
	assert.Same(t, matX.SceneObject, layer.LookupMaterial(id).SceneObject)
	assert.Same(t, lsY.SceneObject, layer.LookupLightSet(id).SceneObject)
	assert.Nil(t, layer.LookupDisplacement(id))
	assert.Nil(t, layer.LookupMaterial(id+1))
	assert.True(t, layer.LightSetsChanged())

	g, part := layer.LookupGeomAndPart(id)
	assert.Same(t, geoA.SceneObject, g.SceneObject)
	assert.Equal(t, "", part)
}

func TestLayerReassignUpdatesInPlace(t *testing.T) {
	sc := newTestContext(t)
	layer, _ := mustCreate(t, sc, ClassLayer, "/layer").ToLayer()
	geo := geometry(t, sc, "/geo")
	m1, _ := mustCreate(t, sc, "BaseMaterial", "/m1").ToMaterial()
	m2, _ := mustCreate(t, sc, "BaseMaterial", "/m2").ToMaterial()
	ls, _ := mustCreate(t, sc, ClassLightSet, "/ls").ToLightSet()
	disp, _ := mustCreate(t, sc, "NormalDisplacement", "/disp").ToDisplacement()

	id, err := layer.AssignBundle(geo, "body", LayerAssignment{Material: m1, LightSet: ls, Displacement: disp})
	require.NoError(t, err)
	sc.CommitAllChanges()

	again, err := layer.Assign(geo, "body", m2, ls)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, layer.AssignmentCount())
	assert.Same(t, m2.SceneObject, layer.LookupMaterial(id).SceneObject)
	assert.Nil(t, layer.LookupDisplacement(id))
	assert.False(t, layer.LightSetsChanged(), "the light set did not change")

	full := layer.Lookup(id)
	assert.Same(t, ls.SceneObject, full.LightSet.SceneObject)
	assert.Nil(t, full.ShadowSet)

	layer.Clear()
	assert.Equal(t, 0, layer.AssignmentCount())
	assert.Nil(t, layer.LookupMaterial(id))
}

func TestLayerRejectsWrongBundleMembers(t *testing.T) {
	sc := newTestContext(t)
	layer, _ := mustCreate(t, sc, ClassLayer, "/layer").ToLayer()
	geo := geometry(t, sc, "/geo")
	notMaterial := &Material{RootShader{Shader{mustCreate(t, sc, "ImageMap", "/tex")}}}

	_, err := layer.Assign(geo, "", notMaterial, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, 0, layer.AssignmentCount())

	_, err = layer.Assign(nil, "", nil, nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
