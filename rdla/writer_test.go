package rdla

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/rdl2/internal/fixture"
	"github.com/Neumenon/rdl2/rdl"
)

func populated(t *testing.T, n int) *rdl.SceneContext {
	t.Helper()
	sc := newContext(t)
	require.NoError(t, fixture.Populate(sc, n))
	return sc
}

func write(t *testing.T, sc *rdl.SceneContext, opts ...WriterOption) string {
	t.Helper()
	s, err := NewWriter(sc, opts...).String()
	require.NoError(t, err)
	return s
}

// ============================================================
// Round trips
// ============================================================

func TestWriteReadSceneVariables(t *testing.T) {
	sc := newContext(t)
	sv := sc.SceneVariables().SceneObject
	require.NoError(t, sv.Set("image_width", rdl.IntValue(1280)))
	require.NoError(t, sv.Set("image_height", rdl.IntValue(720)))
	require.NoError(t, sv.Set("frame", rdl.FloatValue(12.5)))
	_, err := sc.CreateSceneObject(rdl.ClassRenderOutput, "/output/beauty")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.rdla")
	require.NoError(t, NewWriter(sc).WriteFile(path))

	other := newContext(t)
	res, err := NewReader(other).ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	osv := other.SceneVariables().SceneObject
	w, _ := osv.GetInt("image_width")
	h, _ := osv.GetInt("image_height")
	frame, _ := osv.GetFloat("frame")
	assert.Equal(t, int32(1280), w)
	assert.Equal(t, int32(720), h)
	assert.Equal(t, float32(12.5), frame)
	assert.True(t, other.SceneObjectExists("/output/beauty"))

	text := write(t, sc)
	assert.Contains(t, text, "SceneVariables {")
	assert.Contains(t, text, `RenderOutput("/output/beauty") {`)
	assert.Contains(t, text, `["image_width"] = 1280,`)
	assert.Contains(t, text, `["frame"] = 12.5,`)
}

func TestRoundTripPopulatedScene(t *testing.T) {
	for _, skip := range []bool{true, false} {
		name := "all"
		if skip {
			name = "skip_defaults"
		}
		t.Run(name, func(t *testing.T) {
			sc := populated(t, 7)
			text := write(t, sc, SkipDefaults(skip))

			other := newContext(t)
			res := read(t, other, text)
			assert.Empty(t, res.Warnings)
			assert.Len(t, res.Objects, len(sc.SceneObjects()))
			assert.Empty(t, fixture.Diff(sc, other))

			assert.Equal(t, text, write(t, other, SkipDefaults(skip)))
		})
	}
}

func TestRoundTripSpecialFloats(t *testing.T) {
	sc := newContext(t)
	mat, err := sc.CreateSceneObject("BaseMaterial", "/mat/m")
	require.NoError(t, err)
	require.NoError(t, mat.Set("roughness", rdl.DoubleValue(0.1)))
	sphere, err := sc.CreateSceneObject("SphereGeometry", "/geo/s")
	require.NoError(t, err)
	require.NoError(t, sphere.Set("radius", rdl.FloatValue(float32(1)/3), rdl.TimestepBegin))
	require.NoError(t, sphere.Set("radius", rdl.FloatValue(float32(1e-30)), rdl.TimestepEnd))
	cam, err := sc.CreateSceneObject("PerspectiveCamera", "/cam")
	require.NoError(t, err)
	require.NoError(t, cam.Set("focal", rdl.FloatValue(float32(math.Inf(1)))))

	text := write(t, sc)
	assert.Contains(t, text, `["roughness"] = 0.1,`)
	assert.Contains(t, text, `["focal"] = inf,`)

	other := newContext(t)
	read(t, other, text)
	assert.Empty(t, fixture.Diff(sc, other))
}

// ============================================================
// Layout
// ============================================================

func TestWriteSkipsDefaults(t *testing.T) {
	sc := newContext(t)
	assert.Equal(t, "SceneVariables {\n}\n", write(t, sc))

	all := write(t, sc, SkipDefaults(false))
	assert.Contains(t, all, `["image_width"] = 1920,`)
	assert.Contains(t, all, `["camera"] = undef(),`)
	assert.Contains(t, all, `["motion_steps"] = {-1, 0},`)
}

func TestWriteBlocks(t *testing.T) {
	sc := newContext(t)
	checker, err := sc.CreateSceneObject("ImageMap", "/map/checker")
	require.NoError(t, err)
	require.NoError(t, checker.Set("texture", rdl.StringValue("a \"b\".tx")))
	sphere, err := sc.CreateSceneObject("SphereGeometry", "/geo/s")
	require.NoError(t, err)
	require.NoError(t, sphere.Set("radius", rdl.FloatValue(2), rdl.TimestepEnd))
	require.NoError(t, sphere.SetBinding("radius", checker))

	want := `SceneVariables {
}

ImageMap("/map/checker") {
    ["texture"] = "a \"b\".tx",
}

SphereGeometry("/geo/s") {
    ["radius"] = bind(ImageMap("/map/checker"), blur(1, 2)),
}
`
	assert.Equal(t, want, write(t, sc))
}

func TestWriteOrdersReferencesFirst(t *testing.T) {
	sc := populated(t, 2)
	text := write(t, sc)

	before := func(a, b string) {
		t.Helper()
		ia, ib := strings.Index(text, a), strings.Index(text, b)
		require.GreaterOrEqual(t, ia, 0, a)
		require.GreaterOrEqual(t, ib, 0, b)
		assert.Less(t, ia, ib, "%s should precede %s", a, b)
	}
	before(`PerspectiveCamera("/cam/main") {`, "SceneVariables {")
	before(`Layer("/layer/main") {`, "SceneVariables {")
	before(`ImageMap("/map/checker") {`, `BaseMaterial("/mat/default") {`)
	before(`UserData("/userdata/cd") {`, `SphereGeometry("/geo/sphere_000") {`)
	before(`SphereGeometry("/geo/sphere_001") {`, `Layer("/layer/main") {`)
}

func TestWriteInlineCollections(t *testing.T) {
	sc := populated(t, 1)
	text := write(t, sc)

	assert.Contains(t, text, "GeometrySet(\"/geoset/all\") {\n"+
		"    MeshGeometry(\"/geo/mesh\"),\n"+
		"    SphereGeometry(\"/geo/sphere_000\"),\n")
	assert.Contains(t, text, `    {MeshGeometry("/geo/mesh"), "", BaseMaterial("/mat/default"), LightSet("/lightset/all"), `+
		`NormalDisplacement("/disp/bumps"), BaseVolume("/vol/fog"), LightFilterSet("/lightfilterset/all")},`)
	assert.Contains(t, text, `    {SphereGeometry("/geo/sphere_000"), "", BaseMaterial("/mat/default"), LightSet("/lightset/all")},`)
	assert.Contains(t, text, `    {MeshGeometry("/geo/mesh"), "body"},`)
	assert.NotContains(t, text, `["geometries"]`)
}

func TestWriteCollectionFallsBackToAttributes(t *testing.T) {
	sc := newContext(t)
	gs, err := sc.CreateSceneObject(rdl.ClassGeometrySet, "/gs")
	require.NoError(t, err)
	s, err := sc.CreateSceneObject("SphereGeometry", "/s")
	require.NoError(t, err)
	require.NoError(t, gs.Set("geometries", rdl.SceneObjectIndexableValue([]*rdl.SceneObject{s, nil})))

	text := write(t, sc)
	assert.Contains(t, text, `["geometries"] = {SphereGeometry("/s"), undef()},`)

	other := newContext(t)
	read(t, other, text)
	assert.Empty(t, fixture.Diff(sc, other))
}

func TestElementsPerLine(t *testing.T) {
	sc := newContext(t)
	mesh, err := sc.CreateSceneObject("MeshGeometry", "/geo/m")
	require.NoError(t, err)
	require.NoError(t, mesh.Set("face_counts", rdl.IntVectorValue([]int32{1, 2, 3, 4, 5})))

	text := write(t, sc, ElementsPerLine(2))
	assert.Contains(t, text, "[\"face_counts\"] = {\n        1, 2,\n        3, 4,\n        5,\n    },\n")

	other := newContext(t)
	read(t, other, text)
	assert.Empty(t, fixture.Diff(sc, other))
	assert.Equal(t, write(t, sc), write(t, other))
}

func TestDeltaEncoding(t *testing.T) {
	sc := populated(t, 3)
	sc.CommitAllChanges()
	sphere := sc.LookupSceneObject("/geo/sphere_001")
	require.NoError(t, sphere.Set("radius", rdl.FloatValue(2), rdl.TimestepBegin))

	want := `SceneVariables {
}

SphereGeometry("/geo/sphere_001") {
    ["radius"] = blur(2, 1.75),
}
`
	assert.Equal(t, want, write(t, sc, DeltaEncoding(true)))

	// A change back to the default is still written.
	sc.CommitAllChanges()
	resized := sc.LookupSceneObject("/geo/sphere_002")
	require.NoError(t, resized.Set("subdivisions", rdl.IntValue(4)))
	assert.Contains(t, write(t, sc, DeltaEncoding(true)),
		"SphereGeometry(\"/geo/sphere_002\") {\n    [\"subdivisions\"] = 4,\n}\n")

	// Applying the delta to a copy of the committed scene reproduces it.
	base := populated(t, 3)
	require.NoError(t, base.LookupSceneObject("/geo/sphere_001").Set("radius", rdl.FloatValue(2), rdl.TimestepBegin))
	other := populated(t, 3)
	read(t, other, want)
	assert.Empty(t, fixture.Diff(base, other))
}
