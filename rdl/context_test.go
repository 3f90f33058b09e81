package rdl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	classes []*SceneClass
	paths   []string
}

func (s *staticSource) LoadClasses(_ context.Context, dsoPath string) ([]*SceneClass, error) {
	s.paths = append(s.paths, dsoPath)
	return s.classes, nil
}

// ============================================================
// Objects
// ============================================================

func TestSceneVariablesAlwaysPresent(t *testing.T) {
	sc := NewSceneContext()
	sv := sc.SceneVariables()
	require.NotNil(t, sv)
	assert.Equal(t, SceneVariablesName, sv.Name())
	assert.Equal(t, int32(1920), sv.ImageWidth())
	assert.ErrorIs(t, sc.RemoveSceneObject(SceneVariablesName), ErrSchema)
}

func TestCreateSceneObjectErrors(t *testing.T) {
	sc := newTestContext(t)
	mustCreate(t, sc, "SphereGeometry", "/geo")

	_, err := sc.CreateSceneObject("SphereGeometry", "/geo")
	assert.ErrorIs(t, err, ErrDuplicateObjectName)
	_, err = sc.CreateSceneObject("NoSuchClass", "/x")
	assert.ErrorIs(t, err, ErrSchema)
	_, err = sc.SceneObject("/missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Nil(t, sc.LookupSceneObject("/missing"))

	same, err := sc.GetOrCreateSceneObject("SphereGeometry", "/geo")
	require.NoError(t, err)
	assert.Equal(t, "/geo", same.Name())
	_, err = sc.GetOrCreateSceneObject("BaseMaterial", "/geo")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRemoveSceneObjectNullsReferences(t *testing.T) {
	sc := newTestContext(t)
	cam := mustCreate(t, sc, "PerspectiveCamera", "/cam")
	require.NoError(t, sc.SceneVariables().Set("camera", SceneObjectValue(cam)))

	require.NoError(t, sc.RemoveSceneObject("/cam"))
	assert.False(t, sc.SceneObjectExists("/cam"))
	assert.Nil(t, sc.SceneVariables().Camera())
	assert.Nil(t, sc.PrimaryCamera())
}

func TestSceneObjectOrder(t *testing.T) {
	sc := newTestContext(t)
	mustCreate(t, sc, "SphereGeometry", "/b")
	mustCreate(t, sc, "SphereGeometry", "/a")
	var names []string
	for _, o := range sc.SceneObjectsOf(InterfaceGeometry) {
		names = append(names, o.Name())
	}
	assert.Equal(t, []string{"/b", "/a"}, names)
	assert.Equal(t, SceneVariablesName, sc.SceneObjects()[0].Name())
}

// ============================================================
// Cameras
// ============================================================

func TestCameras(t *testing.T) {
	sc := newTestContext(t)
	assert.Nil(t, sc.PrimaryCamera())

	first := mustCreate(t, sc, "PerspectiveCamera", "/cam/a")
	second := mustCreate(t, sc, "PerspectiveCamera", "/cam/b")
	assert.Same(t, first, sc.PrimaryCamera().SceneObject)

	require.NoError(t, sc.SceneVariables().Set("camera", SceneObjectValue(second)))
	assert.Same(t, second, sc.PrimaryCamera().SceneObject)
	assert.Same(t, second, sc.DicingCamera().SceneObject)

	ro := mustCreate(t, sc, ClassRenderOutput, "/out/depth")
	require.NoError(t, ro.Set("camera", SceneObjectValue(first)))
	active := sc.ActiveCameras()
	require.Len(t, active, 2)
	assert.Same(t, second, active[0].SceneObject)
	assert.Same(t, first, active[1].SceneObject)

	require.NoError(t, ro.Set("active", BoolValue(false)))
	assert.Len(t, sc.ActiveCameras(), 1)
}

func TestContextSettings(t *testing.T) {
	sc := NewSceneContext(WithDsoPath("/dso"), WithProxyMode(true))
	assert.Equal(t, "/dso", sc.DsoPath())
	assert.True(t, sc.ProxyModeEnabled())

	assert.True(t, sc.Render2World().ApproxEqual(Mat4dIdentity()))
	sc.SetRender2World(Translate(0, 1, 0))
	assert.Equal(t, Vec3d{0, 1, 0}, sc.Render2World().Translation())

	require.NoError(t, sc.SetCheckpointActive(true))
	require.NoError(t, sc.SetResumeRender(true))
	assert.True(t, sc.CheckpointActive())
	assert.False(t, sc.ResumableOutput())
	assert.True(t, sc.ResumeRender())
}

// ============================================================
// Class loading
// ============================================================

func TestLoadAllSceneClasses(t *testing.T) {
	src := &staticSource{classes: testClasses(t)}
	sc := NewSceneContext(WithClassSource(src), WithDsoPath("/dso"))
	assert.False(t, sc.Registry().Known("SphereGeometry"))
	require.NoError(t, sc.LoadAllSceneClasses(context.Background()))
	assert.True(t, sc.Registry().Known("SphereGeometry"))

	assert.Equal(t, []string{"/dso"}, src.paths)
	assert.True(t, sc.SceneClassExists("SphereGeometry"))
	assert.Equal(t, len(src.classes), sc.DsoCounts()["/dso/test.yaml"])

	_, err := sc.CreateSceneObject("RectLight", "/light")
	assert.NoError(t, err)
}

func TestLoadAllSceneClassesNeedsConfiguration(t *testing.T) {
	err := NewSceneContext(WithDsoPath("/dso")).LoadAllSceneClasses(context.Background())
	assert.ErrorIs(t, err, ErrSchema)

	err = NewSceneContext(WithClassSource(&staticSource{})).LoadAllSceneClasses(context.Background())
	assert.ErrorIs(t, err, ErrSchema)
}

func TestLoadAllSceneClassesDetectsConflicts(t *testing.T) {
	reg := NewRegistry()
	conflicting, err := NewClassBuilder("SphereGeometry", InterfaceGeometry).Build()
	require.NoError(t, err)
	require.NoError(t, reg.Register(conflicting))

	sc := NewSceneContext(WithRegistry(reg), WithClassSource(&staticSource{classes: testClasses(t)}), WithDsoPath("/dso"))
	assert.ErrorIs(t, sc.LoadAllSceneClasses(context.Background()), ErrSchema)
}

func TestSceneVariablesHelpers(t *testing.T) {
	sc := NewSceneContext()
	sv := sc.SceneVariables()
	require.NoError(t, sv.Set("res", FloatValue(2)))
	assert.Equal(t, int32(960), sv.RezedWidth())
	assert.Equal(t, int32(540), sv.RezedHeight())
	assert.NotEmpty(t, sv.TmpDir())
	require.NoError(t, sv.Set("tmp_dir", StringValue("/scratch")))
	assert.Equal(t, "/scratch", sv.TmpDir())
	assert.Equal(t, []float32{-1, 0}, sv.MotionSteps())
	assert.Equal(t, Rgb{1, 0, 1}, sv.FatalColor())
}
