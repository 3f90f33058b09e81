package dso

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/rdl2/rdl"
)

func testdataPath() string {
	return strings.Join([]string{
		filepath.Join("testdata", "classes"),
		filepath.Join("testdata", "extra"),
	}, string(os.PathListSeparator))
}

// ============================================================
// Class files
// ============================================================

func TestParseFile(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "classes", "shading.yaml"))
	require.NoError(t, err)
	classes, err := ParseFile(data, "shading.yaml")
	require.NoError(t, err)
	require.Len(t, classes, 2)

	mat := classes[0]
	assert.Equal(t, "BaseMaterial", mat.Name())
	assert.Equal(t, "shading.yaml", mat.SourcePath())
	assert.True(t, mat.IsA(rdl.InterfaceMaterial))
	assert.True(t, mat.IsA(rdl.InterfaceShader))

	color, err := mat.Attribute("diffuse_color")
	require.NoError(t, err)
	assert.True(t, color.IsBindable())
	assert.Equal(t, rdl.RgbValue(rdl.Rgb{R: 0.5, G: 0.5, B: 0.5}), color.Default())
	label, ok := color.Metadata("label")
	assert.True(t, ok)
	assert.Equal(t, "diffuse color", label)

	rough, err := mat.Attribute("rough")
	require.NoError(t, err)
	assert.Equal(t, "roughness", rough.Name())
	assert.Equal(t, rdl.DoubleValue(0.2), rough.Default())

	wrap, err := classes[1].Attribute("wrap")
	require.NoError(t, err)
	assert.True(t, wrap.IsEnumerable())
	assert.Equal(t, rdl.IntValue(1), wrap.Default())
	n, ok := wrap.EnumValueOf("periodic")
	assert.True(t, ok)
	assert.Equal(t, int32(0), n)

	texture, err := classes[1].Attribute("texture")
	require.NoError(t, err)
	assert.True(t, texture.IsFilename())
	assert.Equal(t, rdl.StringValue(""), texture.Default())
}

func TestParseFileVectorDefaults(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "classes", "geometry.yaml"))
	require.NoError(t, err)
	classes, err := ParseFile(data, "geometry.yaml")
	require.NoError(t, err)
	require.Len(t, classes, 2)

	sphere := classes[0]
	radius, err := sphere.Attribute("radius")
	require.NoError(t, err)
	assert.True(t, radius.IsBlurrable())
	assert.Equal(t, "Shape", radius.Group())
	assert.Len(t, sphere.GroupAttributes("Shape"), 2)
	prims, err := sphere.Attribute("primitive_attributes")
	require.NoError(t, err)
	assert.Equal(t, rdl.InterfaceUserData, prims.ObjectType())

	mesh := classes[1]
	verts, err := mesh.Attribute("vertices")
	require.NoError(t, err)
	want := rdl.Vec3fVectorValue([]rdl.Vec3f{{}, {X: 1}, {Y: 1}})
	assert.True(t, want.Equal(verts.Default()), verts.Default().String())
	counts, err := mesh.Attribute("face_counts")
	require.NoError(t, err)
	assert.Equal(t, rdl.IntVectorValue([]int32{3}), counts.Default())
	parts, err := mesh.Attribute("part_list")
	require.NoError(t, err)
	assert.Equal(t, 0, parts.Default().Len())
}

func TestParseFileErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"bad yaml", "classes: [", rdl.ErrSchema},
		{"unknown interface", "classes:\n  - name: A\n    interface: gizmo\n", rdl.ErrSchema},
		{"empty name", "classes:\n  - interface: map\n", rdl.ErrSchema},
		{"unknown type", attrDoc("type: Quaternion"), rdl.ErrSchema},
		{"unknown flag", attrDoc("type: Float\n        flags: sticky"), rdl.ErrSchema},
		{"wrong default kind", attrDoc("type: Float\n        default: soft"), rdl.ErrTypeMismatch},
		{"short default", attrDoc("type: Rgb\n        default: [1, 2]"), rdl.ErrLengthMismatch},
		{"object default", attrDoc("type: SceneObject\n        default: /x"), rdl.ErrSchema},
		{"unknown enum label", attrDoc("type: Int\n        enum: [{value: 0, label: a}]\n        default: b"), rdl.ErrTypeMismatch},
		{"duplicate attribute", "classes:\n  - name: A\n    interface: map\n    attributes:\n" +
			"      - {name: x, type: Int}\n      - {name: x, type: Float}\n", rdl.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tt.doc), "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func attrDoc(attr string) string {
	return "classes:\n  - name: A\n    interface: map\n    attributes:\n      - name: x\n        " + attr + "\n"
}

// ============================================================
// Loading
// ============================================================

func TestFiles(t *testing.T) {
	files, err := Files(testdataPath())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "classes", "geometry.yaml"),
		filepath.Join("testdata", "classes", "shading.yaml"),
		filepath.Join("testdata", "extra", "camera.yml"),
	}, files)

	_, err = Files("")
	assert.ErrorIs(t, err, rdl.ErrSchema)
	_, err = Files(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, rdl.ErrSchema)
}

func TestLoadClasses(t *testing.T) {
	classes, err := NewSource(WithConcurrency(2)).LoadClasses(context.Background(), testdataPath())
	require.NoError(t, err)

	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name()
	}
	assert.Equal(t, []string{"SphereGeometry", "MeshGeometry", "BaseMaterial", "ImageMap", "PerspectiveCamera"}, names)
	assert.Equal(t, []string{"BaseMaterial", "ImageMap", "MeshGeometry", "PerspectiveCamera", "SphereGeometry"}, ClassNames(classes))
}

func TestLoadClassesRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	doc := []byte("classes:\n  - name: A\n    interface: map\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), doc, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), doc, 0o644))

	_, err := NewSource().LoadClasses(context.Background(), dir)
	require.ErrorIs(t, err, rdl.ErrSchema)
	assert.Contains(t, err.Error(), "a.yaml")
	assert.Contains(t, err.Error(), "b.yaml")
}

func TestLoadClassesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSource().LoadClasses(ctx, testdataPath())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadIntoContext(t *testing.T) {
	sc := rdl.NewSceneContext(
		rdl.WithClassSource(NewSource()),
		rdl.WithDsoPath(testdataPath()))
	require.NoError(t, sc.LoadAllSceneClasses(context.Background()))

	assert.True(t, sc.SceneClassExists("PerspectiveCamera"))
	counts := sc.DsoCounts()
	assert.Equal(t, 2, counts[filepath.Join("testdata", "classes", "geometry.yaml")])
	assert.Equal(t, 1, counts[filepath.Join("testdata", "extra", "camera.yml")])

	cam, err := sc.CreateSceneObject("PerspectiveCamera", "/cam")
	require.NoError(t, err)
	focal, err := cam.GetFloat("focal_length")
	require.NoError(t, err)
	assert.Equal(t, float32(30), focal)

	reg, err := NewSource().Registry(context.Background(), testdataPath())
	require.NoError(t, err)
	assert.True(t, reg.Known("ImageMap"))
	assert.True(t, reg.Known(rdl.ClassSceneVariables))
}

// ============================================================
// Watch
// ============================================================

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classes: []\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan []*rdl.SceneClass, 16)
	done := make(chan error, 1)
	go func() {
		done <- NewSource().Watch(ctx, dir, 20*time.Millisecond, func(classes []*rdl.SceneClass, err error) {
			if err != nil {
				return
			}
			select {
			case reloads <- classes:
			default:
			}
		})
	}()

	doc := []byte("classes:\n  - name: Fresh\n    interface: map\n")
	var got []*rdl.SceneClass
	for attempt := 0; attempt < 50 && got == nil; attempt++ {
		require.NoError(t, os.WriteFile(path, doc, 0o644))
		select {
		case classes := <-reloads:
			if len(classes) == 1 {
				got = classes
			}
		case <-time.After(200 * time.Millisecond):
		}
	}
	require.Len(t, got, 1)
	assert.Equal(t, "Fresh", got[0].Name())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchNeedsPath(t *testing.T) {
	err := NewSource().Watch(context.Background(), "", 0, func([]*rdl.SceneClass, error) {})
	assert.ErrorIs(t, err, rdl.ErrSchema)
}
