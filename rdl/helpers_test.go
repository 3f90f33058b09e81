package rdl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testClasses mirrors a small plugin set: one class per capability the
// tests exercise.
func testClasses(t *testing.T) []*SceneClass {
	t.Helper()
	builders := []*ClassBuilder{
		NewClassBuilder("SphereGeometry", InterfaceGeometry).
			Declare("radius", TypeFloat, WithFlags(FlagsBindable|FlagsBlurrable), WithDefault(FloatValue(1))).
			Declare("subdivisions", TypeInt, WithDefault(IntValue(4))),
		NewClassBuilder("PerspectiveCamera", InterfaceCamera).
			Declare("focal", TypeFloat, WithDefault(FloatValue(30)), WithAliases("focal_length")),
		NewClassBuilder("RectLight", InterfaceLight).
			Declare("width", TypeFloat, WithDefault(FloatValue(1))),
		NewClassBuilder("BaseMaterial", InterfaceMaterial).
			Declare("diffuse_color", TypeRgb, WithFlags(FlagsBindable), WithDefault(RgbValue(Rgb{0.5, 0.5, 0.5}))),
		NewClassBuilder("ImageMap", InterfaceMap).
			Declare("texture", TypeString, WithFlags(FlagsFilename)),
		NewClassBuilder("NormalDisplacement", InterfaceDisplacement),
		NewClassBuilder("BaseVolume", InterfaceVolumeShader),
		NewClassBuilder("DecayLightFilter", InterfaceLightFilter),
		NewClassBuilder("TeapotGeometry", InterfaceGeometry),
	}
	var out []*SceneClass
	for _, b := range builders {
		c, err := b.SourcePath("/dso/test.yaml").Build()
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func newTestContext(t *testing.T) *SceneContext {
	t.Helper()
	reg := NewRegistry()
	for _, c := range testClasses(t) {
		require.NoError(t, reg.Register(c))
	}
	return NewSceneContext(WithRegistry(reg))
}

func mustCreate(t *testing.T, sc *SceneContext, class, name string) *SceneObject {
	t.Helper()
	o, err := sc.CreateSceneObject(class, name)
	require.NoError(t, err)
	return o
}
