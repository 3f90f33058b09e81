// Package fixture builds the plugin classes and the populated scenes
// that the codec tests and the benchmark share.
package fixture

import (
	"fmt"

	"github.com/Neumenon/rdl2/rdl"
)

// Classes returns a small plugin set with one class per capability the
// scene below uses.
func Classes() ([]*rdl.SceneClass, error) {
	builders := []*rdl.ClassBuilder{
		rdl.NewClassBuilder("SphereGeometry", rdl.InterfaceGeometry).
			Declare("radius", rdl.TypeFloat,
				rdl.WithFlags(rdl.FlagsBindable|rdl.FlagsBlurrable), rdl.WithDefault(rdl.FloatValue(1))).
			Declare("subdivisions", rdl.TypeInt, rdl.WithDefault(rdl.IntValue(4))).
			Declare("primitive_attributes", rdl.TypeSceneObjectVector, rdl.WithObjectType(rdl.InterfaceUserData)),
		rdl.NewClassBuilder("PerspectiveCamera", rdl.InterfaceCamera).
			Declare("focal", rdl.TypeFloat, rdl.WithDefault(rdl.FloatValue(30)), rdl.WithAliases("focal_length")),
		rdl.NewClassBuilder("RectLight", rdl.InterfaceLight).
			Declare("width", rdl.TypeFloat, rdl.WithDefault(rdl.FloatValue(1))),
		rdl.NewClassBuilder("BaseMaterial", rdl.InterfaceMaterial).
			Declare("diffuse_color", rdl.TypeRgb,
				rdl.WithFlags(rdl.FlagsBindable), rdl.WithDefault(rdl.RgbValue(rdl.Rgb{R: 0.5, G: 0.5, B: 0.5}))).
			Declare("roughness", rdl.TypeDouble, rdl.WithDefault(rdl.DoubleValue(0.2))).
			Declare("lobes", rdl.TypeStringVector),
		rdl.NewClassBuilder("ImageMap", rdl.InterfaceMap).
			Declare("texture", rdl.TypeString, rdl.WithFlags(rdl.FlagsFilename)).
			Declare("wrap", rdl.TypeInt, rdl.WithEnum(0, "periodic"), rdl.WithEnum(1, "clamp")),
		rdl.NewClassBuilder("NormalDisplacement", rdl.InterfaceDisplacement).
			Declare("height", rdl.TypeFloat, rdl.WithDefault(rdl.FloatValue(0.1))),
		rdl.NewClassBuilder("BaseVolume", rdl.InterfaceVolumeShader),
		rdl.NewClassBuilder("DecayLightFilter", rdl.InterfaceLightFilter),
		rdl.NewClassBuilder("MeshGeometry", rdl.InterfaceGeometry).
			Declare("vertices", rdl.TypeVec3fVector, rdl.WithFlags(rdl.FlagsBlurrable)).
			Declare("face_counts", rdl.TypeIntVector).
			Declare("ids", rdl.TypeLongVector).
			Declare("xforms", rdl.TypeMat4dVector),
	}
	out := make([]*rdl.SceneClass, 0, len(builders))
	for _, b := range builders {
		c, err := b.SourcePath("/dso/fixture.yaml").Build()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NewContext returns a context whose registry holds Classes.
func NewContext(opts ...rdl.ContextOption) (*rdl.SceneContext, error) {
	classes, err := Classes()
	if err != nil {
		return nil, err
	}
	reg := rdl.NewRegistry()
	for _, c := range classes {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rdl.NewSceneContext(append([]rdl.ContextOption{rdl.WithRegistry(reg)}, opts...)...), nil
}

// Populate fills sc with a scene of n spheres and one mesh that touches
// every attribute kind, bindings, blurred values and every collection.
func Populate(sc *rdl.SceneContext, n int) error {
	b := &builder{sc: sc}

	cam := b.create("PerspectiveCamera", "/cam/main")
	b.set(cam, "focal", rdl.FloatValue(35))
	b.set(cam, "node_xform", rdl.Mat4dValue(rdl.Translate(0, 0, 10)), rdl.TimestepBegin)
	b.set(cam, "node_xform", rdl.Mat4dValue(rdl.Translate(0, 0.5, 10)), rdl.TimestepEnd)

	checker := b.create("ImageMap", "/map/checker")
	b.set(checker, "texture", rdl.StringValue("textures/checker \"v2\".tx"))
	b.set(checker, "wrap", rdl.IntValue(1))

	mat := b.create("BaseMaterial", "/mat/default")
	b.set(mat, "diffuse_color", rdl.RgbValue(rdl.Rgb{R: 0.8, G: 0.1, B: 0.25}))
	b.set(mat, "roughness", rdl.DoubleValue(0.35))
	b.set(mat, "lobes", rdl.StringVectorValue([]string{"diffuse", "specular"}))
	b.bind(mat, "diffuse_color", checker)

	disp := b.create("NormalDisplacement", "/disp/bumps")
	vol := b.create("BaseVolume", "/vol/fog")

	light := b.create("RectLight", "/light/key")
	b.set(light, "intensity", rdl.FloatValue(4.5))
	b.set(light, "color", rdl.RgbValue(rdl.Rgb{R: 1, G: 0.9, B: 0.8}))
	decay := b.create("DecayLightFilter", "/lightfilter/decay")
	b.set(light, "light_filters", rdl.SceneObjectVectorValue([]*rdl.SceneObject{decay}))

	lightSet := b.lightSet("/lightset/all", light)
	filterSet := b.create(rdl.ClassLightFilterSet, "/lightfilterset/all")
	if fs, ok := filterSet.AsLightFilterSet(); ok && b.err == nil {
		f, _ := decay.AsLightFilter()
		b.err = fs.Add(f)
	}

	ud := b.create(rdl.ClassUserData, "/userdata/cd")
	if u, ok := ud.AsUserData(); ok && b.err == nil {
		b.err = u.SetFloatData("Cd", []float32{0.1, 0.2, 0.3, 0.4})
		if b.err == nil {
			b.err = u.SetRate(rdl.RateVertex)
		}
		if b.err == nil {
			b.err = u.SetVec3fData("Pref",
				[]rdl.Vec3f{{X: 0, Y: 1, Z: 2}}, []rdl.Vec3f{{X: 0, Y: 1.5, Z: 2}})
		}
	}

	mesh := b.create("MeshGeometry", "/geo/mesh")
	b.set(mesh, "vertices", rdl.Vec3fVectorValue([]rdl.Vec3f{{X: 0}, {X: 1}, {Y: 1}}), rdl.TimestepBegin)
	b.set(mesh, "vertices", rdl.Vec3fVectorValue([]rdl.Vec3f{{X: 0, Z: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1}}), rdl.TimestepEnd)
	b.set(mesh, "face_counts", rdl.IntVectorValue([]int32{3}))
	b.set(mesh, "ids", rdl.LongVectorValue([]int64{1 << 40, -7}))
	b.set(mesh, "xforms", rdl.Mat4dVectorValue([]rdl.Mat4d{rdl.Mat4dIdentity(), rdl.Translate(1, 2, 3)}))
	b.set(mesh, "visible_shadow", rdl.BoolValue(false))

	geoSet := b.create(rdl.ClassGeometrySet, "/geoset/all")
	layerObj := b.create(rdl.ClassLayer, "/layer/main")
	traceObj := b.create(rdl.ClassTraceSet, "/traceset/mirror")
	geos := []*rdl.SceneObject{mesh}
	for i := range n {
		sphere := b.create("SphereGeometry", fmt.Sprintf("/geo/sphere_%03d", i))
		b.set(sphere, "radius", rdl.FloatValue(float32(i)+0.5), rdl.TimestepBegin)
		b.set(sphere, "radius", rdl.FloatValue(float32(i)+0.75), rdl.TimestepEnd)
		b.set(sphere, "subdivisions", rdl.IntValue(int32(3+i%4)))
		b.set(sphere, "primitive_attributes", rdl.SceneObjectVectorValue([]*rdl.SceneObject{ud}))
		b.set(sphere, "node_xform", rdl.Mat4dValue(rdl.Translate(float64(i), 0, 0)))
		if i%3 == 0 {
			b.bind(sphere, "radius", checker)
		}
		geos = append(geos, sphere)
	}

	if b.err != nil {
		return b.err
	}
	gs, _ := geoSet.AsGeometrySet()
	layer, _ := layerObj.AsLayer()
	trace, _ := traceObj.AsTraceSet()
	m, _ := mat.AsMaterial()
	ls, _ := lightSet.AsLightSet()
	d, _ := disp.AsDisplacement()
	v, _ := vol.AsVolumeShader()
	lfs, _ := filterSet.AsLightFilterSet()
	for i, o := range geos {
		geo, err := o.ToGeometry()
		if err != nil {
			return err
		}
		if err := gs.Add(geo); err != nil {
			return err
		}
		bundle := rdl.LayerAssignment{Material: m, LightSet: ls}
		if i == 0 {
			bundle.Displacement, bundle.VolumeShader, bundle.LightFilterSet = d, v, lfs
		}
		if _, err := layer.AssignBundle(geo, "", bundle); err != nil {
			return err
		}
		if i%2 == 0 {
			if _, err := trace.Assign(geo, "body"); err != nil {
				return err
			}
		}
	}

	meta := b.create(rdl.ClassMetadata, "/metadata/exr")
	if md, ok := meta.AsMetadata(); ok && b.err == nil {
		b.err = md.SetAttributes(
			[]string{"title", "author"},
			[]string{"string", "string"},
			[]string{"fixture scene", "rdl2"})
	}
	out := b.create(rdl.ClassRenderOutput, "/output/beauty")
	b.set(out, "file_name", rdl.StringValue("beauty.exr"))
	b.set(out, "exr_header_attributes", rdl.SceneObjectValue(meta))
	b.set(out, "camera", rdl.SceneObjectValue(cam))

	sv := sc.SceneVariables().SceneObject
	b.set(sv, "image_width", rdl.IntValue(1280))
	b.set(sv, "image_height", rdl.IntValue(720))
	b.set(sv, "frame", rdl.FloatValue(12.5))
	b.set(sv, "camera", rdl.SceneObjectValue(cam))
	b.set(sv, "layer", rdl.SceneObjectValue(layerObj))
	b.set(sv, "exr_header_attributes", rdl.SceneObjectValue(meta))
	return b.err
}

// builder keeps the first error so Populate reads as a script.
type builder struct {
	sc  *rdl.SceneContext
	err error
}

func (b *builder) create(class, name string) *rdl.SceneObject {
	if b.err != nil {
		return nil
	}
	o, err := b.sc.CreateSceneObject(class, name)
	b.err = err
	return o
}

func (b *builder) set(o *rdl.SceneObject, attr string, v rdl.Value, ts ...rdl.Timestep) {
	if b.err != nil {
		return
	}
	if err := o.Set(attr, v, ts...); err != nil {
		b.err = fmt.Errorf("%s.%s: %w", o.Name(), attr, err)
	}
}

func (b *builder) bind(o *rdl.SceneObject, attr string, target *rdl.SceneObject) {
	if b.err != nil {
		return
	}
	b.err = o.SetBinding(attr, target)
}

func (b *builder) lightSet(name string, lights ...*rdl.SceneObject) *rdl.SceneObject {
	o := b.create(rdl.ClassLightSet, name)
	if b.err != nil {
		return nil
	}
	ls, _ := o.AsLightSet()
	for _, l := range lights {
		light, err := l.ToLight()
		if err != nil {
			b.err = err
			return nil
		}
		if b.err = ls.Add(light); b.err != nil {
			return nil
		}
	}
	return o
}
