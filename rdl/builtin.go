package rdl

// Names of the classes every registry provides.
const (
	ClassSceneVariables    = "SceneVariables"
	ClassGeometrySet       = "GeometrySet"
	ClassLightSet          = "LightSet"
	ClassLightFilterSet    = "LightFilterSet"
	ClassShadowSet         = "ShadowSet"
	ClassShadowReceiverSet = "ShadowReceiverSet"
	ClassLayer             = "Layer"
	ClassTraceSet          = "TraceSet"
	ClassMetadata          = "Metadata"
	ClassUserData          = "UserData"
	ClassRenderOutput      = "RenderOutput"
)

// SceneVariablesName is the object name of the scene variables of every
// context.
const SceneVariablesName = "__SceneVariables__"

// intrinsicAttributes declares, per capability, the attributes every
// class with that capability carries.
var intrinsicAttributes = map[Interface]func(b *ClassBuilder){
	InterfaceNode: func(b *ClassBuilder) {
		b.Declare("node_xform", TypeMat4d,
			WithFlags(FlagsBlurrable), WithDefault(Mat4dValue(Mat4dIdentity())), WithGroup("Node"))
	},
	InterfaceCamera: func(b *ClassBuilder) {
		b.Declare("near", TypeFloat, WithDefault(FloatValue(1)), WithGroup("Frustum"))
		b.Declare("far", TypeFloat, WithDefault(FloatValue(10000)), WithGroup("Frustum"))
		b.Declare("mb_shutter_open", TypeFloat, WithDefault(FloatValue(-0.25)), WithGroup("Motion Blur"))
		b.Declare("mb_shutter_close", TypeFloat, WithDefault(FloatValue(0.25)), WithGroup("Motion Blur"))
		b.Declare("pixel_sample_map", TypeString, WithFlags(FlagsFilename))
	},
	InterfaceLight: func(b *ClassBuilder) {
		b.Declare("on", TypeBool, WithDefault(BoolValue(true)))
		b.Declare("color", TypeRgb, WithFlags(FlagsBindable), WithDefault(RgbValue(Rgb{1, 1, 1})))
		b.Declare("intensity", TypeFloat, WithFlags(FlagsBindable), WithDefault(FloatValue(1)))
		b.Declare("exposure", TypeFloat, WithDefault(FloatValue(0)))
		b.Declare("light_filters", TypeSceneObjectVector, WithObjectType(InterfaceLightFilter))
		b.Declare("label", TypeString)
	},
	InterfaceLightFilter: func(b *ClassBuilder) {
		b.Declare("on", TypeBool, WithDefault(BoolValue(true)))
	},
	InterfaceGeometry: func(b *ClassBuilder) {
		b.Declare("side_type", TypeInt, WithDefault(IntValue(int32(SideMeshDefault))),
			WithEnum(int32(SideTwoSided), "two sided"),
			WithEnum(int32(SideSingleSided), "single sided"),
			WithEnum(int32(SideMeshDefault), "mesh default"))
		b.Declare("reverse_normals", TypeBool)
		for _, v := range visibilityAttributes {
			b.Declare(v.name, TypeBool, WithDefault(BoolValue(true)), WithGroup("Visibility"))
		}
		b.Declare("ray_epsilon", TypeFloat)
		b.Declare("shadow_ray_epsilon", TypeFloat)
		b.Declare("label", TypeString)
		b.Declare("shadow_receiver_label", TypeString)
		b.Declare("shadow_exclusion_mappings", TypeString)
	},
	InterfaceGeometrySet: func(b *ClassBuilder) {
		b.Declare(attrGeometries, TypeSceneObjectIndexable, WithObjectType(InterfaceGeometry))
		b.Declare("static", TypeBool, WithDefault(BoolValue(true)))
	},
	InterfaceLightSet: func(b *ClassBuilder) {
		b.Declare(attrLights, TypeSceneObjectVector, WithObjectType(InterfaceLight))
	},
	InterfaceLightFilterSet: func(b *ClassBuilder) {
		b.Declare(attrLightFilters, TypeSceneObjectVector, WithObjectType(InterfaceLightFilter))
	},
	InterfaceTraceSet: func(b *ClassBuilder) {
		if !b.class.HasAttribute(attrGeometries) {
			b.Declare(attrGeometries, TypeSceneObjectIndexable, WithObjectType(InterfaceGeometry))
		}
		b.Declare(attrParts, TypeStringVector)
	},
	InterfaceLayer: func(b *ClassBuilder) {
		for _, m := range layerBundleAttributes {
			b.Declare(m.name, TypeSceneObjectVector, WithObjectType(m.iface))
		}
	},
	InterfaceMetadata: func(b *ClassBuilder) {
		b.Declare(attrMetaName, TypeStringVector)
		b.Declare(attrMetaType, TypeStringVector)
		b.Declare(attrMetaValue, TypeStringVector)
	},
	InterfaceUserData:     declareUserData,
	InterfaceRenderOutput: declareRenderOutput,
}

func builtinClasses() []*SceneClass {
	defs := []struct {
		name  string
		iface Interface
	}{
		{ClassGeometrySet, InterfaceGeometrySet},
		{ClassLightSet, InterfaceLightSet},
		{ClassLightFilterSet, InterfaceLightFilterSet},
		{ClassShadowSet, InterfaceShadowSet},
		{ClassShadowReceiverSet, InterfaceShadowReceiverSet},
		{ClassLayer, InterfaceLayer},
		{ClassTraceSet, InterfaceTraceSet},
		{ClassMetadata, InterfaceMetadata},
		{ClassUserData, InterfaceUserData},
		{ClassRenderOutput, InterfaceRenderOutput},
	}
	out := make([]*SceneClass, 0, len(defs)+1)
	for _, d := range defs {
		out = append(out, mustBuild(NewClassBuilder(d.name, d.iface).SourcePath("builtin")))
	}
	sv := NewClassBuilder(ClassSceneVariables, InterfaceGeneric).SourcePath("builtin")
	declareSceneVariables(sv)
	return append(out, mustBuild(sv))
}

func mustBuild(b *ClassBuilder) *SceneClass {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

func declareSceneVariables(b *ClassBuilder) {
	b.Declare("image_width", TypeInt, WithDefault(IntValue(1920)), WithGroup("Frame"))
	b.Declare("image_height", TypeInt, WithDefault(IntValue(1080)), WithGroup("Frame"))
	b.Declare("res", TypeFloat, WithDefault(FloatValue(1)), WithGroup("Frame"))
	b.Declare("aperture_window", TypeIntVector, WithGroup("Frame"))
	b.Declare("region_window", TypeIntVector, WithGroup("Frame"))
	b.Declare("sub_viewport", TypeIntVector, WithGroup("Frame"))

	b.Declare("motion_steps", TypeFloatVector, WithDefault(FloatVectorValue([]float32{-1, 0})), WithGroup("Motion Blur"))
	b.Declare("fps", TypeFloat, WithDefault(FloatValue(24)), WithGroup("Motion Blur"))
	b.Declare("slerp_xforms", TypeBool, WithGroup("Motion Blur"))
	b.Declare("scene_scale", TypeFloat, WithDefault(FloatValue(0.01)))
	b.Declare("frame", TypeFloat)

	b.Declare("camera", TypeSceneObject, WithObjectType(InterfaceCamera), WithGroup("Camera"))
	b.Declare("dicing_camera", TypeSceneObject, WithObjectType(InterfaceCamera), WithGroup("Camera"))
	b.Declare("layer", TypeSceneObject, WithObjectType(InterfaceLayer))
	b.Declare("exr_header_attributes", TypeSceneObject, WithObjectType(InterfaceMetadata), WithGroup("Output"))

	b.Declare("pixel_samples", TypeInt, WithDefault(IntValue(8)), WithGroup("Sampling"))
	b.Declare("light_samples", TypeInt, WithDefault(IntValue(2)), WithGroup("Sampling"))
	b.Declare("bsdf_samples", TypeInt, WithDefault(IntValue(2)), WithGroup("Sampling"))
	b.Declare("bssrdf_samples", TypeInt, WithDefault(IntValue(2)), WithGroup("Sampling"))
	b.Declare("max_depth", TypeInt, WithDefault(IntValue(5)), WithGroup("Sampling"))

	b.Declare("output_file", TypeString, WithFlags(FlagsFilename), WithDefault(StringValue("scene.exr")), WithGroup("Output"))
	b.Declare("tmp_dir", TypeString, WithFlags(FlagsFilename), WithGroup("Output"))
	b.Declare("fatal_color", TypeRgb, WithDefault(RgbValue(Rgb{1, 0, 1})))

	b.Declare("machine_id", TypeInt, WithDefault(IntValue(-1)), WithGroup("Distributed"))
	b.Declare("num_machines", TypeInt, WithDefault(IntValue(-1)), WithGroup("Distributed"))

	b.Declare("checkpoint_active", TypeBool, WithGroup("Checkpoint"))
	b.Declare("resumable_output", TypeBool, WithGroup("Checkpoint"))
	b.Declare("resume_render", TypeBool, WithGroup("Checkpoint"))

	b.Declare("debug", TypeBool, WithGroup("Logging"))
	b.Declare("info", TypeBool, WithGroup("Logging"))
}
