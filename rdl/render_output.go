package rdl

import "fmt"

// ============================================================
// Enums
// ============================================================

type Result int32

const (
	ResultBeauty Result = iota
	ResultAlpha
	ResultDepth
	ResultStateVariable
	ResultPrimitiveAttribute
	ResultHeatMap
	ResultWireframe
	ResultMaterialAov
	ResultLightAov
	ResultVisibilityAov
	ResultWeight
	ResultBeautyAux
	ResultCryptomatte
	ResultAlphaAux
	ResultDisplayFilter
)

var resultNames = []string{
	"beauty", "alpha", "depth", "state variable", "primitive attribute", "heat map",
	"wireframe", "material aov", "light aov", "visibility aov", "weight", "beauty aux",
	"cryptomatte", "alpha aux", "display filter",
}

func (r Result) String() string { return enumName(resultNames, int32(r), "Result") }

type Compression int32

const (
	CompressionNone Compression = iota
	CompressionZip
	CompressionRle
	CompressionZips
	CompressionPiz
	CompressionPxr24
	CompressionB44
	CompressionB44a
	CompressionDwaa
	CompressionDwab
)

var compressionNames = []string{"none", "zip", "rle", "zips", "piz", "pxr24", "b44", "b44a", "dwaa", "dwab"}

func (c Compression) String() string { return enumName(compressionNames, int32(c), "Compression") }

type ChannelFormat int32

const (
	ChannelFormatFloat ChannelFormat = iota
	ChannelFormatHalf
)

var channelFormatNames = []string{"float", "half"}

func (c ChannelFormat) String() string { return enumName(channelFormatNames, int32(c), "ChannelFormat") }

type MathFilter int32

const (
	MathFilterAvg MathFilter = iota
	MathFilterSum
	MathFilterMin
	MathFilterMax
	MathFilterForceConsistentSampling
	MathFilterClosest
)

var mathFilterNames = []string{"average", "sum", "min", "max", "force consistent sampling", "closest"}

func (m MathFilter) String() string { return enumName(mathFilterNames, int32(m), "MathFilter") }

type SuffixMode int32

const (
	SuffixModeAuto SuffixMode = iota
	SuffixModeRgb
	SuffixModeXyz
	SuffixModeUvw
	SuffixModeNumModes
)

var suffixModeNames = []string{"auto", "rgb", "xyz", "uvw"}

func (s SuffixMode) String() string { return enumName(suffixModeNames, int32(s), "SuffixMode") }

type DenoiserInput int32

const (
	DenoiserInputNone DenoiserInput = iota
	DenoiserInputAlbedo
	DenoiserInputNormal
)

var denoiserInputNames = []string{"not an input", "as albedo", "as normal"}

func (d DenoiserInput) String() string { return enumName(denoiserInputNames, int32(d), "DenoiserInput") }

type StateVariable int32

const (
	StateVariableP StateVariable = iota
	StateVariableNg
	StateVariableN
	StateVariableSt
	StateVariableDpds
	StateVariableDpdt
	StateVariableDsdx
	StateVariableDsdy
	StateVariableDtdx
	StateVariableDtdy
	StateVariableWp
	StateVariableDepth
	StateVariableMotion
)

var stateVariableNames = []string{
	"P", "Ng", "N", "St", "dPds", "dPdt", "dSdx", "dSdy", "dTdx", "dTdy", "Wp", "depth", "motionvec",
}

func (s StateVariable) String() string { return enumName(stateVariableNames, int32(s), "StateVariable") }

type PrimitiveAttributeType int32

const (
	PrimitiveAttributeTypeFloat PrimitiveAttributeType = iota
	PrimitiveAttributeTypeVec2f
	PrimitiveAttributeTypeVec3f
	PrimitiveAttributeTypeRgb
)

var primitiveAttributeTypeNames = []string{"FLOAT", "VEC2F", "VEC3F", "RGB"}

func (p PrimitiveAttributeType) String() string {
	return enumName(primitiveAttributeTypeNames, int32(p), "PrimitiveAttributeType")
}

func enumName(names []string, v int32, kind string) string {
	if v >= 0 && int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

// withEnumLabels declares an enumerable Int with one label per value.
func withEnumLabels(names []string) []AttrOption {
	opts := make([]AttrOption, len(names))
	for i, n := range names {
		opts[i] = WithEnum(int32(i), n)
	}
	return opts
}

func enumAttr(def int32, names []string, group string) []AttrOption {
	return append(withEnumLabels(names), WithDefault(IntValue(def)), WithGroup(group))
}

var cryptomatteOutputs = []string{
	"cryptomatte_output_positions",
	"cryptomatte_output_p0",
	"cryptomatte_output_normals",
	"cryptomatte_output_beauty",
	"cryptomatte_output_refp",
	"cryptomatte_output_refn",
	"cryptomatte_output_uv",
}

func declareRenderOutput(b *ClassBuilder) {
	b.Declare("active", TypeBool, WithDefault(BoolValue(true)))
	b.Declare("result", TypeInt, enumAttr(int32(ResultBeauty), resultNames, "Result")...)
	b.Declare("output_type", TypeString, WithDefault(StringValue("flat")), WithGroup("Result"))
	b.Declare("state_variable", TypeInt, enumAttr(int32(StateVariableN), stateVariableNames, "Result")...)
	b.Declare("primitive_attribute", TypeString, WithGroup("Result"))
	b.Declare("primitive_attribute_type", TypeInt,
		enumAttr(int32(PrimitiveAttributeTypeFloat), primitiveAttributeTypeNames, "Result")...)
	b.Declare("material_aov", TypeString, WithGroup("Result"))
	b.Declare("lpe", TypeString, WithGroup("Result"))
	b.Declare("visibility_aov", TypeString, WithDefault(StringValue("C[<L.>O]")), WithGroup("Result"))

	b.Declare("file_name", TypeString, WithFlags(FlagsFilename), WithDefault(StringValue("scene.exr")), WithGroup("File"))
	b.Declare("file_part", TypeString, WithGroup("File"))
	b.Declare("compression", TypeInt, enumAttr(int32(CompressionZip), compressionNames, "File")...)
	b.Declare("compression_level", TypeFloat, WithDefault(FloatValue(85)), WithGroup("File"))
	b.Declare("exr_header_attributes", TypeSceneObject, WithObjectType(InterfaceMetadata), WithGroup("File"))
	b.Declare("checkpoint_file_name", TypeString, WithFlags(FlagsFilename),
		WithDefault(StringValue("checkpoint.exr")), WithGroup("Checkpoint"))
	b.Declare("checkpoint_multi_version_file_name", TypeString, WithFlags(FlagsFilename), WithGroup("Checkpoint"))
	b.Declare("resume_file_name", TypeString, WithFlags(FlagsFilename), WithGroup("Checkpoint"))

	b.Declare("channel_name", TypeString, WithGroup("Channel"))
	b.Declare("channel_suffix_mode", TypeInt, enumAttr(int32(SuffixModeAuto), suffixModeNames, "Channel")...)
	b.Declare("channel_format", TypeInt, enumAttr(int32(ChannelFormatHalf), channelFormatNames, "Channel")...)
	b.Declare("math_filter", TypeInt, enumAttr(int32(MathFilterAvg), mathFilterNames, "Channel")...)

	b.Declare("denoiser_input", TypeInt, enumAttr(int32(DenoiserInputNone), denoiserInputNames, "Denoise")...)
	b.Declare("denoise", TypeBool, WithGroup("Denoise"))

	b.Declare("cryptomatte_depth", TypeInt, WithDefault(IntValue(6)), WithGroup("Cryptomatte"))
	for _, name := range cryptomatteOutputs {
		b.Declare(name, TypeBool, WithGroup("Cryptomatte"))
	}
	b.Declare("cryptomatte_support_resume_render", TypeBool, WithGroup("Cryptomatte"))
	b.Declare("cryptomatte_record_reflected", TypeBool, WithGroup("Cryptomatte"))
	b.Declare("cryptomatte_record_refracted", TypeBool, WithGroup("Cryptomatte"))

	b.Declare("camera", TypeSceneObject, WithObjectType(InterfaceCamera))
}

// ============================================================
// RenderOutput
// ============================================================

// RenderOutput describes one image channel the renderer writes.
type RenderOutput struct{ *SceneObject }

func (r *RenderOutput) Active() bool { return r.boolAttr("active") }

func (r *RenderOutput) Result() Result { return Result(r.intAttr("result")) }

func (r *RenderOutput) OutputType() string { return r.stringAttr("output_type") }

func (r *RenderOutput) StateVariable() StateVariable { return StateVariable(r.intAttr("state_variable")) }

func (r *RenderOutput) PrimitiveAttribute() string { return r.stringAttr("primitive_attribute") }

func (r *RenderOutput) PrimitiveAttributeType() PrimitiveAttributeType {
	return PrimitiveAttributeType(r.intAttr("primitive_attribute_type"))
}

func (r *RenderOutput) MaterialAov() string { return r.stringAttr("material_aov") }

func (r *RenderOutput) Lpe() string { return r.stringAttr("lpe") }

func (r *RenderOutput) VisibilityAov() string { return r.stringAttr("visibility_aov") }

func (r *RenderOutput) FileName() string { return r.stringAttr("file_name") }

func (r *RenderOutput) FilePart() string { return r.stringAttr("file_part") }

func (r *RenderOutput) Compression() Compression { return Compression(r.intAttr("compression")) }

func (r *RenderOutput) CompressionLevel() float32 { return r.floatAttr("compression_level") }

func (r *RenderOutput) ChannelName() string { return r.stringAttr("channel_name") }

func (r *RenderOutput) ChannelSuffixMode() SuffixMode { return SuffixMode(r.intAttr("channel_suffix_mode")) }

func (r *RenderOutput) ChannelFormat() ChannelFormat { return ChannelFormat(r.intAttr("channel_format")) }

func (r *RenderOutput) MathFilter() MathFilter { return MathFilter(r.intAttr("math_filter")) }

func (r *RenderOutput) ExrHeaderAttributes() *Metadata {
	m, _ := r.objectAttr("exr_header_attributes").AsMetadata()
	return m
}

func (r *RenderOutput) DenoiserInput() DenoiserInput { return DenoiserInput(r.intAttr("denoiser_input")) }

func (r *RenderOutput) Denoise() bool { return r.boolAttr("denoise") }

func (r *RenderOutput) CheckpointFileName() string { return r.stringAttr("checkpoint_file_name") }

func (r *RenderOutput) CheckpointMultiVersionFileName() string {
	return r.stringAttr("checkpoint_multi_version_file_name")
}

func (r *RenderOutput) ResumeFileName() string { return r.stringAttr("resume_file_name") }

func (r *RenderOutput) CryptomatteDepth() int32 { return r.intAttr("cryptomatte_depth") }

// CryptomatteNumLayers is the number of two-id layers needed to hold
// CryptomatteDepth ids.
func (r *RenderOutput) CryptomatteNumLayers() int32 { return (r.CryptomatteDepth() + 1) / 2 }

func (r *RenderOutput) CryptomatteOutputPositions() bool { return r.boolAttr("cryptomatte_output_positions") }

func (r *RenderOutput) CryptomatteOutputP0() bool { return r.boolAttr("cryptomatte_output_p0") }

func (r *RenderOutput) CryptomatteOutputNormals() bool { return r.boolAttr("cryptomatte_output_normals") }

func (r *RenderOutput) CryptomatteOutputBeauty() bool { return r.boolAttr("cryptomatte_output_beauty") }

func (r *RenderOutput) CryptomatteOutputRefP() bool { return r.boolAttr("cryptomatte_output_refp") }

func (r *RenderOutput) CryptomatteOutputRefN() bool { return r.boolAttr("cryptomatte_output_refn") }

func (r *RenderOutput) CryptomatteOutputUV() bool { return r.boolAttr("cryptomatte_output_uv") }

func (r *RenderOutput) CryptomatteSupportResumeRender() bool {
	return r.boolAttr("cryptomatte_support_resume_render")
}

func (r *RenderOutput) CryptomatteRecordReflected() bool { return r.boolAttr("cryptomatte_record_reflected") }

func (r *RenderOutput) CryptomatteRecordRefracted() bool { return r.boolAttr("cryptomatte_record_refracted") }

// CryptomatteNumExtraChannels counts the extra channels the enabled
// cryptomatte outputs add: three per position, normal, beauty or
// reference output, two for uv.
func (r *RenderOutput) CryptomatteNumExtraChannels() int {
	n := 0
	for _, name := range cryptomatteOutputs {
		if !r.boolAttr(name) {
			continue
		}
		if name == "cryptomatte_output_uv" {
			n += 2
		} else {
			n += 3
		}
	}
	return n
}

func (r *RenderOutput) CryptomatteHasExtraOutput() bool { return r.CryptomatteNumExtraChannels() > 0 }

// Camera returns the camera the output renders through, or nil for the
// primary camera.
func (r *RenderOutput) Camera() *Camera {
	c, _ := r.objectAttr("camera").AsCamera()
	return c
}
