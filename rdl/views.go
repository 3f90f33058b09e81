package rdl

// Capability views wrap a *SceneObject whose class provides the
// capability. They are obtained with the AsX / ToX downcasts and add
// typed accessors for the capability's intrinsic attributes. Every
// SceneObject method stays reachable through the embedded pointer.

// ============================================================
// Nodes
// ============================================================

type Node struct{ *SceneObject }

// NodeXform returns the node transform at the given timestep
// (TimestepBegin when omitted).
func (n *Node) NodeXform(ts ...Timestep) Mat4d {
	m, err := n.GetMat4d("node_xform", ts...)
	if err != nil {
		return Mat4dIdentity()
	}
	return m
}

func (n *Node) SetNodeXform(m Mat4d, ts ...Timestep) error {
	return n.Set("node_xform", Mat4dValue(m), ts...)
}

type Camera struct{ Node }

func (c *Camera) Near() float32 { return c.floatAttr("near") }

func (c *Camera) Far() float32 { return c.floatAttr("far") }

func (c *Camera) SetNear(v float32) error { return c.Set("near", FloatValue(v)) }

func (c *Camera) SetFar(v float32) error { return c.Set("far", FloatValue(v)) }

// ShutterInterval returns the motion blur shutter open and close times.
func (c *Camera) ShutterInterval() (float32, float32) {
	return c.floatAttr("mb_shutter_open"), c.floatAttr("mb_shutter_close")
}

type Light struct{ Node }

func (l *Light) IsOn() bool { return l.boolAttr("on") }

func (l *Light) Color() Rgb {
	c, _ := l.GetRgb("color")
	return c
}

func (l *Light) Intensity() float32 { return l.floatAttr("intensity") }

func (l *Light) Exposure() float32 { return l.floatAttr("exposure") }

func (l *Light) Label() string { return l.stringAttr("label") }

// LightFilters returns the filters attached to the light. Null entries
// are skipped.
func (l *Light) LightFilters() []*LightFilter {
	var out []*LightFilter
	for _, o := range l.rawObjects("light_filters") {
		if f, ok := o.AsLightFilter(); ok {
			out = append(out, f)
		}
	}
	return out
}

type EnvMap struct{ Node }

type Joint struct{ Node }

// SideType selects which faces of a geometry are rendered.
type SideType int32

const (
	SideTwoSided SideType = iota
	SideSingleSided
	SideMeshDefault
)

func (s SideType) String() string {
	switch s {
	case SideTwoSided:
		return "two sided"
	case SideSingleSided:
		return "single sided"
	case SideMeshDefault:
		return "mesh default"
	default:
		return "unknown"
	}
}

// VisibilityMask has one bit per ray type a geometry is visible to.
type VisibilityMask uint32

const (
	VisibleCamera VisibilityMask = 1 << iota
	VisibleShadow
	VisibleDiffuseReflection
	VisibleDiffuseTransmission
	VisibleGlossyReflection
	VisibleGlossyTransmission
	VisibleMirrorReflection
	VisibleMirrorTransmission
	VisiblePhase

	VisibleAll = VisibleCamera | VisibleShadow | VisibleDiffuseReflection |
		VisibleDiffuseTransmission | VisibleGlossyReflection | VisibleGlossyTransmission |
		VisibleMirrorReflection | VisibleMirrorTransmission | VisiblePhase
)

var visibilityAttributes = []struct {
	name string
	bit  VisibilityMask
}{
	{"visible_in_camera", VisibleCamera},
	{"visible_shadow", VisibleShadow},
	{"visible_diffuse_reflection", VisibleDiffuseReflection},
	{"visible_diffuse_transmission", VisibleDiffuseTransmission},
	{"visible_glossy_reflection", VisibleGlossyReflection},
	{"visible_glossy_transmission", VisibleGlossyTransmission},
	{"visible_mirror_reflection", VisibleMirrorReflection},
	{"visible_mirror_transmission", VisibleMirrorTransmission},
	{"visible_volume", VisiblePhase},
}

type Geometry struct{ Node }

func (g *Geometry) SideType() SideType { return SideType(g.intAttr("side_type")) }

func (g *Geometry) ReverseNormals() bool { return g.boolAttr("reverse_normals") }

// VisibilityMask combines the visible_* flags into one mask.
func (g *Geometry) VisibilityMask() VisibilityMask {
	var m VisibilityMask
	for _, v := range visibilityAttributes {
		if g.boolAttr(v.name) {
			m |= v.bit
		}
	}
	return m
}

func (g *Geometry) Label() string { return g.stringAttr("label") }

func (g *Geometry) RayEpsilon() float32 { return g.floatAttr("ray_epsilon") }

func (g *Geometry) ShadowRayEpsilon() float32 { return g.floatAttr("shadow_ray_epsilon") }

func (g *Geometry) ShadowReceiverLabel() string { return g.stringAttr("shadow_receiver_label") }

func (g *Geometry) ShadowExclusionMappings() string { return g.stringAttr("shadow_exclusion_mappings") }

// ============================================================
// Shaders and filters
// ============================================================

type Shader struct{ *SceneObject }

type RootShader struct{ Shader }

type Material struct{ RootShader }

type Displacement struct{ RootShader }

type VolumeShader struct{ RootShader }

type Map struct{ Shader }

type NormalMap struct{ Shader }

type LightFilter struct{ *SceneObject }

func (f *LightFilter) IsOn() bool { return f.boolAttr("on") }

type DisplayFilter struct{ *SceneObject }
