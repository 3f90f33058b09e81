package rdl

import (
	"fmt"
	"strings"
)

// Interface is a bitmask of the capabilities a class provides. An object
// "is a" capability iff the bit is set in its class's interface.
type Interface uint32

const (
	InterfaceGeneric Interface = 1 << iota
	InterfaceGeometrySet
	InterfaceLayer
	InterfaceLightSet
	InterfaceNode
	InterfaceCamera
	InterfaceEnvMap
	InterfaceGeometry
	InterfaceLight
	InterfaceShader
	InterfaceDisplacement
	InterfaceMap
	InterfaceRootShader
	InterfaceMaterial
	InterfaceVolumeShader
	InterfaceRenderOutput
	InterfaceUserData
	InterfaceMetadata
	InterfaceLightFilter
	InterfaceTraceSet
	InterfaceJoint
	InterfaceLightFilterSet
	InterfaceShadowSet
	InterfaceNormalMap
	InterfaceDisplayFilter
	InterfaceShadowReceiverSet
)

// capabilities lists every bit with its name and the capabilities it
// implies. Closure walks this table, so the is-a hierarchy lives here
// and nowhere else.
var capabilities = []struct {
	bit     Interface
	name    string
	implies Interface
}{
	{InterfaceGeneric, "generic", 0},
	{InterfaceGeometrySet, "geometryset", 0},
	{InterfaceLayer, "layer", InterfaceTraceSet},
	{InterfaceLightSet, "lightset", 0},
	{InterfaceNode, "node", 0},
	{InterfaceCamera, "camera", InterfaceNode},
	{InterfaceEnvMap, "envmap", InterfaceNode},
	{InterfaceGeometry, "geometry", InterfaceNode},
	{InterfaceLight, "light", InterfaceNode},
	{InterfaceShader, "shader", 0},
	{InterfaceDisplacement, "displacement", InterfaceRootShader},
	{InterfaceMap, "map", InterfaceShader},
	{InterfaceRootShader, "rootshader", InterfaceShader},
	{InterfaceMaterial, "material", InterfaceRootShader},
	{InterfaceVolumeShader, "volumeshader", InterfaceRootShader},
	{InterfaceRenderOutput, "renderoutput", 0},
	{InterfaceUserData, "userdata", 0},
	{InterfaceMetadata, "metadata", 0},
	{InterfaceLightFilter, "lightfilter", 0},
	{InterfaceTraceSet, "traceset", 0},
	{InterfaceJoint, "joint", InterfaceNode},
	{InterfaceLightFilterSet, "lightfilterset", 0},
	{InterfaceShadowSet, "shadowset", InterfaceLightSet},
	{InterfaceNormalMap, "normalmap", InterfaceShader},
	{InterfaceDisplayFilter, "displayfilter", 0},
	{InterfaceShadowReceiverSet, "shadowreceiverset", InterfaceGeometrySet},
}

// Closure returns i with every implied capability added, including
// InterfaceGeneric.
func (i Interface) Closure() Interface {
	out := i | InterfaceGeneric
	for {
		next := out
		for _, c := range capabilities {
			if out&c.bit != 0 {
				next |= c.implies
			}
		}
		if next == out {
			return out
		}
		out = next
	}
}

// Has reports whether every bit of o is set in i.
func (i Interface) Has(o Interface) bool {
	return i&o == o
}

// String renders the set capabilities, most specific first.
func (i Interface) String() string {
	if i == 0 {
		return "none"
	}
	var parts []string
	for k := len(capabilities) - 1; k >= 0; k-- {
		if i&capabilities[k].bit != 0 {
			parts = append(parts, capabilities[k].name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseInterface parses a '|' or ',' separated capability list. The
// INTERFACE_ prefix is optional. The result is not closed.
func ParseInterface(s string) (Interface, error) {
	var out Interface
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		name := strings.ToLower(strings.TrimPrefix(strings.ToUpper(part), "INTERFACE_"))
		found := false
		for _, c := range capabilities {
			if c.name == name {
				out |= c.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown interface %q", ErrSchema, part)
		}
	}
	return out, nil
}
