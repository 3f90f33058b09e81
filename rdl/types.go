package rdl

import (
	"fmt"
	"strings"
)

// AttributeType is the closed set of value kinds an attribute can hold.
type AttributeType uint8

const (
	TypeUnknown AttributeType = iota
	TypeBool
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeRgb
	TypeRgba
	TypeVec2f
	TypeVec2d
	TypeVec3f
	TypeVec3d
	TypeVec4f
	TypeVec4d
	TypeMat4f
	TypeMat4d
	TypeSceneObject

	TypeBoolVector
	TypeIntVector
	TypeLongVector
	TypeFloatVector
	TypeDoubleVector
	TypeStringVector
	TypeRgbVector
	TypeRgbaVector
	TypeVec2fVector
	TypeVec2dVector
	TypeVec3fVector
	TypeVec3dVector
	TypeVec4fVector
	TypeVec4dVector
	TypeMat4fVector
	TypeMat4dVector
	TypeSceneObjectVector
	TypeSceneObjectIndexable

	numAttributeTypes
)

var typeNames = [numAttributeTypes]string{
	TypeUnknown:              "Unknown",
	TypeBool:                 "Bool",
	TypeInt:                  "Int",
	TypeLong:                 "Long",
	TypeFloat:                "Float",
	TypeDouble:               "Double",
	TypeString:               "String",
	TypeRgb:                  "Rgb",
	TypeRgba:                 "Rgba",
	TypeVec2f:                "Vec2f",
	TypeVec2d:                "Vec2d",
	TypeVec3f:                "Vec3f",
	TypeVec3d:                "Vec3d",
	TypeVec4f:                "Vec4f",
	TypeVec4d:                "Vec4d",
	TypeMat4f:                "Mat4f",
	TypeMat4d:                "Mat4d",
	TypeSceneObject:          "SceneObject",
	TypeBoolVector:           "BoolVector",
	TypeIntVector:            "IntVector",
	TypeLongVector:           "LongVector",
	TypeFloatVector:          "FloatVector",
	TypeDoubleVector:         "DoubleVector",
	TypeStringVector:         "StringVector",
	TypeRgbVector:            "RgbVector",
	TypeRgbaVector:           "RgbaVector",
	TypeVec2fVector:          "Vec2fVector",
	TypeVec2dVector:          "Vec2dVector",
	TypeVec3fVector:          "Vec3fVector",
	TypeVec3dVector:          "Vec3dVector",
	TypeVec4fVector:          "Vec4fVector",
	TypeVec4dVector:          "Vec4dVector",
	TypeMat4fVector:          "Mat4fVector",
	TypeMat4dVector:          "Mat4dVector",
	TypeSceneObjectVector:    "SceneObjectVector",
	TypeSceneObjectIndexable: "SceneObjectIndexable",
}

// String returns the stable name of the type.
func (t AttributeType) String() string {
	if t < numAttributeTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("AttributeType(%d)", uint8(t))
}

// ParseAttributeType resolves a type name. Matching ignores case, and the
// upper-case enum spellings (TYPE_VEC3F_VECTOR) are accepted as well.
func ParseAttributeType(name string) (AttributeType, bool) {
	norm := strings.ToLower(strings.TrimPrefix(strings.ToUpper(name), "TYPE_"))
	norm = strings.ReplaceAll(norm, "_", "")
	for t := TypeBool; t < numAttributeTypes; t++ {
		if strings.ToLower(typeNames[t]) == norm {
			return t, true
		}
	}
	return TypeUnknown, false
}

// Valid reports whether t is one of the declared kinds.
func (t AttributeType) Valid() bool {
	return t > TypeUnknown && t < numAttributeTypes
}

// IsVector reports whether t is a homogeneous collection kind.
func (t AttributeType) IsVector() bool {
	return t >= TypeBoolVector && t < numAttributeTypes
}

// IsObject reports whether t refers to other scene objects.
func (t AttributeType) IsObject() bool {
	return t == TypeSceneObject || t == TypeSceneObjectVector || t == TypeSceneObjectIndexable
}

// Elem returns the scalar kind stored in a vector kind, or t itself.
func (t AttributeType) Elem() AttributeType {
	switch {
	case t == TypeSceneObjectIndexable:
		return TypeSceneObject
	case t.IsVector():
		return t - (TypeBoolVector - TypeBool)
	default:
		return t
	}
}

// VectorOf returns the collection kind for a scalar kind.
func (t AttributeType) VectorOf() AttributeType {
	if t >= TypeBool && t <= TypeSceneObject {
		return t + (TypeBoolVector - TypeBool)
	}
	return t
}

// Components is the number of float components in one element of a
// color, vector or matrix kind, zero for everything else.
func (t AttributeType) Components() int {
	switch t.Elem() {
	case TypeRgb, TypeVec3f, TypeVec3d:
		return 3
	case TypeRgba, TypeVec4f, TypeVec4d:
		return 4
	case TypeVec2f, TypeVec2d:
		return 2
	case TypeMat4f, TypeMat4d:
		return 16
	default:
		return 0
	}
}

// SinglePrecision reports whether components of t are stored as float32.
func (t AttributeType) SinglePrecision() bool {
	switch t.Elem() {
	case TypeFloat, TypeRgb, TypeRgba, TypeVec2f, TypeVec3f, TypeVec4f, TypeMat4f:
		return true
	}
	return false
}

// ============================================================
// Flags
// ============================================================

// AttributeFlags are orthogonal to the attribute type.
type AttributeFlags uint8

const (
	FlagsNone              AttributeFlags = 0
	FlagsBindable          AttributeFlags = 1 << 0
	FlagsBlurrable         AttributeFlags = 1 << 1
	FlagsEnumerable        AttributeFlags = 1 << 2
	FlagsFilename          AttributeFlags = 1 << 3
	FlagsCanSkipGeomReload AttributeFlags = 1 << 4
)

var flagNames = []struct {
	flag AttributeFlags
	name string
}{
	{FlagsBindable, "bindable"},
	{FlagsBlurrable, "blurrable"},
	{FlagsEnumerable, "enumerable"},
	{FlagsFilename, "filename"},
	{FlagsCanSkipGeomReload, "can_skip_geom_reload"},
}

// Has reports whether every bit of f2 is set in f.
func (f AttributeFlags) Has(f2 AttributeFlags) bool {
	return f&f2 == f2
}

// String renders the set bits joined by '|', or "none".
func (f AttributeFlags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseAttributeFlags parses a '|' or ',' separated flag list.
func ParseAttributeFlags(s string) (AttributeFlags, error) {
	var f AttributeFlags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		part = strings.ToLower(strings.TrimPrefix(strings.ToUpper(part), "FLAGS_"))
		if part == "none" {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == part {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown attribute flag %q", ErrSchema, part)
		}
	}
	return f, nil
}

// ============================================================
// Timesteps
// ============================================================

// Timestep selects one of the two motion blur samples of a blurrable
// attribute.
type Timestep uint8

const (
	TimestepBegin Timestep = 0
	TimestepEnd   Timestep = 1
	NumTimesteps           = 2
)

func (ts Timestep) String() string {
	switch ts {
	case TimestepBegin:
		return "begin"
	case TimestepEnd:
		return "end"
	default:
		return fmt.Sprintf("Timestep(%d)", uint8(ts))
	}
}
