package rdl

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Category groups attribute types by the primitive they are built from.
// Codecs switch on the category instead of on every AttributeType.
type Category uint8

const (
	CategoryBool Category = iota
	CategoryInt
	CategoryFloat
	CategoryString
	CategoryObject
)

// Category returns the storage category of t.
func (t AttributeType) Category() Category {
	switch t.Elem() {
	case TypeBool:
		return CategoryBool
	case TypeInt, TypeLong:
		return CategoryInt
	case TypeString:
		return CategoryString
	case TypeSceneObject:
		return CategoryObject
	default:
		return CategoryFloat
	}
}

// Stride is the number of primitives per element of t.
func (t AttributeType) Stride() int {
	if n := t.Components(); n > 0 {
		return n
	}
	return 1
}

// Value is a tagged variant holding one attribute value. The tag is the
// AttributeType; the payload lives in the slice of the type's category,
// flattened element by element. Scalars are one-element payloads.
// Float32 kinds are stored already rounded to float32 precision.
type Value struct {
	typ    AttributeType
	bools  []bool
	ints   []int64
	floats []float64
	strs   []string
	objs   []*SceneObject
}

// Type returns the value's kind. The zero Value has TypeUnknown.
func (v Value) Type() AttributeType {
	return v.typ
}

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool {
	return v.typ.Valid()
}

// Len returns the element count: 1 for scalars.
func (v Value) Len() int {
	if !v.typ.IsVector() {
		if v.typ.Valid() {
			return 1
		}
		return 0
	}
	switch v.typ.Category() {
	case CategoryBool:
		return len(v.bools)
	case CategoryInt:
		return len(v.ints)
	case CategoryString:
		return len(v.strs)
	case CategoryObject:
		return len(v.objs)
	default:
		return len(v.floats) / v.typ.Stride()
	}
}

// Zero returns the zero value of t: false, 0, "", null, the zero vector,
// or an empty collection.
func Zero(t AttributeType) Value {
	v := Value{typ: t}
	if t.IsVector() || !t.Valid() {
		return v
	}
	switch t.Category() {
	case CategoryBool:
		v.bools = []bool{false}
	case CategoryInt:
		v.ints = []int64{0}
	case CategoryString:
		v.strs = []string{""}
	case CategoryObject:
		v.objs = []*SceneObject{nil}
	default:
		v.floats = make([]float64, t.Stride())
	}
	return v
}

// ============================================================
// Raw construction (used by the codecs)
// ============================================================

func checkRaw(t AttributeType, cat Category, n int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: invalid attribute type %d", ErrTypeMismatch, t)
	}
	if t.Category() != cat {
		return fmt.Errorf("%w: %s cannot be built from this data", ErrTypeMismatch, t)
	}
	stride := t.Stride()
	if t.IsVector() {
		if n%stride != 0 {
			return fmt.Errorf("%w: %s needs a multiple of %d components, got %d", ErrLengthMismatch, t, stride, n)
		}
		return nil
	}
	return checkLen(t.String(), stride, n)
}

// ValueFromBools builds a value of a bool-category type.
func ValueFromBools(t AttributeType, data []bool) (Value, error) {
	if err := checkRaw(t, CategoryBool, len(data)); err != nil {
		return Value{}, err
	}
	return Value{typ: t, bools: slices.Clone(data)}, nil
}

// ValueFromInts builds a value of an int-category type. Int kinds hold
// 32 bits; a component outside that range is ErrTypeMismatch.
func ValueFromInts(t AttributeType, data []int64) (Value, error) {
	if err := checkRaw(t, CategoryInt, len(data)); err != nil {
		return Value{}, err
	}
	if t.Elem() == TypeInt {
		for _, n := range data {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return Value{}, fmt.Errorf("%w: %d overflows %s", ErrTypeMismatch, n, t)
			}
		}
	}
	return Value{typ: t, ints: slices.Clone(data)}, nil
}

// ValueFromFloats builds a value of a float-category type from
// flattened components. Single precision kinds round each component; a
// finite component beyond the float32 range is ErrTypeMismatch.
func ValueFromFloats(t AttributeType, data []float64) (Value, error) {
	if err := checkRaw(t, CategoryFloat, len(data)); err != nil {
		return Value{}, err
	}
	out := slices.Clone(data)
	if t.SinglePrecision() {
		for i, f := range out {
			r := float64(float32(f))
			if math.IsInf(r, 0) && !math.IsInf(f, 0) {
				return Value{}, fmt.Errorf("%w: %g overflows %s", ErrTypeMismatch, f, t)
			}
			out[i] = r
		}
	}
	return Value{typ: t, floats: out}, nil
}

// ValueFromStrings builds a String or StringVector value.
func ValueFromStrings(t AttributeType, data []string) (Value, error) {
	if err := checkRaw(t, CategoryString, len(data)); err != nil {
		return Value{}, err
	}
	return Value{typ: t, strs: slices.Clone(data)}, nil
}

// ValueFromObjects builds an object reference value.
func ValueFromObjects(t AttributeType, data []*SceneObject) (Value, error) {
	if err := checkRaw(t, CategoryObject, len(data)); err != nil {
		return Value{}, err
	}
	return Value{typ: t, objs: slices.Clone(data)}, nil
}

// Bools returns the flattened payload of a bool-category value.
func (v Value) Bools() []bool { return v.bools }

// Ints returns the flattened payload of an int-category value.
func (v Value) Ints() []int64 { return v.ints }

// Floats returns the flattened components of a float-category value.
func (v Value) Floats() []float64 { return v.floats }

// Strings returns the payload of a string-category value.
func (v Value) Strings() []string { return v.strs }

// Objects returns the payload of an object-category value.
func (v Value) Objects() []*SceneObject { return v.objs }

// ============================================================
// Typed constructors
// ============================================================

func mustValue(v Value, err error) Value {
	if err != nil {
		panic(err)
	}
	return v
}

func floats32(fs ...float32) []float64 {
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = float64(f)
	}
	return out
}

func BoolValue(b bool) Value       { return Value{typ: TypeBool, bools: []bool{b}} }
func IntValue(n int32) Value       { return Value{typ: TypeInt, ints: []int64{int64(n)}} }
func LongValue(n int64) Value      { return Value{typ: TypeLong, ints: []int64{n}} }
func FloatValue(f float32) Value   { return Value{typ: TypeFloat, floats: []float64{float64(f)}} }
func DoubleValue(f float64) Value  { return Value{typ: TypeDouble, floats: []float64{f}} }
func StringValue(s string) Value   { return Value{typ: TypeString, strs: []string{s}} }
func RgbValue(c Rgb) Value         { return Value{typ: TypeRgb, floats: floats32(c.R, c.G, c.B)} }
func RgbaValue(c Rgba) Value       { return Value{typ: TypeRgba, floats: floats32(c.R, c.G, c.B, c.A)} }
func Vec2fValue(p Vec2f) Value     { return Value{typ: TypeVec2f, floats: floats32(p.X, p.Y)} }
func Vec2dValue(p Vec2d) Value     { return Value{typ: TypeVec2d, floats: []float64{p.X, p.Y}} }
func Vec3fValue(p Vec3f) Value     { return Value{typ: TypeVec3f, floats: floats32(p.X, p.Y, p.Z)} }
func Vec3dValue(p Vec3d) Value     { return Value{typ: TypeVec3d, floats: []float64{p.X, p.Y, p.Z}} }
func Vec4fValue(p Vec4f) Value     { return Value{typ: TypeVec4f, floats: floats32(p.X, p.Y, p.Z, p.W)} }
func Vec4dValue(p Vec4d) Value     { return Value{typ: TypeVec4d, floats: []float64{p.X, p.Y, p.Z, p.W}} }
func Mat4fValue(m Mat4f) Value     { return Value{typ: TypeMat4f, floats: floats32(m[:]...)} }
func Mat4dValue(m Mat4d) Value     { return Value{typ: TypeMat4d, floats: slices.Clone(m[:])} }
func SceneObjectValue(o *SceneObject) Value {
	return Value{typ: TypeSceneObject, objs: []*SceneObject{o}}
}

func BoolVectorValue(bs []bool) Value { return mustValue(ValueFromBools(TypeBoolVector, bs)) }

func IntVectorValue(ns []int32) Value {
	out := make([]int64, len(ns))
	for i, n := range ns {
		out[i] = int64(n)
	}
	return Value{typ: TypeIntVector, ints: out}
}

func LongVectorValue(ns []int64) Value  { return mustValue(ValueFromInts(TypeLongVector, ns)) }
func FloatVectorValue(fs []float32) Value { return Value{typ: TypeFloatVector, floats: floats32(fs...)} }
func DoubleVectorValue(fs []float64) Value {
	return mustValue(ValueFromFloats(TypeDoubleVector, fs))
}
func StringVectorValue(ss []string) Value { return mustValue(ValueFromStrings(TypeStringVector, ss)) }

func RgbVectorValue(cs []Rgb) Value {
	out := make([]float64, 0, len(cs)*3)
	for _, c := range cs {
		out = append(out, floats32(c.R, c.G, c.B)...)
	}
	return Value{typ: TypeRgbVector, floats: out}
}

func RgbaVectorValue(cs []Rgba) Value {
	out := make([]float64, 0, len(cs)*4)
	for _, c := range cs {
		out = append(out, floats32(c.R, c.G, c.B, c.A)...)
	}
	return Value{typ: TypeRgbaVector, floats: out}
}

func Vec2fVectorValue(ps []Vec2f) Value {
	out := make([]float64, 0, len(ps)*2)
	for _, p := range ps {
		out = append(out, floats32(p.X, p.Y)...)
	}
	return Value{typ: TypeVec2fVector, floats: out}
}

func Vec2dVectorValue(ps []Vec2d) Value {
	out := make([]float64, 0, len(ps)*2)
	for _, p := range ps {
		out = append(out, p.X, p.Y)
	}
	return Value{typ: TypeVec2dVector, floats: out}
}

func Vec3fVectorValue(ps []Vec3f) Value {
	out := make([]float64, 0, len(ps)*3)
	for _, p := range ps {
		out = append(out, floats32(p.X, p.Y, p.Z)...)
	}
	return Value{typ: TypeVec3fVector, floats: out}
}

func Vec3dVectorValue(ps []Vec3d) Value {
	out := make([]float64, 0, len(ps)*3)
	for _, p := range ps {
		out = append(out, p.X, p.Y, p.Z)
	}
	return Value{typ: TypeVec3dVector, floats: out}
}

func Vec4fVectorValue(ps []Vec4f) Value {
	out := make([]float64, 0, len(ps)*4)
	for _, p := range ps {
		out = append(out, floats32(p.X, p.Y, p.Z, p.W)...)
	}
	return Value{typ: TypeVec4fVector, floats: out}
}

func Vec4dVectorValue(ps []Vec4d) Value {
	out := make([]float64, 0, len(ps)*4)
	for _, p := range ps {
		out = append(out, p.X, p.Y, p.Z, p.W)
	}
	return Value{typ: TypeVec4dVector, floats: out}
}

func Mat4fVectorValue(ms []Mat4f) Value {
	out := make([]float64, 0, len(ms)*16)
	for _, m := range ms {
		out = append(out, floats32(m[:]...)...)
	}
	return Value{typ: TypeMat4fVector, floats: out}
}

func Mat4dVectorValue(ms []Mat4d) Value {
	out := make([]float64, 0, len(ms)*16)
	for _, m := range ms {
		out = append(out, m[:]...)
	}
	return Value{typ: TypeMat4dVector, floats: out}
}

func SceneObjectVectorValue(os []*SceneObject) Value {
	return Value{typ: TypeSceneObjectVector, objs: slices.Clone(os)}
}

func SceneObjectIndexableValue(os []*SceneObject) Value {
	return Value{typ: TypeSceneObjectIndexable, objs: slices.Clone(os)}
}

// ============================================================
// Checked accessors
// ============================================================

func (v Value) expect(t AttributeType) error {
	if v.typ != t {
		return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, t, v.typ)
	}
	return nil
}

func (v Value) AsBool() (bool, error) {
	if err := v.expect(TypeBool); err != nil {
		return false, err
	}
	return v.bools[0], nil
}

func (v Value) AsInt() (int32, error) {
	if err := v.expect(TypeInt); err != nil {
		return 0, err
	}
	return int32(v.ints[0]), nil
}

func (v Value) AsLong() (int64, error) {
	if err := v.expect(TypeLong); err != nil {
		return 0, err
	}
	return v.ints[0], nil
}

func (v Value) AsFloat() (float32, error) {
	if err := v.expect(TypeFloat); err != nil {
		return 0, err
	}
	return float32(v.floats[0]), nil
}

func (v Value) AsDouble() (float64, error) {
	if err := v.expect(TypeDouble); err != nil {
		return 0, err
	}
	return v.floats[0], nil
}

func (v Value) AsString() (string, error) {
	if err := v.expect(TypeString); err != nil {
		return "", err
	}
	return v.strs[0], nil
}

func (v Value) AsRgb() (Rgb, error) {
	if err := v.expect(TypeRgb); err != nil {
		return Rgb{}, err
	}
	f := v.floats
	return Rgb{float32(f[0]), float32(f[1]), float32(f[2])}, nil
}

func (v Value) AsRgba() (Rgba, error) {
	if err := v.expect(TypeRgba); err != nil {
		return Rgba{}, err
	}
	f := v.floats
	return Rgba{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}, nil
}

func (v Value) AsVec2f() (Vec2f, error) {
	if err := v.expect(TypeVec2f); err != nil {
		return Vec2f{}, err
	}
	return Vec2f{float32(v.floats[0]), float32(v.floats[1])}, nil
}

func (v Value) AsVec2d() (Vec2d, error) {
	if err := v.expect(TypeVec2d); err != nil {
		return Vec2d{}, err
	}
	return Vec2d{v.floats[0], v.floats[1]}, nil
}

func (v Value) AsVec3f() (Vec3f, error) {
	if err := v.expect(TypeVec3f); err != nil {
		return Vec3f{}, err
	}
	f := v.floats
	return Vec3f{float32(f[0]), float32(f[1]), float32(f[2])}, nil
}

func (v Value) AsVec3d() (Vec3d, error) {
	if err := v.expect(TypeVec3d); err != nil {
		return Vec3d{}, err
	}
	return Vec3d{v.floats[0], v.floats[1], v.floats[2]}, nil
}

func (v Value) AsVec4f() (Vec4f, error) {
	if err := v.expect(TypeVec4f); err != nil {
		return Vec4f{}, err
	}
	f := v.floats
	return Vec4f{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}, nil
}

func (v Value) AsVec4d() (Vec4d, error) {
	if err := v.expect(TypeVec4d); err != nil {
		return Vec4d{}, err
	}
	f := v.floats
	return Vec4d{f[0], f[1], f[2], f[3]}, nil
}

func (v Value) AsMat4f() (Mat4f, error) {
	var m Mat4f
	if err := v.expect(TypeMat4f); err != nil {
		return m, err
	}
	for i, f := range v.floats {
		m[i] = float32(f)
	}
	return m, nil
}

func (v Value) AsMat4d() (Mat4d, error) {
	var m Mat4d
	if err := v.expect(TypeMat4d); err != nil {
		return m, err
	}
	copy(m[:], v.floats)
	return m, nil
}

// AsSceneObject returns the referenced object, which may be nil.
func (v Value) AsSceneObject() (*SceneObject, error) {
	if err := v.expect(TypeSceneObject); err != nil {
		return nil, err
	}
	return v.objs[0], nil
}

func (v Value) AsBoolVector() ([]bool, error) {
	if err := v.expect(TypeBoolVector); err != nil {
		return nil, err
	}
	return slices.Clone(v.bools), nil
}

func (v Value) AsIntVector() ([]int32, error) {
	if err := v.expect(TypeIntVector); err != nil {
		return nil, err
	}
	out := make([]int32, len(v.ints))
	for i, n := range v.ints {
		out[i] = int32(n)
	}
	return out, nil
}

func (v Value) AsLongVector() ([]int64, error) {
	if err := v.expect(TypeLongVector); err != nil {
		return nil, err
	}
	return slices.Clone(v.ints), nil
}

func (v Value) AsFloatVector() ([]float32, error) {
	if err := v.expect(TypeFloatVector); err != nil {
		return nil, err
	}
	out := make([]float32, len(v.floats))
	for i, f := range v.floats {
		out[i] = float32(f)
	}
	return out, nil
}

func (v Value) AsDoubleVector() ([]float64, error) {
	if err := v.expect(TypeDoubleVector); err != nil {
		return nil, err
	}
	return slices.Clone(v.floats), nil
}

func (v Value) AsStringVector() ([]string, error) {
	if err := v.expect(TypeStringVector); err != nil {
		return nil, err
	}
	return slices.Clone(v.strs), nil
}

func (v Value) AsRgbVector() ([]Rgb, error) {
	if err := v.expect(TypeRgbVector); err != nil {
		return nil, err
	}
	out := make([]Rgb, 0, v.Len())
	for i := 0; i+2 < len(v.floats); i += 3 {
		f := v.floats[i:]
		out = append(out, Rgb{float32(f[0]), float32(f[1]), float32(f[2])})
	}
	return out, nil
}

func (v Value) AsVec2fVector() ([]Vec2f, error) {
	if err := v.expect(TypeVec2fVector); err != nil {
		return nil, err
	}
	out := make([]Vec2f, 0, v.Len())
	for i := 0; i+1 < len(v.floats); i += 2 {
		out = append(out, Vec2f{float32(v.floats[i]), float32(v.floats[i+1])})
	}
	return out, nil
}

func (v Value) AsVec3fVector() ([]Vec3f, error) {
	if err := v.expect(TypeVec3fVector); err != nil {
		return nil, err
	}
	out := make([]Vec3f, 0, v.Len())
	for i := 0; i+2 < len(v.floats); i += 3 {
		f := v.floats[i:]
		out = append(out, Vec3f{float32(f[0]), float32(f[1]), float32(f[2])})
	}
	return out, nil
}

func (v Value) AsMat4fVector() ([]Mat4f, error) {
	if err := v.expect(TypeMat4fVector); err != nil {
		return nil, err
	}
	out := make([]Mat4f, v.Len())
	for i := range out {
		for j := 0; j < 16; j++ {
			out[i][j] = float32(v.floats[i*16+j])
		}
	}
	return out, nil
}

// AsSceneObjectVector returns the references of a SceneObjectVector or
// SceneObjectIndexable value.
func (v Value) AsSceneObjectVector() ([]*SceneObject, error) {
	if v.typ != TypeSceneObjectVector && v.typ != TypeSceneObjectIndexable {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, TypeSceneObjectVector, v.typ)
	}
	return slices.Clone(v.objs), nil
}

// ============================================================
// Comparison and copying
// ============================================================

// Equal reports whether both values have the same kind and payload.
// Object references compare by identity.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ &&
		slices.Equal(v.bools, o.bools) &&
		slices.Equal(v.ints, o.ints) &&
		slices.Equal(v.floats, o.floats) &&
		slices.Equal(v.strs, o.strs) &&
		slices.Equal(v.objs, o.objs)
}

// Clone returns a copy that shares no storage with v.
func (v Value) Clone() Value {
	return Value{
		typ:    v.typ,
		bools:  slices.Clone(v.bools),
		ints:   slices.Clone(v.ints),
		floats: slices.Clone(v.floats),
		strs:   slices.Clone(v.strs),
		objs:   slices.Clone(v.objs),
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	var sb strings.Builder
	sb.WriteString(v.typ.String())
	sb.WriteByte('(')
	switch v.typ.Category() {
	case CategoryBool:
		for i, b := range v.bools {
			writeSep(&sb, i)
			sb.WriteString(strconv.FormatBool(b))
		}
	case CategoryInt:
		for i, n := range v.ints {
			writeSep(&sb, i)
			sb.WriteString(strconv.FormatInt(n, 10))
		}
	case CategoryFloat:
		for i, f := range v.floats {
			writeSep(&sb, i)
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
	case CategoryString:
		for i, s := range v.strs {
			writeSep(&sb, i)
			sb.WriteString(strconv.Quote(s))
		}
	case CategoryObject:
		for i, o := range v.objs {
			writeSep(&sb, i)
			if o == nil {
				sb.WriteString("null")
			} else {
				sb.WriteString(strconv.Quote(o.Name()))
			}
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func writeSep(sb *strings.Builder, i int) {
	if i > 0 {
		sb.WriteString(", ")
	}
}
