package rdl

import (
	"fmt"
	"strings"
)

// Rate classifies how a user data channel maps onto a primitive.
type Rate int32

const (
	RateAuto Rate = iota
	RateConstant
	RatePart
	RateUniform
	RateVertex
	RateVarying
	RateFaceVarying
)

var rateNames = [...]string{"AUTO", "CONSTANT", "PART", "UNIFORM", "VERTEX", "VARYING", "FACE_VARYING"}

func (r Rate) String() string {
	if r >= 0 && int(r) < len(rateNames) {
		return rateNames[r]
	}
	return fmt.Sprintf("Rate(%d)", int32(r))
}

// ParseRate accepts the upper or lower case rate name.
func ParseRate(s string) (Rate, bool) {
	for i, n := range rateNames {
		if strings.EqualFold(n, s) {
			return Rate(i), true
		}
	}
	return RateAuto, false
}

// A user data channel is a key plus one value vector, or two for the
// motion blurred kinds.
type userDataChannel struct {
	kind string
	typ  AttributeType
	dual bool
}

var userDataChannels = []userDataChannel{
	{"bool", TypeBoolVector, false},
	{"int", TypeIntVector, false},
	{"string", TypeStringVector, false},
	{"float", TypeFloatVector, true},
	{"color", TypeRgbVector, true},
	{"vec2f", TypeVec2fVector, true},
	{"vec3f", TypeVec3fVector, true},
	{"mat4f", TypeMat4fVector, true},
}

const attrRate = "rate"

func (c userDataChannel) keyAttr() string { return c.kind + "_key" }

func (c userDataChannel) valuesAttr(step int) string {
	if !c.dual {
		return c.kind + "_values"
	}
	return fmt.Sprintf("%s_values_%d", c.kind, step)
}

func declareUserData(b *ClassBuilder) {
	opts := []AttrOption{WithDefault(IntValue(int32(RateAuto)))}
	for i, n := range rateNames {
		opts = append(opts, WithEnum(int32(i), n))
	}
	b.Declare(attrRate, TypeInt, opts...)
	for _, c := range userDataChannels {
		b.Declare(c.keyAttr(), TypeString, WithGroup(c.kind))
		b.Declare(c.valuesAttr(0), c.typ, WithGroup(c.kind))
		if c.dual {
			b.Declare(c.valuesAttr(1), c.typ, WithGroup(c.kind))
		}
	}
}

func channelOf(kind string) userDataChannel {
	for _, c := range userDataChannels {
		if c.kind == kind {
			return c
		}
	}
	panic("rdl: unknown user data channel " + kind)
}

// UserData is a container of independent typed data channels.
type UserData struct{ *SceneObject }

func (u *UserData) Rate() Rate { return Rate(u.intAttr(attrRate)) }

func (u *UserData) SetRate(r Rate) error { return u.Set(attrRate, IntValue(int32(r))) }

// setChannel replaces a channel. A second step must have as many
// elements as the first; on failure the channel is left unchanged.
func (u *UserData) setChannel(kind, key string, v0 Value, v1 []Value) error {
	c := channelOf(kind)
	if len(v1) > 1 {
		return fmt.Errorf("%w: %s data takes at most two timesteps", ErrInvalidKey, kind)
	}
	if len(v1) == 1 && v1[0].Len() != v0.Len() {
		return fmt.Errorf("%w: %s data step 1 has %d elements, step 0 has %d",
			ErrLengthMismatch, kind, v1[0].Len(), v0.Len())
	}
	guard := u.UpdateGuard()
	defer guard.Close()
	if err := u.Set(c.keyAttr(), StringValue(key)); err != nil {
		return err
	}
	if err := u.Set(c.valuesAttr(0), v0); err != nil {
		return err
	}
	if !c.dual {
		return nil
	}
	step1 := Zero(c.typ)
	if len(v1) == 1 {
		step1 = v1[0]
	}
	return u.Set(c.valuesAttr(1), step1)
}

// clearChannel removes the key and data of a channel.
func (u *UserData) clearChannel(kind string) {
	c := channelOf(kind)
	guard := u.UpdateGuard()
	defer guard.Close()
	_ = u.Set(c.keyAttr(), StringValue(""))
	_ = u.Set(c.valuesAttr(0), Zero(c.typ))
	if c.dual {
		_ = u.Set(c.valuesAttr(1), Zero(c.typ))
	}
}

func (u *UserData) channelKey(kind string) string {
	return u.stringAttr(channelOf(kind).keyAttr())
}

func (u *UserData) hasChannel(kind string, step int) bool {
	c := channelOf(kind)
	if u.channelKey(kind) == "" {
		return false
	}
	v, err := u.Get(c.valuesAttr(step))
	return err == nil && v.Len() > 0
}

func (u *UserData) channelValues(kind string, step int) Value {
	v, _ := u.Get(channelOf(kind).valuesAttr(step))
	return v
}

// HasData reports whether any channel holds data.
func (u *UserData) HasData() bool {
	for _, c := range userDataChannels {
		if u.hasChannel(c.kind, 0) {
			return true
		}
	}
	return false
}

// ============================================================
// Single step channels
// ============================================================

func (u *UserData) SetBoolData(key string, values []bool) error {
	return u.setChannel("bool", key, BoolVectorValue(values), nil)
}

func (u *UserData) HasBoolData() bool { return u.hasChannel("bool", 0) }
func (u *UserData) BoolKey() string   { return u.channelKey("bool") }
func (u *UserData) ClearBoolData()    { u.clearChannel("bool") }

func (u *UserData) BoolValues() []bool {
	vs, _ := u.channelValues("bool", 0).AsBoolVector()
	return vs
}

func (u *UserData) SetIntData(key string, values []int32) error {
	return u.setChannel("int", key, IntVectorValue(values), nil)
}

func (u *UserData) HasIntData() bool { return u.hasChannel("int", 0) }
func (u *UserData) IntKey() string   { return u.channelKey("int") }
func (u *UserData) ClearIntData()    { u.clearChannel("int") }

func (u *UserData) IntValues() []int32 {
	vs, _ := u.channelValues("int", 0).AsIntVector()
	return vs
}

func (u *UserData) SetStringData(key string, values []string) error {
	return u.setChannel("string", key, StringVectorValue(values), nil)
}

func (u *UserData) HasStringData() bool { return u.hasChannel("string", 0) }
func (u *UserData) StringKey() string   { return u.channelKey("string") }
func (u *UserData) ClearStringData()    { u.clearChannel("string") }

func (u *UserData) StringValues() []string {
	vs, _ := u.channelValues("string", 0).AsStringVector()
	return vs
}

// ============================================================
// Motion blurred channels
// ============================================================

// SetFloatData sets the float channel. An optional second slice holds
// the TimestepEnd samples.
func (u *UserData) SetFloatData(key string, values0 []float32, values1 ...[]float32) error {
	return u.setChannel("float", key, FloatVectorValue(values0), mapValues(values1, FloatVectorValue))
}

func (u *UserData) HasFloatData() bool  { return u.hasChannel("float", 0) }
func (u *UserData) HasFloatData0() bool { return u.hasChannel("float", 0) }
func (u *UserData) HasFloatData1() bool { return u.hasChannel("float", 1) }
func (u *UserData) FloatKey() string    { return u.channelKey("float") }
func (u *UserData) ClearFloatData()     { u.clearChannel("float") }

func (u *UserData) FloatValues() []float32 { return u.FloatValues0() }

func (u *UserData) FloatValues0() []float32 {
	vs, _ := u.channelValues("float", 0).AsFloatVector()
	return vs
}

func (u *UserData) FloatValues1() []float32 {
	vs, _ := u.channelValues("float", 1).AsFloatVector()
	return vs
}

func (u *UserData) SetColorData(key string, values0 []Rgb, values1 ...[]Rgb) error {
	return u.setChannel("color", key, RgbVectorValue(values0), mapValues(values1, RgbVectorValue))
}

func (u *UserData) HasColorData() bool  { return u.hasChannel("color", 0) }
func (u *UserData) HasColorData0() bool { return u.hasChannel("color", 0) }
func (u *UserData) HasColorData1() bool { return u.hasChannel("color", 1) }
func (u *UserData) ColorKey() string    { return u.channelKey("color") }
func (u *UserData) ClearColorData()     { u.clearChannel("color") }

func (u *UserData) ColorValues() []Rgb { return u.ColorValues0() }

func (u *UserData) ColorValues0() []Rgb {
	vs, _ := u.channelValues("color", 0).AsRgbVector()
	return vs
}

func (u *UserData) ColorValues1() []Rgb {
	vs, _ := u.channelValues("color", 1).AsRgbVector()
	return vs
}

func (u *UserData) SetVec2fData(key string, values0 []Vec2f, values1 ...[]Vec2f) error {
	return u.setChannel("vec2f", key, Vec2fVectorValue(values0), mapValues(values1, Vec2fVectorValue))
}

func (u *UserData) HasVec2fData() bool  { return u.hasChannel("vec2f", 0) }
func (u *UserData) HasVec2fData0() bool { return u.hasChannel("vec2f", 0) }
func (u *UserData) HasVec2fData1() bool { return u.hasChannel("vec2f", 1) }
func (u *UserData) Vec2fKey() string    { return u.channelKey("vec2f") }
func (u *UserData) ClearVec2fData()     { u.clearChannel("vec2f") }

func (u *UserData) Vec2fValues() []Vec2f { return u.Vec2fValues0() }

func (u *UserData) Vec2fValues0() []Vec2f {
	vs, _ := u.channelValues("vec2f", 0).AsVec2fVector()
	return vs
}

func (u *UserData) Vec2fValues1() []Vec2f {
	vs, _ := u.channelValues("vec2f", 1).AsVec2fVector()
	return vs
}

func (u *UserData) SetVec3fData(key string, values0 []Vec3f, values1 ...[]Vec3f) error {
	return u.setChannel("vec3f", key, Vec3fVectorValue(values0), mapValues(values1, Vec3fVectorValue))
}

func (u *UserData) HasVec3fData() bool  { return u.hasChannel("vec3f", 0) }
func (u *UserData) HasVec3fData0() bool { return u.hasChannel("vec3f", 0) }
func (u *UserData) HasVec3fData1() bool { return u.hasChannel("vec3f", 1) }
func (u *UserData) Vec3fKey() string    { return u.channelKey("vec3f") }
func (u *UserData) ClearVec3fData()     { u.clearChannel("vec3f") }

func (u *UserData) Vec3fValues() []Vec3f { return u.Vec3fValues0() }

func (u *UserData) Vec3fValues0() []Vec3f {
	vs, _ := u.channelValues("vec3f", 0).AsVec3fVector()
	return vs
}

func (u *UserData) Vec3fValues1() []Vec3f {
	vs, _ := u.channelValues("vec3f", 1).AsVec3fVector()
	return vs
}

func (u *UserData) SetMat4fData(key string, values0 []Mat4f, values1 ...[]Mat4f) error {
	return u.setChannel("mat4f", key, Mat4fVectorValue(values0), mapValues(values1, Mat4fVectorValue))
}

func (u *UserData) HasMat4fData() bool  { return u.hasChannel("mat4f", 0) }
func (u *UserData) HasMat4fData0() bool { return u.hasChannel("mat4f", 0) }
func (u *UserData) HasMat4fData1() bool { return u.hasChannel("mat4f", 1) }
func (u *UserData) Mat4fKey() string    { return u.channelKey("mat4f") }
func (u *UserData) ClearMat4fData()     { u.clearChannel("mat4f") }

func (u *UserData) Mat4fValues() []Mat4f { return u.Mat4fValues0() }

func (u *UserData) Mat4fValues0() []Mat4f {
	vs, _ := u.channelValues("mat4f", 0).AsMat4fVector()
	return vs
}

func (u *UserData) Mat4fValues1() []Mat4f {
	vs, _ := u.channelValues("mat4f", 1).AsMat4fVector()
	return vs
}

func mapValues[T any](in [][]T, mk func([]T) Value) []Value {
	out := make([]Value, len(in))
	for i, v := range in {
		out[i] = mk(v)
	}
	return out
}
