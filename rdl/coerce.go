package rdl

import (
	"fmt"
	"math"
)

// Coerce converts v to type t where no information is lost in kind:
// numbers widen between the int and float categories (floats narrow to
// ints only when integral), float kinds convert between precisions and
// shapes with the same component count (a three element DoubleVector
// becomes a Vec3f), and object vectors convert between
// SceneObjectVector and SceneObjectIndexable. An untyped empty value
// becomes the empty vector of t. A component that does not fit the
// range of t, and anything else, is ErrTypeMismatch.
func Coerce(v Value, t AttributeType) (Value, error) {
	if v.typ == t {
		return v, nil
	}
	fail := func() (Value, error) {
		return Value{}, fmt.Errorf("%w: cannot convert %s to %s", ErrTypeMismatch, v.typ, t)
	}
	if !t.Valid() {
		return fail()
	}
	if !v.typ.Valid() {
		if t.IsVector() && v.Len() == 0 {
			return Zero(t), nil
		}
		return fail()
	}
	if v.typ.IsVector() != t.IsVector() {
		// Only a sequence of primitives can become one multi-component
		// scalar.
		if t.IsVector() || t.Stride() == 1 {
			return fail()
		}
	}

	src, dst := v.typ.Category(), t.Category()
	switch {
	case src == dst && src == CategoryFloat:
		return ValueFromFloats(t, v.floats)
	case src == CategoryInt && dst == CategoryFloat:
		fs := make([]float64, len(v.ints))
		for i, n := range v.ints {
			fs[i] = float64(n)
		}
		return ValueFromFloats(t, fs)
	case src == CategoryFloat && dst == CategoryInt:
		ns := make([]int64, len(v.floats))
		for i, f := range v.floats {
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fail()
			}
			ns[i] = int64(f)
		}
		return ValueFromInts(t, ns)
	case src == dst && src == CategoryInt:
		return ValueFromInts(t, v.ints)
	case src == dst && src == CategoryObject && v.typ.IsVector():
		return ValueFromObjects(t, v.objs)
	}
	return fail()
}
