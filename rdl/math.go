package rdl

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// Epsilon is the default tolerance of the ApproxEqual helpers.
const Epsilon = 1e-5

// Rgb is a three channel color.
type Rgb struct{ R, G, B float32 }

// Rgba is a color with alpha.
type Rgba struct{ R, G, B, A float32 }

type Vec2f struct{ X, Y float32 }
type Vec2d struct{ X, Y float64 }
type Vec3f struct{ X, Y, Z float32 }
type Vec3d struct{ X, Y, Z float64 }
type Vec4f struct{ X, Y, Z, W float32 }
type Vec4d struct{ X, Y, Z, W float64 }

// Mat4f is a row-major 4x4 matrix; row 3 holds the translation.
type Mat4f [16]float32

// Mat4d is a row-major 4x4 matrix; row 3 holds the translation.
type Mat4d [16]float64

func checkLen(kind string, want, got int) error {
	if want != got {
		return fmt.Errorf("%w: %s requires %d elements, got %d", ErrLengthMismatch, kind, want, got)
	}
	return nil
}

// ============================================================
// Construction from sequences
// ============================================================

// RgbFrom builds an Rgb from exactly three components.
func RgbFrom(s []float32) (Rgb, error) {
	if err := checkLen("Rgb", 3, len(s)); err != nil {
		return Rgb{}, err
	}
	return Rgb{s[0], s[1], s[2]}, nil
}

// RgbaFrom builds an Rgba from exactly four components.
func RgbaFrom(s []float32) (Rgba, error) {
	if err := checkLen("Rgba", 4, len(s)); err != nil {
		return Rgba{}, err
	}
	return Rgba{s[0], s[1], s[2], s[3]}, nil
}

func Vec2fFrom(s []float32) (Vec2f, error) {
	if err := checkLen("Vec2f", 2, len(s)); err != nil {
		return Vec2f{}, err
	}
	return Vec2f{s[0], s[1]}, nil
}

func Vec2dFrom(s []float64) (Vec2d, error) {
	if err := checkLen("Vec2d", 2, len(s)); err != nil {
		return Vec2d{}, err
	}
	return Vec2d{s[0], s[1]}, nil
}

func Vec3fFrom(s []float32) (Vec3f, error) {
	if err := checkLen("Vec3f", 3, len(s)); err != nil {
		return Vec3f{}, err
	}
	return Vec3f{s[0], s[1], s[2]}, nil
}

func Vec3dFrom(s []float64) (Vec3d, error) {
	if err := checkLen("Vec3d", 3, len(s)); err != nil {
		return Vec3d{}, err
	}
	return Vec3d{s[0], s[1], s[2]}, nil
}

func Vec4fFrom(s []float32) (Vec4f, error) {
	if err := checkLen("Vec4f", 4, len(s)); err != nil {
		return Vec4f{}, err
	}
	return Vec4f{s[0], s[1], s[2], s[3]}, nil
}

func Vec4dFrom(s []float64) (Vec4d, error) {
	if err := checkLen("Vec4d", 4, len(s)); err != nil {
		return Vec4d{}, err
	}
	return Vec4d{s[0], s[1], s[2], s[3]}, nil
}

// Mat4fFrom builds a matrix from 16 row-major components.
func Mat4fFrom(s []float32) (Mat4f, error) {
	var m Mat4f
	if err := checkLen("Mat4f", 16, len(s)); err != nil {
		return m, err
	}
	copy(m[:], s)
	return m, nil
}

// Mat4dFrom builds a matrix from 16 row-major components.
func Mat4dFrom(s []float64) (Mat4d, error) {
	var m Mat4d
	if err := checkLen("Mat4d", 16, len(s)); err != nil {
		return m, err
	}
	copy(m[:], s)
	return m, nil
}

// ============================================================
// Matrix helpers
// ============================================================

// Mat4dIdentity returns the identity matrix.
func Mat4dIdentity() Mat4d {
	return Mat4d{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mat4fIdentity returns the identity matrix.
func Mat4fIdentity() Mat4f {
	return Mat4f{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Translate returns a translation matrix.
func Translate(x, y, z float64) Mat4d {
	m := Mat4dIdentity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Mul returns m*o using row vectors (apply m first, then o).
func (m Mat4d) Mul(o Mat4d) Mat4d {
	var r Mat4d
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*4+j]
			}
			r[i*4+j] = sum
		}
	}
	return r
}

// Translation returns the translation row.
func (m Mat4d) Translation() Vec3d {
	return Vec3d{m[12], m[13], m[14]}
}

// ToMat4f narrows every component to float32.
func (m Mat4d) ToMat4f() Mat4f {
	var r Mat4f
	for i, v := range m {
		r[i] = float32(v)
	}
	return r
}

// ToMat4d widens every component to float64.
func (m Mat4f) ToMat4d() Mat4d {
	var r Mat4d
	for i, v := range m {
		r[i] = float64(v)
	}
	return r
}

// ApproxEqual compares component-wise within Epsilon.
func (m Mat4d) ApproxEqual(o Mat4d) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > Epsilon {
			return false
		}
	}
	return true
}

// ApproxEqual compares component-wise within Epsilon.
func (m Mat4f) ApproxEqual(o Mat4f) bool {
	return approxEqual32(m[:], o[:])
}

// ============================================================
// Vector helpers
// ============================================================

func (v Vec3f) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3f) ApproxEqual(o Vec3f) bool {
	return approxEqual32([]float32{v.X, v.Y, v.Z}, []float32{o.X, o.Y, o.Z})
}

func (c Rgb) ApproxEqual(o Rgb) bool {
	return approxEqual32([]float32{c.R, c.G, c.B}, []float32{o.R, o.G, o.B})
}

func (c Rgba) ApproxEqual(o Rgba) bool {
	return approxEqual32([]float32{c.R, c.G, c.B, c.A}, []float32{o.R, o.G, o.B, o.A})
}

func approxEqual32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math32.Abs(a[i]-b[i]) > Epsilon {
			return false
		}
	}
	return true
}

func (c Rgb) String() string   { return fmt.Sprintf("Rgb(%g, %g, %g)", c.R, c.G, c.B) }
func (c Rgba) String() string  { return fmt.Sprintf("Rgba(%g, %g, %g, %g)", c.R, c.G, c.B, c.A) }
func (v Vec2f) String() string { return fmt.Sprintf("Vec2f(%g, %g)", v.X, v.Y) }
func (v Vec3f) String() string { return fmt.Sprintf("Vec3f(%g, %g, %g)", v.X, v.Y, v.Z) }
func (v Vec4f) String() string { return fmt.Sprintf("Vec4f(%g, %g, %g, %g)", v.X, v.Y, v.Z, v.W) }
