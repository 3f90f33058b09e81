package rdlb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Neumenon/rdl2/rdl"
)

// ============================================================
// Value encoding
// ============================================================

// appendValue encodes v. Vectors are prefixed with their element count;
// scalars are their components alone. Ints are zigzag varints, floats
// are little-endian IEEE at the type's precision, strings are
// length-prefixed and object references are table index + 1, zero for
// null.
func appendValue(buf []byte, v rdl.Value, index func(*rdl.SceneObject) uint64) []byte {
	t := v.Type()
	if t.IsVector() {
		buf = binary.AppendUvarint(buf, uint64(v.Len()))
	}
	switch t.Category() {
	case rdl.CategoryBool:
		for _, b := range v.Bools() {
			if b {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	case rdl.CategoryInt:
		for _, n := range v.Ints() {
			buf = binary.AppendVarint(buf, n)
		}
	case rdl.CategoryFloat:
		single := t.SinglePrecision()
		for _, f := range v.Floats() {
			if single {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(f)))
			} else {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
			}
		}
	case rdl.CategoryString:
		for _, s := range v.Strings() {
			buf = appendString(buf, s)
		}
	case rdl.CategoryObject:
		for _, o := range v.Objects() {
			buf = binary.AppendUvarint(buf, index(o))
		}
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// decodeValue reads a value of type t. Object references resolve
// through objects; a reference to an unresolved entry decodes as null.
func decodeValue(d *decoder, t rdl.AttributeType, objects []*rdl.SceneObject) (rdl.Value, error) {
	n := 1
	if t.IsVector() {
		count, err := d.readCount()
		if err != nil {
			return rdl.Value{}, err
		}
		n = count
	}
	comps := n * t.Stride()
	if comps > d.remaining() {
		return rdl.Value{}, d.fail("%s of %d elements overruns the payload", t, n)
	}

	switch t.Category() {
	case rdl.CategoryBool:
		raw, err := d.readBytes(comps)
		if err != nil {
			return rdl.Value{}, err
		}
		bs := make([]bool, comps)
		for i, b := range raw {
			if b > 1 {
				return rdl.Value{}, d.fail("invalid bool byte %d", b)
			}
			bs[i] = b == 1
		}
		return rdl.ValueFromBools(t, bs)
	case rdl.CategoryInt:
		ns := make([]int64, comps)
		for i := range ns {
			x, err := d.readVarint()
			if err != nil {
				return rdl.Value{}, err
			}
			ns[i] = x
		}
		v, err := rdl.ValueFromInts(t, ns)
		if err != nil {
			return rdl.Value{}, d.fail("%v", err)
		}
		return v, nil
	case rdl.CategoryFloat:
		fs := make([]float64, comps)
		for i := range fs {
			if t.SinglePrecision() {
				bits, err := d.readUint32()
				if err != nil {
					return rdl.Value{}, err
				}
				fs[i] = float64(math.Float32frombits(bits))
				continue
			}
			bits, err := d.readUint64()
			if err != nil {
				return rdl.Value{}, err
			}
			fs[i] = math.Float64frombits(bits)
		}
		return rdl.ValueFromFloats(t, fs)
	case rdl.CategoryString:
		ss := make([]string, comps)
		for i := range ss {
			s, err := d.readString()
			if err != nil {
				return rdl.Value{}, err
			}
			ss[i] = s
		}
		return rdl.ValueFromStrings(t, ss)
	default:
		objs := make([]*rdl.SceneObject, comps)
		for i := range objs {
			o, err := d.readRef(objects)
			if err != nil {
				return rdl.Value{}, err
			}
			objs[i] = o
		}
		return rdl.ValueFromObjects(t, objs)
	}
}

// ============================================================
// Decoder
// ============================================================

// decoder reads one section. Error offsets are relative to the start of
// the section.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) fail(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...), Offset: d.off}
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) readByte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, d.fail("unexpected end of data")
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, d.fail("truncated data: need %d bytes, have %d", n, d.remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readUvarint() (uint64, error) {
	x, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		return 0, d.fail("malformed varint")
	}
	d.off += n
	return x, nil
}

func (d *decoder) readVarint() (int64, error) {
	x, n := binary.Varint(d.buf[d.off:])
	if n <= 0 {
		return 0, d.fail("malformed varint")
	}
	d.off += n
	return x, nil
}

// readCount reads a length that cannot exceed the bytes left, since
// every counted item takes at least one byte.
func (d *decoder) readCount() (int, error) {
	start := d.off
	x, err := d.readUvarint()
	if err != nil {
		return 0, err
	}
	if x > uint64(d.remaining()) {
		d.off = start
		return 0, d.fail("count %d exceeds the %d bytes left", x, d.remaining())
	}
	return int(x), nil
}

func (d *decoder) readUint32() (uint32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) readUint64() (uint64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readCount()
	if err != nil {
		return "", err
	}
	b, err := d.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) readRef(objects []*rdl.SceneObject) (*rdl.SceneObject, error) {
	start := d.off
	idx, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	if idx > uint64(len(objects)) {
		d.off = start
		return nil, d.fail("object index %d out of range (%d objects)", idx-1, len(objects))
	}
	return objects[idx-1], nil
}
