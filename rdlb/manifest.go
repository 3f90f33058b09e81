package rdlb

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Neumenon/rdl2/rdl"
)

// boundBit marks a bound attribute in the mask byte of an entry.
const boundBit uint8 = 0x80

// MarshalBinary encodes the manifest:
//
//	"RDLB" version flags
//	count { class-name count { attribute-name } }
//	count { class-name class-hash[16] name entry-flags count { index type mask offset length } }
//	count { stored raw crc32 }
//	crc32 of everything above
//
// Counts, indices, offsets and lengths are unsigned varints; strings are
// length-prefixed; fixed-width integers are little-endian.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64+32*len(m.Objects))
	buf = append(buf, Magic...)
	buf = append(buf, m.Version, byte(m.Flags))

	buf = binary.AppendUvarint(buf, uint64(len(m.Classes)))
	for _, c := range m.Classes {
		buf = appendString(buf, c.Name)
		buf = binary.AppendUvarint(buf, uint64(len(c.Attributes)))
		for _, a := range c.Attributes {
			buf = appendString(buf, a)
		}
	}

	buf = binary.AppendUvarint(buf, uint64(len(m.Objects)))
	for _, o := range m.Objects {
		buf = appendString(buf, o.ClassName)
		buf = append(buf, o.ClassHash[:]...)
		buf = appendString(buf, o.Name)
		var flags uint8
		if o.Defined {
			flags |= objectDefined
		}
		buf = append(buf, flags)
		buf = binary.AppendUvarint(buf, uint64(len(o.Attributes)))
		for _, a := range o.Attributes {
			buf = binary.AppendUvarint(buf, uint64(a.Index))
			buf = append(buf, byte(a.Type))
			mask := a.Mask
			if a.Bound {
				mask |= boundBit
			}
			buf = append(buf, mask)
			buf = binary.AppendUvarint(buf, a.Offset)
			buf = binary.AppendUvarint(buf, a.Length)
		}
	}

	buf = binary.AppendUvarint(buf, uint64(len(m.Chunks)))
	for _, c := range m.Chunks {
		buf = binary.AppendUvarint(buf, c.Stored)
		buf = binary.AppendUvarint(buf, c.Raw)
		buf = binary.LittleEndian.AppendUint32(buf, c.CRC)
	}

	buf = binary.LittleEndian.AppendUint32(buf, ComputeCRC(buf))
	return buf, nil
}

// UnmarshalBinary decodes a manifest. Errors are *FormatError with the
// offset of the malformed field, or *CRCMismatchError (Chunk -1) when
// the trailing checksum does not match.
func (m *Manifest) UnmarshalBinary(data []byte) error {
	if len(data) < len(Magic)+2+4 {
		return &FormatError{Reason: "manifest too short", Offset: 0}
	}
	if len(data) > MaxSectionSize {
		return &FormatError{Reason: fmt.Sprintf("manifest too large: %d bytes", len(data)), Offset: -1}
	}
	if string(data[:len(Magic)]) != Magic {
		return &FormatError{Reason: "invalid manifest magic", Offset: 0}
	}
	body := data[:len(data)-4]
	stored := binary.LittleEndian.Uint32(data[len(data)-4:])
	if got := ComputeCRC(body); got != stored {
		return &CRCMismatchError{Chunk: -1, Expected: stored, Got: got}
	}

	d := &decoder{buf: body, off: len(Magic)}
	version, _ := d.readByte()
	if version != Version {
		return &FormatError{Reason: fmt.Sprintf("unsupported version %d", version), Offset: d.off - 1}
	}
	flags, _ := d.readByte()
	*m = Manifest{Version: version, Flags: Flags(flags)}

	n, err := d.readCount()
	if err != nil {
		return err
	}
	m.Classes = make([]ClassLayout, n)
	for i := range m.Classes {
		if err := d.readClassLayout(&m.Classes[i]); err != nil {
			return err
		}
	}

	n, err = d.readCount()
	if err != nil {
		return err
	}
	m.Objects = make([]ObjectEntry, n)
	for i := range m.Objects {
		if err := d.readObjectEntry(&m.Objects[i]); err != nil {
			return err
		}
	}

	n, err = d.readCount()
	if err != nil {
		return err
	}
	m.Chunks = make([]ChunkEntry, n)
	var storedSum, raw uint64
	for i := range m.Chunks {
		c := &m.Chunks[i]
		if c.Stored, err = d.readUvarint(); err != nil {
			return err
		}
		if c.Raw, err = d.readUvarint(); err != nil {
			return err
		}
		if c.Stored > MaxSectionSize-storedSum || c.Raw > MaxSectionSize-raw {
			return d.fail("chunk %d exceeds the payload size limit", i)
		}
		storedSum += c.Stored
		raw += c.Raw
		if c.CRC, err = d.readUint32(); err != nil {
			return err
		}
	}
	if d.remaining() != 0 {
		return d.fail("%d trailing bytes", d.remaining())
	}
	return m.checkLayouts()
}

// checkLayouts verifies that every attribute entry of a defined object
// names an attribute of its class layout.
func (m *Manifest) checkLayouts() error {
	for _, o := range m.Objects {
		if !o.Defined {
			continue
		}
		l := m.Layout(o.ClassName)
		if l == nil {
			return &FormatError{Reason: fmt.Sprintf("no layout for class %s of %q", o.ClassName, o.Name), Offset: -1}
		}
		for _, a := range o.Attributes {
			if int(a.Index) >= len(l.Attributes) {
				return &FormatError{
					Reason: fmt.Sprintf("attribute #%d of %q is outside the %s layout", a.Index, o.Name, o.ClassName),
					Offset: -1,
				}
			}
		}
	}
	return nil
}

func (d *decoder) readClassLayout(c *ClassLayout) error {
	var err error
	if c.Name, err = d.readString(); err != nil {
		return err
	}
	n, err := d.readCount()
	if err != nil {
		return err
	}
	c.Attributes = make([]string, n)
	for i := range c.Attributes {
		if c.Attributes[i], err = d.readString(); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readObjectEntry(o *ObjectEntry) error {
	var err error
	if o.ClassName, err = d.readString(); err != nil {
		return err
	}
	hash, err := d.readBytes(len(o.ClassHash))
	if err != nil {
		return err
	}
	copy(o.ClassHash[:], hash)
	if o.Name, err = d.readString(); err != nil {
		return err
	}
	flags, err := d.readByte()
	if err != nil {
		return err
	}
	o.Defined = flags&objectDefined != 0

	n, err := d.readCount()
	if err != nil {
		return err
	}
	o.Attributes = make([]AttributeEntry, n)
	for i := range o.Attributes {
		a := &o.Attributes[i]
		idx, err := d.readUvarint()
		if err != nil {
			return err
		}
		if idx > 1<<31 {
			return d.fail("attribute index %d out of range", idx)
		}
		a.Index = uint32(idx)
		typ, err := d.readByte()
		if err != nil {
			return err
		}
		a.Type = rdl.AttributeType(typ)
		if !a.Type.Valid() {
			return d.fail("invalid attribute type %d", typ)
		}
		mask, err := d.readByte()
		if err != nil {
			return err
		}
		a.Bound = mask&boundBit != 0
		a.Mask = mask &^ boundBit
		if a.Mask&^(maskBegin|maskEnd) != 0 {
			return d.fail("invalid timestep mask %#x", mask)
		}
		if a.Offset, err = d.readUvarint(); err != nil {
			return err
		}
		if a.Length, err = d.readUvarint(); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Show
// ============================================================

// ShowManifest renders a human-readable summary of an encoded manifest.
// It never needs the payload.
func ShowManifest(manifest []byte) (string, error) {
	var m Manifest
	if err := m.UnmarshalBinary(manifest); err != nil {
		return "", err
	}
	return m.String(), nil
}

// String renders the manifest summary.
func (m *Manifest) String() string {
	var sb strings.Builder
	defined := 0
	for _, o := range m.Objects {
		if o.Defined {
			defined++
		}
	}
	fmt.Fprintf(&sb, "rdlb v%d flags=%s\n", m.Version, m.Flags)
	fmt.Fprintf(&sb, "classes: %d\n", len(m.Classes))
	for _, c := range m.Classes {
		fmt.Fprintf(&sb, "  %s attributes=%d\n", c.Name, len(c.Attributes))
	}
	fmt.Fprintf(&sb, "objects: %d (%d defined)\n", len(m.Objects), defined)
	for i, o := range m.Objects {
		fmt.Fprintf(&sb, "  #%d %s %q class-hash=%s", i, o.ClassName, o.Name, HashToHex(o.ClassHash)[:12])
		if !o.Defined {
			sb.WriteString(" (reference)\n")
			continue
		}
		fmt.Fprintf(&sb, " attributes=%d\n", len(o.Attributes))
		for _, a := range o.Attributes {
			fmt.Fprintf(&sb, "    [%d] %s %s offset=%d length=%d", a.Index, a.Type, maskString(a.Mask), a.Offset, a.Length)
			if a.Bound {
				sb.WriteString(" bound")
			}
			sb.WriteByte('\n')
		}
	}
	fmt.Fprintf(&sb, "chunks: %d (%d bytes)\n", len(m.Chunks), m.PayloadSize())
	for i, c := range m.Chunks {
		fmt.Fprintf(&sb, "  #%d stored=%d raw=%d crc=%08x\n", i, c.Stored, c.Raw, c.CRC)
	}
	return sb.String()
}

func maskString(mask uint8) string {
	switch mask {
	case maskBegin:
		return "begin"
	case maskEnd:
		return "end"
	case maskBegin | maskEnd:
		return "begin,end"
	default:
		return "-"
	}
}
