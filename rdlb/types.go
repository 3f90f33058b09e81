// Package rdlb implements the binary scene format (*.rdlb).
//
// A document has two sections that may be stored apart:
//   - The manifest: class layouts, object table, attribute entries,
//     chunk table
//   - The payload: encoded attribute values, in chunks
//
// The manifest can be inspected without decoding the payload. Chunks
// carry a CRC-32 and may be zstd-compressed. Object references in the
// payload are indices into the manifest's object table.
package rdlb

import (
	"fmt"
	"strings"

	"github.com/Neumenon/rdl2/rdl"
)

// Magic opens every manifest.
const Magic = "RDLB"

// Version is the manifest format version.
const Version uint8 = 1

// MaxSectionSize bounds the manifest and the decoded payload (1 GiB).
const MaxSectionSize = 1 << 30

// Flags describe how a document was encoded.
type Flags uint8

const (
	FlagTransient  Flags = 0x01 // Chunks carry no CRC
	FlagDelta      Flags = 0x02 // Only changed objects and attributes
	FlagSplit      Flags = 0x04 // Payload split at a byte threshold
	FlagCompressed Flags = 0x08 // Chunks are zstd frames
)

// String returns the set flag names joined by commas.
func (f Flags) String() string {
	var names []string
	for _, n := range []struct {
		flag Flags
		name string
	}{
		{FlagTransient, "transient"},
		{FlagDelta, "delta"},
		{FlagSplit, "split"},
		{FlagCompressed, "compressed"},
	} {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Timestep mask bits of an attribute entry.
const (
	maskBegin uint8 = 1 << rdl.TimestepBegin
	maskEnd   uint8 = 1 << rdl.TimestepEnd
)

// Object entry flags.
const (
	objectDefined uint8 = 0x01 // The entry carries attributes to apply
)

// Manifest is the decoded structural index of a document.
type Manifest struct {
	Version uint8
	Flags   Flags
	Classes []ClassLayout
	Objects []ObjectEntry
	Chunks  []ChunkEntry
}

// ClassLayout lists the attribute names of a class in declaration order
// as it was when encoded. Every class of a defined object has one, so an
// attribute index can be matched by name after the class changed.
type ClassLayout struct {
	Name       string
	Attributes []string
}

// Layout returns the encoded layout of a class, or nil.
func (m *Manifest) Layout(class string) *ClassLayout {
	for i := range m.Classes {
		if m.Classes[i].Name == class {
			return &m.Classes[i]
		}
	}
	return nil
}

// PayloadSize returns the stored payload length the chunk table expects.
// A table beyond MaxSectionSize reports MaxSectionSize+1.
func (m *Manifest) PayloadSize() uint64 {
	var n uint64
	for _, c := range m.Chunks {
		if c.Stored > MaxSectionSize-n {
			return MaxSectionSize + 1
		}
		n += c.Stored
	}
	return n
}

// ObjectEntry describes one object of the document. Entries that only
// exist as reference targets are not Defined and have no attributes.
type ObjectEntry struct {
	ClassName  string
	ClassHash  [16]byte
	Name       string
	Defined    bool
	Attributes []AttributeEntry
}

// AttributeEntry locates the encoded samples of one attribute in the
// decoded payload: the begin sample if Mask has the begin bit, then the
// end sample, then the binding reference when Bound.
type AttributeEntry struct {
	Index  uint32
	Type   rdl.AttributeType
	Mask   uint8
	Bound  bool
	Offset uint64
	Length uint64
}

// ChunkEntry describes one payload chunk.
type ChunkEntry struct {
	Stored uint64 // bytes in the payload
	Raw    uint64 // bytes once decompressed
	CRC    uint32 // CRC-32 of the raw bytes, zero when transient
}

// ============================================================
// Errors
// ============================================================

// FormatError reports a malformed manifest or payload. It wraps
// rdl.ErrParse.
type FormatError struct {
	Reason string
	Offset int
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("rdlb: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("rdlb: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return rdl.ErrParse }

// CRCMismatchError is returned when a chunk fails CRC verification.
type CRCMismatchError struct {
	Chunk    int
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("rdlb: chunk %d CRC mismatch: expected %08x, got %08x", e.Chunk, e.Expected, e.Got)
}

func (e *CRCMismatchError) Unwrap() error { return rdl.ErrParse }
