package rdlb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Neumenon/rdl2/rdl"
)

// Writer encodes a scene context as a manifest and a payload.
type Writer struct {
	sc             *rdl.SceneContext
	transient      bool
	deltaEncoding  bool
	skipDefaults   bool
	compress       bool
	splitThreshold int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// Transient marks the document as short-lived: chunks carry no CRC.
func Transient(b bool) WriterOption {
	return func(w *Writer) { w.transient = b }
}

// DeltaEncoding writes only the objects changed since the last commit,
// and of those only the changed attributes.
func DeltaEncoding(b bool) WriterOption {
	return func(w *Writer) { w.deltaEncoding = b }
}

// SkipDefaults omits attributes that hold their default and are unbound.
// It is on by default.
func SkipDefaults(b bool) WriterOption {
	return func(w *Writer) { w.skipDefaults = b }
}

// SplitMode cuts the payload into chunks of at most threshold bytes.
func SplitMode(threshold int) WriterOption {
	return func(w *Writer) { w.splitThreshold = max(threshold, 0) }
}

// ClearSplitMode writes the payload as a single chunk.
func ClearSplitMode() WriterOption {
	return func(w *Writer) { w.splitThreshold = 0 }
}

// Compress zstd-compresses every chunk.
func Compress(b bool) WriterOption {
	return func(w *Writer) { w.compress = b }
}

// NewWriter creates a writer for sc.
func NewWriter(sc *rdl.SceneContext, opts ...WriterOption) *Writer {
	w := &Writer{sc: sc, skipDefaults: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ToBytes returns the encoded manifest and payload.
func (w *Writer) ToBytes() (manifest, payload []byte, err error) {
	m, payload := w.encode()
	manifest, err = m.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	w.sc.Logger().Debug("rdlb: encoded scene",
		slog.Int("objects", len(m.Objects)),
		slog.Int("chunks", len(m.Chunks)),
		slog.Int("manifest_bytes", len(manifest)),
		slog.Int("payload_bytes", len(payload)),
		slog.String("flags", m.Flags.String()))
	return manifest, payload, nil
}

// WriteTo writes the single-file form: the manifest length as an 8 byte
// little-endian integer, the manifest, then the payload.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	manifest, payload, err := w.ToBytes()
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	buf.Grow(8 + len(manifest) + len(payload))
	buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(manifest))))
	buf.Write(manifest)
	buf.Write(payload)
	n, err := buf.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("rdlb: write: %w", err)
	}
	return n, nil
}

// WriteFile writes the single-file form to path.
func (w *Writer) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("rdlb: %w", err)
	}
	return nil
}

// Show writes the summary of the manifest the writer would produce.
func (w *Writer) Show(out io.Writer) error {
	m, _ := w.encode()
	if _, err := io.WriteString(out, m.String()); err != nil {
		return fmt.Errorf("rdlb: write: %w", err)
	}
	return nil
}

// ============================================================
// Encoding
// ============================================================

func (w *Writer) includes(o *rdl.SceneObject) bool {
	if o.ClassName() == rdl.ClassSceneVariables {
		return true
	}
	return !w.deltaEncoding || o.IsDirty()
}

func (w *Writer) wantsAttribute(o *rdl.SceneObject, name string) bool {
	if w.deltaEncoding {
		changed, _ := o.HasChanged(name)
		bindingChanged, _ := o.HasBindingChanged(name)
		return changed || bindingChanged
	}
	if w.skipDefaults {
		def, _ := o.IsDefaultAndUnbound(name)
		return !def
	}
	return true
}

func (w *Writer) flags() Flags {
	var f Flags
	if w.transient {
		f |= FlagTransient
	}
	if w.deltaEncoding {
		f |= FlagDelta
	}
	if w.splitThreshold > 0 {
		f |= FlagSplit
	}
	if w.compress {
		f |= FlagCompressed
	}
	return f
}

// encode builds the manifest and the stored payload. The object table
// lists the written objects in context order, then every other object
// they reference in first-use order.
func (w *Writer) encode() (*Manifest, []byte) {
	var table []*rdl.SceneObject
	index := make(map[*rdl.SceneObject]int)
	indexOf := func(o *rdl.SceneObject) uint64 {
		if o == nil {
			return 0
		}
		i, ok := index[o]
		if !ok {
			i = len(table)
			index[o] = i
			table = append(table, o)
		}
		return uint64(i + 1)
	}
	for _, o := range w.sc.SceneObjects() {
		if w.includes(o) {
			indexOf(o)
		}
	}
	defined := len(table)

	m := &Manifest{Version: Version, Flags: w.flags()}
	var raw []byte
	for _, o := range table[:defined] {
		if m.Layout(o.ClassName()) == nil {
			m.Classes = append(m.Classes, classLayout(o.SceneClass()))
		}
		e := objectEntry(o)
		e.Defined = true
		for _, a := range o.SceneClass().Attributes() {
			if !w.wantsAttribute(o, a.Name()) {
				continue
			}
			start := len(raw)
			ae := AttributeEntry{Index: uint32(a.Index()), Type: a.Type(), Mask: maskBegin, Offset: uint64(start)}
			v0, _ := o.Get(a.Name(), rdl.TimestepBegin)
			raw = appendValue(raw, v0, indexOf)
			if a.IsBlurrable() {
				if v1, _ := o.Get(a.Name(), rdl.TimestepEnd); !v0.Equal(v1) {
					ae.Mask |= maskEnd
					raw = appendValue(raw, v1, indexOf)
				}
			}
			if a.IsBindable() {
				if b, _ := o.Binding(a.Name()); b != nil {
					ae.Bound = true
					raw = binary.AppendUvarint(raw, indexOf(b))
				}
			}
			ae.Length = uint64(len(raw) - start)
			e.Attributes = append(e.Attributes, ae)
		}
		m.Objects = append(m.Objects, e)
	}
	for _, o := range table[defined:] {
		m.Objects = append(m.Objects, objectEntry(o))
	}

	var payload []byte
	m.Chunks, payload = splitPayload(raw, w.splitThreshold, w.compress, !w.transient)
	return m, payload
}

func classLayout(c *rdl.SceneClass) ClassLayout {
	l := ClassLayout{Name: c.Name(), Attributes: make([]string, c.NumAttributes())}
	for i, a := range c.Attributes() {
		l.Attributes[i] = a.Name()
	}
	return l
}

func objectEntry(o *rdl.SceneObject) ObjectEntry {
	return ObjectEntry{
		ClassName: o.ClassName(),
		ClassHash: o.SceneClass().HashSum(),
		Name:      o.Name(),
	}
}
