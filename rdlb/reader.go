package rdlb

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Neumenon/rdl2/rdl"
)

// Result describes one successful read.
type Result struct {
	// Objects lists the objects whose entries were applied, in manifest
	// order.
	Objects []*rdl.SceneObject

	// Warnings holds the non-fatal diagnostics: unknown classes or
	// attributes, and classes whose layout changed since encoding.
	Warnings []FormatError
}

// Reader applies rdlb documents to a scene context.
type Reader struct {
	sc               *rdl.SceneContext
	warningsAsErrors bool
	logger           *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WarningsAsErrors makes every warning fail the read with a *FormatError.
func WarningsAsErrors(b bool) ReaderOption {
	return func(r *Reader) { r.warningsAsErrors = b }
}

// NewReader creates a reader that populates sc.
func NewReader(sc *rdl.SceneContext, opts ...ReaderOption) *Reader {
	r := &Reader{sc: sc, logger: sc.Logger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SplitFile separates the single-file form into manifest and payload.
func SplitFile(data []byte) (manifest, payload []byte, err error) {
	if len(data) < 8 {
		return nil, nil, &FormatError{Reason: "file too short for the manifest length", Offset: 0}
	}
	n := binary.LittleEndian.Uint64(data[:8])
	if n > uint64(len(data)-8) {
		return nil, nil, &FormatError{
			Reason: fmt.Sprintf("manifest length %d exceeds the %d bytes left", n, len(data)-8),
			Offset: 0,
		}
	}
	return data[8 : 8+n], data[8+n:], nil
}

// Read applies the single-file document read from in.
func (r *Reader) Read(in io.Reader) (*Result, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("rdlb: read: %w", err)
	}
	manifest, payload, err := SplitFile(data)
	if err != nil {
		return nil, err
	}
	return r.FromBytes(manifest, payload)
}

// ReadFile applies the single-file document stored at path.
func (r *Reader) ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rdlb: %w", err)
	}
	manifest, payload, err := SplitFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res, err := r.FromBytes(manifest, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// FromBytes applies a manifest and its payload. Every object of the
// manifest is resolved before any value is decoded, so references may
// point forward.
func (r *Reader) FromBytes(manifest, payload []byte) (*Result, error) {
	var m Manifest
	if err := m.UnmarshalBinary(manifest); err != nil {
		return nil, err
	}
	raw, err := joinPayload(&m, payload)
	if err != nil {
		return nil, err
	}

	dec := &sceneDecoder{r: r, raw: raw, result: &Result{}}
	dec.objects = make([]*rdl.SceneObject, len(m.Objects))
	for i := range m.Objects {
		if dec.objects[i], err = dec.resolve(&m.Objects[i]); err != nil {
			return nil, err
		}
	}
	for i := range m.Objects {
		e, o := &m.Objects[i], dec.objects[i]
		if !e.Defined || o == nil {
			continue
		}
		if err := dec.apply(o, e, m.Layout(e.ClassName)); err != nil {
			return nil, err
		}
		dec.result.Objects = append(dec.result.Objects, o)
	}
	r.logger.Debug("rdlb: decoded scene",
		slog.Int("objects", len(dec.result.Objects)),
		slog.Int("warnings", len(dec.result.Warnings)),
		slog.String("flags", m.Flags.String()))
	return dec.result, nil
}

// ============================================================
// Scene decoding
// ============================================================

type sceneDecoder struct {
	r       *Reader
	raw     []byte
	objects []*rdl.SceneObject
	result  *Result
}

// warn records a non-fatal diagnostic, or fails in strict mode.
func (d *sceneDecoder) warn(object string, format string, args ...any) error {
	w := FormatError{Reason: fmt.Sprintf(format, args...), Offset: -1}
	if d.r.warningsAsErrors {
		return &w
	}
	d.r.logger.Warn("rdlb: "+w.Reason, slog.String("object", object))
	d.result.Warnings = append(d.result.Warnings, w)
	return nil
}

func (d *sceneDecoder) resolve(e *ObjectEntry) (*rdl.SceneObject, error) {
	sc := d.r.sc
	var o *rdl.SceneObject
	switch {
	case e.ClassName == rdl.ClassSceneVariables && e.Name == rdl.SceneVariablesName:
		o = sc.SceneVariables().SceneObject
	case !sc.Registry().Known(e.ClassName):
		return nil, d.warn(e.Name, "unknown class %q, skipping %q", e.ClassName, e.Name)
	default:
		var err error
		if o, err = sc.GetOrCreateSceneObject(e.ClassName, e.Name); err != nil {
			return nil, &FormatError{Reason: err.Error(), Offset: -1}
		}
	}
	if e.Defined && o.SceneClass().HashSum() != e.ClassHash {
		if err := d.warn(e.Name, "class %s changed since %q was encoded", e.ClassName, e.Name); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// apply decodes the attribute entries of e into o. Entries address
// attributes by index; when the class changed since encoding, the index
// is first translated through the encoded layout and matched by name.
func (d *sceneDecoder) apply(o *rdl.SceneObject, e *ObjectEntry, layout *ClassLayout) error {
	guard := o.UpdateGuard()
	defer guard.Close()

	class := o.SceneClass()
	drifted := class.HashSum() != e.ClassHash
	for _, ae := range e.Attributes {
		var a *rdl.Attribute
		if drifted {
			name := layout.Attributes[ae.Index]
			if a, _ = class.Attribute(name); a == nil {
				if err := d.warn(o.Name(), "attribute %s is no longer on %s", name, class.Name()); err != nil {
					return err
				}
				continue
			}
		} else if a = class.AttributeAt(int(ae.Index)); a == nil {
			if err := d.warn(o.Name(), "unknown attribute #%d on %s", ae.Index, class.Name()); err != nil {
				return err
			}
			continue
		}
		if a.Type() != ae.Type {
			if err := d.warn(o.Name(), "attribute %s is %s, encoded as %s", a.Name(), a.Type(), ae.Type); err != nil {
				return err
			}
			continue
		}
		if err := d.applyAttribute(o, a, ae); err != nil {
			return err
		}
	}
	return nil
}

func (d *sceneDecoder) applyAttribute(o *rdl.SceneObject, a *rdl.Attribute, ae AttributeEntry) error {
	if ae.Offset > uint64(len(d.raw)) || ae.Length > uint64(len(d.raw))-ae.Offset {
		return &FormatError{
			Reason: fmt.Sprintf("attribute %s.%s overruns the payload", o.Name(), a.Name()),
			Offset: int(min(ae.Offset, uint64(len(d.raw)))),
		}
	}
	end := int(ae.Offset + ae.Length)
	dec := &decoder{buf: d.raw[:end], off: int(ae.Offset)}

	v0, err := o.Get(a.Name(), rdl.TimestepBegin)
	if err != nil {
		return err
	}
	if ae.Mask&maskBegin != 0 {
		if v0, err = decodeValue(dec, ae.Type, d.objects); err != nil {
			return err
		}
	}
	v1 := v0
	if ae.Mask&maskEnd != 0 {
		if v1, err = decodeValue(dec, ae.Type, d.objects); err != nil {
			return err
		}
	}
	var target *rdl.SceneObject
	if ae.Bound {
		if target, err = dec.readRef(d.objects); err != nil {
			return err
		}
	}
	if dec.remaining() != 0 {
		return dec.fail("%d unread bytes in %s.%s", dec.remaining(), o.Name(), a.Name())
	}

	if err := o.Set(a.Name(), v0, rdl.TimestepBegin); err != nil {
		return &FormatError{Reason: err.Error(), Offset: int(ae.Offset)}
	}
	if a.IsBlurrable() {
		if err := o.Set(a.Name(), v1, rdl.TimestepEnd); err != nil {
			return &FormatError{Reason: err.Error(), Offset: int(ae.Offset)}
		}
	}

	if !a.IsBindable() {
		if ae.Bound {
			return d.warn(o.Name(), "attribute %s is not bindable, binding dropped", a.Name())
		}
		return nil
	}
	if current, _ := o.Binding(a.Name()); current == target {
		return nil
	}
	if err := o.SetBinding(a.Name(), target); err != nil {
		return &FormatError{Reason: err.Error(), Offset: int(ae.Offset)}
	}
	return nil
}
