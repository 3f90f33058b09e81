package rdla

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Neumenon/rdl2/rdl"
)

// Writer serializes a scene context as an rdla document.
type Writer struct {
	sc              *rdl.SceneContext
	skipDefaults    bool
	deltaEncoding   bool
	elementsPerLine int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// SkipDefaults omits attributes that hold their default and are unbound.
// It is on by default.
func SkipDefaults(b bool) WriterOption {
	return func(w *Writer) { w.skipDefaults = b }
}

// DeltaEncoding writes only the objects changed since the last commit,
// and of those only the changed attributes.
func DeltaEncoding(b bool) WriterOption {
	return func(w *Writer) { w.deltaEncoding = b }
}

// ElementsPerLine wraps vector values after n elements. Zero keeps
// vectors on one line.
func ElementsPerLine(n int) WriterOption {
	return func(w *Writer) { w.elementsPerLine = max(n, 0) }
}

// NewWriter creates a writer for sc.
func NewWriter(sc *rdl.SceneContext, opts ...WriterOption) *Writer {
	w := &Writer{sc: sc, skipDefaults: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// String returns the document.
func (w *Writer) String() (string, error) {
	var sb strings.Builder
	if _, err := w.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteTo writes the document to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	e := &emitter{w: w}
	objs := w.order()
	for i, o := range objs {
		if i > 0 {
			e.sb.WriteByte('\n')
		}
		e.object(o)
	}
	n, err := io.WriteString(out, e.sb.String())
	if err != nil {
		return int64(n), fmt.Errorf("rdla: write: %w", err)
	}
	w.sc.Logger().Debug("rdla: wrote scene",
		slog.Int("objects", len(objs)),
		slog.Int("bytes", n),
		slog.Bool("delta", w.deltaEncoding))
	return int64(n), nil
}

// WriteFile writes the document to path.
func (w *Writer) WriteFile(path string) error {
	s, err := w.String()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("rdla: %w", err)
	}
	return nil
}

// ============================================================
// Selection and order
// ============================================================

func (w *Writer) includes(o *rdl.SceneObject) bool {
	if o.ClassName() == rdl.ClassSceneVariables {
		return true
	}
	return !w.deltaEncoding || o.IsDirty()
}

// order returns the objects to write, each after the objects it refers
// to. Reference cycles are broken at the first object reached.
func (w *Writer) order() []*rdl.SceneObject {
	objs := w.sc.SceneObjects()
	selected := make(map[*rdl.SceneObject]bool, len(objs))
	for _, o := range objs {
		selected[o] = w.includes(o)
	}

	visited := make(map[*rdl.SceneObject]bool, len(objs))
	out := make([]*rdl.SceneObject, 0, len(objs))
	var visit func(o *rdl.SceneObject)
	visit = func(o *rdl.SceneObject) {
		if visited[o] {
			return
		}
		visited[o] = true
		for _, ref := range references(o) {
			if selected[ref] {
				visit(ref)
			}
		}
		out = append(out, o)
	}
	for _, o := range objs {
		if selected[o] {
			visit(o)
		}
	}
	return out
}

// references lists the objects o points at through values at both
// timesteps and through bindings.
func references(o *rdl.SceneObject) []*rdl.SceneObject {
	var refs []*rdl.SceneObject
	for _, a := range o.SceneClass().Attributes() {
		if a.Type().IsObject() {
			for _, ts := range []rdl.Timestep{rdl.TimestepBegin, rdl.TimestepEnd} {
				v, _ := o.Get(a.Name(), ts)
				refs = append(refs, v.Objects()...)
			}
		}
		if a.IsBindable() {
			b, _ := o.Binding(a.Name())
			refs = append(refs, b)
		}
	}
	return slices.DeleteFunc(refs, func(r *rdl.SceneObject) bool { return r == nil })
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

// ============================================================
// Emitter
// ============================================================

const indent = "    "

type emitter struct {
	w  *Writer
	sb strings.Builder
}

func (e *emitter) object(o *rdl.SceneObject) {
	if o.ClassName() == rdl.ClassSceneVariables && o.Name() == rdl.SceneVariablesName {
		e.sb.WriteString("SceneVariables {\n")
	} else {
		fmt.Fprintf(&e.sb, "%s(%s) {\n", o.ClassName(), quote(o.Name()))
	}

	members := o.SceneClass().MemberAttributes()
	inline := false
	if len(members) > 0 && inlineable(o, members) {
		inline = slices.ContainsFunc(members, func(m string) bool { return e.w.wantsAttribute(o, m) })
	}

	for _, a := range o.SceneClass().Attributes() {
		if inline && slices.Contains(members, a.Name()) {
			continue
		}
		if e.w.wantsAttribute(o, a.Name()) {
			e.attribute(o, a)
		}
	}
	if inline {
		e.members(o, members)
	}
	e.sb.WriteString("}\n")
}

func (e *emitter) attribute(o *rdl.SceneObject, a *rdl.Attribute) {
	name := a.Name()
	v0, _ := o.Get(name, rdl.TimestepBegin)
	lit := ""
	if a.IsBlurrable() {
		if v1, _ := o.Get(name, rdl.TimestepEnd); !v0.Equal(v1) {
			lit = "blur(" + e.value(v0) + ", " + e.value(v1) + ")"
		}
	}
	if lit == "" {
		lit = e.value(v0)
	}
	if a.IsBindable() {
		if b, _ := o.Binding(name); b != nil {
			lit = "bind(" + ref(b) + ", " + lit + ")"
		}
	}
	fmt.Fprintf(&e.sb, "%s[%s] = %s,\n", indent, quote(name), lit)
}

// members writes the members of a set, or the rows of a table.
func (e *emitter) members(o *rdl.SceneObject, attrs []string) {
	first, _ := o.GetSceneObjects(attrs[0])
	if len(attrs) == 1 {
		for _, m := range first {
			fmt.Fprintf(&e.sb, "%s%s,\n", indent, ref(m))
		}
		return
	}

	parts, _ := o.Get(attrs[1])
	columns := make([][]*rdl.SceneObject, len(attrs))
	for i := 2; i < len(attrs); i++ {
		columns[i], _ = o.GetSceneObjects(attrs[i])
	}
	for row, geo := range first {
		cells := []string{ref(geo), quote(parts.Strings()[row])}
		var bundle []string
		for i := 2; i < len(attrs); i++ {
			var m *rdl.SceneObject
			if row < len(columns[i]) {
				m = columns[i][row]
			}
			bundle = append(bundle, ref(m))
			if m != nil {
				cells = append(cells, bundle...)
				bundle = bundle[:0]
			}
		}
		fmt.Fprintf(&e.sb, "%s{%s},\n", indent, strings.Join(cells, ", "))
	}
}

// inlineable reports whether a collection reads back to the same
// columns when written as member entries: no null members, no duplicate
// members or rows, and bundle columns no longer than the table.
func inlineable(o *rdl.SceneObject, attrs []string) bool {
	first, err := o.GetSceneObjects(attrs[0])
	if err != nil || len(first) == 0 || slices.Contains(first, nil) {
		return false
	}
	if len(attrs) == 1 {
		seen := make(map[*rdl.SceneObject]bool, len(first))
		for _, m := range first {
			if seen[m] {
				return false
			}
			seen[m] = true
		}
		return true
	}

	parts, err := o.Get(attrs[1])
	if err != nil || len(parts.Strings()) != len(first) {
		return false
	}
	type row struct {
		geo  *rdl.SceneObject
		part string
	}
	seen := make(map[row]bool, len(first))
	for i, geo := range first {
		k := row{geo, parts.Strings()[i]}
		if seen[k] {
			return false
		}
		seen[k] = true
	}
	for _, attr := range attrs[2:] {
		col, err := o.GetSceneObjects(attr)
		if err != nil || len(col) > len(first) {
			return false
		}
	}
	return true
}

// ============================================================
// Values
// ============================================================

func (e *emitter) value(v rdl.Value) string {
	elems := elements(v)
	if !v.Type().IsVector() {
		if len(elems) == 0 {
			return "undef()"
		}
		return elems[0]
	}
	if len(elems) == 0 {
		return "{}"
	}
	n := e.w.elementsPerLine
	if n == 0 || len(elems) <= n {
		return "{" + strings.Join(elems, ", ") + "}"
	}

	var sb strings.Builder
	sb.WriteString("{\n")
	for i := 0; i < len(elems); i += n {
		sb.WriteString(indent + indent)
		sb.WriteString(strings.Join(elems[i:min(i+n, len(elems))], ", "))
		sb.WriteString(",\n")
	}
	sb.WriteString(indent + "}")
	return sb.String()
}

// elements renders each element of v as a literal.
func elements(v rdl.Value) []string {
	t := v.Type()
	var out []string
	switch t.Category() {
	case rdl.CategoryBool:
		for _, b := range v.Bools() {
			out = append(out, strconv.FormatBool(b))
		}
	case rdl.CategoryInt:
		for _, n := range v.Ints() {
			out = append(out, strconv.FormatInt(n, 10))
		}
	case rdl.CategoryString:
		for _, s := range v.Strings() {
			out = append(out, quote(s))
		}
	case rdl.CategoryObject:
		for _, o := range v.Objects() {
			out = append(out, ref(o))
		}
	case rdl.CategoryFloat:
		bits := 64
		if t.SinglePrecision() {
			bits = 32
		}
		fs, stride := v.Floats(), t.Stride()
		for i := 0; i+stride <= len(fs); i += stride {
			if stride == 1 {
				out = append(out, formatFloat(fs[i], bits))
				continue
			}
			comps := make([]string, stride)
			for j, f := range fs[i : i+stride] {
				comps[j] = formatFloat(f, bits)
			}
			out = append(out, t.Elem().String()+"("+strings.Join(comps, ", ")+")")
		}
	}
	return out
}

// formatFloat writes the shortest text that reads back to the same
// float at the given precision.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func ref(o *rdl.SceneObject) string {
	if o == nil {
		return "undef()"
	}
	return o.ClassName() + "(" + quote(o.Name()) + ")"
}

func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
