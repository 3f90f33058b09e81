package rdla

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Neumenon/rdl2/rdl"
)

// Result describes one successful read.
type Result struct {
	// Objects lists the objects whose blocks were applied, in file order.
	Objects []*rdl.SceneObject

	// Warnings holds the non-fatal diagnostics, such as unknown classes
	// or attributes whose entries were skipped.
	Warnings []ParseError
}

// Reader applies rdla documents to a scene context.
type Reader struct {
	sc               *rdl.SceneContext
	warningsAsErrors bool
	logger           *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WarningsAsErrors makes every warning fail the read with a *ParseError.
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

// ReadString applies a document held in memory.
func (r *Reader) ReadString(input string) (*Result, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{r: r, stream: NewTokenStream(tokens), result: &Result{}}
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return p.result, nil
}

// Read applies the document read from in.
func (r *Reader) Read(in io.Reader) (*Result, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("rdla: read: %w", err)
	}
	return r.ReadString(string(data))
}

// ReadFile applies the document stored at path.
func (r *Reader) ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rdla: %w", err)
	}
	res, err := r.ReadString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ============================================================
// Document structure
// ============================================================

type parser struct {
	r      *Reader
	stream *TokenStream
	result *Result
}

// warn records a non-fatal diagnostic, or fails in strict mode.
func (p *parser) warn(pos Position, object string, format string, args ...any) error {
	w := ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
	if p.r.warningsAsErrors {
		return &w
	}
	p.r.logger.Warn("rdla: "+w.Message,
		slog.String("object", object),
		slog.String("pos", pos.String()))
	p.result.Warnings = append(p.result.Warnings, w)
	return nil
}

func (p *parser) parseDocument() error {
	for !p.stream.AtEnd() {
		if p.stream.Match(TokenComma) {
			continue
		}
		if err := p.parseBlock(); err != nil {
			return err
		}
	}
	return nil
}

// block is the state of the object block being read. A nil obj means
// the block is parsed but not applied.
type block struct {
	obj            *rdl.SceneObject
	membersCleared bool
}

// parseBlock parses Class("/name") { entries } or SceneVariables { entries }.
func (p *parser) parseBlock() error {
	classTok, err := p.stream.Expect(TokenIdent)
	if err != nil {
		return err
	}
	className := classTok.Value

	objName := ""
	if p.stream.Peek().Type == TokenLParen {
		p.stream.Advance()
		nameTok, err := p.stream.Expect(TokenString)
		if err != nil {
			return err
		}
		if _, err := p.stream.Expect(TokenRParen); err != nil {
			return err
		}
		objName = nameTok.Value
	} else if className != rdl.ClassSceneVariables {
		next := p.stream.Peek()
		return p.errorf(next.Pos, "expected ( after %s, got %s", className, next)
	}

	b := &block{}
	b.obj, err = p.blockObject(classTok.Pos, className, objName)
	if err != nil {
		return err
	}
	if b.obj != nil {
		guard := b.obj.UpdateGuard()
		defer guard.Close()
		p.result.Objects = append(p.result.Objects, b.obj)
	}

	if _, err := p.stream.Expect(TokenLBrace); err != nil {
		return err
	}
	for {
		tok := p.stream.Peek()
		switch tok.Type {
		case TokenRBrace:
			p.stream.Advance()
			return nil
		case TokenEOF:
			return p.errorf(classTok.Pos, "unterminated block %s", className)
		case TokenComma:
			p.stream.Advance()
			continue
		}
		if err := p.parseEntry(b); err != nil {
			return err
		}
	}
}

func (p *parser) blockObject(pos Position, className, objName string) (*rdl.SceneObject, error) {
	sc := p.r.sc
	if className == rdl.ClassSceneVariables && (objName == "" || objName == rdl.SceneVariablesName) {
		return sc.SceneVariables().SceneObject, nil
	}
	if !sc.Registry().Known(className) {
		return nil, p.warn(pos, objName, "unknown class %q, skipping %q", className, objName)
	}
	o, err := sc.GetOrCreateSceneObject(className, objName)
	if err != nil {
		return nil, p.errorf(pos, "%v", err)
	}
	return o, nil
}

// parseEntry parses ["attr"] = value, a set member, or a table row.
func (p *parser) parseEntry(b *block) error {
	tok := p.stream.Peek()
	if tok.Type != TokenLBracket {
		n, err := p.parseLiteral()
		if err != nil {
			return err
		}
		if b.obj == nil {
			return nil
		}
		if n.kind == nodeList {
			return p.applyRow(b, n)
		}
		return p.applyMember(b, n)
	}

	p.stream.Advance()
	nameTok, err := p.stream.Expect(TokenString)
	if err != nil {
		return err
	}
	if _, err := p.stream.Expect(TokenRBracket); err != nil {
		return err
	}
	if _, err := p.stream.Expect(TokenEq); err != nil {
		return err
	}
	n, err := p.parseLiteral()
	if err != nil {
		return err
	}
	if b.obj == nil {
		return nil
	}
	return p.applyAttribute(b.obj, nameTok.Value, n)
}

// ============================================================
// Applying entries
// ============================================================

func (p *parser) applyAttribute(o *rdl.SceneObject, name string, n *node) error {
	a, err := o.SceneClass().Attribute(name)
	if err != nil {
		return p.warn(n.pos, o.Name(), "unknown attribute %q on %s", name, o.ClassName())
	}

	var target *rdl.SceneObject
	bound := n.isCall(fnBind)
	if bound {
		if len(n.items) != 2 {
			return p.errorf(n.pos, "bind takes an object and a value")
		}
		if target, err = p.refOrNull(n.items[0]); err != nil {
			return err
		}
		n = n.items[1]
	}

	v0, v1, err := p.samples(a, n)
	if err != nil {
		return err
	}
	if err := o.Set(name, v0, rdl.TimestepBegin); err != nil {
		return p.errorf(n.pos, "%v", err)
	}
	if a.IsBlurrable() {
		if err := o.Set(name, v1, rdl.TimestepEnd); err != nil {
			return p.errorf(n.pos, "%v", err)
		}
	}

	if !a.IsBindable() {
		if bound {
			return p.errorf(n.pos, "attribute %s is not bindable", name)
		}
		return nil
	}
	if current, _ := o.Binding(name); current == target {
		return nil
	}
	if err := o.SetBinding(name, target); err != nil {
		return p.errorf(n.pos, "%v", err)
	}
	return nil
}

// samples returns the begin and end values of a literal; only blur(a, b)
// gives distinct samples.
func (p *parser) samples(a *rdl.Attribute, n *node) (rdl.Value, rdl.Value, error) {
	if !n.isCall(fnBlur) {
		v, err := p.attributeValue(a, n)
		return v, v, err
	}
	if len(n.items) != 2 {
		return rdl.Value{}, rdl.Value{}, p.errorf(n.pos, "blur takes two values")
	}
	if !a.IsBlurrable() {
		return rdl.Value{}, rdl.Value{}, p.errorf(n.pos, "attribute %s is not blurrable", a.Name())
	}
	v0, err := p.attributeValue(a, n.items[0])
	if err != nil {
		return rdl.Value{}, rdl.Value{}, err
	}
	v1, err := p.attributeValue(a, n.items[1])
	return v0, v1, err
}

// clearMembers empties the collection the first time a block lists
// members, so the block describes the whole collection.
func (p *parser) clearMembers(b *block) {
	if b.membersCleared {
		return
	}
	b.membersCleared = true
	o := b.obj
	if l, ok := o.AsLayer(); ok {
		l.Clear()
	} else if t, ok := o.AsTraceSet(); ok {
		t.Clear()
	} else if g, ok := o.AsGeometrySet(); ok {
		g.Clear()
	} else if l, ok := o.AsLightSet(); ok {
		l.Clear()
	} else if f, ok := o.AsLightFilterSet(); ok {
		f.Clear()
	}
}

func (p *parser) applyMember(b *block, n *node) error {
	o := b.obj
	if !n.isRef() {
		return p.errorf(n.pos, "expected an object reference in %s", o.Name())
	}
	m, err := p.resolveRef(n)
	if err != nil || m == nil {
		return err
	}
	p.clearMembers(b)

	switch {
	case o.IsA(rdl.InterfaceTraceSet):
		return p.errorf(n.pos, "%s takes {geometry, part} rows", o.Name())
	case o.IsA(rdl.InterfaceGeometrySet):
		g, _ := o.AsGeometrySet()
		geo, err := m.ToGeometry()
		if err == nil {
			err = g.Add(geo)
		}
		return p.memberError(n, err)
	case o.IsA(rdl.InterfaceLightSet):
		ls, _ := o.AsLightSet()
		light, err := m.ToLight()
		if err == nil {
			err = ls.Add(light)
		}
		return p.memberError(n, err)
	case o.IsA(rdl.InterfaceLightFilterSet):
		fs, _ := o.AsLightFilterSet()
		f, err := m.ToLightFilter()
		if err == nil {
			err = fs.Add(f)
		}
		return p.memberError(n, err)
	}
	return p.errorf(n.pos, "%s %s has no members", o.ClassName(), o.Name())
}

func (p *parser) memberError(n *node, err error) error {
	if err != nil {
		return p.errorf(n.pos, "%v", err)
	}
	return nil
}

// applyRow reads {geometry, part} for a TraceSet, followed by the
// bundle members for a Layer.
func (p *parser) applyRow(b *block, n *node) error {
	o := b.obj
	t, ok := o.AsTraceSet()
	if !ok {
		return p.errorf(n.pos, "%s %s takes no rows", o.ClassName(), o.Name())
	}
	l, isLayer := o.AsLayer()
	maxCols := 2
	if isLayer {
		maxCols = len(o.SceneClass().MemberAttributes())
	}
	if len(n.items) < 2 || len(n.items) > maxCols {
		return p.errorf(n.pos, "a row of %s has 2 to %d columns, got %d", o.Name(), maxCols, len(n.items))
	}
	if n.items[1].kind != nodeString {
		return p.errorf(n.items[1].pos, "expected a part name")
	}
	part := n.items[1].text

	refs := make([]*rdl.SceneObject, maxCols)
	for i, it := range n.items {
		if i == 1 {
			continue
		}
		ref, err := p.refOrNull(it)
		if err != nil {
			return err
		}
		refs[i] = ref
	}
	if refs[0] == nil {
		return p.warn(n.pos, o.Name(), "row without a geometry in %s", o.Name())
	}
	geo, err := refs[0].ToGeometry()
	if err != nil {
		return p.errorf(n.pos, "%v", err)
	}
	p.clearMembers(b)

	if !isLayer {
		_, err = t.Assign(geo, part)
		return p.memberError(n, err)
	}
	bundle, err := layerBundle(refs[2:])
	if err != nil {
		return p.errorf(n.pos, "%v", err)
	}
	_, err = l.AssignBundle(geo, part, bundle)
	return p.memberError(n, err)
}

// layerBundle downcasts the bundle columns of a row, in
// rdl.SceneClass.MemberAttributes order.
func layerBundle(refs []*rdl.SceneObject) (rdl.LayerAssignment, error) {
	var b rdl.LayerAssignment
	var err error
	if b.Material, err = downcast(refs[0], (*rdl.SceneObject).ToMaterial); err != nil {
		return b, err
	}
	if b.LightSet, err = downcast(refs[1], (*rdl.SceneObject).ToLightSet); err != nil {
		return b, err
	}
	if b.Displacement, err = downcast(refs[2], (*rdl.SceneObject).ToDisplacement); err != nil {
		return b, err
	}
	if b.VolumeShader, err = downcast(refs[3], (*rdl.SceneObject).ToVolumeShader); err != nil {
		return b, err
	}
	if b.LightFilterSet, err = downcast(refs[4], (*rdl.SceneObject).ToLightFilterSet); err != nil {
		return b, err
	}
	if b.ShadowSet, err = downcast(refs[5], (*rdl.SceneObject).ToShadowSet); err != nil {
		return b, err
	}
	b.ShadowReceiverSet, err = downcast(refs[6], (*rdl.SceneObject).ToShadowReceiverSet)
	return b, err
}

func downcast[V any](o *rdl.SceneObject, to func(*rdl.SceneObject) (*V, error)) (*V, error) {
	if o == nil {
		return nil, nil
	}
	return to(o)
}

// ============================================================
// References
// ============================================================

func (p *parser) refOrNull(n *node) (*rdl.SceneObject, error) {
	if n.isNull() {
		return nil, nil
	}
	if !n.isRef() {
		return nil, p.errorf(n.pos, "expected an object reference")
	}
	return p.resolveRef(n)
}

// resolveRef returns the object named by Class("/name"), creating it when
// it is not declared yet. An unknown class resolves to nil with a
// warning.
func (p *parser) resolveRef(n *node) (*rdl.SceneObject, error) {
	sc := p.r.sc
	className, name := n.text, n.items[0].text
	if className == rdl.ClassSceneVariables {
		return sc.SceneVariables().SceneObject, nil
	}
	if !sc.Registry().Known(className) {
		return nil, p.warn(n.pos, name, "unknown class %q in reference to %q", className, name)
	}
	o, err := sc.GetOrCreateSceneObject(className, name)
	if err != nil {
		return nil, p.errorf(n.pos, "%v", err)
	}
	return o, nil
}
