package rdl

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ============================================================
// Attribute
// ============================================================

// EnumValue is one labeled value of an enumerable attribute.
type EnumValue struct {
	Value int32
	Label string
}

// Attribute is the declaration of one attribute of a class. It is
// immutable once the class is built.
type Attribute struct {
	name       string
	typ        AttributeType
	flags      AttributeFlags
	group      string
	aliases    []string
	metadata   map[string]string
	enums      []EnumValue
	def        Value
	objectType Interface
	index      int
}

func (a *Attribute) Name() string          { return a.name }
func (a *Attribute) Type() AttributeType   { return a.typ }
func (a *Attribute) Flags() AttributeFlags { return a.flags }
func (a *Attribute) Group() string         { return a.group }
func (a *Attribute) Aliases() []string     { return slices.Clone(a.aliases) }
func (a *Attribute) Index() int            { return a.index }
func (a *Attribute) IsBindable() bool      { return a.flags.Has(FlagsBindable) }
func (a *Attribute) IsBlurrable() bool     { return a.flags.Has(FlagsBlurrable) }
func (a *Attribute) IsEnumerable() bool    { return a.flags.Has(FlagsEnumerable) }
func (a *Attribute) IsFilename() bool      { return a.flags.Has(FlagsFilename) }

// ObjectType is the capability a referenced object must provide, for
// object-valued attributes. Zero accepts any object.
func (a *Attribute) ObjectType() Interface { return a.objectType }

// Default returns the declared default, or the zero value of the type.
func (a *Attribute) Default() Value { return a.def.Clone() }

// Metadata returns one metadata entry.
func (a *Attribute) Metadata(key string) (string, bool) {
	v, ok := a.metadata[key]
	return v, ok
}

// MetadataKeys returns the metadata keys in sorted order.
func (a *Attribute) MetadataKeys() []string {
	return slices.Sorted(maps.Keys(a.metadata))
}

// EnumValues returns the labeled values in declaration order.
func (a *Attribute) EnumValues() []EnumValue { return slices.Clone(a.enums) }

// EnumLabel returns the label of an enum value.
func (a *Attribute) EnumLabel(v int32) (string, bool) {
	for _, e := range a.enums {
		if e.Value == v {
			return e.Label, true
		}
	}
	return "", false
}

// EnumValueOf returns the value of an enum label.
func (a *Attribute) EnumValueOf(label string) (int32, bool) {
	for _, e := range a.enums {
		if e.Label == label {
			return e.Value, true
		}
	}
	return 0, false
}

// ============================================================
// Attribute options
// ============================================================

// AttrOption modifies an attribute declaration.
type AttrOption func(*Attribute)

func WithFlags(f AttributeFlags) AttrOption {
	return func(a *Attribute) { a.flags |= f }
}

func WithGroup(group string) AttrOption {
	return func(a *Attribute) { a.group = group }
}

func WithAliases(aliases ...string) AttrOption {
	return func(a *Attribute) { a.aliases = append(a.aliases, aliases...) }
}

func WithMetadata(key, value string) AttrOption {
	return func(a *Attribute) {
		if a.metadata == nil {
			a.metadata = make(map[string]string)
		}
		a.metadata[key] = value
	}
}

// WithEnum adds a labeled value and marks the attribute enumerable.
func WithEnum(value int32, label string) AttrOption {
	return func(a *Attribute) {
		a.flags |= FlagsEnumerable
		a.enums = append(a.enums, EnumValue{Value: value, Label: label})
	}
}

func WithDefault(v Value) AttrOption {
	return func(a *Attribute) { a.def = v.Clone() }
}

// WithObjectType restricts which objects an object-valued attribute may
// reference.
func WithObjectType(iface Interface) AttrOption {
	return func(a *Attribute) { a.objectType = iface }
}

// ============================================================
// SceneClass
// ============================================================

// SceneClass is the schema of one object type: its declared interface and
// its attributes. A built class is read-only and shared by every object
// of the type.
type SceneClass struct {
	name       string
	iface      Interface
	attrs      []*Attribute
	byName     map[string]*Attribute
	groups     []string
	groupAttrs map[string][]*Attribute
	sourcePath string
	sum        [16]byte
}

func (c *SceneClass) Name() string         { return c.name }
func (c *SceneClass) Interface() Interface { return c.iface }
func (c *SceneClass) SourcePath() string   { return c.sourcePath }

// Hash identifies the class layout; it changes whenever an attribute's
// name, type, flags or default changes.
func (c *SceneClass) Hash() string { return hex.EncodeToString(c.sum[:]) }

// HashSum returns the class hash as the truncated sha256 it is made of.
func (c *SceneClass) HashSum() [16]byte { return c.sum }

// IsA reports whether the class provides every capability in iface.
func (c *SceneClass) IsA(iface Interface) bool { return c.iface.Has(iface) }

// Attribute looks up an attribute by name or alias.
func (c *SceneClass) Attribute(name string) (*Attribute, error) {
	if a, ok := c.byName[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q on class %s", ErrAttributeNotFound, name, c.name)
}

// HasAttribute reports whether name or an alias is declared.
func (c *SceneClass) HasAttribute(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Attributes returns every attribute in declaration order.
func (c *SceneClass) Attributes() []*Attribute { return slices.Clone(c.attrs) }

// NumAttributes returns the attribute count.
func (c *SceneClass) NumAttributes() int { return len(c.attrs) }

// AttributeAt returns the attribute with the given declaration index.
func (c *SceneClass) AttributeAt(i int) *Attribute {
	if i < 0 || i >= len(c.attrs) {
		return nil
	}
	return c.attrs[i]
}

// GroupNames returns group labels in first-declared order.
func (c *SceneClass) GroupNames() []string { return slices.Clone(c.groups) }

// GroupAttributes returns the attributes of one group.
func (c *SceneClass) GroupAttributes(group string) []*Attribute {
	return slices.Clone(c.groupAttrs[group])
}

// Canonical returns the text the class hash is computed over.
func (c *SceneClass) Canonical() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "@class %s %d\n", c.name, uint32(c.iface))
	for _, a := range c.attrs {
		fmt.Fprintf(&sb, "  %s %s %d %s\n", a.name, a.typ, a.flags, a.def)
	}
	return sb.String()
}

func (c *SceneClass) computeHash() {
	sum := sha256.Sum256([]byte(c.Canonical()))
	copy(c.sum[:], sum[:16])
}

// ============================================================
// ClassBuilder
// ============================================================

// ClassBuilder declares the attributes of a new SceneClass. Declaration
// errors accumulate and are reported by Build. Once Build succeeds the
// class is frozen and further declarations fail.
type ClassBuilder struct {
	class *SceneClass
	errs  []error
	built bool
}

// NewClassBuilder starts a class. The interface is closed over its is-a
// hierarchy, and the intrinsic attributes of every capability in it are
// declared before anything else.
func NewClassBuilder(name string, iface Interface) *ClassBuilder {
	b := &ClassBuilder{
		class: &SceneClass{
			name:       name,
			iface:      iface.Closure(),
			byName:     make(map[string]*Attribute),
			groupAttrs: make(map[string][]*Attribute),
		},
	}
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("%w: empty class name", ErrSchema))
	}
	for _, c := range capabilities {
		if b.class.iface&c.bit == 0 {
			continue
		}
		if declare, ok := intrinsicAttributes[c.bit]; ok {
			declare(b)
		}
	}
	return b
}

// SourcePath records where the class definition came from.
func (b *ClassBuilder) SourcePath(path string) *ClassBuilder {
	if b.built {
		b.errs = append(b.errs, b.frozen())
		return b
	}
	b.class.sourcePath = path
	return b
}

func (b *ClassBuilder) frozen() error {
	return fmt.Errorf("%w: class %s is already built", ErrSchema, b.class.name)
}

// Declare adds an attribute. A name or alias already in use, an unknown
// type, or a default of the wrong kind is a schema error.
func (b *ClassBuilder) Declare(name string, t AttributeType, opts ...AttrOption) *ClassBuilder {
	if _, err := b.DeclareAttribute(name, t, opts...); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// DeclareAttribute is Declare returning the declaration or its error.
func (b *ClassBuilder) DeclareAttribute(name string, t AttributeType, opts ...AttrOption) (*Attribute, error) {
	c := b.class
	if b.built {
		return nil, b.frozen()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty attribute name on class %s", ErrSchema, c.name)
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: attribute %q on class %s has unknown type", ErrSchema, name, c.name)
	}
	a := &Attribute{name: name, typ: t, index: len(c.attrs)}
	for _, opt := range opts {
		opt(a)
	}
	if !a.def.IsValid() {
		a.def = Zero(t)
	} else if a.def.Type() != t {
		return nil, fmt.Errorf("%w: default of %q is %s, want %s", ErrSchema, name, a.def.Type(), t)
	}
	if len(a.enums) > 0 && t != TypeInt {
		return nil, fmt.Errorf("%w: enumerable attribute %q must be Int", ErrSchema, name)
	}
	for _, n := range append([]string{name}, a.aliases...) {
		if _, dup := c.byName[n]; dup {
			return nil, fmt.Errorf("%w: attribute %q already declared on class %s", ErrSchema, n, c.name)
		}
	}
	c.attrs = append(c.attrs, a)
	c.byName[name] = a
	for _, alias := range a.aliases {
		c.byName[alias] = a
	}
	if a.group != "" {
		if _, seen := c.groupAttrs[a.group]; !seen {
			c.groups = append(c.groups, a.group)
		}
		c.groupAttrs[a.group] = append(c.groupAttrs[a.group], a)
	}
	return a, nil
}

// Err returns the accumulated declaration errors.
func (b *ClassBuilder) Err() error {
	return errors.Join(b.errs...)
}

// Build finishes the class.
func (b *ClassBuilder) Build() (*SceneClass, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	if !b.built {
		b.class.computeHash()
		b.built = true
	}
	return b.class, nil
}
