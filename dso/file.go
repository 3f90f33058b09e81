// Package dso loads scene class definitions from YAML files. A dso path
// is a list of directories separated by the OS path list separator; every
// *.yaml and *.yml file directly inside one of them is a class file.
//
// A class file looks like:
//
//	classes:
//	  - name: SphereGeometry
//	    interface: geometry
//	    attributes:
//	      - name: radius
//	        type: Float
//	        flags: bindable|blurrable
//	        default: 1
//	      - name: wrap
//	        type: Int
//	        enum:
//	          - {value: 0, label: periodic}
//	          - {value: 1, label: clamp}
//	        default: clamp
package dso

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/rdl2/rdl"
)

// File is the decoded form of one class file.
type File struct {
	Classes []ClassDef `yaml:"classes"`
}

// ClassDef declares one scene class.
type ClassDef struct {
	Name       string         `yaml:"name"`
	Interface  string         `yaml:"interface"`
	Attributes []AttributeDef `yaml:"attributes"`
}

// AttributeDef declares one attribute. Default is kept as a raw node and
// converted once the type is known.
type AttributeDef struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Flags      string            `yaml:"flags"`
	Group      string            `yaml:"group"`
	Aliases    []string          `yaml:"aliases"`
	ObjectType string            `yaml:"object_type"`
	Enum       []EnumDef         `yaml:"enum"`
	Metadata   map[string]string `yaml:"metadata"`
	Default    yaml.Node         `yaml:"default"`
}

// EnumDef is one labeled value of an enumerable attribute.
type EnumDef struct {
	Value int32  `yaml:"value"`
	Label string `yaml:"label"`
}

// ParseFile decodes a class file and builds its classes. source is
// recorded as the source path of every class.
func ParseFile(data []byte, source string) ([]*rdl.SceneClass, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rdl.ErrSchema, source, err)
	}
	out := make([]*rdl.SceneClass, 0, len(f.Classes))
	for _, def := range f.Classes {
		c, err := def.Build(source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Build turns the definition into a class.
func (def ClassDef) Build(source string) (*rdl.SceneClass, error) {
	iface, err := rdl.ParseInterface(def.Interface)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", def.Name, err)
	}
	b := rdl.NewClassBuilder(def.Name, iface).SourcePath(source)
	for _, a := range def.Attributes {
		opts, t, err := a.options()
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", def.Name, err)
		}
		b.Declare(a.Name, t, opts...)
	}
	return b.Build()
}

func (a AttributeDef) options() ([]rdl.AttrOption, rdl.AttributeType, error) {
	t, ok := rdl.ParseAttributeType(a.Type)
	if !ok {
		return nil, t, fmt.Errorf("%w: attribute %q has unknown type %q", rdl.ErrSchema, a.Name, a.Type)
	}
	flags, err := rdl.ParseAttributeFlags(a.Flags)
	if err != nil {
		return nil, t, err
	}
	opts := []rdl.AttrOption{rdl.WithFlags(flags)}
	if a.Group != "" {
		opts = append(opts, rdl.WithGroup(a.Group))
	}
	if len(a.Aliases) > 0 {
		opts = append(opts, rdl.WithAliases(a.Aliases...))
	}
	if a.ObjectType != "" {
		iface, err := rdl.ParseInterface(a.ObjectType)
		if err != nil {
			return nil, t, err
		}
		opts = append(opts, rdl.WithObjectType(iface))
	}
	for _, e := range a.Enum {
		opts = append(opts, rdl.WithEnum(e.Value, e.Label))
	}
	for k, v := range a.Metadata {
		opts = append(opts, rdl.WithMetadata(k, v))
	}
	if a.Default.Kind != 0 {
		def, err := a.defaultValue(t)
		if err != nil {
			return nil, t, err
		}
		opts = append(opts, rdl.WithDefault(def))
	}
	return opts, t, nil
}

// ============================================================
// Defaults
// ============================================================

// defaultValue converts the default node. Scalars take one YAML scalar
// or a flat list of components; vectors take a list whose items may be
// nested component lists. Object-valued attributes only accept null.
func (a AttributeDef) defaultValue(t rdl.AttributeType) (rdl.Value, error) {
	var raw any
	if err := a.Default.Decode(&raw); err != nil {
		return rdl.Value{}, fmt.Errorf("%w: default of %q: %v", rdl.ErrSchema, a.Name, err)
	}
	items := flatten(raw, nil)
	bad := func(item any) error {
		return fmt.Errorf("%w: default of %q: %v is not a valid %s component",
			rdl.ErrTypeMismatch, a.Name, item, t.Elem())
	}

	switch t.Category() {
	case rdl.CategoryBool:
		bs := make([]bool, len(items))
		for i, item := range items {
			b, ok := item.(bool)
			if !ok {
				return rdl.Value{}, bad(item)
			}
			bs[i] = b
		}
		return rdl.ValueFromBools(t, bs)
	case rdl.CategoryInt:
		ns := make([]int64, len(items))
		for i, item := range items {
			switch x := item.(type) {
			case int:
				ns[i] = int64(x)
			case int64:
				ns[i] = x
			case uint64:
				if x > math.MaxInt64 {
					return rdl.Value{}, bad(item)
				}
				ns[i] = int64(x)
			case string:
				n, ok := a.enumValue(x)
				if !ok {
					return rdl.Value{}, bad(item)
				}
				ns[i] = int64(n)
			default:
				return rdl.Value{}, bad(item)
			}
		}
		return rdl.ValueFromInts(t, ns)
	case rdl.CategoryFloat:
		fs := make([]float64, len(items))
		for i, item := range items {
			switch x := item.(type) {
			case int:
				fs[i] = float64(x)
			case int64:
				fs[i] = float64(x)
			case float64:
				fs[i] = x
			default:
				return rdl.Value{}, bad(item)
			}
		}
		return rdl.ValueFromFloats(t, fs)
	case rdl.CategoryString:
		ss := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return rdl.Value{}, bad(item)
			}
			ss[i] = s
		}
		return rdl.ValueFromStrings(t, ss)
	default:
		if raw != nil {
			return rdl.Value{}, fmt.Errorf("%w: default of %q must be null", rdl.ErrSchema, a.Name)
		}
		return rdl.Zero(t), nil
	}
}

func (a AttributeDef) enumValue(label string) (int32, bool) {
	for _, e := range a.Enum {
		if e.Label == label {
			return e.Value, true
		}
	}
	return 0, false
}

// flatten appends the leaves of nested lists to out. A null yields no
// items, which gives an empty vector.
func flatten(v any, out []any) []any {
	switch x := v.(type) {
	case nil:
		return out
	case []any:
		for _, item := range x {
			out = flatten(item, out)
		}
		return out
	default:
		return append(out, v)
	}
}
