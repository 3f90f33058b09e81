package rdl

import "fmt"

const (
	attrMetaName  = "name"
	attrMetaType  = "type"
	attrMetaValue = "value"
)

// Metadata holds a list of typed string attributes, such as the extra
// header entries of an image file. Each entry is a (name, type, value)
// triple stored column-wise.
type Metadata struct{ *SceneObject }

// SetAttributes replaces every entry. The three slices must have the
// same length.
func (m *Metadata) SetAttributes(names, types, values []string) error {
	if len(names) != len(types) || len(names) != len(values) {
		return fmt.Errorf("%w: metadata needs equal names, types and values, got %d/%d/%d",
			ErrLengthMismatch, len(names), len(types), len(values))
	}
	return m.Update(func() error {
		if err := m.Set(attrMetaName, StringVectorValue(names)); err != nil {
			return err
		}
		if err := m.Set(attrMetaType, StringVectorValue(types)); err != nil {
			return err
		}
		return m.Set(attrMetaValue, StringVectorValue(values))
	})
}

func (m *Metadata) AttributeNames() []string { return m.column(attrMetaName) }

func (m *Metadata) AttributeTypes() []string { return m.column(attrMetaType) }

func (m *Metadata) AttributeValues() []string { return m.column(attrMetaValue) }

func (m *Metadata) column(attr string) []string {
	v, _ := m.Get(attr)
	ss, _ := v.AsStringVector()
	return ss
}
