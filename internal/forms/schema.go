package forms

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// FieldType is the tag of a field descriptor variant. Each type has exactly
// one coercion rule (see Coerce).
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldDate        FieldType = "date"
	FieldAutoDate    FieldType = "auto_date"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldFile        FieldType = "file"
)

// Field describes one field of a form template schema.
type Field struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"` // select / multiselect only
}

// Schema is the ordered field list of a form template. Order is significant:
// it drives rendering order on the fill page and in the generated document.
type Schema []Field

// ParseSchema decodes a template's jsonb fields column.
func ParseSchema(raw datatypes.JSON) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse field schema: %w", err)
	}
	for i, f := range s {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if !f.Type.valid() {
			return nil, fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return s, nil
}

// MustJSON encodes a schema for seeding. Panics on failure; schemas are
// compile-time literals.
func (s Schema) MustJSON() datatypes.JSON {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}

// Keys returns the field names in schema order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for _, f := range s {
		keys = append(keys, f.Name)
	}
	return keys
}

// Lookup returns the descriptor for a field name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t FieldType) valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldEmail, FieldDate, FieldAutoDate, FieldSelect, FieldMultiSelect, FieldFile:
		return true
	}
	return false
}

func (f Field) hasOption(value string) bool {
	for _, opt := range f.Options {
		if opt == value {
			return true
		}
	}
	return false
}
