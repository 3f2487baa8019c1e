// Package model builds serializer descriptors: one Model per annotated struct type with
// one conversion plan (Field) per extracted struct field.
package model

import (
	"go/types"

	"github.com/pkg/errors"
)

const (
	TagName       = "boxfit"
	IDFieldName   = "ID"
	BindingSuffix = "Binding"
)

var (
	ErrNotEntity        = errors.New("type is not an entity")
	ErrUnsupportedField = errors.New("unsupported field")
	ErrNoID             = errors.New("entity has no ID field")
	ErrUnique           = errors.New("invalid unique key")
)

// Kind classifies how a field value is extracted from a JSON object.
type Kind int

const (
	Primitive Kind = iota
	Nested
	NestedList
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "primitive"
	case Nested:
		return "nested-object"
	case NestedList:
		return "list-of-nested-object"
	default:
		return "unknown"
	}
}

type (
	// Field is the conversion plan of one struct field.
	Field struct {
		Name string
		Key  string
		Kind Kind
		Type types.Type
		// Getter is the JSON tree accessor of a Primitive field.
		Getter string
		// Model describes the nested entity of Nested and NestedList fields.
		Model *Model
		// Elem is the declared element type of a NestedList field.
		Elem types.Type
		// RefCount is the pointer depth of a Nested field or of a NestedList element; 0 or 1.
		RefCount int
		Optional bool
	}

	// Model is the serializer descriptor of an entity type.
	Model struct {
		Obj            *types.TypeName
		PkgPath        string
		SerializerName string
		BindingName    string
		IDField        string
		// Unique is the name of the merge key field, empty when the entity has none.
		Unique string
		Fields []*Field
	}
)

func (m *Model) TypeName() string {
	return m.Obj.Name()
}

func (m *Model) Package() *types.Package {
	return m.Obj.Pkg()
}

// Field returns the conversion plan of the named struct field.
func (m *Model) Field(name string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// UniqueField returns the conversion plan of the merge key field.
func (m *Model) UniqueField() (*Field, bool) {
	if len(m.Unique) == 0 {
		return nil, false
	}
	return m.Field(m.Unique)
}
