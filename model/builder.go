package model

import (
	"go/types"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/memorex386/Boxfit/env"
	"github.com/memorex386/Boxfit/introspect"
	"github.com/memorex386/Boxfit/logger"
)

type Options struct {
	Keys *KeyNamer
	// Unique maps an entity type name to its merge key field; it overrides nothing set in source.
	Unique map[string]string
}

type handledStructs = map[*types.TypeName]*Model

type modelBuilder struct {
	env         *env.Env
	opts        Options
	loopControl handledStructs
}

func newBuilder(e *env.Env, opts Options, loopControl handledStructs) (*modelBuilder, error) {
	if e == nil {
		return nil, env.ErrNoEnv
	}
	if opts.Keys == nil {
		keys, err := NewKeyNamer("")
		if err != nil {
			return nil, err
		}
		opts.Keys = keys
	}
	return &modelBuilder{env: e, opts: opts, loopControl: loopControl}, nil
}

// New builds the descriptor of one annotated type together with the descriptors it references.
func New(e *env.Env, obj *types.TypeName, opts Options) (*Model, error) {
	b, err := newBuilder(e, opts, handledStructs{})
	if err != nil {
		return nil, err
	}
	return b.build(obj)
}

// NewAll builds the descriptors of objs. A failing type does not stop the others; its error is
// collected. An unsupported type shape stops the round.
func NewAll(e *env.Env, objs []*types.TypeName, opts Options) ([]*Model, error) {
	b, err := newBuilder(e, opts, handledStructs{})
	if err != nil {
		return nil, err
	}
	var (
		models []*Model
		errs   error
	)
	for _, obj := range objs {
		m, err := b.build(obj)
		if errors.Is(err, introspect.ErrUnsupportedType) {
			return nil, multierr.Append(errs, err)
		} else if err != nil {
			logger.Warnf("skip %s: %v", obj.Name(), err)
			errs = multierr.Append(errs, errors.Wrapf(err, "entity %s", obj.Name()))
			continue
		}
		models = append(models, m)
	}
	return models, errs
}

func (b *modelBuilder) build(obj *types.TypeName) (*Model, error) {
	if m, ok := b.loopControl[obj]; ok {
		logger.Debugf("found handled type %v", obj.Name())
		return m, nil
	}
	directive, ok := b.env.Entity(obj)
	if !ok {
		return nil, errors.Wrapf(ErrNotEntity, "%s", obj.Name())
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, errors.Wrapf(ErrNotEntity, "%s is not a defined type", obj.Name())
	} else if named.TypeParams().Len() > 0 {
		return nil, errors.Wrapf(ErrNotEntity, "generic type %s", obj.Name())
	}
	typeStruct, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, errors.Wrapf(ErrNotEntity, "'%s' is not a struct type", obj.Name())
	}
	pkgPath, serializerName, err := introspect.SerializerName(b.env, obj)
	if err != nil {
		return nil, err
	}
	m := &Model{
		Obj:            obj,
		PkgPath:        pkgPath,
		SerializerName: serializerName,
		BindingName:    strings.TrimSuffix(serializerName, introspect.SerializerSuffix) + BindingSuffix,
		Unique:         directive.Unique,
	}
	b.loopControl[obj] = m
	if err := b.populateByStruct(m, typeStruct); err != nil {
		delete(b.loopControl, obj)
		return nil, err
	}
	if err := b.resolveUnique(m); err != nil {
		delete(b.loopControl, obj)
		return nil, err
	}
	logger.Debugw("entity model", "type", obj.Name(), "serializer", m.SerializerName, "fields", len(m.Fields), "unique", m.Unique)
	return m, nil
}

func (b *modelBuilder) populateByStruct(m *Model, typeStruct *types.Struct) error {
	var uniqueByTag []string
	for i := 0; i < typeStruct.NumFields(); i++ {
		fieldVar := typeStruct.Field(i)
		fldName := fieldVar.Name()
		tag, err := parseTag(fldName, typeStruct.Tag(i))
		if err != nil {
			return err
		}
		if fieldVar.Embedded() {
			logger.Debugf("skip embedded field %s.%s", m.TypeName(), fldName)
			continue
		} else if tag.skip {
			logger.Debugf("skip field %s.%s", m.TypeName(), fldName)
			continue
		} else if !fieldVar.Exported() {
			return errors.Wrapf(ErrUnsupportedField, "%s.%s is unexported and would not be stored; export it or tag it %s:\"-\"", m.TypeName(), fldName, TagName)
		} else if tag.id || (fldName == IDFieldName && isUint64(fieldVar.Type())) {
			if !isUint64(fieldVar.Type()) {
				return errors.Wrapf(ErrNoID, "%s.%s must be uint64", m.TypeName(), fldName)
			} else if len(m.IDField) > 0 {
				return errors.Wrapf(ErrNoID, "%s has two ID fields: %s and %s", m.TypeName(), m.IDField, fldName)
			}
			m.IDField = fldName
			continue
		}
		if tag.unique {
			uniqueByTag = append(uniqueByTag, fldName)
		}
		field, err := b.newField(m, fieldVar, tag)
		if err != nil {
			return err
		}
		m.Fields = append(m.Fields, field)
	}
	if len(m.IDField) == 0 {
		return errors.Wrapf(ErrNoID, "%s", m.TypeName())
	}
	if len(uniqueByTag) > 1 {
		return errors.Wrapf(ErrUnique, "%s has several unique fields %v", m.TypeName(), uniqueByTag)
	} else if len(uniqueByTag) == 1 {
		if len(m.Unique) > 0 && m.Unique != uniqueByTag[0] {
			return errors.Wrapf(ErrUnique, "%s: directive names %s, tag names %s", m.TypeName(), m.Unique, uniqueByTag[0])
		}
		m.Unique = uniqueByTag[0]
	}
	return nil
}

func (b *modelBuilder) resolveUnique(m *Model) error {
	if configured, ok := b.opts.Unique[m.TypeName()]; ok && len(m.Unique) == 0 {
		m.Unique = configured
	}
	if len(m.Unique) == 0 {
		return nil
	}
	field, ok := m.Field(m.Unique)
	if !ok {
		return errors.Wrapf(ErrUnique, "%s has no extracted field %s", m.TypeName(), m.Unique)
	} else if field.Kind != Primitive || !types.Comparable(field.Type) {
		return errors.Wrapf(ErrUnique, "%s.%s must be a comparable primitive", m.TypeName(), m.Unique)
	}
	return nil
}

// newField classifies a field: a list is checked first, then an annotated type, else primitive.
func (b *modelBuilder) newField(m *Model, fieldVar *types.Var, tag fieldTag) (*Field, error) {
	fldName := fieldVar.Name()
	fieldType := fieldVar.Type()
	key := tag.key
	if len(key) == 0 {
		var err error
		if key, err = b.opts.Keys.Key(fldName, fieldType); err != nil {
			return nil, err
		}
	}
	field := &Field{Name: fldName, Key: key, Type: fieldType, Optional: tag.optional}

	if introspect.IsListLike(fieldType) {
		elem, err := introspect.ListElem(fieldType)
		if err != nil {
			return nil, err
		} else if elem == nil {
			return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: no element type", m.TypeName(), fldName)
		} else if _, ok := fieldType.Underlying().(*types.Slice); !ok {
			return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: list type %v is not a slice", m.TypeName(), fldName, fieldType)
		}
		nested, ref, err := b.nestedEntity(elem)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", m.TypeName(), fldName)
		} else if nested == nil {
			return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: list element %v is not an entity", m.TypeName(), fldName, elem)
		}
		field.Kind, field.Model, field.Elem, field.RefCount = NestedList, nested, elem, ref
		return field, nil
	}

	nested, ref, err := b.nestedEntity(fieldType)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", m.TypeName(), fldName)
	} else if nested != nil {
		field.Kind, field.Model, field.RefCount = Nested, nested, ref
		return field, nil
	}

	field.Kind = Primitive
	field.Getter = introspect.JSONGetter(fieldType)
	if field.Getter == introspect.FallbackGetter {
		logger.Debugf("no typed getter for %s.%s of type %v, use %s", m.TypeName(), fldName, fieldType, field.Getter)
	}
	return field, nil
}

// nestedEntity returns the descriptor of typ (or of the type it points to) when it is an entity.
func (b *modelBuilder) nestedEntity(typ types.Type) (*Model, int, error) {
	base, ref := introspect.Deref(typ)
	obj := introspect.NamedOf(base)
	if obj == nil {
		return nil, 0, nil
	}
	if _, ok := b.env.Entity(obj); !ok {
		return nil, 0, nil
	} else if ref > 1 {
		return nil, 0, errors.Wrapf(ErrUnsupportedField, "pointer depth %d of %v", ref, typ)
	}
	nested, err := b.build(obj)
	if err != nil {
		return nil, 0, err
	}
	return nested, ref, nil
}

func isUint64(typ types.Type) bool {
	return types.Identical(typ, types.Typ[types.Uint64])
}
