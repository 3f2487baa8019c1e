// Package introspect answers the questions the generator asks about go/types types:
// serializer naming, type arguments, JSON accessor names and list detection.
package introspect

import (
	"go/types"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/env"
)

const (
	// NestingSeparator replaces qualification characters in generated serializer names.
	NestingSeparator = "_"
	SerializerSuffix = "Serializer"
	// JSONTreePackage is the import path of the JSON tree read by generated serializers.
	JSONTreePackage = "github.com/memorex386/Boxfit/jsontree"
	FallbackGetter  = "Get"
)

var (
	ErrUnsupportedType = errors.New("unsupported type shape")
	ErrTypeArgIndex    = errors.New("type argument index out of range")
	ErrNotList         = errors.New("not a list type")
)

// getters is built at package init and never modified.
var getters = map[string]string{
	"string":  "GetString",
	"int":     "GetInt",
	"bool":    "GetBoolean",
	"int64":   "GetLong",
	"float64": "GetDouble",

	"*" + JSONTreePackage + ".Object": "GetJSONObject",
	"*" + JSONTreePackage + ".Array":  "GetJSONArray",
}

// SerializerName returns the package path and the name of the serializer generated for obj.
func SerializerName(e *env.Env, obj *types.TypeName) (string, string, error) {
	pkg, err := e.PackageOf(obj)
	if err != nil {
		return "", "", err
	}
	if obj.Parent() != pkg.Scope() {
		return "", "", errors.Wrapf(env.ErrUnresolvable, "%s is not declared at package level", obj.Name())
	}
	return pkg.Path(), RelativeName(obj.Type(), pkg) + SerializerSuffix, nil
}

// RelativeName renders typ relative to pkg and flattens every qualification into NestingSeparator.
func RelativeName(typ types.Type, pkg *types.Package) string {
	name := types.TypeString(typ, types.RelativeTo(pkg))
	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteString(NestingSeparator)
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}
	return b.String()
}

// TypeArgAt returns the type argument at index. A nil type with a nil error means none.
func TypeArgAt(typ types.Type, index int) (types.Type, error) {
	switch t := typ.(type) {
	case *types.Named:
		return listAt(t.TypeArgs(), index, typ)
	case *types.Alias:
		return listAt(t.TypeArgs(), index, typ)
	case *types.Slice:
		return declaredAt(index, typ, t.Elem())
	case *types.Map:
		return declaredAt(index, typ, t.Key(), t.Elem())
	case *types.Basic, *types.Array, *types.TypeParam:
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%T %v", typ, typ)
	}
}

func listAt(args *types.TypeList, index int, typ types.Type) (types.Type, error) {
	if args.Len() == 0 {
		return nil, nil
	}
	if index < 0 || index >= args.Len() {
		return nil, errors.Wrapf(ErrTypeArgIndex, "%d of %v", index, typ)
	}
	return args.At(index), nil
}

func declaredAt(index int, typ types.Type, args ...types.Type) (types.Type, error) {
	if index < 0 || index >= len(args) {
		return nil, errors.Wrapf(ErrTypeArgIndex, "%d of %v", index, typ)
	}
	return args[index], nil
}

// JSONGetter returns the JSON tree accessor for an exact type match, or FallbackGetter.
func JSONGetter(typ types.Type) string {
	if getter, ok := getters[types.TypeString(types.Unalias(typ), nil)]; ok {
		return getter
	}
	return FallbackGetter
}

// SupertypeChain lists the direct supertypes of typ followed by typ itself.
// A named type's supertypes are its underlying type and the types embedded into an underlying struct.
// Aliases are resolved first.
func SupertypeChain(typ types.Type) []types.Type {
	typ = types.Unalias(typ)
	var chain []types.Type
	if under := typ.Underlying(); !types.Identical(under, typ) {
		chain = append(chain, under)
	}
	if s, ok := typ.Underlying().(*types.Struct); ok {
		for i := 0; i < s.NumFields(); i++ {
			if f := s.Field(i); f.Embedded() {
				chain = append(chain, f.Type())
			}
		}
	}
	return append(chain, typ)
}

// IsListLike reports whether a member of the supertype chain is a slice.
func IsListLike(typ types.Type) bool {
	for _, t := range SupertypeChain(typ) {
		if _, ok := t.(*types.Slice); ok {
			return true
		}
	}
	return false
}

// ListElem returns the element type of a list-like type: its sole type argument,
// or the element of the first slice found in its supertype chain.
func ListElem(typ types.Type) (types.Type, error) {
	typ = types.Unalias(typ)
	if !IsListLike(typ) {
		return nil, errors.Wrapf(ErrNotList, "%v", typ)
	}
	if elem, err := TypeArgAt(typ, 0); err != nil || elem != nil {
		return elem, err
	}
	for _, t := range SupertypeChain(typ) {
		if s, ok := t.(*types.Slice); ok {
			return s.Elem(), nil
		}
	}
	return nil, errors.Wrapf(ErrNotList, "%v", typ)
}

// Deref strips pointers and aliases and returns how many pointers were removed.
func Deref(typ types.Type) (types.Type, int) {
	count := 0
	for {
		typ = types.Unalias(typ)
		p, ok := typ.(*types.Pointer)
		if !ok {
			return typ, count
		}
		typ = p.Elem()
		count++
	}
}

// NamedOf returns the type name of a named or alias type, or nil.
func NamedOf(typ types.Type) *types.TypeName {
	switch t := typ.(type) {
	case *types.Named:
		return t.Obj()
	case *types.Alias:
		return NamedOf(types.Unalias(t))
	default:
		return nil
	}
}
