package generator

import (
	"go/types"

	"github.com/dave/jennifer/jen"
	"github.com/pkg/errors"
)

// typeCode renders a type reference; named types are qualified by their package path.
func typeCode(typ types.Type) (*jen.Statement, error) {
	switch t := typ.(type) {
	case *types.Basic:
		if t.Kind() == types.Invalid || t.Kind() == types.UnsafePointer || t.Info()&types.IsUntyped != 0 {
			return nil, errors.Wrapf(ErrTypeShape, "%v", typ)
		}
		return jen.Id(t.Name()), nil
	case *types.Pointer:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case *types.Slice:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case *types.Array:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Index(jen.Lit(int(t.Len()))).Add(elem), nil
	case *types.Map:
		key, err := typeCode(t.Key())
		if err != nil {
			return nil, err
		}
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(elem), nil
	case *types.Named:
		return qualified(t.Obj(), t.TypeArgs())
	case *types.Alias:
		return qualified(t.Obj(), t.TypeArgs())
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any"), nil
		}
	}
	return nil, errors.Wrapf(ErrTypeShape, "%T %v", typ, typ)
}

func qualified(obj *types.TypeName, args *types.TypeList) (*jen.Statement, error) {
	var code *jen.Statement
	if obj.Pkg() == nil {
		code = jen.Id(obj.Name())
	} else {
		code = jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	if args.Len() == 0 {
		return code, nil
	}
	argCodes := make([]jen.Code, 0, args.Len())
	for i := 0; i < args.Len(); i++ {
		arg, err := typeCode(args.At(i))
		if err != nil {
			return nil, err
		}
		argCodes = append(argCodes, arg)
	}
	return code.Types(argCodes...), nil
}
