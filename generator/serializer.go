package generator

import (
	"github.com/dave/jennifer/jen"
	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/introspect"
	"github.com/memorex386/Boxfit/model"
	"github.com/memorex386/Boxfit/unique"
)

const (
	receiverVar = "s"
	contextVar  = "ctx"
	objectVar   = "object"
	arrayVar    = "array"
	entityVar   = "entity"
	errVar      = "err"
	refsVar     = "refs"
	resolverVar = "r"
)

func (g *Generator) binding(f *jen.File, m *model.Model) error {
	typeName := m.TypeName()
	fields := jen.Dict{
		jen.Id("Name"): jen.Lit(m.PkgPath + "." + typeName),
		jen.Id("ID"): jen.Func().Params(jen.Id(entityVar).Op("*").Id(typeName)).Uint64().Block(
			jen.Return(jen.Id(entityVar).Dot(m.IDField)),
		),
		jen.Id("SetID"): jen.Func().Params(jen.Id(entityVar).Op("*").Id(typeName), jen.Id("id").Uint64()).Block(
			jen.Id(entityVar).Dot(m.IDField).Op("=").Id("id"),
		),
	}
	if field, ok := m.UniqueField(); ok {
		fields[jen.Id("UniqueKey")] = jen.Func().Params(jen.Id(entityVar).Op("*").Id(typeName)).Id("any").Block(
			jen.Return(jen.Id(entityVar).Dot(field.Name)),
		)
	} else if len(m.Unique) > 0 {
		return errors.Errorf("unique field %s of %s is not extracted", m.Unique, typeName)
	}
	f.Comment(m.BindingName + " describes the identity of " + typeName + " in the store.")
	f.Var().Id(m.BindingName).Op("=").Qual(BoxPackage, "Binding").Types(jen.Id(typeName)).Values(fields)
	f.Line()
	g.relations(f, m)
	return nil
}

// relations is assigned in init: bindings of mutually referencing entities would otherwise form an
// initialization cycle.
func (g *Generator) relations(f *jen.File, m *model.Model) {
	nested := slice.Filter(m.Fields, func(field *model.Field) bool { return field.Kind != model.Primitive })
	if len(nested) == 0 {
		return
	}
	typeName := m.TypeName()
	refs := []jen.Code{jen.Id(refsVar).Op(":=").Op("*").Id(entityVar)}
	resolve := []jen.Code{jen.Var().Id(errVar).Error()}
	for _, field := range nested {
		binding := jen.Qual(field.Model.PkgPath, field.Model.BindingName)
		refFunc, resolveFunc := relationFuncs(field)
		refs = append(refs, jen.Id(refsVar).Dot(field.Name).Op("=").Qual(BoxPackage, refFunc).Call(binding.Clone(), jen.Id(entityVar).Dot(field.Name)))
		resolve = append(resolve, jen.If(
			jen.List(jen.Id(entityVar).Dot(field.Name), jen.Err()).Op("=").Qual(BoxPackage, resolveFunc).Call(jen.Id(resolverVar), binding.Clone(), jen.Id(entityVar).Dot(field.Name)),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())))
	}
	refs = append(refs, jen.Return(jen.Op("&").Id(refsVar)))
	resolve = append(resolve, jen.Return(jen.Nil()))

	f.Func().Id("init").Params().Block(
		jen.Id(m.BindingName).Dot("Relations").Op("=").Op("&").Qual(BoxPackage, "Relations").Types(jen.Id(typeName)).Values(jen.Dict{
			jen.Id("Refs"): jen.Func().Params(jen.Id(entityVar).Op("*").Id(typeName)).Op("*").Id(typeName).Block(refs...),
			jen.Id("Resolve"): jen.Func().Params(jen.Id(resolverVar).Op("*").Qual(BoxPackage, "Resolver"), jen.Id(entityVar).Op("*").Id(typeName)).
				Error().Block(resolve...),
		}),
	)
	f.Line()
}

func relationFuncs(field *model.Field) (string, string) {
	switch {
	case field.Kind == model.Nested && field.RefCount == 1:
		return "Ref", "Resolve"
	case field.Kind == model.Nested:
		return "ValueRef", "ResolveValue"
	case field.RefCount == 1:
		return "Refs", "ResolveAll"
	default:
		return "ValueRefs", "ResolveValues"
	}
}

func (g *Generator) serializer(f *jen.File, m *model.Model) error {
	var (
		typeName   = m.TypeName()
		name       = m.SerializerName
		receiver   = jen.Id(receiverVar).Op("*").Id(name)
		entityPtr  = jen.Op("*").Id(typeName)
		objectType = jen.Op("*").Qual(JSONTreePackage, "Object")
	)
	f.Comment(name + " converts JSON into persisted " + typeName + " entities.")
	f.Type().Id(name).Struct(jen.Id(contextVar).Op("*").Qual(SerializerPackage, "Context"))
	f.Line()
	f.Var().Id("_").Qual(SerializerPackage, "Serializer").Types(jen.Id(typeName)).Op("=").Parens(jen.Op("*").Id(name)).Parens(jen.Nil())
	f.Line()

	f.Func().Id(constructorName(m)).Params(jen.Id(contextVar).Op("*").Qual(SerializerPackage, "Context")).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{jen.Id(contextVar): jen.Id(contextVar)})),
	)
	f.Line()

	body, err := g.buildBody(m)
	if err != nil {
		return err
	}
	f.Comment("Build extracts " + typeName + " from object and persists the entities it references.")
	f.Func().Params(receiver.Clone()).Id("Build").Params(jen.Id(objectVar).Add(objectType.Clone())).
		Params(entityPtr.Clone(), jen.Error()).Block(body...)
	f.Line()

	f.Func().Params(receiver.Clone()).Id("FromJSONObject").Params(jen.Id(objectVar).Add(objectType.Clone())).
		Params(entityPtr.Clone(), jen.Error()).Block(
		jen.List(jen.Id(entityVar), jen.Err()).Op(":=").Id(receiverVar).Dot("Build").Call(jen.Id(objectVar)),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Qual(SerializerPackage, "Persist").Call(
			jen.Id(receiverVar).Dot(contextVar), jen.Id(m.BindingName), jen.Id(entityVar),
		)),
	)
	f.Line()

	f.Func().Params(receiver.Clone()).Id("FromJSONArray").Params(jen.Id(arrayVar).Op("*").Qual(JSONTreePackage, "Array")).
		Params(jen.Index().Add(entityPtr.Clone()), jen.Error()).Block(
		jen.Return(jen.Qual(SerializerPackage, "Collect").Call(jen.Id(arrayVar), jen.Id(receiverVar).Dot("FromJSONObject"))),
	)
	f.Line()
	return nil
}

func (g *Generator) buildBody(m *model.Model) ([]jen.Code, error) {
	names := unique.NewNamesWith(unique.PreInit(receiverVar, objectVar, entityVar, errVar))
	body := []jen.Code{jen.Id(entityVar).Op(":=").New(jen.Id(m.TypeName()))}
	if _, ok := slice.First(m.Fields, assignsOuterErr); ok {
		body = append(body, jen.Var().Id(errVar).Error())
	}
	for _, field := range m.Fields {
		code, err := g.fieldCode(m, field, names)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", field.Name)
		}
		if field.Optional {
			code = []jen.Code{jen.If(jen.Op("!").Id(objectVar).Dot("IsNull").Call(jen.Lit(field.Key))).Block(code...)}
		}
		body = append(body, code...)
	}
	return append(body, jen.Return(jen.Id(entityVar), jen.Nil())), nil
}

// assignsOuterErr reports whether the field code writes the err declared at the top of Build.
// Optional nested fields declare their own err inside the null check block.
func assignsOuterErr(field *model.Field) bool {
	return field.Kind == model.Primitive || !field.Optional
}

func (g *Generator) fieldCode(m *model.Model, field *model.Field, names *unique.Names) ([]jen.Code, error) {
	target := jen.Id(entityVar).Dot(field.Name)
	onErr := jen.Return(jen.Nil(), jen.Qual(SerializerPackage, "FieldErr").Call(jen.Lit(m.TypeName()), jen.Lit(field.Key), jen.Err()))
	checkErr := func() *jen.Statement { return jen.If(jen.Err().Op("!=").Nil()).Block(onErr.Clone()) }
	local := model.LowerCamel(field.Name)

	switch field.Kind {
	case model.Primitive:
		var read *jen.Statement
		if field.Getter == introspect.FallbackGetter {
			fieldType, err := typeCode(field.Type)
			if err != nil {
				return nil, err
			}
			read = jen.Qual(JSONTreePackage, "As").Types(fieldType).Call(jen.Id(objectVar).Dot("Get").Call(jen.Lit(field.Key)))
		} else {
			read = jen.Id(objectVar).Dot(field.Getter).Call(jen.Lit(field.Key))
		}
		return []jen.Code{
			jen.If(jen.List(target, jen.Err()).Op("=").Add(read), jen.Err().Op("!=").Nil()).Block(onErr),
		}, nil
	case model.Nested:
		nestedObject := names.Get(local + "Object")
		convert := jen.Qual(field.Model.PkgPath, constructorName(field.Model)).Call(jen.Id(receiverVar).Dot(contextVar)).
			Dot("FromJSONObject").Call(jen.Id(nestedObject))
		code := []jen.Code{
			jen.List(jen.Id(nestedObject), jen.Err()).Op(":=").Id(objectVar).Dot("GetJSONObject").Call(jen.Lit(field.Key)),
			checkErr(),
		}
		if field.RefCount == 1 {
			return append(code, jen.If(jen.List(target, jen.Err()).Op("=").Add(convert), jen.Err().Op("!=").Nil()).Block(onErr)), nil
		}
		nestedEntity := names.Get(local + "Entity")
		return append(code,
			jen.List(jen.Id(nestedEntity), jen.Err()).Op(":=").Add(convert),
			checkErr(),
			target.Op("=").Op("*").Id(nestedEntity),
		), nil
	case model.NestedList:
		nestedArray := names.Get(local + "Array")
		convert := jen.Qual(field.Model.PkgPath, constructorName(field.Model)).Call(jen.Id(receiverVar).Dot(contextVar)).
			Dot("FromJSONArray").Call(jen.Id(nestedArray))
		code := []jen.Code{
			jen.List(jen.Id(nestedArray), jen.Err()).Op(":=").Id(objectVar).Dot("GetJSONArray").Call(jen.Lit(field.Key)),
			checkErr(),
		}
		if field.RefCount == 1 {
			return append(code, jen.If(jen.List(target, jen.Err()).Op("=").Add(convert), jen.Err().Op("!=").Nil()).Block(onErr)), nil
		}
		nestedEntities := names.Get(local + "Entities")
		return append(code,
			jen.List(jen.Id(nestedEntities), jen.Err()).Op(":=").Add(convert),
			checkErr(),
			target.Op("=").Qual(SerializerPackage, "Values").Call(jen.Id(nestedEntities)),
		), nil
	default:
		return nil, errors.Errorf("unexpected field kind %v", field.Kind)
	}
}
