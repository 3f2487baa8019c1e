// Package generator renders the serializer source of entity models with jennifer.
package generator

import (
	"bytes"
	"fmt"
	"go/types"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/m4gshm/gollections/collection/mutable"
	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/logger"
	"github.com/memorex386/Boxfit/model"
)

const (
	BoxPackage        = "github.com/memorex386/Boxfit/box"
	SerializerPackage = "github.com/memorex386/Boxfit/serializer"
	JSONTreePackage   = "github.com/memorex386/Boxfit/jsontree"

	// ExcludeBuildTag keeps generated files out of the generator's own package loading.
	ExcludeBuildTag = "boxfit"
	RegisterFunc    = "RegisterSerializers"
)

// API is a selectable part of the generated code.
type API string

const (
	BindingAPI    API = "binding"
	SerializerAPI API = "serializer"
	RegisterAPI   API = "register"
)

var (
	ErrNoModels  = errors.New("no entity to generate")
	ErrAPI       = errors.New("inconsistent api selection")
	ErrTypeShape = errors.New("type cannot be rendered")
)

// APIs lists every api in dependency order.
func APIs() []API {
	return slice.Of(BindingAPI, SerializerAPI, RegisterAPI)
}

type Generator struct {
	Name string
	Args []string
	apis *mutable.Set[API]
}

// New checks the api selection: a serializer needs the binding, registration needs the serializer.
func New(name string, args []string, apis ...API) (*Generator, error) {
	if len(apis) == 0 {
		apis = APIs()
	}
	selected := mutable.NewSet[API]()
	for _, api := range apis {
		selected.AddNew(api)
	}
	if selected.Contains(SerializerAPI) && !selected.Contains(BindingAPI) {
		return nil, errors.Wrapf(ErrAPI, "%s requires %s", SerializerAPI, BindingAPI)
	} else if selected.Contains(RegisterAPI) && !selected.Contains(SerializerAPI) {
		return nil, errors.Wrapf(ErrAPI, "%s requires %s", RegisterAPI, SerializerAPI)
	}
	return &Generator{Name: name, Args: args, apis: selected}, nil
}

func (g *Generator) Has(api API) bool {
	return g.apis.Contains(api)
}

// Generate renders the file of pkg holding the code of models declared in pkg.
func (g *Generator) Generate(pkg *types.Package, models []*model.Model) ([]byte, error) {
	own := slice.Filter(models, func(m *model.Model) bool { return m.PkgPath == pkg.Path() })
	if len(own) == 0 {
		return nil, errors.Wrapf(ErrNoModels, "package %s", pkg.Path())
	}

	f := jen.NewFilePathName(pkg.Path(), pkg.Name())
	f.HeaderComment(fmt.Sprintf("Code generated by '%s %s'; DO NOT EDIT.", g.Name, strings.Join(g.Args, " ")))
	f.HeaderComment("//go:build !" + ExcludeBuildTag)
	f.ImportName(BoxPackage, "box")
	f.ImportName(SerializerPackage, "serializer")
	f.ImportName(JSONTreePackage, "jsontree")

	for _, m := range own {
		logger.Debugf("generate %s", m.SerializerName)
		if g.Has(BindingAPI) {
			if err := g.binding(f, m); err != nil {
				return nil, err
			}
		}
		if g.Has(SerializerAPI) {
			if err := g.serializer(f, m); err != nil {
				return nil, errors.Wrapf(err, "entity %s", m.TypeName())
			}
		}
	}
	if g.Has(RegisterAPI) {
		g.register(f, own)
	}

	buf := bytes.Buffer{}
	if err := f.Render(&buf); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	return buf.Bytes(), nil
}

func (g *Generator) register(f *jen.File, models []*model.Model) {
	f.Comment(RegisterFunc + " binds the serializers of this file to registry.")
	f.Func().Id(RegisterFunc).Params(jen.Id("registry").Op("*").Qual(SerializerPackage, "Registry")).BlockFunc(func(body *jen.Group) {
		for _, m := range models {
			entityType := jen.Id(m.TypeName())
			body.Qual(SerializerPackage, "Register").Types(entityType).Call(
				jen.Id("registry"),
				jen.Func().Params(jen.Id("ctx").Op("*").Qual(SerializerPackage, "Context")).
					Qual(SerializerPackage, "Serializer").Types(entityType).
					Block(jen.Return(jen.Id(constructorName(m)).Call(jen.Id("ctx")))),
			)
		}
	})
}

func constructorName(m *model.Model) string {
	return "New" + m.SerializerName
}
