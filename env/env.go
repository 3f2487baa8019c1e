// Package env holds the type-checked packages of one processing round.
//
// An Env is built once by Load (or New/FromTypes) and is read-only afterwards.
// Every introspection and model function takes it as an explicit argument.
package env

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"

	"github.com/memorex386/Boxfit/logger"
	"github.com/memorex386/Boxfit/use"
)

const LoadMode = packages.NeedSyntax | packages.NeedName | packages.NeedTypesInfo | packages.NeedTypes | packages.NeedModule

var (
	ErrNoEnv         = errors.New("environment is not initialized")
	ErrUnresolvable  = errors.New("unresolvable symbol")
	ErrPackageErrors = errors.New("package errors")
)

type Env struct {
	fset     *token.FileSet
	roots    []*packages.Package
	packs    map[string]*types.Package
	entities map[*types.TypeName]Directive
	order    []*types.TypeName
}

// Load type-checks the packages matched by patterns relative to dir.
func Load(dir string, buildTags []string, patterns ...string) (*Env, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Dir:        dir,
		Fset:       fset,
		Mode:       LoadMode,
		BuildFlags: buildTagsArg(buildTags),
		Logf:       func(format string, args ...any) { logger.Debugf("packagesLoad: "+format, args...) },
	}, patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "load packages %v", patterns)
	}
	var pkgErrs []string
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			pkgErrs = append(pkgErrs, e.Error())
		}
	})
	if len(pkgErrs) > 0 {
		return nil, errors.Wrap(ErrPackageErrors, strings.Join(pkgErrs, "; "))
	}
	return New(fset, pkgs...)
}

func buildTagsArg(buildTags []string) []string {
	if len(buildTags) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("-tags=%s", strings.Join(buildTags, ","))}
}

// New indexes already loaded packages; only packages with syntax contribute entity directives.
func New(fset *token.FileSet, pkgs ...*packages.Package) (*Env, error) {
	e := &Env{
		fset:     fset,
		roots:    pkgs,
		packs:    map[string]*types.Package{},
		entities: map[*types.TypeName]Directive{},
	}
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			return nil, errors.Wrapf(ErrUnresolvable, "package %s has no type information", pkg.PkgPath)
		}
		e.addPackage(pkg.Types)
		if err := e.indexDirectives(pkg); err != nil {
			return nil, err
		}
	}
	e.sortEntities()
	return e, nil
}

// FromTypes builds an environment without syntax, so it knows no entities.
func FromTypes(pkgs ...*types.Package) *Env {
	e := &Env{
		fset:     token.NewFileSet(),
		packs:    map[string]*types.Package{},
		entities: map[*types.TypeName]Directive{},
	}
	for _, p := range pkgs {
		e.addPackage(p)
	}
	return e
}

func (e *Env) addPackage(p *types.Package) {
	if _, ok := e.packs[p.Path()]; ok {
		return
	}
	e.packs[p.Path()] = p
	for _, imp := range p.Imports() {
		e.addPackage(imp)
	}
}

func (e *Env) indexDirectives(pkg *packages.Package) error {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				docs := []*ast.CommentGroup{typeSpec.Doc}
				if len(genDecl.Specs) == 1 {
					docs = append(docs, genDecl.Doc)
				}
				d, found, err := findDirective(e.fset, docs...)
				if err != nil {
					return err
				} else if !found {
					continue
				}
				obj, _ := pkg.TypesInfo.Defs[typeSpec.Name].(*types.TypeName)
				if obj == nil {
					return errors.Wrapf(ErrUnresolvable, "type %s.%s", pkg.PkgPath, typeSpec.Name.Name)
				}
				if _, isStruct := obj.Type().Underlying().(*types.Struct); !isStruct {
					return use.Err(fmt.Sprintf("%s directive on non struct type %s at %s", DirectivePrefix, obj.Name(), e.fset.Position(d.Pos)))
				}
				logger.Debugf("found entity %s.%s", pkg.PkgPath, obj.Name())
				e.entities[obj] = d
				e.order = append(e.order, obj)
			}
		}
	}
	return nil
}

func (e *Env) sortEntities() {
	sort.SliceStable(e.order, func(i, j int) bool {
		l, r := e.order[i], e.order[j]
		if lp, rp := l.Pkg().Path(), r.Pkg().Path(); lp != rp {
			return lp < rp
		}
		return l.Pos() < r.Pos()
	})
}

func (e *Env) FileSet() *token.FileSet {
	return e.fset
}

// Roots returns the packages requested by Load, in load order.
func (e *Env) Roots() []*packages.Package {
	return e.roots
}

// PackageOf returns the package declaring obj if the package belongs to the environment.
func (e *Env) PackageOf(obj types.Object) (*types.Package, error) {
	if e == nil {
		return nil, ErrNoEnv
	}
	pkg := obj.Pkg()
	if pkg == nil {
		return nil, errors.Wrapf(ErrUnresolvable, "%s has no package", obj.Name())
	}
	known, ok := e.packs[pkg.Path()]
	if !ok || known != pkg {
		return nil, errors.Wrapf(ErrUnresolvable, "package %s of %s", pkg.Path(), obj.Name())
	}
	return known, nil
}

// Lookup finds a package-level object by package path and name.
func (e *Env) Lookup(pkgPath, name string) (types.Object, error) {
	if e == nil {
		return nil, ErrNoEnv
	}
	pkg, ok := e.packs[pkgPath]
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvable, "package %s", pkgPath)
	}
	obj := pkg.Scope().Lookup(name)
	if obj == nil {
		return nil, errors.Wrapf(ErrUnresolvable, "%s.%s", pkgPath, name)
	}
	return obj, nil
}

// Entity reports whether obj carries the entity directive.
func (e *Env) Entity(obj *types.TypeName) (Directive, bool) {
	if e == nil || obj == nil {
		return Directive{}, false
	}
	d, ok := e.entities[obj]
	return d, ok
}

// Entities returns annotated types ordered by package path and declaration position.
func (e *Env) Entities() []*types.TypeName {
	if e == nil {
		return nil
	}
	return append([]*types.TypeName(nil), e.order...)
}

// EntitiesOf returns the annotated types declared in the package with the given path.
func (e *Env) EntitiesOf(pkgPath string) []*types.TypeName {
	var result []*types.TypeName
	for _, obj := range e.Entities() {
		if obj.Pkg().Path() == pkgPath {
			result = append(result, obj)
		}
	}
	return result
}
