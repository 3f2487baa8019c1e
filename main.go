package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/types"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/tools/go/packages"

	"github.com/memorex386/Boxfit/env"
	"github.com/memorex386/Boxfit/generator"
	"github.com/memorex386/Boxfit/logger"
	"github.com/memorex386/Boxfit/model"
	"github.com/memorex386/Boxfit/params"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of "+params.Name+":\n")
	fmt.Fprintf(os.Stderr, "\t"+params.Name+" [flags] [directory]\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix(params.Name + ": ")

	config, err := params.NewConfig(flag.CommandLine)
	if err != nil {
		log.Fatal(err)
	}

	flag.Usage = usage
	flag.Parse()
	config.Parsed(flag.CommandLine)
	logger.Init(false)
	defer logger.Sync()

	args := flag.Args()
	outputDir := outDir(args)
	if len(outputDir) > 0 {
		if err := os.Chdir(outputDir); err != nil {
			log.Fatalf("out dir error: %v", err)
		}
	}

	if err = mergeConfigFile(config); err != nil {
		log.Fatal(err)
	}
	e, err := env.Load("", *config.BuildTags, *config.PackagePattern)
	if err != nil {
		log.Fatal(err)
	}

	commentConfig, err := NewFilesCommentsConfig(slice.Flat(e.Roots(), func(p *packages.Package) []*ast.File { return p.Syntax }))
	if err != nil {
		log.Fatal(err)
	} else if commentConfig != nil {
		loadedPattern, loadedTags := *config.PackagePattern, *config.BuildTags
		config = config.MergeWith(commentConfig)
		if err = mergeConfigFile(config); err != nil {
			log.Fatal(err)
		}
		if *config.PackagePattern != loadedPattern || !slices.Equal(*config.BuildTags, loadedTags) {
			logger.Debugf("reload packages %s, build tags %v", *config.PackagePattern, *config.BuildTags)
			if e, err = env.Load("", *config.BuildTags, *config.PackagePattern); err != nil {
				log.Fatal(err)
			}
		}
	}

	logger.Debugw("using", "config", config)

	roots := slice.Filter(e.Roots(), func(p *packages.Package) bool { return len(e.EntitiesOf(p.PkgPath)) > 0 })
	if len(roots) == 0 {
		log.Printf("no annotated types in %s", *config.PackagePattern)
		return
	} else if len(roots) > 1 && len(*config.Output) > 0 {
		log.Fatalf("output file %s is set for %d packages", *config.Output, len(roots))
	}

	var generated []output
	var errs error
	for _, pkg := range roots {
		outputName, src, err := generate(e, pkg, config, os.Args[1:])
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "package %s", pkg.PkgPath))
			continue
		}
		generated = append(generated, output{name: outputName, src: src})
	}
	if errs != nil {
		log.Fatalf("generate error: %v", errs)
	}

	const userWriteOtherRead = fs.FileMode(0644)
	for _, out := range generated {
		if err := os.WriteFile(out.name, out.src, userWriteOtherRead); err != nil {
			log.Fatalf("writing output: %s", err)
		}
		logger.Infof("generated %s", out.name)
	}
}

type output struct {
	name string
	src  []byte
}

// generate renders the serializers of the annotated types declared in pkg.
func generate(e *env.Env, pkg *packages.Package, config *params.Config, args []string) (string, []byte, error) {
	keys, err := model.NewKeyNamer(*config.KeyExpr)
	if err != nil {
		return "", nil, err
	}
	unique, err := config.UniqueKeys()
	if err != nil {
		return "", nil, err
	}
	objs, err := selectTypes(e.EntitiesOf(pkg.PkgPath), *config.Types)
	if err != nil {
		return "", nil, err
	}
	models, err := model.NewAll(e, objs, model.Options{Keys: keys, Unique: unique})
	if err != nil {
		return "", nil, err
	}
	logger.Debugw("models", "package", pkg.PkgPath, "count", len(models))

	g, err := generator.New(params.Name, args, *config.Apis...)
	if err != nil {
		return "", nil, err
	}
	src, err := g.Generate(pkg.Types, models)
	if err != nil {
		return "", nil, err
	}

	outputName := *config.Output
	if len(outputName) == 0 {
		if len(pkg.Syntax) == 0 {
			return "", nil, errors.Errorf("no src files in package %s", pkg.PkgPath)
		}
		dir := filepath.Dir(e.FileSet().Position(pkg.Syntax[0].Pos()).Filename)
		outputName = filepath.Join(dir, strings.ToLower(pkg.Name)+params.DefaultFileSuffix)
	}
	if outputName, err = filepath.Abs(outputName); err != nil {
		return "", nil, err
	}
	return outputName, src, nil
}

func selectTypes(entities []*types.TypeName, names []string) ([]*types.TypeName, error) {
	if len(names) == 0 {
		return entities, nil
	}
	result := make([]*types.TypeName, 0, len(names))
	for _, name := range names {
		obj, ok := slice.First(entities, func(o *types.TypeName) bool { return o.Name() == name })
		if !ok {
			return nil, errors.Errorf("type %s not found or has no //%s directive", name, env.DirectivePrefix)
		}
		result = append(result, obj)
	}
	return result, nil
}

func mergeConfigFile(config *params.Config) error {
	if len(*config.ConfigFile) == 0 {
		return nil
	}
	file, err := params.LoadFile(*config.ConfigFile)
	if err != nil {
		return err
	}
	return config.MergeFile(file)
}

func NewFilesCommentsConfig(files []*ast.File) (config *params.Config, err error) {
	for _, file := range files {
		if config, err = NewFileCommentConfig(file, config); err != nil {
			return nil, err
		}
	}
	return config, err
}

func NewFileCommentConfig(file *ast.File, sharedConfig *params.Config) (*params.Config, error) {
	for _, commentGroup := range file.Comments {
		for _, comment := range commentGroup.List {
			commentConfig, err := NewConfigComment(comment.Text)
			if err != nil {
				return nil, err
			} else if commentConfig == nil {
				continue
			} else if sharedConfig == nil {
				sharedConfig = commentConfig
				continue
			}
			sharedConfig = sharedConfig.MergeWith(commentConfig)
		}
	}
	return sharedConfig, nil
}

func NewConfigComment(text string) (*params.Config, error) {
	prefix := "//" + params.CommentConfigPrefix
	if !strings.HasPrefix(text, prefix+" ") {
		return nil, nil
	}
	configComment := strings.TrimSpace(text[len(prefix):])
	if len(configComment) == 0 {
		return nil, nil
	}
	flagSet := flag.NewFlagSet(params.CommentConfigPrefix, flag.ContinueOnError)
	commentConfig, err := params.NewConfig(flagSet)
	if err != nil {
		return nil, err
	}
	if err = flagSet.Parse(strings.Fields(configComment)); err != nil {
		return nil, fmt.Errorf("parsing config comment %v; %w", text, err)
	}
	return commentConfig.Parsed(flagSet), nil
}

func outDir(args []string) string {
	if len(args) > 0 && isDir(args[len(args)-1]) {
		return args[len(args)-1]
	}
	return ""
}

func isDir(name string) bool {
	info, err := os.Stat(name)
	if err != nil {
		log.Fatal(err)
	}
	return info.IsDir()
}
