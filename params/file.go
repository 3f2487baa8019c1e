package params

import (
	"maps"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/memorex386/Boxfit/generator"
)

// File is the YAML configuration; its values apply to options set neither by flags nor by comments.
type File struct {
	Package   string            `yaml:"package"`
	Output    string            `yaml:"output"`
	BuildTags []string          `yaml:"buildTags"`
	Types     []string          `yaml:"types"`
	KeyExpr   string            `yaml:"keyExpr"`
	Apis      []string          `yaml:"apis"`
	Unique    map[string]string `yaml:"unique"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	file := &File{}
	if err = yaml.Unmarshal(data, file); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return file, nil
}

func (c *Config) MergeFile(file *File) error {
	if file == nil {
		return nil
	}
	if len(file.Package) > 0 && !c.IsSet("package") {
		c.PackagePattern = &file.Package
	}
	if len(file.Output) > 0 && !c.IsSet("out") {
		c.Output = &file.Output
	}
	if len(file.BuildTags) > 0 && !c.IsSet("buildTag") {
		buildTags := append(append([]string{}, *c.BuildTags...), file.BuildTags...)
		slices.Sort(buildTags)
		buildTags = slices.Compact(buildTags)
		c.BuildTags = &buildTags
	}
	if len(file.Types) > 0 && !c.IsSet("type") {
		c.Types = &file.Types
	}
	if len(file.KeyExpr) > 0 && !c.IsSet("key-expr") {
		c.KeyExpr = &file.KeyExpr
	}
	if len(file.Apis) > 0 && !c.IsSet("api") {
		apis := make([]generator.API, 0, len(file.Apis))
		for _, name := range file.Apis {
			api := generator.API(name)
			if !slices.Contains(generator.APIs(), api) {
				return errors.Errorf("config: unknown api '%s'", name)
			}
			apis = append(apis, api)
		}
		c.Apis = &apis
	}
	if len(file.Unique) > 0 {
		unique := append([]string{}, *c.Unique...)
		for _, typeName := range slices.Sorted(maps.Keys(file.Unique)) {
			unique = append(unique, typeName+UniqueSeparator+file.Unique[typeName])
		}
		c.Unique = &unique
	}
	return nil
}
