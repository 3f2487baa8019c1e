// Package params holds the command configuration assembled from flags, source comments and a YAML file.
package params

import (
	"flag"
	"strings"

	"github.com/m4gshm/flag/flagenum"
	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/generator"
	"github.com/memorex386/Boxfit/logger"
)

const (
	Name                = "boxfit"
	DefaultFileSuffix   = "_" + Name + ".go"
	CommentConfigPrefix = "go:" + Name
	UniqueSeparator     = "="
)

func toString[F ~string](from F) string { return string(from) }
func fromString[F ~string](s string) F  { return F(s) }

type Config struct {
	PackagePattern *string
	BuildTags      *[]string
	Output         *string
	Types          *[]string
	KeyExpr        *string
	ConfigFile     *string
	Apis           *[]generator.API
	Unique         *[]string

	set map[string]bool
}

func NewConfig(flagSet *flag.FlagSet) (*Config, error) {
	apis, err := flagenum.Multiple(flagSet, "api", generator.APIs(), generator.APIs(), fromString[generator.API], toString[generator.API],
		"generated api; "+string(generator.SerializerAPI)+" requires "+string(generator.BindingAPI)+", "+
			string(generator.RegisterAPI)+" requires "+string(generator.SerializerAPI))
	if err != nil {
		return nil, err
	}
	return &Config{
		PackagePattern: flagSet.String("package", ".", "used package"),
		BuildTags:      multiVal(flagSet, "buildTag", []string{generator.ExcludeBuildTag}, "include build tag"),
		Output:         flagSet.String("out", "", "output file name; default srcdir/<package>"+DefaultFileSuffix),
		Types:          multiVal(flagSet, "type", []string{}, "annotated type name to generate; all annotated types by default"),
		KeyExpr:        flagSet.String("key-expr", "", "expression deriving a JSON key from the variables 'name' and 'fieldType'; functions lowerCamel, snake"),
		ConfigFile:     flagSet.String("config", "", "YAML configuration file"),
		Apis:           apis,
		Unique:         multiVal(flagSet, "unique", []string{}, "merge key of a type; format - Type"+UniqueSeparator+"Field"),
		set:            map[string]bool{},
	}, nil
}

// Parsed records which flags were given explicitly.
func (c *Config) Parsed(flagSet *flag.FlagSet) *Config {
	flagSet.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
	return c
}

func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// MergeWith takes from src every value not given explicitly to c.
func (c *Config) MergeWith(src *Config) *Config {
	logger.Debugw("config merging", "dest", c, "src", src)
	if src == nil {
		return c
	}
	if c.take(src, "package") {
		c.PackagePattern = src.PackagePattern
	}
	if c.take(src, "buildTag") {
		c.BuildTags = src.BuildTags
	}
	if c.take(src, "out") {
		c.Output = src.Output
	}
	if c.take(src, "type") {
		c.Types = src.Types
	}
	if c.take(src, "key-expr") {
		c.KeyExpr = src.KeyExpr
	}
	if c.take(src, "config") {
		c.ConfigFile = src.ConfigFile
	}
	if c.take(src, "api") {
		c.Apis = src.Apis
	}
	if src.IsSet("unique") {
		unique := append(append([]string{}, *c.Unique...), *src.Unique...)
		c.Unique = &unique
		c.set["unique"] = true
	}
	logger.Debugw("config merged", "dest", c)
	return c
}

func (c *Config) take(src *Config, name string) bool {
	if c.IsSet(name) || !src.IsSet(name) {
		return false
	}
	c.set[name] = true
	return true
}

// UniqueKeys parses the unique flag values. The first value given for a type wins.
func (c *Config) UniqueKeys() (map[string]string, error) {
	result := map[string]string{}
	for _, value := range *c.Unique {
		typeName, fieldName, ok := strings.Cut(value, UniqueSeparator)
		if !ok || len(typeName) == 0 || len(fieldName) == 0 {
			return nil, errors.Errorf("invalid unique value '%s'; expected Type%sField", value, UniqueSeparator)
		}
		if _, exists := result[typeName]; !exists {
			result[typeName] = fieldName
		}
	}
	return result, nil
}
