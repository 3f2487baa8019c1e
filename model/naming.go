package model

import (
	"go/types"
	"reflect"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// DefaultKeyExpr derives a JSON key from a Go field name when no tag names one.
const DefaultKeyExpr = "lowerCamel(name)"

// KeyNamer evaluates a key expression with the variables name (Go field name) and fieldType
// (field type string) and the functions lowerCamel and snake.
type KeyNamer struct {
	expression string
	program    *vm.Program
}

type keyEnv struct {
	Name string `expr:"name"`
	Type string `expr:"fieldType"`
}

func NewKeyNamer(expression string) (*KeyNamer, error) {
	if len(strings.TrimSpace(expression)) == 0 {
		expression = DefaultKeyExpr
	}
	program, err := expr.Compile(expression,
		expr.Env(keyEnv{}),
		expr.Function("lowerCamel", func(params ...any) (any, error) { return LowerCamel(params[0].(string)), nil }, LowerCamel),
		expr.Function("snake", func(params ...any) (any, error) { return Snake(params[0].(string)), nil }, Snake),
		expr.AsKind(reflect.String),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "compile key expression '%s'", expression)
	}
	return &KeyNamer{expression: expression, program: program}, nil
}

func (n *KeyNamer) Key(fieldName string, typ types.Type) (string, error) {
	out, err := expr.Run(n.program, keyEnv{Name: fieldName, Type: types.TypeString(typ, nil)})
	if err != nil {
		return "", errors.Wrapf(err, "key expression '%s' for field %s", n.expression, fieldName)
	}
	key, _ := out.(string)
	if len(key) == 0 {
		return "", errors.Errorf("key expression '%s' gives empty key for field %s", n.expression, fieldName)
	}
	return key, nil
}

// LowerCamel lowers the leading upper case run: Name -> name, ID -> id, URLPath -> urlPath.
func LowerCamel(name string) string {
	runes := []rune(name)
	for i := 0; i < len(runes) && unicode.IsUpper(runes[i]); i++ {
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// Snake converts a camel case name: ReleaseDate -> release_date, TrackID -> track_id.
func Snake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
