package env

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/memorex386/Boxfit/use"
)

// DirectivePrefix marks a struct type as a serializer source.
const DirectivePrefix = "boxfit:entity"

// Directive is the parsed form of a //boxfit:entity comment.
type Directive struct {
	// Unique names the field used to merge duplicate entities; empty means no merging.
	Unique string
	Pos    token.Pos
}

// ParseDirective parses a single comment line. ok is false when the comment is not a boxfit directive.
func ParseDirective(fset *token.FileSet, comment *ast.Comment) (d Directive, ok bool, err error) {
	text := strings.TrimPrefix(comment.Text, "//")
	if !strings.HasPrefix(text, DirectivePrefix) {
		return d, false, nil
	}
	rest := text[len(DirectivePrefix):]
	if len(rest) > 0 && rest[0] != ' ' && rest[0] != '\t' {
		//boxfit:entityX is not ours
		return d, false, nil
	}
	d.Pos = comment.Pos()
	for _, arg := range strings.Fields(rest) {
		key, value, found := strings.Cut(arg, "=")
		if !found || len(value) == 0 {
			return d, true, use.DirectiveErr("expected key=value, got '"+arg+"'", fset, comment)
		}
		switch key {
		case "unique":
			d.Unique = value
		default:
			return d, true, use.DirectiveErr("unknown directive option '"+key+"'", fset, comment)
		}
	}
	return d, true, nil
}

func findDirective(fset *token.FileSet, docs ...*ast.CommentGroup) (Directive, bool, error) {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, comment := range doc.List {
			if d, ok, err := ParseDirective(fset, comment); err != nil || ok {
				return d, ok, err
			}
		}
	}
	return Directive{}, false, nil
}
