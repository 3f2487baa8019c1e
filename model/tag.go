package model

import (
	"reflect"
	"strings"

	"github.com/memorex386/Boxfit/use"
)

type fieldTag struct {
	key      string
	skip     bool
	unique   bool
	optional bool
	id       bool
}

func parseTag(fieldName, tag string) (fieldTag, error) {
	structTag := reflect.StructTag(tag)
	result := fieldTag{}
	if value, ok := structTag.Lookup(TagName); ok {
		if value == "-" {
			result.skip = true
			return result, nil
		}
		parts := strings.Split(value, ",")
		result.key = parts[0]
		for _, option := range parts[1:] {
			switch option {
			case "unique":
				result.unique = true
			case "optional":
				result.optional = true
			case "id":
				result.id = true
			case "":
			default:
				return result, use.Err("field " + fieldName + ": unknown " + TagName + " tag option '" + option + "'")
			}
		}
	}
	if len(result.key) == 0 {
		if jsonValue, ok := structTag.Lookup("json"); ok {
			name, _, _ := strings.Cut(jsonValue, ",")
			if name == "-" {
				result.skip = !result.id && !result.unique
				return result, nil
			}
			result.key = name
		}
	}
	return result, nil
}
