// Package jsontree is a read-only JSON document with typed getters,
// the input of generated serializers.
package jsontree

import (
	"io"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var (
	ErrMissingKey   = errors.New("missing key")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrIndex        = errors.New("index out of range")
)

var api = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Object is a JSON object node.
type Object struct {
	values map[string]any
}

// Array is a JSON array node.
type Array struct {
	values []any
}

// NewObject wraps decoded JSON values; nested maps and slices are wrapped on access.
func NewObject(values map[string]any) *Object {
	if values == nil {
		values = map[string]any{}
	}
	return &Object{values: values}
}

func NewArray(values []any) *Array {
	return &Array{values: values}
}

// Parse decodes a document and returns *Object, *Array or a scalar.
func Parse(data []byte) (any, error) {
	var raw any
	if err := api.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse json")
	}
	return wrap(raw), nil
}

func ParseObject(data []byte) (*Object, error) {
	return asNode[*Object](Parse(data))
}

func ParseArray(data []byte) (*Array, error) {
	return asNode[*Array](Parse(data))
}

// ReadObject decodes a document from r.
func ReadObject(r io.Reader) (*Object, error) {
	var raw any
	if err := api.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "read json")
	}
	return asNode[*Object](wrap(raw), nil)
}

func asNode[T any](value any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	node, ok := value.(T)
	if !ok {
		return zero, errors.Wrapf(ErrTypeMismatch, "document root is %s", kindOf(value))
	}
	return node, nil
}

func wrap(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return NewObject(v)
	case []any:
		return NewArray(v)
	default:
		return value
	}
}

// Has reports whether the key is present, even with a null value.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// IsNull reports whether the key is absent or null.
func (o *Object) IsNull(key string) bool {
	return o.values[key] == nil
}

// Keys returns the object keys in lexical order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Object) Len() int {
	return len(o.values)
}

// Get returns the raw value under key: *Object, *Array, string, bool, a JSON number or nil.
func (o *Object) Get(key string) (any, error) {
	value, ok := o.values[key]
	if !ok {
		return nil, errors.Wrapf(ErrMissingKey, "'%s'", key)
	}
	return wrap(value), nil
}

func (o *Object) GetString(key string) (string, error) {
	return getAs(o, key, toString)
}

func (o *Object) GetInt(key string) (int, error) {
	return getAs(o, key, toInt)
}

func (o *Object) GetLong(key string) (int64, error) {
	return getAs(o, key, toInt64)
}

func (o *Object) GetDouble(key string) (float64, error) {
	return getAs(o, key, toFloat64)
}

func (o *Object) GetBoolean(key string) (bool, error) {
	return getAs(o, key, toBool)
}

func (o *Object) GetJSONObject(key string) (*Object, error) {
	return getAs(o, key, toObject)
}

func (o *Object) GetJSONArray(key string) (*Array, error) {
	return getAs(o, key, toArray)
}

func getAs[T any](o *Object, key string, conv func(any) (T, error)) (T, error) {
	var zero T
	value, err := o.Get(key)
	if err != nil {
		return zero, err
	}
	result, err := conv(value)
	if err != nil {
		return zero, errors.Wrapf(err, "key '%s'", key)
	}
	return result, nil
}

func (a *Array) Length() int {
	if a == nil {
		return 0
	}
	return len(a.values)
}

// Get returns the raw element at index.
func (a *Array) Get(index int) (any, error) {
	if index < 0 || index >= a.Length() {
		return nil, errors.Wrapf(ErrIndex, "%d of %d", index, a.Length())
	}
	return wrap(a.values[index]), nil
}

func (a *Array) GetJSONObject(index int) (*Object, error) {
	value, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	object, err := toObject(value)
	if err != nil {
		return nil, errors.Wrapf(err, "element %d", index)
	}
	return object, nil
}
