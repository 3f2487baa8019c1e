// Package serializer is the runtime of generated serializers: the contract they satisfy,
// the persistence session they write through and the helpers their code calls.
package serializer

import (
	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/jsontree"
)

// ResultsKey is the array key of a paginated response wrapper.
const ResultsKey = "results"

// Serializer converts JSON nodes into persisted entities of type T.
type Serializer[T any] interface {
	// FromJSONObject builds one entity and persists it together with the entities it references.
	FromJSONObject(object *jsontree.Object) (*T, error)
	// FromJSONArray converts every element in document order.
	FromJSONArray(array *jsontree.Array) ([]*T, error)
}

// Factory makes a serializer bound to a persistence session.
type Factory[T any] func(ctx *Context) Serializer[T]

// Collect applies fromObject to each element of array in order. The first failure stops the
// conversion; entities persisted before it stay persisted.
func Collect[T any](array *jsontree.Array, fromObject func(*jsontree.Object) (*T, error)) ([]*T, error) {
	result := make([]*T, 0, array.Length())
	for i := 0; i < array.Length(); i++ {
		object, err := array.GetJSONObject(i)
		if err != nil {
			return nil, err
		}
		entity, err := fromObject(object)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		result = append(result, entity)
	}
	return result, nil
}

// Values copies entities into a slice of values, for fields declared as []T.
func Values[T any](entities []*T) []T {
	return slice.Convert(entities, func(entity *T) T { return *entity })
}

// Results returns the array of a paginated response wrapper.
func Results(object *jsontree.Object) (*jsontree.Array, error) {
	return object.GetJSONArray(ResultsKey)
}

// FieldErr locates an extraction error.
func FieldErr(entity, key string, err error) error {
	return errors.Wrapf(err, "%s.%s", entity, key)
}
