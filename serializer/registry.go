package serializer

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/jsontree"
)

var ErrNotRegistered = errors.New("no serializer registered")

// Registry dispatches conversions by entity type. Generated files fill it by RegisterSerializers.
type Registry struct {
	ctx       *Context
	factories map[reflect.Type]any
}

func NewRegistry(ctx *Context) *Registry {
	return &Registry{ctx: ctx, factories: map[reflect.Type]any{}}
}

func (r *Registry) Context() *Context {
	return r.ctx
}

// Register binds the factory to T, replacing a previous one.
func Register[T any](r *Registry, factory Factory[T]) {
	r.factories[typeOf[T]()] = factory
}

// Lookup returns the serializer of T bound to the registry context.
func Lookup[T any](r *Registry) (Serializer[T], error) {
	typ := typeOf[T]()
	factory, ok := r.factories[typ].(Factory[T])
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "%v", typ)
	}
	return factory(r.ctx), nil
}

func FromJSONObject[T any](r *Registry, object *jsontree.Object) (*T, error) {
	s, err := Lookup[T](r)
	if err != nil {
		return nil, err
	}
	return s.FromJSONObject(object)
}

func FromJSONArray[T any](r *Registry, array *jsontree.Array) ([]*T, error) {
	s, err := Lookup[T](r)
	if err != nil {
		return nil, err
	}
	return s.FromJSONArray(array)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
