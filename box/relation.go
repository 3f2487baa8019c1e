package box

// Resolver loads referenced entities for one read. An entity reached twice resolves to the same
// instance, so reference cycles terminate.
type Resolver struct {
	store  *Store
	loaded map[resolvedKey]any
}

type resolvedKey struct {
	entity string
	id     uint64
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store, loaded: map[resolvedKey]any{}}
}

func (r *Resolver) remember(entity string, id uint64, value any) {
	if id != 0 {
		r.loaded[resolvedKey{entity: entity, id: id}] = value
	}
}

// Ref returns a new entity carrying only the ID of entity.
func Ref[T any](binding Binding[T], entity *T) *T {
	if entity == nil {
		return nil
	}
	ref := new(T)
	binding.SetID(ref, binding.ID(entity))
	return ref
}

func ValueRef[T any](binding Binding[T], entity T) T {
	return *Ref(binding, &entity)
}

func Refs[S ~[]*T, T any](binding Binding[T], entities S) S {
	if entities == nil {
		return nil
	}
	refs := make(S, len(entities))
	for i, entity := range entities {
		refs[i] = Ref(binding, entity)
	}
	return refs
}

func ValueRefs[S ~[]T, T any](binding Binding[T], entities S) S {
	if entities == nil {
		return nil
	}
	refs := make(S, len(entities))
	for i := range entities {
		refs[i] = ValueRef(binding, entities[i])
	}
	return refs
}

// Resolve returns the stored entity referenced by ref with its own relations resolved.
// A reference without ID or to a missing entity is returned as is.
func Resolve[T any](r *Resolver, binding Binding[T], ref *T) (*T, error) {
	if ref == nil {
		return nil, nil
	}
	id := binding.ID(ref)
	if id == 0 {
		return ref, nil
	}
	if loaded, ok := r.loaded[resolvedKey{entity: binding.Name, id: id}].(*T); ok {
		return loaded, nil
	}
	b := For(r.store, binding)
	entity, err := b.load(id)
	if err != nil {
		return nil, err
	} else if entity == nil {
		return ref, nil
	}
	r.remember(binding.Name, id, entity)
	if err = b.resolve(r, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func ResolveValue[T any](r *Resolver, binding Binding[T], ref T) (T, error) {
	entity, err := Resolve(r, binding, &ref)
	if err != nil {
		return ref, err
	}
	return *entity, nil
}

func ResolveAll[S ~[]*T, T any](r *Resolver, binding Binding[T], refs S) (S, error) {
	for i, ref := range refs {
		entity, err := Resolve(r, binding, ref)
		if err != nil {
			return nil, err
		}
		refs[i] = entity
	}
	return refs, nil
}

func ResolveValues[S ~[]T, T any](r *Resolver, binding Binding[T], refs S) (S, error) {
	for i := range refs {
		entity, err := ResolveValue(r, binding, refs[i])
		if err != nil {
			return nil, err
		}
		refs[i] = entity
	}
	return refs, nil
}
