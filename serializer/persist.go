package serializer

import (
	"github.com/pkg/errors"

	"github.com/memorex386/Boxfit/box"
	"github.com/memorex386/Boxfit/logger"
)

// Persist writes a built entity and returns the canonical instance.
// An entity with a unique key is first looked up in the session, then in the store;
// a match is merged with the context policy and keeps its ID.
func Persist[T any](c *Context, binding box.Binding[T], entity *T) (*T, error) {
	b := box.For(c.store, binding)
	if binding.UniqueKey == nil {
		id, err := b.Put(entity)
		if err != nil {
			return nil, errors.Wrapf(err, "persist %s", binding.Name)
		}
		logger.Debugw("persist", "entity", binding.Name, "id", id)
		return entity, nil
	}
	key := binding.UniqueKey(entity)
	existing, found := lookup[T](c, binding.Name, key)
	if !found {
		var err error
		if existing, found, err = b.FindByUniqueKey(key); err != nil {
			return nil, errors.Wrapf(err, "persist %s: find by key %v", binding.Name, key)
		}
	}
	canonical := entity
	if found {
		canonical = Merge(c.policy, binding, existing, entity)
	}
	id, err := b.Put(canonical)
	if err != nil {
		return nil, errors.Wrapf(err, "persist %s", binding.Name)
	}
	remember(c, binding.Name, key, canonical)
	logger.Debugw("persist", "entity", binding.Name, "id", id, "key", key, "merged", found)
	return canonical, nil
}

// Merge resolves an incoming entity against an existing one with the same unique key.
// The result is always the existing instance; with MergeReplace its fields are overwritten
// by the incoming ones except the ID.
func Merge[T any](policy MergePolicy, binding box.Binding[T], existing, incoming *T) *T {
	if existing == nil {
		return incoming
	} else if existing == incoming || policy == MergeKeep {
		return existing
	}
	id := binding.ID(existing)
	*existing = *incoming
	binding.SetID(existing, id)
	return existing
}
