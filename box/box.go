package box

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bbolt "go.etcd.io/bbolt"
)

// Box gives typed access to the entities of one type.
type Box[T any] struct {
	store   *Store
	binding Binding[T]
	data    []byte
	index   []byte
}

// For returns the box of the entity type described by binding.
func For[T any](store *Store, binding Binding[T]) *Box[T] {
	return &Box[T]{
		store:   store,
		binding: binding,
		data:    []byte(entityPrefix + binding.Name),
		index:   []byte(uniquePrefix + binding.Name),
	}
}

func (b *Box[T]) Binding() Binding[T] {
	return b.binding
}

// Count returns the number of stored entities.
func (b *Box[T]) Count() (int, error) {
	count := 0
	err := b.store.view(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(b.data); bucket != nil {
			count = bucket.Stats().KeyN
		}
		return nil
	})
	return count, err
}

// Get loads the entity with the given ID together with the entities it references.
func (b *Box[T]) Get(id uint64) (*T, bool, error) {
	entity, err := b.load(id)
	if err != nil || entity == nil {
		return nil, false, err
	}
	if err = b.resolveRoot(entity); err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

func (b *Box[T]) load(id uint64) (*T, error) {
	var entity *T
	err := b.store.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.data)
		if bucket == nil {
			return nil
		}
		var err error
		entity, err = b.decode(bucket.Get(idKey(id)))
		return err
	})
	return entity, err
}

// FindByUniqueKey loads the entity whose unique key equals key.
func (b *Box[T]) FindByUniqueKey(key any) (*T, bool, error) {
	if b.binding.UniqueKey == nil {
		return nil, false, errors.Errorf("box: entity '%s' has no unique key", b.binding.Name)
	}
	encodedKey, err := msgpack.Marshal(key)
	if err != nil {
		return nil, false, errors.Wrap(err, "box: encoding unique key")
	}
	var entity *T
	err = b.store.view(func(tx *bbolt.Tx) error {
		index, data := tx.Bucket(b.index), tx.Bucket(b.data)
		if index == nil || data == nil {
			return nil
		}
		id := index.Get(encodedKey)
		if id == nil {
			return nil
		}
		var decodeErr error
		entity, decodeErr = b.decode(data.Get(id))
		return decodeErr
	})
	if err != nil || entity == nil {
		return nil, false, err
	}
	if err = b.resolveRoot(entity); err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// All loads every entity in ID order. Entities referenced several times share one instance.
func (b *Box[T]) All() ([]*T, error) {
	var result []*T
	err := b.store.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.data)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			entity, err := b.decode(v)
			if err != nil {
				return err
			}
			result = append(result, entity)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	resolver := NewResolver(b.store)
	for _, entity := range result {
		resolver.remember(b.binding.Name, b.binding.ID(entity), entity)
	}
	for _, entity := range result {
		if err = b.resolve(resolver, entity); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Put inserts the entity when its ID is zero, otherwise overwrites the stored one.
// The assigned ID is written back into the entity.
func (b *Box[T]) Put(entity *T) (uint64, error) {
	if err := b.binding.validate(); err != nil {
		return 0, err
	}
	originalID := b.binding.ID(entity)
	id := originalID
	err := b.store.update(func(tx *bbolt.Tx) error {
		data, err := tx.CreateBucketIfNotExists(b.data)
		if err != nil {
			return err
		}
		if id == 0 {
			if id, err = data.NextSequence(); err != nil {
				return err
			}
		} else if id > data.Sequence() {
			if err = data.SetSequence(id); err != nil {
				return err
			}
		}
		b.binding.SetID(entity, id)
		key := idKey(id)
		if b.binding.UniqueKey != nil {
			if err = b.putIndex(tx, data, key, entity); err != nil {
				return err
			}
		}
		encoded, err := msgpack.Marshal(b.refs(entity))
		if err != nil {
			return errors.Wrapf(err, "box: encoding '%s'", b.binding.Name)
		}
		return data.Put(key, encoded)
	})
	if err != nil {
		b.binding.SetID(entity, originalID)
		return 0, err
	}
	return id, nil
}

func (b *Box[T]) putIndex(tx *bbolt.Tx, data *bbolt.Bucket, key []byte, entity *T) error {
	index, err := tx.CreateBucketIfNotExists(b.index)
	if err != nil {
		return err
	}
	uniqueKey, err := msgpack.Marshal(b.binding.UniqueKey(entity))
	if err != nil {
		return errors.Wrap(err, "box: encoding unique key")
	}
	if owner := index.Get(uniqueKey); owner != nil && !bytes.Equal(owner, key) {
		return errors.Wrapf(ErrUniqueViolation, "entity '%s' key %v owned by %d", b.binding.Name, b.binding.UniqueKey(entity), decodeID(owner))
	}
	if previous, err := b.decode(data.Get(key)); err != nil {
		return err
	} else if previous != nil {
		previousKey, err := msgpack.Marshal(b.binding.UniqueKey(previous))
		if err != nil {
			return errors.Wrap(err, "box: encoding unique key")
		}
		if !bytes.Equal(previousKey, uniqueKey) {
			if err = index.Delete(previousKey); err != nil {
				return err
			}
		}
	}
	return index.Put(uniqueKey, key)
}

// Remove deletes the entity with the given ID and its index entry.
func (b *Box[T]) Remove(id uint64) error {
	return b.store.update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(b.data)
		if data == nil {
			return nil
		}
		key := idKey(id)
		entity, err := b.decode(data.Get(key))
		if err != nil || entity == nil {
			return err
		}
		if index := tx.Bucket(b.index); index != nil && b.binding.UniqueKey != nil {
			uniqueKey, err := msgpack.Marshal(b.binding.UniqueKey(entity))
			if err != nil {
				return err
			}
			if err = index.Delete(uniqueKey); err != nil {
				return err
			}
		}
		return data.Delete(key)
	})
}

func (b *Box[T]) refs(entity *T) *T {
	if b.binding.Relations == nil || b.binding.Relations.Refs == nil {
		return entity
	}
	return b.binding.Relations.Refs(entity)
}

func (b *Box[T]) resolveRoot(entity *T) error {
	r := NewResolver(b.store)
	r.remember(b.binding.Name, b.binding.ID(entity), entity)
	return b.resolve(r, entity)
}

func (b *Box[T]) resolve(r *Resolver, entity *T) error {
	if b.binding.Relations == nil || b.binding.Relations.Resolve == nil {
		return nil
	}
	if err := b.binding.Relations.Resolve(r, entity); err != nil {
		return errors.Wrapf(err, "box: resolving relations of '%s'", b.binding.Name)
	}
	return nil
}

func (b *Box[T]) decode(raw []byte) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	entity := new(T)
	if err := msgpack.Unmarshal(raw, entity); err != nil {
		return nil, errors.Wrapf(err, "box: decoding '%s'", b.binding.Name)
	}
	return entity, nil
}
