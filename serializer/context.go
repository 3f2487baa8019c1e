package serializer

import (
	"reflect"

	"github.com/memorex386/Boxfit/box"
)

// MergePolicy decides which values survive when an incoming entity has the unique key
// of an entity persisted before.
type MergePolicy int

const (
	// MergeReplace overwrites the existing entity with the incoming fields and keeps its ID.
	MergeReplace MergePolicy = iota
	// MergeKeep keeps the existing entity unchanged.
	MergeKeep
)

func (p MergePolicy) String() string {
	switch p {
	case MergeReplace:
		return "replace"
	case MergeKeep:
		return "keep"
	default:
		return "unknown"
	}
}

type ContextOption func(*Context)

func WithMergePolicy(policy MergePolicy) ContextOption {
	return func(c *Context) { c.policy = policy }
}

type sessionKey struct {
	entity string
	key    any
}

// Context is a persistence session. Entities merged by unique key within one session
// resolve to the same pointer. A Context must not be used concurrently.
type Context struct {
	store   *box.Store
	policy  MergePolicy
	session map[sessionKey]any
}

func NewContext(store *box.Store, opts ...ContextOption) *Context {
	c := &Context{store: store, session: map[sessionKey]any{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) Store() *box.Store {
	return c.store
}

func (c *Context) Policy() MergePolicy {
	return c.policy
}

// Reset forgets the entities seen by the session.
func (c *Context) Reset() {
	clear(c.session)
}

func lookup[T any](c *Context, entity string, key any) (*T, bool) {
	if !isComparable(key) {
		return nil, false
	}
	existing, ok := c.session[sessionKey{entity: entity, key: key}].(*T)
	return existing, ok
}

func remember[T any](c *Context, entity string, key any, value *T) {
	if isComparable(key) {
		c.session[sessionKey{entity: entity, key: key}] = value
	}
}

func isComparable(key any) bool {
	return key != nil && reflect.TypeOf(key).Comparable()
}
