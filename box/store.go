// Package box is the embedded object store written by generated serializers.
//
// Each entity type lives in its own bbolt bucket keyed by a sequence ID; entities are
// encoded with msgpack. A type bound with a unique key also gets an index bucket mapping
// the encoded key to the entity ID.
package box

import (
	"encoding/binary"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	bbolt "go.etcd.io/bbolt"
)

const (
	fileMode     os.FileMode = 0o600
	entityPrefix             = "entity."
	uniquePrefix             = "unique."
)

var (
	ErrClosed          = errors.New("box: store is closed")
	ErrUniqueViolation = errors.New("box: unique key already taken")
	ErrNoBinding       = errors.New("box: incomplete binding")

	defaultOptions = bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}
)

// Binding describes how the store reads the identity of an entity type.
// Generated code declares one Binding per entity.
type Binding[T any] struct {
	Name  string
	ID    func(*T) uint64
	SetID func(*T, uint64)
	// UniqueKey returns the merge key of an entity; nil when the type has none.
	UniqueKey func(*T) any
	// Relations is nil when the type references no other entity.
	Relations *Relations[T]
}

// Relations stores the entities referenced by T as IDs.
// Refs returns a copy of an entity whose related entities carry only their IDs;
// Resolve replaces such references with the stored entities.
type Relations[T any] struct {
	Refs    func(*T) *T
	Resolve func(*Resolver, *T) error
}

func (b Binding[T]) validate() error {
	if len(b.Name) == 0 || b.ID == nil || b.SetID == nil {
		return errors.Wrapf(ErrNoBinding, "entity '%s'", b.Name)
	}
	return nil
}

type Store struct {
	db     *bbolt.DB
	path   string
	closed atomic.Bool
}

type Option func(*bbolt.Options)

func WithTimeout(timeout time.Duration) Option {
	return func(o *bbolt.Options) { o.Timeout = timeout }
}

// WithNoSync skips fsync after commits; intended for tests.
func WithNoSync() Option {
	return func(o *bbolt.Options) { o.NoSync = true }
}

// Open opens (or creates) the store file at path.
func Open(path string, opts ...Option) (*Store, error) {
	options := defaultOptions
	for _, o := range opts {
		o(&options)
	}
	db, err := bbolt.Open(path, fileMode, &options)
	if err != nil {
		return nil, errors.Wrapf(err, "box: opening %s", path)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *Store) view(fn func(tx *bbolt.Tx) error) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(tx *bbolt.Tx) error) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func decodeID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
