package table

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrStale is returned when a load finished after a newer load started or
// after the source was closed. Its result is dropped.
var ErrStale = errors.New("load result superseded")

// Lister fetches every entity of one collection
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Collection is an immutable, id-unique snapshot of the loaded entities
type Collection[T any] struct {
	Items    []T
	LoadedAt time.Time
	Err      error // Set when the load that produced this collection failed

	index map[string]int
}

func newCollection[T any](items []T, id func(T) string, loadErr error) *Collection[T] {
	c := &Collection[T]{
		Items:    make([]T, 0, len(items)),
		LoadedAt: time.Now(),
		Err:      loadErr,
		index:    make(map[string]int, len(items)),
	}
	for _, item := range items {
		key := id(item)
		if _, dup := c.index[key]; dup {
			log.Warnf("⚠️ Dropping duplicate id %q from collection", key)
			continue
		}
		c.index[key] = len(c.Items)
		c.Items = append(c.Items, item)
	}
	return c
}

func (c *Collection[T]) Len() int {
	return len(c.Items)
}

func (c *Collection[T]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection[T]) Get(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.Items[i], true
}

// Source is the remote collection of one table. The current collection is
// swapped atomically and never mutated in place.
type Source[T any] struct {
	name       string
	lister     Lister[T]
	id         func(T) string
	current    atomic.Pointer[Collection[T]]
	generation atomic.Uint64
	closed     atomic.Bool

	// commitMu makes the staleness check and the store one step
	commitMu  sync.Mutex
	committed uint64 // Generation of the stored collection
}

func NewSource[T any](name string, lister Lister[T], id func(T) string) *Source[T] {
	s := &Source[T]{
		name:   name,
		lister: lister,
		id:     id,
	}
	s.current.Store(newCollection[T](nil, id, nil))
	return s
}

// Current returns the latest collection; it is empty before the first load
func (s *Source[T]) Current() *Collection[T] {
	return s.current.Load()
}

// Load issues one list request and replaces the collection. A failed request
// yields an empty collection together with the error. Results that arrive
// after a newer Load started, or after Close, return ErrStale and change nothing.
func (s *Source[T]) Load(ctx context.Context) (*Collection[T], error) {
	gen := s.generation.Add(1)

	items, err := s.lister.List(ctx)

	var collection *Collection[T]
	if err != nil {
		collection = newCollection[T](nil, s.id, err)
	} else {
		collection = newCollection(items, s.id, nil)
	}

	if !s.commit(gen, collection) {
		log.WithField("table", s.name).Debugf("Dropping stale load result (generation %d)", gen)
		return s.Current(), ErrStale
	}

	if err != nil {
		log.WithField("table", s.name).Errorf("❌ Failed to load %s: %v", s.name, err)
		return collection, err
	}

	log.WithField("table", s.name).Debugf("Loaded %d %s", collection.Len(), s.name)
	return collection, nil
}

// commit stores collection unless a newer load has started or already been
// stored, or the source is closed
func (s *Source[T]) commit(gen uint64, collection *Collection[T]) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.closed.Load() || gen != s.generation.Load() || gen <= s.committed {
		return false
	}
	s.committed = gen
	s.current.Store(collection)
	return true
}

// Refetch re-issues the same request
func (s *Source[T]) Refetch(ctx context.Context) (*Collection[T], error) {
	return s.Load(ctx)
}

// Close makes every in-flight and future load stale
func (s *Source[T]) Close() {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.closed.Store(true)
	s.generation.Add(1)
}
