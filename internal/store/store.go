// Package store holds the in-memory roadmap collection. Every command swaps
// in a new slice and notifies observers; readers get copies.
package store

import (
	"context"
	"sync"

	"github.com/alexanderramin/roadmap/internal/domain"
)

type Op string

const (
	OpLoad    Op = "load"
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpImport  Op = "import"
	OpDedupe  Op = "dedupe"
	OpRestore Op = "restore"
	// OpRemote marks a reload caused by another instance's change.
	OpRemote Op = "remote"
)

// ChangeEvent is delivered to observers after a command commits. Items is
// the full collection after the change.
type ChangeEvent struct {
	Revision uint64
	Op       Op
	IDs      []string
	Items    []domain.WorkItem
}

// Persistent reports whether the change should be written to storage.
// Loads and remote reloads already reflect what is stored.
func (e ChangeEvent) Persistent() bool {
	return e.Op != OpLoad && e.Op != OpRemote
}

type Observer interface {
	OnChange(ctx context.Context, ev ChangeEvent) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev ChangeEvent) error

func (f ObserverFunc) OnChange(ctx context.Context, ev ChangeEvent) error { return f(ctx, ev) }

type Store struct {
	mu        sync.RWMutex
	items     []domain.WorkItem
	revision  uint64
	observers []Observer
}

func New() *Store {
	return &Store{}
}

// Subscribe registers o for every later change. Observers run in
// registration order, synchronously, after the store lock is released.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a copy of the collection and its revision.
func (s *Store) Snapshot() ([]domain.WorkItem, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneItems(s.items), s.revision
}

func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (domain.WorkItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return domain.CloneItems([]domain.WorkItem{it})[0], true
		}
	}
	return domain.WorkItem{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Load replaces the collection with what was read from storage.
func (s *Store) Load(ctx context.Context, items []domain.WorkItem) error {
	return s.commit(ctx, OpLoad, nil, func([]domain.WorkItem) ([]domain.WorkItem, error) {
		return domain.CloneItems(items), nil
	})
}

// Reload is Load for a change made by another instance.
func (s *Store) Reload(ctx context.Context, items []domain.WorkItem) error {
	return s.commit(ctx, OpRemote, nil, func([]domain.WorkItem) ([]domain.WorkItem, error) {
		return domain.CloneItems(items), nil
	})
}

func (s *Store) Add(ctx context.Context, draft domain.WorkItem) (domain.WorkItem, error) {
	var added domain.WorkItem
	err := s.commitWith(ctx, OpAdd, func(cur []domain.WorkItem) ([]domain.WorkItem, []string, error) {
		next, it := domain.AddItem(cur, draft)
		added = it
		return next, []string{it.ID}, nil
	})
	return added, err
}

// Update applies patch to the item with id and returns the updated item.
// An unknown id leaves the collection untouched and returns
// domain.ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) (domain.WorkItem, error) {
	var updated domain.WorkItem
	err := s.commit(ctx, OpUpdate, []string{id}, func(cur []domain.WorkItem) ([]domain.WorkItem, error) {
		next, err := domain.ApplyPatch(cur, id, patch)
		if err != nil {
			return nil, err
		}
		for _, it := range next {
			if it.ID == id {
				updated = it
			}
		}
		return next, nil
	})
	return updated, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.commit(ctx, OpDelete, []string{id}, func(cur []domain.WorkItem) ([]domain.WorkItem, error) {
		return domain.DeleteItem(cur, id)
	})
}

// Import replaces the whole collection, as a file import does.
func (s *Store) Import(ctx context.Context, items []domain.WorkItem) error {
	return s.replace(ctx, OpImport, items)
}

// Restore replaces the collection with an earlier saved version.
func (s *Store) Restore(ctx context.Context, items []domain.WorkItem) error {
	return s.replace(ctx, OpRestore, items)
}

// Dedupe drops repeated items and returns how many were removed.
func (s *Store) Dedupe(ctx context.Context) (int, error) {
	removed := 0
	err := s.commit(ctx, OpDedupe, nil, func(cur []domain.WorkItem) ([]domain.WorkItem, error) {
		next := domain.Dedupe(cur)
		removed = len(cur) - len(next)
		return next, nil
	})
	return removed, err
}

func (s *Store) replace(ctx context.Context, op Op, items []domain.WorkItem) error {
	return s.commitWith(ctx, op, func([]domain.WorkItem) ([]domain.WorkItem, []string, error) {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		return domain.CloneItems(items), ids, nil
	})
}

func (s *Store) commit(ctx context.Context, op Op, ids []string, fn func([]domain.WorkItem) ([]domain.WorkItem, error)) error {
	return s.commitWith(ctx, op, func(cur []domain.WorkItem) ([]domain.WorkItem, []string, error) {
		next, err := fn(cur)
		return next, ids, err
	})
}

// commitWith runs fn against the current collection under the write lock.
// On success the result becomes the collection, the revision advances and
// observers are notified; the first observer error is returned after all
// observers have run.
func (s *Store) commitWith(ctx context.Context, op Op, fn func([]domain.WorkItem) ([]domain.WorkItem, []string, error)) error {
	s.mu.Lock()
	next, ids, err := fn(s.items)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	s.revision++
	ev := ChangeEvent{Revision: s.revision, Op: op, IDs: ids, Items: domain.CloneItems(next)}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	var firstErr error
	for _, o := range observers {
		if err := o.OnChange(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
