// Package store owns the shopping list and is the only thing that changes
// it.
//
// Every mutation follows the same path:
//
//	snapshot before -> apply -> snapshot after -> history.Execute -> NotifyAll
//
// A mutation that turns out not to change anything (decrementing at zero,
// adding an item that is already there) stops before history and
// notification. A mutation naming an item that does not exist returns
// ErrNotFound and also leaves everything alone; views may ignore the error.
//
// Undo and Redo skip the mutation path: they install the snapshot the
// history hands back and notify.
//
// A Store is single-threaded. Observers must read through the query methods
// and never mutate the store from inside Update.
package store

import (
	"errors"
	"fmt"

	"github.com/idilsaglam/basket/internal/history"
	"github.com/idilsaglam/basket/internal/logger"
	"github.com/idilsaglam/basket/internal/model"
	"github.com/idilsaglam/basket/internal/observer"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrItemExists    = errors.New("item already exists")
	ErrNegativeCount = errors.New("count must not be negative")
)

// Store holds the current state plus the history and notifier it reports to.
type Store struct {
	state      model.State
	history    *history.Manager[model.State]
	notifier   *observer.Notifier
	categories []model.CategoryInfo
	log        logger.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithHistory(h *history.Manager[model.State]) Option {
	return func(s *Store) { s.history = h }
}

func WithNotifier(n *observer.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithCategories replaces the static category table.
func WithCategories(infos []model.CategoryInfo) Option {
	return func(s *Store) { s.categories = infos }
}

// New returns a Store holding a copy of initial. Missing collaborators get
// fresh defaults.
func New(initial model.State, opts ...Option) *Store {
	s := &Store{
		state:      initial.Clone(),
		categories: model.DefaultCategories,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.history == nil {
		s.history = history.New(model.State.Clone)
	}
	if s.notifier == nil {
		s.notifier = observer.NewNotifier(s.log)
	}
	return s
}

// Seed installs state as the starting point: history is cleared and
// observers are told to re-render.
func (s *Store) Seed(state model.State) {
	s.state = state.Clone()
	s.history.Clear()
	s.log.Debug("store seeded", "records", len(s.state.Records()))
	s.notifier.NotifyAll()
}

// mutate runs apply against a working copy. apply reports whether it changed
// anything; only then is the copy committed, recorded and announced.
func (s *Store) mutate(op string, apply func(st *model.State) (bool, error)) error {
	before := s.state
	working := s.state.Clone()
	changed, err := apply(&working)
	if err != nil {
		s.log.Debug("mutation rejected", "op", op, "err", err)
		return err
	}
	if !changed {
		return nil
	}
	s.state = working
	s.history.Execute(before, working)
	s.log.Debug("mutation", "op", op, "history", s.history.String())
	s.notifier.NotifyAll()
	return nil
}

func notFound(category, item string) error {
	return fmt.Errorf("%w: %s/%s", ErrNotFound, category, item)
}

// withItem is the shape shared by mutations on an existing item.
func withItem(category, item string, fn func(it *model.Item) bool) func(*model.State) (bool, error) {
	return func(st *model.State) (bool, error) {
		ref := st.Ref(category, item)
		if ref == nil {
			return false, notFound(category, item)
		}
		return fn(ref), nil
	}
}

// SetCount sets the item's quantity.
func (s *Store) SetCount(category, item string, count int) error {
	if count < 0 {
		return fmt.Errorf("set %s/%s to %d: %w", category, item, count, ErrNegativeCount)
	}
	return s.mutate("set_count", withItem(category, item, func(it *model.Item) bool {
		if it.Count == count {
			return false
		}
		it.Count = count
		return true
	}))
}

// SetCountToOne resets the quantity to exactly one.
func (s *Store) SetCountToOne(category, item string) error {
	return s.SetCount(category, item, 1)
}

// ResetCount sets the quantity to zero.
func (s *Store) ResetCount(category, item string) error {
	return s.SetCount(category, item, 0)
}

func (s *Store) IncrementCount(category, item string) error {
	return s.mutate("increment", withItem(category, item, func(it *model.Item) bool {
		it.Count++
		return true
	}))
}

// DecrementCount lowers the quantity by one, stopping at zero.
func (s *Store) DecrementCount(category, item string) error {
	return s.mutate("decrement", withItem(category, item, func(it *model.Item) bool {
		if it.Count <= 0 {
			return false
		}
		it.Count--
		return true
	}))
}

// AddItem inserts the item with count 0 unless it is already in the
// category. The category is created if needed.
func (s *Store) AddItem(category, item string) error {
	return s.mutate("add", func(st *model.State) (bool, error) {
		return st.Insert(category, model.Item{Name: item}), nil
	})
}

// AddItemCount inserts the item if needed and adds delta to its quantity.
// The result never drops below zero.
func (s *Store) AddItemCount(category, item string, delta int) error {
	return s.mutate("add_count", func(st *model.State) (bool, error) {
		inserted := st.Insert(category, model.Item{Name: item})
		ref := st.Ref(category, item)
		next := ref.Count + delta
		if next < 0 {
			next = 0
		}
		changed := inserted || next != ref.Count
		ref.Count = next
		return changed, nil
	})
}

// RemoveItem takes the item off the list by zeroing its quantity. The record
// stays in its category.
func (s *Store) RemoveItem(category, item string) error {
	return s.mutate("remove", withItem(category, item, func(it *model.Item) bool {
		if it.Count == 0 {
			return false
		}
		it.Count = 0
		return true
	}))
}

func (s *Store) ToggleBought(category, item string) error {
	return s.mutate("toggle_bought", withItem(category, item, func(it *model.Item) bool {
		it.Bought = !it.Bought
		return true
	}))
}

// MoveCategory relocates the item record, keeping its count and bought flag.
// It refuses to overwrite an item of the same name in the target.
func (s *Store) MoveCategory(category, newCategory, item string) error {
	return s.mutate("move", func(st *model.State) (bool, error) {
		if _, ok := st.Lookup(category, item); !ok {
			return false, notFound(category, item)
		}
		if category == newCategory {
			return false, nil
		}
		if _, ok := st.Lookup(newCategory, item); ok {
			return false, fmt.Errorf("move %s to %s: %w", item, newCategory, ErrItemExists)
		}
		it, _ := st.Delete(category, item)
		st.Insert(newCategory, it)
		return true, nil
	})
}

// Undo installs the state before the latest change. It reports false when
// there was nothing to undo.
func (s *Store) Undo() bool {
	prev, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.state = prev
	s.log.Debug("undo", "history", s.history.String())
	s.notifier.NotifyAll()
	return true
}

// Redo re-applies the latest undone change.
func (s *Store) Redo() bool {
	next, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.state = next
	s.log.Debug("redo", "history", s.history.String())
	s.notifier.NotifyAll()
	return true
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// Subscribe registers o with the notifier; see observer.Notifier.Subscribe.
func (s *Store) Subscribe(o observer.Observer) (cancel func()) {
	return s.notifier.Subscribe(o)
}

func (s *Store) Unsubscribe(o observer.Observer) {
	s.notifier.Unsubscribe(o)
}
