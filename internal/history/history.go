// Package history implements linear undo/redo over whole-state snapshots.
//
// A Manager records one command per committed change: the snapshot taken
// immediately before and the one taken immediately after. It knows nothing
// about what a snapshot contains; the clone function passed to New is the
// only thing it calls on one.
//
// The history is a line, not a tree. Executing a new command while there
// are undone commands discards them:
//
//	Execute  (n, m) -> (n+1, 0)
//	Undo     (n, m) -> (n-1, m+1)   when n > 0
//	Redo     (n, m) -> (n+1, m-1)   when m > 0
//
// Both stacks are unbounded. Every command holds two full copies of the
// state, which is fine for lists of tens of items.
//
// A Manager is not safe for concurrent use.
package history

import "fmt"

// Command is one recorded change.
type Command[S any] struct {
	Before S
	After  S
}

// Manager holds the undo and redo stacks.
type Manager[S any] struct {
	clone func(S) S
	undo  []Command[S]
	redo  []Command[S]
}

// New returns an empty Manager. clone must return a copy sharing nothing
// with its argument; nil means snapshots are stored and returned as-is.
func New[S any](clone func(S) S) *Manager[S] {
	if clone == nil {
		clone = func(s S) S { return s }
	}
	return &Manager[S]{clone: clone}
}

// Execute records a change and clears the redo stack.
func (m *Manager[S]) Execute(before, after S) {
	m.undo = append(m.undo, Command[S]{Before: m.clone(before), After: m.clone(after)})
	m.redo = nil
}

// Undo moves the latest command to the redo stack and returns the state it
// started from. It reports false when there is nothing to undo.
func (m *Manager[S]) Undo() (S, bool) {
	var zero S
	if len(m.undo) == 0 {
		return zero, false
	}
	cmd := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, cmd)
	return m.clone(cmd.Before), true
}

// Redo moves the latest undone command back to the undo stack and returns
// the state it produced. It reports false when there is nothing to redo.
func (m *Manager[S]) Redo() (S, bool) {
	var zero S
	if len(m.redo) == 0 {
		return zero, false
	}
	cmd := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, cmd)
	return m.clone(cmd.After), true
}

func (m *Manager[S]) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager[S]) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager[S]) Depth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Clear drops all history.
func (m *Manager[S]) Clear() {
	m.undo = nil
	m.redo = nil
}

func (m *Manager[S]) String() string {
	return fmt.Sprintf("undo: %d, redo: %d", len(m.undo), len(m.redo))
}
