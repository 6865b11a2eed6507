// Package diff holds the edit operations exchanged between a sequence-diff
// primitive and the reconciler, plus a default primitive.
package diff

import "fmt"

// OpType enumerates the edit operations.
type OpType int

const (
	// Add inserts Item at Index of the new sequence.
	Add OpType = iota
	// Delete removes Item from Index of the old sequence.
	Delete
	// Update replaces Item with New at Index, which the element occupies in
	// both the old and the new sequence.
	Update
	// Move relocates Item from Index of the old sequence to To of the new
	// sequence, becoming New.
	Move
)

// String implements fmt.Stringer.
func (t OpType) String() string {
	switch t {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Update:
		return "update"
	case Move:
		return "move"
	default:
		return fmt.Sprintf("OpType(%d)", int(t))
	}
}

// Operation is a single edit against an index-addressed sequence.
//
// Indexes follow batch semantics: Delete indexes address the sequence before
// the edit, Add indexes the sequence after it, Update indexes both.
type Operation[T any] struct {
	Type  OpType
	Item  T
	New   T
	Index int
	To    int
}

// AddOp inserts item at index at.
func AddOp[T any](item T, at int) Operation[T] {
	return Operation[T]{Type: Add, Item: item, New: item, Index: at}
}

// DeleteOp removes item from index from.
func DeleteOp[T any](item T, from int) Operation[T] {
	return Operation[T]{Type: Delete, Item: item, Index: from}
}

// UpdateOp replaces old with updated at index at.
func UpdateOp[T any](old, updated T, at int) Operation[T] {
	return Operation[T]{Type: Update, Item: old, New: updated, Index: at}
}

// MoveOp relocates old at from to updated at to.
func MoveOp[T any](old, updated T, from, to int) Operation[T] {
	return Operation[T]{Type: Move, Item: old, New: updated, Index: from, To: to}
}

// String implements fmt.Stringer.
func (o Operation[T]) String() string {
	switch o.Type {
	case Add:
		return fmt.Sprintf("add(%v @%d)", o.New, o.Index)
	case Delete:
		return fmt.Sprintf("delete(%v @%d)", o.Item, o.Index)
	case Update:
		return fmt.Sprintf("update(%v -> %v @%d)", o.Item, o.New, o.Index)
	case Move:
		return fmt.Sprintf("move(%v @%d -> @%d)", o.Item, o.Index, o.To)
	default:
		return o.Type.String()
	}
}
