// Package reconcile turns the raw output of a sequence-diff primitive into
// edits that can be applied to an index-addressed list widget in one batch,
// for both the sections of a list and the items inside them.
package reconcile

import "tableflip.dev/declist/pkg/diff"

// Normalize rewrites every Move as a Delete at its source followed by an Add
// at its destination, so the result only holds Add, Delete and Update.
func Normalize[T any](ops []diff.Operation[T]) []diff.Operation[T] {
	if len(ops) == 0 {
		return nil
	}
	out := make([]diff.Operation[T], 0, len(ops))
	for _, op := range ops {
		if op.Type != diff.Move {
			out = append(out, op)
			continue
		}
		out = append(out, diff.DeleteOp(op.Item, op.Index), diff.AddOp(op.New, op.To))
	}
	return out
}
