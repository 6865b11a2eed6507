package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"tableflip.dev/declist/pkg/diff"
)

var (
	// ErrIndexOutOfRange reports an operation addressing a position the
	// sequence does not have at the time it is applied.
	ErrIndexOutOfRange = errors.New("reconcile: index out of range")
	// ErrDuplicateIndex reports two removals or two insertions claiming the
	// same position.
	ErrDuplicateIndex = errors.New("reconcile: duplicate index")
)

type insertion[T any] struct {
	at   int
	item T
}

// Apply replays ops against a copy of seq as one batch. Removals (deletes
// and the outgoing half of updates) run from the highest index down against
// the old positions, then insertions (adds and the incoming half of
// updates) run from the lowest index up against the final positions. Moves
// count as both.
func Apply[T any](seq []T, ops []diff.Operation[T]) ([]T, error) {
	out := append([]T(nil), seq...)

	var removals []int
	var inserts []insertion[T]
	for _, op := range ops {
		switch op.Type {
		case diff.Delete:
			removals = append(removals, op.Index)
		case diff.Add:
			inserts = append(inserts, insertion[T]{at: op.Index, item: op.New})
		case diff.Update:
			removals = append(removals, op.Index)
			inserts = append(inserts, insertion[T]{at: op.Index, item: op.New})
		case diff.Move:
			removals = append(removals, op.Index)
			inserts = append(inserts, insertion[T]{at: op.To, item: op.New})
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	for n, idx := range removals {
		if n > 0 && removals[n-1] == idx {
			return nil, fmt.Errorf("%w: remove %d", ErrDuplicateIndex, idx)
		}
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("%w: remove %d from %d", ErrIndexOutOfRange, idx, len(out))
		}
		out = append(out[:idx], out[idx+1:]...)
	}

	sort.SliceStable(inserts, func(i, j int) bool {
		return inserts[i].at < inserts[j].at
	})
	for n, ins := range inserts {
		if n > 0 && inserts[n-1].at == ins.at {
			return nil, fmt.Errorf("%w: insert %d", ErrDuplicateIndex, ins.at)
		}
		if ins.at < 0 || ins.at > len(out) {
			return nil, fmt.Errorf("%w: insert %d into %d", ErrIndexOutOfRange, ins.at, len(out))
		}
		out = append(out, ins.item)
		copy(out[ins.at+1:], out[ins.at:])
		out[ins.at] = ins.item
	}
	return out, nil
}
