package reconcile

import (
	"sort"

	"tableflip.dev/declist/pkg/diff"
)

type slot[T any] struct {
	add    diff.Operation[T]
	del    diff.Operation[T]
	hasAdd bool
	hasDel bool
}

// Order arranges normalized operations so they can be applied to a stateful
// widget: updates first, then deletes from the highest index down, then adds
// from the lowest index up. A delete and an add landing on the same index are
// merged into a single update of that index.
//
// When two adds (or two deletes) share an index the later one wins and the
// earlier one is dropped; see OrderReport to observe them.
func Order[T any](ops []diff.Operation[T]) []diff.Operation[T] {
	ordered, _ := OrderReport(ops)
	return ordered
}

// OrderReport is Order that also returns the operations dropped because a
// later operation of the same type claimed their index.
func OrderReport[T any](ops []diff.Operation[T]) (ordered, dropped []diff.Operation[T]) {
	ops = Normalize(ops)
	if len(ops) == 0 {
		return nil, nil
	}

	slots := make(map[int]*slot[T])
	at := func(idx int) *slot[T] {
		s, ok := slots[idx]
		if !ok {
			s = &slot[T]{}
			slots[idx] = s
		}
		return s
	}

	var updates []diff.Operation[T]
	for _, op := range ops {
		switch op.Type {
		case diff.Add:
			s := at(op.Index)
			if s.hasAdd {
				dropped = append(dropped, s.add)
			}
			s.add, s.hasAdd = op, true
		case diff.Delete:
			s := at(op.Index)
			if s.hasDel {
				dropped = append(dropped, s.del)
			}
			s.del, s.hasDel = op, true
		case diff.Update:
			updates = append(updates, op)
		}
	}

	indexes := make([]int, 0, len(slots))
	for idx := range slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var deletes, adds []diff.Operation[T]
	for _, idx := range indexes {
		s := slots[idx]
		switch {
		case s.hasAdd && s.hasDel:
			updates = append(updates, diff.UpdateOp(s.del.Item, s.add.New, idx))
		case s.hasAdd:
			adds = append(adds, s.add)
		case s.hasDel:
			deletes = append(deletes, s.del)
		}
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Index < updates[j].Index
	})
	sort.SliceStable(deletes, func(i, j int) bool {
		return deletes[i].Index > deletes[j].Index
	})

	ordered = make([]diff.Operation[T], 0, len(updates)+len(deletes)+len(adds))
	ordered = append(ordered, updates...)
	ordered = append(ordered, deletes...)
	ordered = append(ordered, adds...)
	return ordered, dropped
}
