package list

import (
	"sort"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
	"tableflip.dev/declist/pkg/reconcile"
)

// realign rewrites section updates the widget cannot keep in place. A widget
// lines up the surviving sections of a transaction in order, so an updated
// section keeps its index only when as many sections are deleted as are
// inserted above it. Any other update becomes a delete and an insert of that
// index, and its item edits are dropped.
func realign[M comparable](oldCount int, result reconcile.Result[M]) reconcile.Result[M] {
	deleted := map[int]bool{}
	inserted := map[int]bool{}
	updated := map[int]bool{}
	for _, op := range result.Sections {
		switch op.Type {
		case diff.Delete:
			deleted[op.Index] = true
		case diff.Add:
			inserted[op.Index] = true
		case diff.Update:
			updated[op.Index] = true
		}
	}
	if len(updated) == 0 || (len(deleted) == 0 && len(inserted) == 0) {
		return result
	}

	split := map[int]bool{}
	for shifted := true; shifted; {
		shifted = false
		next := 0
		for i := 0; i < oldCount; i++ {
			if deleted[i] || split[i] {
				continue
			}
			for inserted[next] || split[next] {
				next++
			}
			if updated[i] && !split[i] && next != i {
				split[i] = true
				shifted = true
				break
			}
			next++
		}
	}
	if len(split) == 0 {
		return result
	}

	var updates, deletes, adds []diff.Operation[descriptor.Section[M]]
	for _, op := range result.Sections {
		switch {
		case op.Type == diff.Update && split[op.Index]:
			deletes = append(deletes, diff.DeleteOp(op.Item, op.Index))
			adds = append(adds, diff.AddOp(op.New, op.Index))
		case op.Type == diff.Update:
			updates = append(updates, op)
		case op.Type == diff.Delete:
			deletes = append(deletes, op)
		default:
			adds = append(adds, op)
		}
	}
	sort.SliceStable(deletes, func(i, j int) bool { return deletes[i].Index > deletes[j].Index })
	sort.SliceStable(adds, func(i, j int) bool { return adds[i].Index < adds[j].Index })

	out := reconcile.Result[M]{
		Sections: append(append(updates, deletes...), adds...),
	}
	for _, edit := range result.Items {
		if !split[edit.Offset] {
			out.Items = append(out.Items, edit)
		}
	}
	return out
}
