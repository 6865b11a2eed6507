package sectionlist

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTransaction is reported when the recorded operations do not
// reconcile the rows on screen with the data source.
var ErrInvalidTransaction = errors.New("sectionlist: invalid transaction")

type opKind int

const (
	opInsertSection opKind = iota
	opDeleteSection
	opInsertItem
	opDeleteItem
	opReloadItem
)

func (k opKind) String() string {
	switch k {
	case opInsertSection:
		return "insertSection"
	case opDeleteSection:
		return "deleteSection"
	case opInsertItem:
		return "insertItem"
	case opDeleteItem:
		return "deleteItem"
	case opReloadItem:
		return "reloadItem"
	default:
		return fmt.Sprintf("opKind(%d)", int(k))
	}
}

type pendingOp struct {
	kind    opKind
	section int
	item    int
}

type transaction struct {
	depth int
	ops   []pendingOp
	done  []func(bool)
}

type rowKey struct {
	section int
	item    int
}

// plan is a validated transaction. Deletes and reloads address the rows
// before the transaction, inserts the rows after it.
type plan struct {
	sectionMap    []int
	insertedSecs  map[int]bool
	deletedItems  map[int][]int
	insertedItems map[int][]int
	reloaded      []rowKey
}

// counts reports the rows after a transaction.
type counts interface {
	NumberOfSections() int
	NumberOfItems(section int) int
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}

// validate checks ops against the per-section row counts before the
// transaction (before) and the data source after it (after).
func validate(before []int, after counts, ops []pendingOp) (*plan, error) {
	oldSections := len(before)
	newSections := after.NumberOfSections()

	deletedSecs := map[int]bool{}
	insertedSecs := map[int]bool{}
	for _, op := range ops {
		switch op.kind {
		case opDeleteSection:
			if op.section < 0 || op.section >= oldSections {
				return nil, invalid("delete section %d of %d", op.section, oldSections)
			}
			if deletedSecs[op.section] {
				return nil, invalid("section %d deleted twice", op.section)
			}
			deletedSecs[op.section] = true
		case opInsertSection:
			if op.section < 0 || op.section >= newSections {
				return nil, invalid("insert section %d of %d", op.section, newSections)
			}
			if insertedSecs[op.section] {
				return nil, invalid("section %d inserted twice", op.section)
			}
			insertedSecs[op.section] = true
		}
	}
	if got := oldSections - len(deletedSecs) + len(insertedSecs); got != newSections {
		return nil, invalid("%d sections - %d deleted + %d inserted != %d",
			oldSections, len(deletedSecs), len(insertedSecs), newSections)
	}

	sectionMap := make([]int, oldSections)
	next := 0
	for i := range sectionMap {
		if deletedSecs[i] {
			sectionMap[i] = -1
			continue
		}
		for insertedSecs[next] {
			next++
		}
		sectionMap[i] = next
		next++
	}

	deleted := map[rowKey]bool{}
	inserted := map[rowKey]bool{}
	reloaded := map[rowKey]bool{}
	p := &plan{
		sectionMap:    sectionMap,
		insertedSecs:  insertedSecs,
		deletedItems:  map[int][]int{},
		insertedItems: map[int][]int{},
	}
	for _, op := range ops {
		key := rowKey{op.section, op.item}
		switch op.kind {
		case opDeleteItem, opReloadItem:
			if op.section < 0 || op.section >= oldSections || deletedSecs[op.section] {
				return nil, invalid("%s in missing section %d", op.kind, op.section)
			}
			if op.item < 0 || op.item >= before[op.section] {
				return nil, invalid("%s %d/%d of %d rows", op.kind, op.section, op.item, before[op.section])
			}
			if deleted[key] || reloaded[key] {
				return nil, invalid("%s %d/%d touches a row twice", op.kind, op.section, op.item)
			}
			if op.kind == opDeleteItem {
				deleted[key] = true
				p.deletedItems[op.section] = append(p.deletedItems[op.section], op.item)
				continue
			}
			target := sectionMap[op.section]
			if op.item >= after.NumberOfItems(target) {
				return nil, invalid("reload %d/%d past the updated rows", op.section, op.item)
			}
			reloaded[key] = true
			p.reloaded = append(p.reloaded, rowKey{target, op.item})
		case opInsertItem:
			if op.section < 0 || op.section >= newSections || insertedSecs[op.section] {
				return nil, invalid("insert item in missing section %d", op.section)
			}
			if op.item < 0 || op.item >= after.NumberOfItems(op.section) {
				return nil, invalid("insert item %d/%d of %d rows", op.section, op.item, after.NumberOfItems(op.section))
			}
			if inserted[key] {
				return nil, invalid("item %d/%d inserted twice", op.section, op.item)
			}
			inserted[key] = true
			p.insertedItems[op.section] = append(p.insertedItems[op.section], op.item)
		}
	}

	for old, target := range sectionMap {
		if target < 0 {
			continue
		}
		want := after.NumberOfItems(target)
		got := before[old] - len(p.deletedItems[old]) + len(p.insertedItems[target])
		if got != want {
			return nil, invalid("section %d: %d rows - %d deleted + %d inserted != %d",
				old, before[old], len(p.deletedItems[old]), len(p.insertedItems[target]), want)
		}
	}
	for _, idx := range p.deletedItems {
		sort.Ints(idx)
	}
	for _, idx := range p.insertedItems {
		sort.Ints(idx)
	}
	return p, nil
}

// locate maps a row from before the transaction to its position after it.
func (p *plan) locate(row rowKey) (rowKey, bool) {
	if row.section < 0 || row.section >= len(p.sectionMap) {
		return rowKey{}, false
	}
	target := p.sectionMap[row.section]
	if target < 0 {
		return rowKey{}, false
	}
	item := row.item
	for _, d := range p.deletedItems[row.section] {
		if d == row.item {
			return rowKey{}, false
		}
		if d < row.item {
			item--
		}
	}
	for _, i := range p.insertedItems[target] {
		if i <= item {
			item++
		}
	}
	return rowKey{target, item}, true
}

// changed lists the rows after the transaction that were inserted or
// reloaded, including every row of an inserted section.
func (p *plan) changed(after counts) []rowKey {
	var rows []rowKey
	for section := range p.insertedSecs {
		for item := 0; item < after.NumberOfItems(section); item++ {
			rows = append(rows, rowKey{section, item})
		}
	}
	for section, idx := range p.insertedItems {
		for _, item := range idx {
			rows = append(rows, rowKey{section, item})
		}
	}
	return append(rows, p.reloaded...)
}
