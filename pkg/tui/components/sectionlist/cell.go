package sectionlist

import (
	"fmt"

	"tableflip.dev/declist/pkg/descriptor"
)

// Cell is the slot materialized for the built-in row kind.
type Cell struct {
	Title  string
	Note   string
	Symbol string
	Muted  bool
	Strike bool
}

// CellSource is implemented by custom slots that render as a Cell.
type CellSource interface {
	Cell() Cell
}

// Factory creates an empty slot for one kind type.
type Factory func() descriptor.Slot

// CellType is the kind type of *Cell slots.
var CellType = descriptor.TypeName[*Cell]()

func newCell() descriptor.Slot {
	return &Cell{}
}

func cellOf(slot descriptor.Slot) Cell {
	switch s := slot.(type) {
	case *Cell:
		return *s
	case CellSource:
		return s.Cell()
	case fmt.Stringer:
		return Cell{Title: s.String()}
	default:
		return Cell{Title: fmt.Sprint(slot)}
	}
}
