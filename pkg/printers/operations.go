package printers

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
	"tableflip.dev/declist/pkg/reconcile"
)

var opColors = map[diff.OpType]*color.Color{
	diff.Add:    color.New(color.FgGreen),
	diff.Delete: color.New(color.FgRed),
	diff.Update: color.New(color.FgYellow),
	diff.Move:   color.New(color.FgCyan),
}

func opName(t diff.OpType) string {
	if c, ok := opColors[t]; ok {
		return c.Sprint(t.String())
	}
	return t.String()
}

// Result prints the operations of r as a table, item edits first in the order
// they are applied.
func Result[M comparable](w io.Writer, r reconcile.Result[M]) {
	if r.Empty() {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, "no changes")
		return
	}
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("LEVEL"), bold.Sprint("SECTION"), bold.Sprint("OP"), bold.Sprint("INDEX"), bold.Sprint("ITEM"))
	for _, edit := range r.Items {
		for _, op := range edit.Operations {
			tbl.AddRow(reconcile.LevelItem, edit.Offset, opName(op.Type), index(op), itemLabel(op))
		}
	}
	for _, op := range r.Sections {
		tbl.AddRow(reconcile.LevelSection, "-", opName(op.Type), index(op), sectionLabel(op))
	}
	tbl.RightAlign(1)
	tbl.RightAlign(3)

	_, _ = fmt.Fprintln(w, tbl)
}

// Sections prints every section with its items and footer.
func Sections[M comparable](w io.Writer, sections []descriptor.Section[M]) {
	t := color.New(color.Bold, color.Underline)
	f := color.New(color.Faint, color.Italic)
	for s, section := range sections {
		_, _ = t.Fprintf(w, "section %d\n", s)
		tbl := uitable.New()
		tbl.Separator = "  "
		for i, item := range section.Items {
			tbl.AddRow(i, item.Kind.ID, fmt.Sprint(item.Model))
		}
		tbl.RightAlign(0)
		if len(section.Items) > 0 {
			_, _ = fmt.Fprintln(w, tbl)
		}
		if section.Footer != "" {
			_, _ = f.Fprintln(w, section.Footer)
		}
		_, _ = fmt.Fprintln(w, "")
	}
}

func index[T any](op diff.Operation[T]) string {
	if op.Type == diff.Move {
		return fmt.Sprintf("%d->%d", op.Index, op.To)
	}
	return fmt.Sprint(op.Index)
}

func itemLabel[M comparable](op diff.Operation[descriptor.Item[M, descriptor.Slot]]) string {
	switch op.Type {
	case diff.Add:
		return fmt.Sprintf("%s %v", op.New.Kind.ID, op.New.Model)
	case diff.Update, diff.Move:
		if op.Item.Kind != op.New.Kind || !descriptor.ModelEqual(op.Item.Model, op.New.Model) {
			return fmt.Sprintf("%s %v -> %s %v", op.Item.Kind.ID, op.Item.Model, op.New.Kind.ID, op.New.Model)
		}
	}
	return fmt.Sprintf("%s %v", op.Item.Kind.ID, op.Item.Model)
}

func sectionLabel[M comparable](op diff.Operation[descriptor.Section[M]]) string {
	s := op.Item
	if op.Type == diff.Add {
		s = op.New
	}
	n := len(s.Items)
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
