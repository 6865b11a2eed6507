// Package diff compares two list snapshots on the command line.
package diff

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/descriptor"
	listdiff "tableflip.dev/declist/pkg/diff"
	"tableflip.dev/declist/pkg/printers"
	"tableflip.dev/declist/pkg/reconcile"
	"tableflip.dev/declist/pkg/snapshot"
)

// ErrMismatch is returned by a verified diff whose operations do not rebuild
// the second snapshot.
var ErrMismatch = errors.New("operations do not reproduce the target")

// Diff prints the operations that turn Before into After.
type Diff struct {
	Before string
	After  string
	// Verify replays the operations against Before and checks the outcome.
	Verify bool
	// Show also prints both snapshots.
	Show   bool
	Out    io.Writer
	Logger *zap.Logger
}

func (d *Diff) out() io.Writer {
	if d.Out != nil {
		return d.Out
	}
	return color.Output
}

func (d *Diff) Do(_ context.Context) error {
	before, err := snapshot.Load(d.Before)
	if err != nil {
		return err
	}
	after, err := snapshot.Load(d.After)
	if err != nil {
		return err
	}
	old, updated := before.Descriptors(), after.Descriptors()

	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	result := reconcile.New[string](reconcile.WithLogger(log)).Reconcile(old, updated)

	if d.Show {
		printers.Sections(d.out(), old)
		printers.Sections(d.out(), updated)
	}
	printers.Result(d.out(), result)

	if !d.Verify {
		return nil
	}
	if err := Verify(old, updated, result); err != nil {
		return err
	}
	_, _ = color.New(color.FgGreen).Fprintln(d.out(), "verified")
	return nil
}

// Verify replays result against before and reports whether it yields after.
func Verify[M comparable](before, after []descriptor.Section[M], result reconcile.Result[M]) error {
	got, err := reconcile.Apply(before, result.Sections)
	if err != nil {
		return fmt.Errorf("sections: %w", err)
	}

	edits := make(map[int]reconcile.SectionEdit[M], len(result.Items))
	for _, edit := range result.Items {
		edits[edit.Offset] = edit
	}
	for _, op := range result.Sections {
		if op.Type != listdiff.Update {
			continue
		}
		edit, ok := edits[op.Index]
		if !ok {
			continue
		}
		items, err := reconcile.Apply(op.Item.Children(), edit.Operations)
		if err != nil {
			return fmt.Errorf("section %d: %w", op.Index, err)
		}
		if !op.New.Equal(op.Item.Replacing(items)) {
			return fmt.Errorf("%w: section %d items", ErrMismatch, op.Index)
		}
	}

	if len(got) != len(after) {
		return fmt.Errorf("%w: %d sections, want %d", ErrMismatch, len(got), len(after))
	}
	for i := range got {
		if !got[i].Equal(after[i]) {
			return fmt.Errorf("%w: section %d", ErrMismatch, i)
		}
	}
	return nil
}
