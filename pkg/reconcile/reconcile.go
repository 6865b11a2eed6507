package reconcile

import (
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
)

// Level names the nesting level an operation belongs to.
type Level string

const (
	// LevelSection marks operations on the list of sections.
	LevelSection Level = "section"
	// LevelItem marks operations on the items of one section.
	LevelItem Level = "item"
)

// SectionEdit holds the ordered item operations for the section at Offset.
type SectionEdit[M comparable] struct {
	Offset     int
	Operations []diff.Operation[descriptor.Item[M, descriptor.Slot]]
}

// Result is the two-level edit set for one update. Item edits are meant to be
// applied before the section operations, inside the same transaction.
type Result[M comparable] struct {
	Sections []diff.Operation[descriptor.Section[M]]
	Items    []SectionEdit[M]
}

// Empty reports whether the result holds no operation at either level.
func (r Result[M]) Empty() bool {
	return r.Count() == 0
}

// Count returns the number of operations across both levels.
func (r Result[M]) Count() int {
	n := len(r.Sections)
	for _, edit := range r.Items {
		n += len(edit.Operations)
	}
	return n
}

// Option configures a Reconciler.
type Option func(*options)

type options struct {
	log       *zap.Logger
	onDropped func(Level, int)
}

// WithLogger sets the logger used to report dropped operations.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDroppedHook registers fn to be told how many operations were dropped by
// index collisions at each level.
func WithDroppedHook(fn func(Level, int)) Option {
	return func(o *options) {
		o.onDropped = fn
	}
}

// Reconciler computes two-level edit sets between section snapshots.
type Reconciler[M comparable] struct {
	sections diff.Func[descriptor.Section[M]]
	items    diff.Func[descriptor.Item[M, descriptor.Slot]]
	opts     options
}

// New returns a Reconciler using diff.Diff at both levels.
func New[M comparable](opts ...Option) *Reconciler[M] {
	r := &Reconciler[M]{
		sections: diff.Diff[descriptor.Section[M]],
		items:    diff.Diff[descriptor.Item[M, descriptor.Slot]],
		opts:     options{log: zap.NewNop()},
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// UseDiff replaces the sequence-diff primitive. Nil functions keep the
// current primitive for that level.
func (r *Reconciler[M]) UseDiff(sections diff.Func[descriptor.Section[M]], items diff.Func[descriptor.Item[M, descriptor.Slot]]) *Reconciler[M] {
	if sections != nil {
		r.sections = sections
	}
	if items != nil {
		r.items = items
	}
	return r
}

// Reconcile diffs the section lists, orders the section operations and, for
// every section updated in place, diffs and orders its items. Sections that
// are only added or deleted are not descended into.
func (r *Reconciler[M]) Reconcile(before, after []descriptor.Section[M]) Result[M] {
	var result Result[M]
	result.Sections = orderLevel(r, LevelSection, -1, r.sections(before, after))

	for _, op := range result.Sections {
		if op.Type != diff.Update {
			continue
		}
		itemOps := orderLevel(r, LevelItem, op.Index, r.items(op.Item.Children(), op.New.Children()))
		result.Items = append(result.Items, SectionEdit[M]{
			Offset:     op.Index,
			Operations: itemOps,
		})
	}
	return result
}

func orderLevel[M comparable, T any](r *Reconciler[M], level Level, section int, raw []diff.Operation[T]) []diff.Operation[T] {
	ordered, dropped := OrderReport(Normalize(raw))
	if len(dropped) == 0 {
		return ordered
	}
	for _, op := range dropped {
		r.opts.log.Warn("dropped colliding operation",
			zap.String("level", string(level)),
			zap.Int("section", section),
			zap.Stringer("op", op.Type),
			zap.Int("index", op.Index))
	}
	if r.opts.onDropped != nil {
		r.opts.onDropped(level, len(dropped))
	}
	return ordered
}
