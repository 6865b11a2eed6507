package list

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
	"tableflip.dev/declist/pkg/metrics"
	"tableflip.dev/declist/pkg/reconcile"
)

// ErrNoDescriptor is returned when a position holds no descriptor.
var ErrNoDescriptor = errors.New("list: no descriptor at position")

// Option configures a Controller.
type Option func(*config)

type config struct {
	log          *zap.Logger
	metrics      *metrics.Metrics
	singleFlight bool
	differ       any
}

type differ[M comparable] struct {
	sections diff.Func[descriptor.Section[M]]
	items    diff.Func[descriptor.Item[M, descriptor.Slot]]
}

// WithLogger sets the controller logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records transactions and operations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithDiffer replaces the sequence-diff primitive used at each level. Nil
// functions keep diff.Diff. M must match the model type of the Controller.
func WithDiffer[M comparable](sections diff.Func[descriptor.Section[M]], items diff.Func[descriptor.Item[M, descriptor.Slot]]) Option {
	return func(c *config) {
		c.differ = differ[M]{sections: sections, items: items}
	}
}

// WithSingleFlight keeps at most one transaction open against the widget.
// Updates issued meanwhile are coalesced to the latest snapshot and applied
// when the open transaction completes. Use it with widgets that do not
// serialize transactions themselves.
func WithSingleFlight() Option {
	return func(c *config) {
		c.singleFlight = true
	}
}

// Controller owns the descriptor snapshot shown by a widget. It is not safe
// for concurrent use: call it from the goroutine that drives the widget.
type Controller[M comparable] struct {
	widget     Widget
	reconciler *reconcile.Reconciler[M]
	sections   []descriptor.Section[M]
	cfg        config

	inFlight   bool
	pending    []descriptor.Section[M]
	hasPending bool
}

// New registers the slot kinds of initial, retains it and fully reloads w.
func New[M comparable](w Widget, initial []descriptor.Section[M], opts ...Option) *Controller[M] {
	cfg := config{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Controller[M]{
		widget:   w,
		sections: cloneSections(initial),
		cfg:      cfg,
	}
	c.reconciler = reconcile.New[M](
		reconcile.WithLogger(cfg.log),
		reconcile.WithDroppedHook(c.recordDropped),
	)
	if d, ok := cfg.differ.(differ[M]); ok {
		c.reconciler.UseDiff(d.sections, d.items)
	}
	c.register(c.sections)
	w.ReloadAll()
	return c
}

// UseDiff swaps the sequence-diff primitive used for sections and items.
func (c *Controller[M]) UseDiff(sections diff.Func[descriptor.Section[M]], items diff.Func[descriptor.Item[M, descriptor.Slot]]) {
	c.reconciler.UseDiff(sections, items)
}

// Update reconciles sections against the retained snapshot and applies the
// difference as one widget transaction. It returns before the transaction
// completes.
func (c *Controller[M]) Update(sections []descriptor.Section[M]) {
	next := cloneSections(sections)
	if c.cfg.singleFlight && c.inFlight {
		c.pending, c.hasPending = next, true
		c.cfg.log.Debug("transaction in flight, update queued", zap.Int("sections", len(next)))
		return
	}
	c.apply(next)
}

func (c *Controller[M]) apply(next []descriptor.Section[M]) {
	c.register(next)

	result := c.reconciler.Reconcile(c.sections, next)
	if result.Empty() {
		// Callbacks may still differ, keep the latest closures.
		footers := footersChanged(c.sections, next)
		c.sections = next
		if footers {
			c.cfg.log.Debug("footers changed, reloading")
			if c.cfg.metrics != nil {
				c.cfg.metrics.FullReloads.Inc()
			}
			c.widget.ReloadAll()
		}
		return
	}
	result = realign(len(c.sections), result)

	c.cfg.log.Debug("applying update",
		zap.Int("sectionOps", len(result.Sections)),
		zap.Int("sectionEdits", len(result.Items)),
		zap.Int("operations", result.Count()))

	c.inFlight = true
	c.widget.BeginTransaction()
	c.sections = next
	for _, edit := range result.Items {
		c.applyItems(edit)
	}
	c.applySections(result.Sections)
	c.widget.EndTransaction(c.complete)
}

func (c *Controller[M]) applyItems(edit reconcile.SectionEdit[M]) {
	for _, op := range edit.Operations {
		switch op.Type {
		case diff.Delete:
			c.widget.DeleteItem(edit.Offset, op.Index)
		case diff.Add:
			c.widget.InsertItem(edit.Offset, op.Index)
		case diff.Update:
			c.widget.ReloadItem(edit.Offset, op.Index)
		default:
			continue
		}
		c.recordOp(reconcile.LevelItem, op.Type)
	}
}

func (c *Controller[M]) applySections(ops []diff.Operation[descriptor.Section[M]]) {
	for _, op := range ops {
		switch op.Type {
		case diff.Delete:
			c.widget.DeleteSection(op.Index)
		case diff.Add:
			c.widget.InsertSection(op.Index)
		case diff.Update:
			// Realized by the item edits of this section.
		default:
			continue
		}
		c.recordOp(reconcile.LevelSection, op.Type)
	}
}

func (c *Controller[M]) complete(success bool) {
	c.inFlight = false
	if success {
		c.recordTransaction("committed")
	} else {
		c.cfg.log.Warn("incremental transaction failed, reloading",
			zap.Int("sections", len(c.sections)))
		c.recordTransaction("failed")
		if c.cfg.metrics != nil {
			c.cfg.metrics.FullReloads.Inc()
		}
		c.widget.ReloadAll()
	}
	if c.hasPending {
		next := c.pending
		c.pending, c.hasPending = nil, false
		c.apply(next)
	}
}

// footersChanged compares the footers of two snapshots holding the same
// number of sections.
func footersChanged[M comparable](before, after []descriptor.Section[M]) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].Footer != after[i].Footer {
			return true
		}
	}
	return false
}

// register hands every kind of sections to the widget. Widgets treat repeated
// registration as a no-op.
func (c *Controller[M]) register(sections []descriptor.Section[M]) {
	for _, kind := range descriptor.Kinds(sections) {
		c.widget.RegisterSlotKind(kind.Type, kind.ID)
	}
}

// Sections returns a copy of the retained snapshot.
func (c *Controller[M]) Sections() []descriptor.Section[M] {
	return cloneSections(c.sections)
}

// Pending reports whether an update is waiting for the open transaction.
func (c *Controller[M]) Pending() bool {
	return c.hasPending
}

// DescriptorAt returns the item at the given position of the retained
// snapshot.
func (c *Controller[M]) DescriptorAt(section, item int) (descriptor.Item[M, descriptor.Slot], bool) {
	if section < 0 || section >= len(c.sections) {
		return descriptor.Item[M, descriptor.Slot]{}, false
	}
	items := c.sections[section].Items
	if item < 0 || item >= len(items) {
		return descriptor.Item[M, descriptor.Slot]{}, false
	}
	return items[item], true
}

// Select invokes the OnSelect callback of the item at the given position. It
// reports whether a callback ran.
func (c *Controller[M]) Select(section, item int) bool {
	d, ok := c.DescriptorAt(section, item)
	if !ok || d.OnSelect == nil {
		return false
	}
	d.OnSelect()
	return true
}

// Perform invokes the OnAction callback of the item at the given position. It
// reports whether a callback ran.
func (c *Controller[M]) Perform(section, item int, action descriptor.Action) bool {
	d, ok := c.DescriptorAt(section, item)
	if !ok || d.OnAction == nil {
		return false
	}
	d.OnAction(action)
	return true
}

// NumberOfSections implements DataSource.
func (c *Controller[M]) NumberOfSections() int {
	return len(c.sections)
}

// NumberOfItems implements DataSource.
func (c *Controller[M]) NumberOfItems(section int) int {
	if section < 0 || section >= len(c.sections) {
		return 0
	}
	return len(c.sections[section].Items)
}

// Footer implements DataSource.
func (c *Controller[M]) Footer(section int) string {
	if section < 0 || section >= len(c.sections) {
		return ""
	}
	return c.sections[section].Footer
}

// KindAt implements DataSource.
func (c *Controller[M]) KindAt(section, item int) (descriptor.Kind, bool) {
	d, ok := c.DescriptorAt(section, item)
	if !ok {
		return descriptor.Kind{}, false
	}
	return d.Kind, true
}

// Configure implements DataSource. It always runs the Configure callback of
// the current snapshot.
func (c *Controller[M]) Configure(section, item int, slot descriptor.Slot) error {
	d, ok := c.DescriptorAt(section, item)
	if !ok {
		return fmt.Errorf("%w: %d/%d", ErrNoDescriptor, section, item)
	}
	return d.Materialize(slot)
}

func (c *Controller[M]) recordOp(level reconcile.Level, typ diff.OpType) {
	if c.cfg.metrics == nil {
		return
	}
	c.cfg.metrics.Operations.WithLabelValues(string(level), typ.String()).Inc()
}

func (c *Controller[M]) recordTransaction(result string) {
	if c.cfg.metrics == nil {
		return
	}
	c.cfg.metrics.Transactions.WithLabelValues(result).Inc()
}

func (c *Controller[M]) recordDropped(level reconcile.Level, n int) {
	if c.cfg.metrics == nil {
		return
	}
	c.cfg.metrics.Dropped.WithLabelValues(string(level)).Add(float64(n))
}

func cloneSections[M comparable](sections []descriptor.Section[M]) []descriptor.Section[M] {
	if len(sections) == 0 {
		return nil
	}
	return append([]descriptor.Section[M](nil), sections...)
}
