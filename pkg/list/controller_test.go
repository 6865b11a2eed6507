package list

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
	"tableflip.dev/declist/pkg/metrics"
)

type label struct {
	text string
}

type fakeWidget struct {
	calls      []string
	kinds      map[string]string
	fail       bool
	defer_     bool
	completion []func(bool)
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{kinds: map[string]string{}}
}

func (w *fakeWidget) record(format string, args ...any) {
	w.calls = append(w.calls, fmt.Sprintf(format, args...))
}

func (w *fakeWidget) BeginTransaction()          { w.record("begin") }
func (w *fakeWidget) InsertSection(at int)       { w.record("insertSection %d", at) }
func (w *fakeWidget) DeleteSection(at int)       { w.record("deleteSection %d", at) }
func (w *fakeWidget) InsertItem(section, at int) { w.record("insertItem %d/%d", section, at) }
func (w *fakeWidget) DeleteItem(section, at int) { w.record("deleteItem %d/%d", section, at) }
func (w *fakeWidget) ReloadItem(section, at int) { w.record("reloadItem %d/%d", section, at) }
func (w *fakeWidget) ReloadAll()                 { w.record("reloadAll") }

func (w *fakeWidget) RegisterSlotKind(kindType, identifier string) {
	w.kinds[identifier] = kindType
	w.record("register %s", identifier)
}

func (w *fakeWidget) EndTransaction(onComplete func(bool)) {
	w.record("end")
	if w.defer_ {
		w.completion = append(w.completion, onComplete)
		return
	}
	onComplete(!w.fail)
}

func (w *fakeWidget) finish(success bool) {
	fn := w.completion[0]
	w.completion = w.completion[1:]
	fn(success)
}

// mutations drops registrations so tests can focus on the edit stream.
func (w *fakeWidget) mutations() []string {
	var out []string
	for _, c := range w.calls {
		if strings.HasPrefix(c, "register") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (w *fakeWidget) reset() {
	w.calls = nil
}

func labelItem(model string) descriptor.Item[string, descriptor.Slot] {
	return descriptor.NewItem(model, "label", func(l *label) {
		l.text = model
	}).Fixed()
}

func section(models ...string) descriptor.Section[string] {
	s := descriptor.Section[string]{}
	for _, m := range models {
		s.Items = append(s.Items, labelItem(m))
	}
	return s
}

func TestNewReloadsAndRegisters(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a", "b")})

	want := []string{"register label", "reloadAll"}
	if diff := cmp.Diff(want, w.calls); diff != "" {
		t.Errorf("unexpected calls (-want, +got): %s", diff)
	}
	if got := w.kinds["label"]; got != "*list.label" {
		t.Errorf("registered type = %q", got)
	}
	if got := c.NumberOfItems(0); got != 2 {
		t.Errorf("NumberOfItems(0) = %d, want 2", got)
	}
}

func TestIdenticalUpdateTouchesNothing(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a", "b"), section("c")})
	w.reset()

	c.Update([]descriptor.Section[string]{section("a", "b"), section("c")})

	if got := w.mutations(); len(got) != 0 {
		t.Errorf("expected no widget mutations, got %v", got)
	}
}

func TestRemovedItem(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a", "b", "c"), section("d")})
	w.reset()

	c.Update([]descriptor.Section[string]{section("a", "c"), section("d")})

	want := []string{"begin", "deleteItem 0/1", "end"}
	if diff := cmp.Diff(want, w.mutations()); diff != "" {
		t.Errorf("unexpected calls (-want, +got): %s", diff)
	}
	if got := c.NumberOfItems(0); got != 2 {
		t.Errorf("NumberOfItems(0) = %d, want 2", got)
	}
}

func TestSwappedSectionsDeleteAndInsert(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a"), section("b")})
	w.reset()

	c.Update([]descriptor.Section[string]{section("b"), section("a")})

	got := w.mutations()
	if len(got) != 4 || got[0] != "begin" || got[3] != "end" {
		t.Fatalf("unexpected calls: %v", got)
	}
	if !strings.HasPrefix(got[1], "deleteSection") || !strings.HasPrefix(got[2], "insertSection") {
		t.Errorf("swap should be one section delete and one insert, got %v", got)
	}
}

func TestFailedTransactionReloads(t *testing.T) {
	w := newFakeWidget()
	w.fail = true
	m := metrics.New()
	c := New(w, []descriptor.Section[string]{section("a")}, WithMetrics(m))
	w.reset()

	c.Update([]descriptor.Section[string]{section("a", "b")})

	want := []string{"begin", "insertItem 0/1", "end", "reloadAll"}
	if diff := cmp.Diff(want, w.mutations()); diff != "" {
		t.Errorf("unexpected calls (-want, +got): %s", diff)
	}
	if got := testutil.ToFloat64(m.FullReloads); got != 1 {
		t.Errorf("full reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed transactions = %v, want 1", got)
	}
	if got := c.NumberOfItems(0); got != 2 {
		t.Errorf("snapshot should be the new one, NumberOfItems(0) = %d", got)
	}
}

func TestMetricsCountOperations(t *testing.T) {
	w := newFakeWidget()
	m := metrics.New()
	c := New(w, []descriptor.Section[string]{section("a", "b")}, WithMetrics(m))

	c.Update([]descriptor.Section[string]{section("a", "b", "c"), section("d")})

	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("committed")); got != 1 {
		t.Errorf("committed transactions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("section", "add")); got != 1 {
		t.Errorf("section adds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("item", "add")); got != 1 {
		t.Errorf("item adds = %v, want 1", got)
	}
}

func TestKindsRegisteredBeforeTransaction(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a")})
	w.reset()

	badge := descriptor.NewItem("b", "badge", func(l *label) {}).Fixed()
	next := section("a")
	next.Items = append(next.Items, badge)
	c.Update([]descriptor.Section[string]{next})

	begin, register := -1, -1
	for i, call := range w.calls {
		switch call {
		case "begin":
			begin = i
		case "register badge":
			register = i
		}
	}
	if register < 0 || begin < 0 || register > begin {
		t.Errorf("badge must register before begin, calls %v", w.calls)
	}
}

func TestCallbackOnlyChangeSwapsSnapshot(t *testing.T) {
	w := newFakeWidget()
	var first, second int
	item := func(fn func()) descriptor.Section[string] {
		return descriptor.Section[string]{Items: []descriptor.Item[string, descriptor.Slot]{labelItem("a").WithSelect(fn)}}
	}
	c := New(w, []descriptor.Section[string]{item(func() { first++ })})
	w.reset()

	c.Update([]descriptor.Section[string]{item(func() { second++ })})

	if got := w.mutations(); len(got) != 0 {
		t.Errorf("expected no widget mutations, got %v", got)
	}
	if !c.Select(0, 0) {
		t.Fatal("Select reported no callback")
	}
	if first != 0 || second != 1 {
		t.Errorf("select ran first=%d second=%d, want the latest callback", first, second)
	}
}

func TestSingleFlightCoalesces(t *testing.T) {
	w := newFakeWidget()
	w.defer_ = true
	c := New(w, []descriptor.Section[string]{section("a")}, WithSingleFlight())
	w.reset()

	c.Update([]descriptor.Section[string]{section("a", "b")})
	c.Update([]descriptor.Section[string]{section("a", "b", "c")})
	c.Update([]descriptor.Section[string]{section("a", "b", "c", "d")})

	if !c.Pending() {
		t.Fatal("expected a pending update")
	}
	if got, want := w.mutations(), []string{"begin", "insertItem 0/1", "end"}; !cmp.Equal(want, got) {
		t.Fatalf("unexpected calls before completion: %v", got)
	}

	w.reset()
	w.finish(true)

	want := []string{"begin", "insertItem 0/2", "insertItem 0/3", "end"}
	if diff := cmp.Diff(want, w.mutations()); diff != "" {
		t.Errorf("unexpected calls (-want, +got): %s", diff)
	}
	if c.Pending() {
		t.Error("pending update should have been applied")
	}
	w.finish(true)
	if got := c.NumberOfItems(0); got != 4 {
		t.Errorf("NumberOfItems(0) = %d, want 4", got)
	}
}

func TestWithoutSingleFlightTransactionsOverlap(t *testing.T) {
	w := newFakeWidget()
	w.defer_ = true
	c := New(w, []descriptor.Section[string]{section("a")})
	w.reset()

	c.Update([]descriptor.Section[string]{section("a", "b")})
	c.Update([]descriptor.Section[string]{section("a", "b", "c")})

	if got := len(w.completion); got != 2 {
		t.Errorf("open transactions = %d, want 2", got)
	}
}

func TestDataSource(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a", "b").WithFooter("2 items")})

	if got := c.NumberOfSections(); got != 1 {
		t.Errorf("NumberOfSections() = %d", got)
	}
	if got := c.Footer(0); got != "2 items" {
		t.Errorf("Footer(0) = %q", got)
	}
	if got := c.Footer(3); got != "" {
		t.Errorf("Footer(3) = %q", got)
	}
	if kind, ok := c.KindAt(0, 1); !ok || kind.ID != "label" {
		t.Errorf("KindAt(0, 1) = %v, %v", kind, ok)
	}
	if _, ok := c.KindAt(0, 2); ok {
		t.Error("KindAt(0, 2) should be out of range")
	}

	l := &label{}
	if err := c.Configure(0, 1, l); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if l.text != "b" {
		t.Errorf("configured text = %q, want b", l.text)
	}
	if err := c.Configure(1, 0, l); !errors.Is(err, ErrNoDescriptor) {
		t.Errorf("Configure out of range = %v", err)
	}
	if err := c.Configure(0, 0, "not a label"); !errors.Is(err, descriptor.ErrSlotType) {
		t.Errorf("Configure wrong slot = %v", err)
	}
}

func TestPerform(t *testing.T) {
	w := newFakeWidget()
	var got descriptor.Action
	c := New(w, []descriptor.Section[string]{{
		Items: []descriptor.Item[string, descriptor.Slot]{
			labelItem("a").WithAction(func(a descriptor.Action) { got = a }),
			labelItem("b"),
		},
	}})

	if !c.Perform(0, 0, "delete") {
		t.Error("Perform(0, 0) reported no callback")
	}
	if got != "delete" {
		t.Errorf("action = %q", got)
	}
	if c.Perform(0, 1, "delete") {
		t.Error("Perform(0, 1) should have no callback")
	}
	if c.Select(0, 0) {
		t.Error("Select(0, 0) should have no callback")
	}
}

func TestWithDiffer(t *testing.T) {
	w := newFakeWidget()
	calls := 0
	reloadEverything := func(before, after []descriptor.Section[string]) []diff.Operation[descriptor.Section[string]] {
		calls++
		var ops []diff.Operation[descriptor.Section[string]]
		for i := len(before) - 1; i >= 0; i-- {
			ops = append(ops, diff.DeleteOp(before[i], i))
		}
		for i := range after {
			ops = append(ops, diff.AddOp(after[i], i))
		}
		return ops
	}
	c := New(w, []descriptor.Section[string]{section("a")}, WithDiffer[string](reloadEverything, nil))
	w.reset()

	c.Update([]descriptor.Section[string]{section("b"), section("c")})

	if calls != 1 {
		t.Errorf("differ called %d times, want 1", calls)
	}
	want := []string{"begin", "reloadItem 0/0", "insertSection 1", "end"}
	if diff := cmp.Diff(want, w.mutations()); diff != "" {
		t.Errorf("unexpected calls (-want, +got): %s", diff)
	}
}

func TestUpdateBelowDeletedSectionIsReinserted(t *testing.T) {
	w := newFakeWidget()
	c := New(w, []descriptor.Section[string]{section("a"), section("b1", "b2"), section("c")})
	w.reset()

	c.Update([]descriptor.Section[string]{section("c"), section("x", "y", "z")})

	want := []string{"begin", "deleteSection 1", "deleteSection 0", "insertSection 1", "end"}
	if diff := cmp.Diff(want, w.mutations()); diff != "" {
		t.Errorf("unexpected mutations (-want, +got): %s", diff)
	}
}

func TestFooterOnlyChangeReloads(t *testing.T) {
	w := newFakeWidget()
	m := metrics.New()
	c := New(w, []descriptor.Section[string]{section("a").WithFooter("old")}, WithMetrics(m))
	w.reset()

	c.Update([]descriptor.Section[string]{section("a").WithFooter("new")})

	if diff := cmp.Diff([]string{"reloadAll"}, w.mutations()); diff != "" {
		t.Errorf("unexpected mutations (-want, +got): %s", diff)
	}
	if got := c.Footer(0); got != "new" {
		t.Errorf("Footer(0) = %q, want new", got)
	}
	if got := testutil.ToFloat64(m.FullReloads); got != 1 {
		t.Errorf("full reloads = %v, want 1", got)
	}

	w.reset()
	c.Update([]descriptor.Section[string]{section("a").WithFooter("new")})
	if got := w.mutations(); len(got) != 0 {
		t.Errorf("expected no widget mutations, got %v", got)
	}
}
