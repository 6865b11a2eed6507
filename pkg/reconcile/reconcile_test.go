package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/diff"
)

type cell struct {
	text string
}

func item(s string) descriptor.Item[string, *cell] {
	return descriptor.NewItem(s, "cell", func(c *cell) { c.text = s })
}

func section(models ...string) descriptor.Section[string] {
	items := make([]descriptor.Item[string, *cell], len(models))
	for i, m := range models {
		items[i] = item(m)
	}
	return descriptor.NewSection(items...)
}

func models(sec descriptor.Section[string]) []string {
	out := make([]string, len(sec.Items))
	for i, it := range sec.Items {
		out[i] = it.Model
	}
	return out
}

func TestReconcileRemovedItem(t *testing.T) {
	before := []descriptor.Section[string]{section("a", "b", "c")}
	after := []descriptor.Section[string]{section("a", "c")}

	result := New[string]().Reconcile(before, after)

	if len(result.Sections) != 1 || result.Sections[0].Type != diff.Update || result.Sections[0].Index != 0 {
		t.Fatalf("expected a single section update at 0, got %v", shape(result.Sections))
	}
	if len(result.Items) != 1 || result.Items[0].Offset != 0 {
		t.Fatalf("expected item edits for section 0, got %+v", result.Items)
	}
	ops := result.Items[0].Operations
	if len(ops) != 1 || ops[0].Type != diff.Delete || ops[0].Index != 1 || ops[0].Item.Model != "b" {
		t.Fatalf("expected delete(b @1), got %v", shape(ops))
	}
}

func TestReconcileIdenticalIsEmpty(t *testing.T) {
	snapshot := []descriptor.Section[string]{section("a", "b"), section("c")}
	again := []descriptor.Section[string]{section("a", "b"), section("c")}

	result := New[string]().Reconcile(snapshot, again)
	if !result.Empty() {
		t.Fatalf("expected no operations, got %d", result.Count())
	}
}

func TestReconcileSliceModels(t *testing.T) {
	sec := func(models ...[]string) descriptor.Section[any] {
		items := make([]descriptor.Item[any, *cell], len(models))
		for i, m := range models {
			items[i] = descriptor.NewItem[any, *cell](m, "cell", nil)
		}
		return descriptor.NewSection(items...)
	}
	before := []descriptor.Section[any]{sec([]string{"a"}, []string{"b"})}
	again := []descriptor.Section[any]{sec([]string{"a"}, []string{"b"})}
	if result := New[any]().Reconcile(before, again); !result.Empty() {
		t.Fatalf("expected no operations, got %d", result.Count())
	}

	after := []descriptor.Section[any]{sec([]string{"a"}, []string{"c"})}
	result := New[any]().Reconcile(before, after)
	if result.Empty() {
		t.Fatal("expected operations for a changed slice model")
	}
}

func TestReconcileCallbacksOnlyIsEmpty(t *testing.T) {
	before := []descriptor.Section[string]{section("a", "b")}
	after := []descriptor.Section[string]{descriptor.NewSection(
		descriptor.NewItem("a", "cell", func(c *cell) { c.text = "A!" }).WithSelect(func() {}),
		descriptor.NewItem("b", "cell", func(c *cell) { c.text = "B!" }).WithAction(func(descriptor.Action) {}),
	)}

	if result := New[string]().Reconcile(before, after); !result.Empty() {
		t.Fatalf("expected callback changes to produce no operations, got %d", result.Count())
	}
}

func TestReconcileOnlyDescendsIntoChangedSections(t *testing.T) {
	before := []descriptor.Section[string]{section("a"), section("b", "c"), section("d")}
	after := []descriptor.Section[string]{section("a"), section("b", "x", "c"), section("d")}

	result := New[string]().Reconcile(before, after)

	if len(result.Sections) != 1 || result.Sections[0].Type != diff.Update || result.Sections[0].Index != 1 {
		t.Fatalf("expected only section 1 to update, got %v", shape(result.Sections))
	}
	if len(result.Items) != 1 || result.Items[0].Offset != 1 {
		t.Fatalf("expected item edits only for section 1, got %+v", result.Items)
	}
	ops := result.Items[0].Operations
	if len(ops) != 1 || ops[0].Type != diff.Add || ops[0].Index != 1 || ops[0].New.Model != "x" {
		t.Fatalf("expected add(x @1), got %v", shape(ops))
	}
}

func TestReconcileSwappedSectionsDoNotRecurse(t *testing.T) {
	s0, s1 := section("a", "b"), section("c")
	result := New[string]().Reconcile(
		[]descriptor.Section[string]{s0, s1},
		[]descriptor.Section[string]{s1, s0},
	)

	if len(result.Items) != 0 {
		t.Fatalf("expected no item-level recursion, got %+v", result.Items)
	}
	if len(result.Sections) != 2 {
		t.Fatalf("expected a delete and an add, got %v", shape(result.Sections))
	}
	for _, op := range result.Sections {
		if op.Type == diff.Update {
			t.Fatalf("unexpected update for a position change: %v", shape(result.Sections))
		}
	}
}

func TestReconcileEmptySides(t *testing.T) {
	full := []descriptor.Section[string]{section("a"), section("b")}

	added := New[string]().Reconcile(nil, full)
	if len(added.Items) != 0 || len(added.Sections) != 2 {
		t.Fatalf("expected two adds, got %v", shape(added.Sections))
	}
	for _, op := range added.Sections {
		if op.Type != diff.Add {
			t.Fatalf("expected only adds, got %v", shape(added.Sections))
		}
	}

	removed := New[string]().Reconcile(full, nil)
	if len(removed.Items) != 0 || len(removed.Sections) != 2 {
		t.Fatalf("expected two deletes, got %v", shape(removed.Sections))
	}
	if removed.Sections[0].Index != 1 || removed.Sections[1].Index != 0 {
		t.Fatalf("expected deletes in descending order, got %v", shape(removed.Sections))
	}
}

func TestReconcileRoundTripsBothLevels(t *testing.T) {
	before := []descriptor.Section[string]{section("a", "b", "c"), section("d"), section("e", "f")}
	after := []descriptor.Section[string]{section("a", "c", "b"), section("e", "f"), section("g"), section("h", "d")}

	result := New[string]().Reconcile(before, after)

	got, err := Apply(before, result.Sections)
	if err != nil {
		t.Fatalf("apply sections: %v", err)
	}
	if len(got) != len(after) {
		t.Fatalf("expected %d sections, got %d", len(after), len(got))
	}
	for i := range after {
		if !got[i].Equal(after[i]) {
			t.Fatalf("section %d: expected %v, got %v", i, models(after[i]), models(got[i]))
		}
	}

	for _, edit := range result.Items {
		items, err := Apply(before[edit.Offset].Items, edit.Operations)
		if err != nil {
			t.Fatalf("apply items of section %d: %v", edit.Offset, err)
		}
		rebuilt := before[edit.Offset].Replacing(items)
		if !rebuilt.Equal(after[edit.Offset]) {
			t.Fatalf("section %d: expected %v, got %v", edit.Offset, models(after[edit.Offset]), models(rebuilt))
		}
	}
}

func TestReconcileReportsCollisions(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var dropped map[Level]int
	r := New[string](
		WithLogger(zap.New(core)),
		WithDroppedHook(func(level Level, n int) {
			if dropped == nil {
				dropped = map[Level]int{}
			}
			dropped[level] += n
		}),
	).UseDiff(func(before, after []descriptor.Section[string]) []diff.Operation[descriptor.Section[string]] {
		return []diff.Operation[descriptor.Section[string]]{
			diff.AddOp(after[0], 0),
			diff.AddOp(after[1], 0),
		}
	}, nil)

	result := r.Reconcile(nil, []descriptor.Section[string]{section("a"), section("b")})

	if len(result.Sections) != 1 {
		t.Fatalf("expected one surviving add, got %v", shape(result.Sections))
	}
	if d := cmp.Diff([]string{"b"}, models(result.Sections[0].New)); d != "" {
		t.Fatalf("expected the later add to win (-want +got):\n%s", d)
	}
	if dropped[LevelSection] != 1 {
		t.Fatalf("expected one dropped section operation, got %v", dropped)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}
