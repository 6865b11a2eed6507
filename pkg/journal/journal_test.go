package journal

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/reconcile"
	"tableflip.dev/declist/pkg/tui/components/sectionlist"
)

func entries() []*entry.Entry {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	mk := func(id, collection, message string, done bool) *entry.Entry {
		return &entry.Entry{ID: id, Collection: collection, Message: message, Done: done, Created: entry.Timestamp{Time: at}}
	}
	return []*entry.Entry{
		mk("1", "Work", "ship it", false),
		mk("2", "Inbox", "call mom", false),
		mk("3", "Work", "write docs", true),
		mk("4", "Inbox", "buy milk", false),
	}
}

func TestBuildGroupsByCollection(t *testing.T) {
	sections := Build(entries(), Handlers{})

	var got [][]string
	for _, s := range sections {
		var kinds []string
		for _, item := range s.Items {
			kinds = append(kinds, item.Kind.ID)
		}
		got = append(got, kinds)
	}
	want := [][]string{
		{KindHeading, KindTask, KindTask},
		{KindHeading, KindTask, KindDone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected kinds (-want, +got): %s", diff)
	}

	if h := sections[0].Items[0].Model.(Heading); h.Collection != "Inbox" {
		t.Errorf("first section is %q, want Inbox", h.Collection)
	}
	if got := sections[1].Footer; got != "1 open, 1 done" {
		t.Errorf("footer = %q", got)
	}
}

func TestBuildConfiguresCells(t *testing.T) {
	sections := Build(entries(), Handlers{})

	c := &sectionlist.Cell{}
	if err := sections[1].Items[2].Materialize(c); err != nil {
		t.Fatal(err)
	}
	want := sectionlist.Cell{Title: "write docs", Symbol: "×", Muted: true, Strike: true}
	if diff := cmp.Diff(want, *c); diff != "" {
		t.Errorf("unexpected cell (-want, +got): %s", diff)
	}
	if got := sections[1].Items[0].Kind.Type; got != sectionlist.CellType {
		t.Errorf("kind type = %q", got)
	}
}

func TestBuildWiresHandlers(t *testing.T) {
	var toggled, deleted []string
	sections := Build(entries(), Handlers{
		Toggle: func(e *entry.Entry) { toggled = append(toggled, e.ID) },
		Delete: func(e *entry.Entry) { deleted = append(deleted, e.ID) },
	})

	sections[0].Items[1].OnSelect()
	sections[0].Items[2].OnAction(ActionDelete)
	sections[0].Items[2].OnAction("archive")

	if diff := cmp.Diff([]string{"2"}, toggled); diff != "" {
		t.Errorf("unexpected toggles (-want, +got): %s", diff)
	}
	if diff := cmp.Diff([]string{"4"}, deleted); diff != "" {
		t.Errorf("unexpected deletes (-want, +got): %s", diff)
	}
	if sections[0].Items[0].OnSelect != nil {
		t.Error("headings are not selectable")
	}
}

func TestRebuildIsStable(t *testing.T) {
	before := Build(entries(), Handlers{})
	after := Build(entries(), Handlers{Toggle: func(*entry.Entry) {}})

	if res := reconcile.New[any]().Reconcile(before, after); !res.Empty() {
		t.Errorf("expected no operations, got %d", res.Count())
	}
}

func TestToggleReloadsOneRow(t *testing.T) {
	es := entries()
	before := Build(es, Handlers{})
	es[1].Toggle()
	after := Build(es, Handlers{})

	res := reconcile.New[any]().Reconcile(before, after)
	// The row changes kind, and the footer travels with the section.
	if len(res.Items) != 1 || res.Items[0].Offset != 0 {
		t.Fatalf("unexpected edits %+v", res.Items)
	}
	ops := res.Items[0].Operations
	if len(ops) != 1 || ops[0].Index != 1 {
		t.Fatalf("unexpected item operations %v", ops)
	}
	if after[0].Footer != "1 open, 1 done" {
		t.Errorf("footer = %q", after[0].Footer)
	}
}
