package sectionlist

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/list"
	"tableflip.dev/declist/pkg/metrics"
)

func cellSection(titles ...string) descriptor.Section[string] {
	items := make([]descriptor.Item[string, *Cell], 0, len(titles))
	for _, title := range titles {
		title := title
		items = append(items, descriptor.NewItem(title, "cell", func(c *Cell) {
			c.Title = title
		}))
	}
	return descriptor.NewSection(items...)
}

func TestControllerDrivesList(t *testing.T) {
	m := New()
	c := list.New(m, []descriptor.Section[string]{
		cellSection("a", "b", "c"),
		cellSection("d"),
	})
	m.Bind(c)

	updates := [][]descriptor.Section[string]{
		{cellSection("a", "c"), cellSection("d")},
		{cellSection("d"), cellSection("a", "c")},
		{cellSection("d", "e"), cellSection("f"), cellSection("a", "c")},
		{cellSection("f")},
		{},
		{cellSection("g", "h")},
	}
	for i, next := range updates {
		c.Update(next)
		m.Flush()

		var want [][]string
		for _, s := range next {
			var titles []string
			for _, item := range s.Items {
				titles = append(titles, item.Model)
			}
			want = append(want, titles)
		}
		got := titlesOrNil(m)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("update %d: unexpected rows (-want, +got): %s", i, diff)
		}
	}
}

func TestControllerFallsBackOnRejectedTransaction(t *testing.T) {
	m := New()
	c := list.New(m, []descriptor.Section[string]{cellSection("a")})
	m.Bind(c)

	// A transaction against rows the list never saw is rejected, and the
	// controller reloads everything.
	m.rows = append(m.rows, []row{{cell: Cell{Title: "stale"}}})
	m.footers = append(m.footers, "")
	c.Update([]descriptor.Section[string]{cellSection("a", "b")})
	m.Flush()

	if diff := cmp.Diff([][]string{{"a", "b"}}, titlesOrNil(m)); diff != "" {
		t.Errorf("unexpected rows (-want, +got): %s", diff)
	}
}

func TestControllerUpdatesSectionBelowDeletedOne(t *testing.T) {
	tests := map[string]struct {
		before, after []descriptor.Section[string]
		want          [][]string
		flashing      [][2]int
		steady        [][2]int
	}{
		"grown section": {
			before:   []descriptor.Section[string]{cellSection("a"), cellSection("b1", "b2"), cellSection("c")},
			after:    []descriptor.Section[string]{cellSection("c"), cellSection("x", "y", "z")},
			want:     [][]string{{"c"}, {"x", "y", "z"}},
			flashing: [][2]int{{1, 0}, {1, 1}, {1, 2}},
			steady:   [][2]int{{0, 0}},
		},
		"replaced row": {
			before:   []descriptor.Section[string]{cellSection("a"), cellSection("b"), cellSection("c")},
			after:    []descriptor.Section[string]{cellSection("c"), cellSection("x")},
			want:     [][]string{{"c"}, {"x"}},
			flashing: [][2]int{{1, 0}},
			steady:   [][2]int{{0, 0}},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			met := metrics.New()
			m := New()
			c := list.New(m, tc.before, list.WithMetrics(met))
			m.Bind(c)

			c.Update(tc.after)
			m.Flush()

			if diff := cmp.Diff(tc.want, titlesOrNil(m)); diff != "" {
				t.Errorf("unexpected rows (-want, +got): %s", diff)
			}
			if got := testutil.ToFloat64(met.Transactions.WithLabelValues("failed")); got != 0 {
				t.Errorf("failed transactions = %v, want 0", got)
			}
			if got := testutil.ToFloat64(met.Transactions.WithLabelValues("committed")); got != 1 {
				t.Errorf("committed transactions = %v, want 1", got)
			}
			for _, pos := range tc.flashing {
				if !m.Flashing(pos[0], pos[1]) {
					t.Errorf("row %v not highlighted", pos)
				}
			}
			for _, pos := range tc.steady {
				if m.Flashing(pos[0], pos[1]) {
					t.Errorf("row %v highlighted", pos)
				}
			}
		})
	}
}

func TestControllerShowsFooterOnlyChange(t *testing.T) {
	m := New()
	m.SetSize(40, 10)
	c := list.New(m, []descriptor.Section[string]{cellSection("a").WithFooter("old footer")})
	m.Bind(c)

	c.Update([]descriptor.Section[string]{cellSection("a").WithFooter("new footer")})
	m.Flush()

	view := stripANSIString(m.View())
	if !strings.Contains(view, "new footer") || strings.Contains(view, "old footer") {
		t.Errorf("footer not refreshed:\n%s", view)
	}
}

func titlesOrNil(m *Model) [][]string {
	var out [][]string
	for s := range m.rows {
		var section []string
		for i := range m.rows[s] {
			c, _ := m.Row(s, i)
			section = append(section, c.Title)
		}
		out = append(out, section)
	}
	return out
}
