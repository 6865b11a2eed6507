// Package journal turns stored entries into list descriptors.
package journal

import (
	"fmt"
	"sort"

	"tableflip.dev/declist/pkg/descriptor"
	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/tui/components/sectionlist"
)

// Slot kinds used by Build.
const (
	KindHeading = "heading"
	KindTask    = "task"
	KindDone    = "done"
)

// ActionDelete asks for the entry under the cursor to be removed.
const ActionDelete descriptor.Action = "delete"

// Heading is the model of the first row of every section.
type Heading struct {
	Collection string
}

// Row is the model of an entry row. Only what is drawn takes part in it, so
// entries that render the same are not reloaded.
type Row struct {
	ID      string
	Message string
	Done    bool
}

// Handlers receive row interactions. Nil handlers are skipped.
type Handlers struct {
	Toggle func(e *entry.Entry)
	Delete func(e *entry.Entry)
}

// Build groups entries by collection, sorted by name, one section each. The
// order of entries within a collection is kept.
func Build(entries []*entry.Entry, h Handlers) []descriptor.Section[any] {
	byCollection := make(map[string][]*entry.Entry)
	for _, e := range entries {
		byCollection[e.Collection] = append(byCollection[e.Collection], e)
	}
	names := make([]string, 0, len(byCollection))
	for name := range byCollection {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]descriptor.Section[any], 0, len(names))
	for _, name := range names {
		sections = append(sections, section(name, byCollection[name], h))
	}
	return sections
}

func section(name string, entries []*entry.Entry, h Handlers) descriptor.Section[any] {
	items := make([]descriptor.Item[any, descriptor.Slot], 0, len(entries)+1)
	items = append(items, heading(name))

	done := 0
	for _, e := range entries {
		if e.Done {
			done++
		}
		items = append(items, row(e, h))
	}
	return descriptor.Section[any]{Items: items}.
		WithFooter(fmt.Sprintf("%d open, %d done", len(entries)-done, done))
}

func heading(name string) descriptor.Item[any, descriptor.Slot] {
	return descriptor.NewItem(Heading{Collection: name}, KindHeading, func(c *sectionlist.Cell) {
		c.Symbol = "#"
		c.Title = name
	}).Any()
}

func row(e *entry.Entry, h Handlers) descriptor.Item[any, descriptor.Slot] {
	model := Row{ID: e.ID, Message: e.Message, Done: e.Done}
	kind := KindTask
	if e.Done {
		kind = KindDone
	}
	item := descriptor.NewItem(model, kind, func(c *sectionlist.Cell) {
		c.Symbol = e.Symbol()
		c.Title = e.Message
		c.Muted = e.Done
		c.Strike = e.Done
	})
	if h.Toggle != nil {
		item = item.WithSelect(func() { h.Toggle(e) })
	}
	if h.Delete != nil {
		item = item.WithAction(func(a descriptor.Action) {
			if a == ActionDelete {
				h.Delete(e)
			}
		})
	}
	return item.Any()
}
