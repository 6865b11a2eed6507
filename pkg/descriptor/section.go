package descriptor

import (
	"fmt"
	"math/bits"
	"strings"
)

// Section describes an ordered group of items. ID and Footer are caller
// metadata: they are carried along but never used to match sections.
type Section[M comparable] struct {
	Items  []Item[M, Slot]
	Footer string
	ID     int
}

// NewSection builds a section from items sharing the slot type S.
func NewSection[M comparable, S any](items ...Item[M, S]) Section[M] {
	fixed := make([]Item[M, Slot], len(items))
	for i, item := range items {
		fixed[i] = item.Fixed()
	}
	return Section[M]{Items: fixed}
}

// Children returns the items of the section.
func (s Section[M]) Children() []Item[M, Slot] {
	return s.Items
}

// Identity folds the child identities in order, so any reorder, insertion or
// removal of children yields a different section identity. An empty section
// has identity zero.
func (s Section[M]) Identity() uint64 {
	if len(s.Items) == 0 {
		return 0
	}
	acc := s.Items[0].Identity()
	for _, item := range s.Items[1:] {
		acc = bits.RotateLeft64(acc, 5) ^ item.Identity()
	}
	return acc
}

// Equal reports whether both sections hold equal items in the same order.
func (s Section[M]) Equal(o Section[M]) bool {
	if len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

// Replacing returns a section holding items that keeps this section's
// metadata.
func (s Section[M]) Replacing(items []Item[M, Slot]) Section[M] {
	return Section[M]{Items: items, Footer: s.Footer, ID: s.ID}
}

// ReplacingWith takes the children of other and keeps this section's ID.
func (s Section[M]) ReplacingWith(other Section[M]) Section[M] {
	return Section[M]{Items: other.Items, Footer: other.Footer, ID: s.ID}
}

// WithFooter returns a copy of the section with the footer text set.
func (s Section[M]) WithFooter(footer string) Section[M] {
	s.Footer = footer
	return s
}

// WithID returns a copy of the section with the caller ID set.
func (s Section[M]) WithID(id int) Section[M] {
	s.ID = id
	return s
}

// Any erases the model type of every item.
func (s Section[M]) Any() Section[any] {
	items := make([]Item[any, Slot], len(s.Items))
	for i, item := range s.Items {
		items[i] = item.Any()
	}
	return Section[any]{Items: items, Footer: s.Footer, ID: s.ID}
}

// Kinds returns the distinct kinds used by the section, in first-use order.
func (s Section[M]) Kinds() []Kind {
	seen := make(map[Kind]struct{}, len(s.Items))
	var kinds []Kind
	for _, item := range s.Items {
		if _, ok := seen[item.Kind]; ok {
			continue
		}
		seen[item.Kind] = struct{}{}
		kinds = append(kinds, item.Kind)
	}
	return kinds
}

// String implements fmt.Stringer.
func (s Section[M]) String() string {
	parts := make([]string, len(s.Items))
	for i, item := range s.Items {
		parts[i] = fmt.Sprint(item.Model)
	}
	return fmt.Sprintf("SEC %s { %s }", formatHash(s.Identity()), strings.Join(parts, ", "))
}

// Kinds collects the distinct kinds across sections.
func Kinds[M comparable](sections []Section[M]) []Kind {
	seen := make(map[Kind]struct{})
	var kinds []Kind
	for _, sec := range sections {
		for _, kind := range sec.Kinds() {
			if _, ok := seen[kind]; ok {
				continue
			}
			seen[kind] = struct{}{}
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
