// Package snapshot reads and writes section lists as YAML files.
package snapshot

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"tableflip.dev/declist/pkg/descriptor"
)

// DefaultKind is used for items that do not name one.
const DefaultKind = "row"

// File is the document stored on disk.
type File struct {
	Sections []Section `yaml:"sections"`
}

// Section is one section of a File.
type Section struct {
	Footer string `yaml:"footer,omitempty"`
	Items  []Item `yaml:"items"`
}

// Item is one row of a Section.
type Item struct {
	Kind  string `yaml:"kind,omitempty"`
	Title string `yaml:"title"`
}

// Line is the slot snapshot descriptors render into.
type Line struct {
	Kind string
	Text string
}

// Read decodes a File, rejecting unknown fields.
func Read(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil {
		if err == io.EOF {
			return f, nil
		}
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return f, nil
}

// Load reads the File at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write encodes f as YAML.
func (f *File) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return enc.Close()
}

// Descriptors converts f into sections whose items are keyed by title and
// kind.
func (f *File) Descriptors() []descriptor.Section[string] {
	sections := make([]descriptor.Section[string], 0, len(f.Sections))
	for _, s := range f.Sections {
		items := make([]descriptor.Item[string, *Line], 0, len(s.Items))
		for _, it := range s.Items {
			items = append(items, describe(it))
		}
		sections = append(sections, descriptor.NewSection(items...).WithFooter(s.Footer))
	}
	return sections
}

func describe(it Item) descriptor.Item[string, *Line] {
	kind := it.Kind
	if kind == "" {
		kind = DefaultKind
	}
	title := it.Title
	return descriptor.NewItem(title, kind, func(l *Line) {
		l.Kind = kind
		l.Text = title
	})
}

// FromDescriptors renders sections back into a File.
func FromDescriptors(sections []descriptor.Section[string]) (*File, error) {
	f := &File{Sections: make([]Section, 0, len(sections))}
	for _, s := range sections {
		out := Section{Footer: s.Footer, Items: make([]Item, 0, len(s.Items))}
		for _, it := range s.Items {
			l := &Line{}
			if err := it.Materialize(l); err != nil {
				return nil, fmt.Errorf("snapshot: %s: %w", it, err)
			}
			kind := l.Kind
			if kind == DefaultKind {
				kind = ""
			}
			out.Items = append(out.Items, Item{Kind: kind, Title: l.Text})
		}
		f.Sections = append(f.Sections, out)
	}
	return f, nil
}
