// Package list drives an incremental list widget from declarative section
// descriptors. Each Update reconciles the new snapshot against the retained
// one and applies the difference to the widget as a single transaction.
package list

import "tableflip.dev/declist/pkg/descriptor"

// Widget is an index-addressed list that accepts batched mutations.
//
// Between BeginTransaction and EndTransaction, DeleteSection, DeleteItem and
// ReloadItem address positions before the transaction while InsertSection and
// InsertItem address positions after it. EndTransaction reports through
// onComplete whether the batch was applied, possibly after it returns.
type Widget interface {
	BeginTransaction()
	InsertSection(at int)
	DeleteSection(at int)
	InsertItem(section, at int)
	DeleteItem(section, at int)
	ReloadItem(section, at int)
	EndTransaction(onComplete func(success bool))
	ReloadAll()
	RegisterSlotKind(kindType, identifier string)
}

// DataSource is what a widget reads when it materializes rows.
type DataSource interface {
	NumberOfSections() int
	NumberOfItems(section int) int
	Footer(section int) string
	KindAt(section, item int) (descriptor.Kind, bool)
	Configure(section, item int, slot descriptor.Slot) error
}
