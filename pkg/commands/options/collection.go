// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
)

// CollectionOptions captures common collection selection flags for commands.
type CollectionOptions struct {
	Collection string
}

// AddCollectionArgs wires collection-related flags on the provided command.
func AddCollectionArgs(cmd *cobra.Command, o *CollectionOptions, def string) {
	cmd.Flags().StringVarP(&o.Collection, "collection", "c", def,
		"Specify the collection.")
}
