package options

import (
	"github.com/spf13/cobra"
)

// DiffOptions
type DiffOptions struct {
	Verify bool
	Show   bool
}

func AddDiffArgs(cmd *cobra.Command, o *DiffOptions) {
	cmd.Flags().BoolVar(&o.Verify, "verify", false,
		"Replay the operations and check they rebuild the second file.")
	cmd.Flags().BoolVar(&o.Show, "show", false,
		"Print both snapshots before the operations.")
}
