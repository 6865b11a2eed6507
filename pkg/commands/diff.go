package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/declist/pkg/commands/options"
	"tableflip.dev/declist/pkg/runner/diff"
)

func addDiff(topLevel *cobra.Command) {
	do := &options.DiffOptions{}
	dbg := &options.DebugOptions{}

	cmd := &cobra.Command{
		Use:   "diff <before.yaml> <after.yaml>",
		Short: "print the list operations between two snapshots",
		Example: `
declist diff before.yaml after.yaml
declist diff before.yaml after.yaml --verify
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := dbg.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			d := diff.Diff{
				Before: args[0],
				After:  args[1],
				Verify: do.Verify,
				Show:   do.Show,
				Logger: log,
			}
			err = d.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	options.AddDiffArgs(cmd, do)
	options.AddDebugArgs(cmd, dbg)
	topLevel.AddCommand(cmd)
}
