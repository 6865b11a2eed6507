package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/declist/pkg/runner/done"
	"tableflip.dev/declist/pkg/runner/rm"
	"tableflip.dev/declist/pkg/store"
)

func requireID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires an entry id")
	}
	return nil
}

func addDone(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "done",
		Aliases: []string{"complete", "toggle"},
		Short:   "toggle an entry between open and done",
		Example: `
declist done <entry id>
`,
		Args: requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.Load(nil)
			if err != nil {
				return err
			}
			s := done.Done{
				ID:          args[0],
				Persistence: p,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addRemove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm",
		Aliases: []string{"delete"},
		Short:   "remove an entry",
		Example: `
declist rm <entry id>
`,
		Args: requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.Load(nil)
			if err != nil {
				return err
			}
			s := rm.Remove{
				ID:          args[0],
				Persistence: p,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
