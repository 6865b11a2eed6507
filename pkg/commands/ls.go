package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/declist/pkg/commands/options"
	"tableflip.dev/declist/pkg/runner/ls"
	"tableflip.dev/declist/pkg/store"
)

func addList(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "ls [collection]",
		Aliases: []string{"get", "list"},
		Short:   "list entries",
		Example: `
declist ls
declist ls work --show-id
declist ls --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.Load(nil)
			if err != nil {
				return err
			}
			s := ls.List{
				Collection:  strings.Join(args, " "),
				ShowID:      io.ShowID,
				JSON:        oo.JSON,
				Persistence: p,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(err)
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return collectionCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}

	options.AddShowIDArgs(cmd, io)
	topLevel.AddCommand(cmd)
}
