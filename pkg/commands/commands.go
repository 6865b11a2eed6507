package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/declist/pkg/commands/options"
)

var (
	oo = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "declist",
		Short: base.Wrap80("A journal of collections kept in sync with a sectioned list."),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if oo.JSON || !isatty.IsTerminal(os.Stdout.Fd()) {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddOutputArg(cmd, oo)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addAdd(topLevel)
	addDone(topLevel)
	addRemove(topLevel)
	addList(topLevel)
	addDiff(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}
