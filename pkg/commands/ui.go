package commands

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/commands/options"
	"tableflip.dev/declist/pkg/runner/ui"
	"tableflip.dev/declist/pkg/store"
)

func addUI(topLevel *cobra.Command) {
	do := &options.DebugOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
declist ui
declist ui --debug /tmp/declist.log
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("ui needs a terminal")
			}
			log, err := do.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}
			p, err := store.Load(cfg, store.WithLogger(log.Named("store")))
			if err != nil {
				return err
			}
			log.Debug("starting ui", zap.String("path", cfg.BasePath()))
			i := ui.UI{Persistence: p, Config: cfg, Logger: log}
			return i.Do(cmd.Context())
		},
	}

	options.AddDebugArgs(cmd, do)
	topLevel.AddCommand(cmd)
}
