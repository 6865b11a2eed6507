package options

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DebugOptions
type DebugOptions struct {
	LogFile string
}

func AddDebugArgs(cmd *cobra.Command, o *DebugOptions) {
	cmd.Flags().StringVar(&o.LogFile, "debug", "",
		"Write debug logs to the given file.")
}

// Logger returns a development logger writing to LogFile, or a no-op logger
// when no file was given.
func (o *DebugOptions) Logger() (*zap.Logger, error) {
	if o.LogFile == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{o.LogFile}
	cfg.ErrorOutputPaths = []string{o.LogFile}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("debug log: %w", err)
	}
	return log, nil
}
