// cmd/equipctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/utils"
)

// globals holds the persistent flags and the lazily built config and logger.
type globals struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func (g *globals) load() error {
	if g.cfg != nil {
		return nil
	}
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return err
	}
	// stdout carries command output.
	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "console"
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	g.cfg, g.logger = cfg, logger
	return nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "equipctl",
		Short:         "Drive POS equipment and print servers from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (defaults to ./config.yaml when present)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level")

	cmd.AddCommand(newExecuteCmd(g))
	cmd.AddCommand(newAuxCmds(g)...)
	cmd.AddCommand(newRelayCmd(g))
	cmd.AddCommand(newDiscoverCmd(g))
	cmd.AddCommand(newMigrateCmd(g))
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "equipctl:", err)
		os.Exit(1)
	}
}
