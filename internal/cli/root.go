// Package cli implements insightctl, an operator tool. Code analytics and stored insights are
// read by running the engines against the configured storage. Cognitive metrics and insight
// generation need the server's live telemetry and go through its HTTP API instead.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"basegraph.app/insight/common/id"
	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/core/config"
	"basegraph.app/insight/internal/service"
)

// version can be overridden at build time via:
// go build -ldflags "-X basegraph.app/insight/internal/cli.version=1.2.3"
var version = "dev"

const logo = `
 _           _       _     _       _   _
(_)_ __  ___(_) __ _| |__ | |_ ___| |_| |
| | '_ \/ __| |/ _` + "`" + ` | '_ \| __/ __| __| |
| | | | \__ \ | (_| | | | | || (__| |_| |
|_|_| |_|___/_|\__, |_| |_|\__\___|\__|_|
               |___/
`

var (
	asJSON bool

	cfg          config.Config
	configLoaded bool
	services     *service.Services
)

var rootCmd = &cobra.Command{
	Use:           "insightctl",
	Short:         "Inspect code analytics, cognitive health and insights",
	Long:          color.CyanString(logo) + "\nRuns the analytics, cognitive and insight engines against the configured storage.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = io.WriteString(cmd.OutOrStdout(), "insightctl "+version+"\n")
	},
}

// Execute runs the root command and prints a failure in red.
func Execute() error {
	defer func() {
		if services != nil {
			services.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output machine-readable JSON")
	rootCmd.AddCommand(versionCmd)
}

// engines loads config and builds the engines once per invocation. Logs go to stderr so
// command output stays pipeable.
func engines(ctx context.Context) (*service.Services, error) {
	if services != nil {
		return services, nil
	}

	if err := loadConfig(); err != nil {
		return nil, err
	}
	if err := id.Init(id.NodeCLI); err != nil {
		return nil, err
	}

	s, err := service.NewServices(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services = s
	return services, nil
}

func loadConfig() error {
	if configLoaded {
		return nil
	}
	loaded, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return err
	}
	cfg = loaded
	configLoaded = true
	logger.Setup(cfg, os.Stderr)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
