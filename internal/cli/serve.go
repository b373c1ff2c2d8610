package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/saferent-network/saferent/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SafeRent service",
	Long: `Start the SafeRent daemon: open the ledger, load the validator
signing key, and serve the HTTP API until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	return d.Run(context.Background())
}

// loadConfig resolves the --config flag, defaulting to the standard
// location.
func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.Load(path)
}
