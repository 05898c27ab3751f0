package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	backendURL string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envBackend := os.Getenv("BACKEND_URL")

	cmd := &cobra.Command{
		Use:   "quiz-admin-console",
		Short: "Live quiz backend and admin console with incremental state sync",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&backendURL, "backend", envBackend, "quiz backend base URL for the console")
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewConsoleCmd(&configPath, &backendURL))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
