package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/docqa-backend/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Grounded question answering over a document corpus",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $"+app.ConfigPathEnv+")")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading config")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIngestCmd(opts))
	return cmd
}

// loadEnvFile never overrides variables already set in the process. A
// missing default file is fine; a missing explicit one is not.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && path == ".env" {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func (o *rootOptions) loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return app.Config{}, err
	}
	cfg.Version = version
	return cfg, nil
}
