package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patrickward/vesper/internal/config"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configFile string
	envFile    string
	dataDir    string
}

// load reads the configuration, applies the shared flags and fills in default directories
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configFile, o.envFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewRootCommand creates the vesper command and its subcommands
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Search and edit a workspace of text files",
		Long: `Vesper serves a directory of text files over HTTP: read, write and list
files, preview markdown, store editor extensions and run cancellable
case-insensitive searches across the whole tree.

Searches can also be run straight from the command line.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", config.DefaultConfigFile, "Configuration file (YAML).")
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "File of VESPER_* environment variables.")
	flags.StringVarP(&opts.dataDir, "data", "d", "", "Directory for logs, extensions and keys.")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newKeygenCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
}
