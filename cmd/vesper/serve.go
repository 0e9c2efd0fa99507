package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/config"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		addr           string
		port           int
		workspace      string
		identityFile   string
		recipientsFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Example: `  # Serve the default workspace
  vesper serve

  # Serve a project directory on all interfaces
  vesper serve -w ~/notes -a 0.0.0.0 -p 9000

  # Open and re-seal encrypted files
  vesper serve -i ~/.vesper/keys/key.txt -r ~/.vesper/keys/key.pub`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("workspace") {
				cfg.Workspace = workspace
			}
			if flags.Changed("identity") {
				cfg.IdentityFile = identityFile
			}
			if flags.Changed("recipient") {
				cfg.RecipientsFile = recipientsFile
			}

			logFile, err := SetupLogging(DefaultLogConfig(cfg.DataDir))
			if err != nil {
				return fmt.Errorf("error setting up logging: %w", err)
			}
			defer func() {
				_ = logFile.Close()
			}()

			encryptionManager := loadEncryptionKeys(cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			server, err := NewServer(ctx, cfg, WithEncryptionManager(encryptionManager))
			if err != nil {
				return fmt.Errorf("error initializing server: %w", err)
			}

			return server.Start(cfg.Addr, cfg.Port)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&addr, "addr", "a", "localhost", "Address to bind the server to.")
	flags.IntVarP(&port, "port", "p", 8080, "Port to run the server on.")
	flags.StringVarP(&workspace, "workspace", "w", "", "Directory to serve and search.")
	flags.StringVarP(&identityFile, "identity", "i", "", "Use the identity file at the specified path for decryption.")
	flags.StringVarP(&recipientsFile, "recipient", "r", "", "Use the recipient file at the specified path for encryption.")

	return cmd
}

// loadEncryptionKeys loads the configured key files. Missing or broken keys only
// disable encryption.
func loadEncryptionKeys(cfg *config.Config) *vesper.EncryptionManager {
	manager := vesper.NewEncryptionManager()

	if cfg.IdentityFile != "" {
		if err := manager.LoadIdentitiesFile(cfg.IdentityFile); err != nil {
			log.Printf("Error loading identities: %v", err)
		}
	}
	if cfg.RecipientsFile != "" {
		if err := manager.LoadRecipientsFile(cfg.RecipientsFile); err != nil {
			log.Printf("Error loading recipients: %v", err)
		}
	}

	if manager.CanDecrypt() {
		log.Printf("Encryption enabled!")
	} else {
		log.Printf("Encryption disabled!")
	}
	return manager
}
