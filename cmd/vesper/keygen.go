package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/patrickward/vesper"
)

func newKeygenCommand(root *rootOptions) *cobra.Command {
	var keysDir string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new age key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keysDir == "" {
				cfg, err := root.load()
				if err != nil {
					return err
				}
				keysDir = cfg.KeysDir
			}

			pair, err := vesper.GenerateKeyPair(keysDir, time.Now())
			if err != nil {
				return fmt.Errorf("error generating new encryption identity: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Generated new encryption identity:\n")
			_, _ = fmt.Fprintf(out, "  Public key: %s\n", pair.PublicKey)
			_, _ = fmt.Fprintf(out, "  Public key file: %s\n", pair.PublicPath)
			_, _ = fmt.Fprintf(out, "  Private key file: %s\n", pair.PrivatePath)
			_, _ = fmt.Fprintf(out, "\nTo use these keys:\n")
			_, _ = fmt.Fprintf(out, "  %s serve --identity %s --recipient %s\n", appName, pair.PrivatePath, pair.PublicPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keysDir, "keys-dir", "k", "", "Directory to save the key pair in.")
	return cmd
}
