// Package main is the KeyGate admin CLI: offline helpers for operators who
// have filesystem access to the server's state file.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stormfort/keygate/internal/auth"
	"github.com/stormfort/keygate/internal/persist"
	"github.com/stormfort/keygate/internal/state"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "keygate-admin",
		Short:         "Offline administration for the KeyGate server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHashCmd(), newInspectCmd(), newGenerateCmd())
	return root
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-admin-key <key>",
		Short: "Print the sha256 hash of an admin key for ADMIN_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), auth.HashAdminKey(args[0]))
			return nil
		},
	}
}

func loadStore(path string) (*state.Store, *persist.Gateway, error) {
	store := state.New(zerolog.Nop())
	gateway := persist.New(path, store, zerolog.Nop())
	if err := gateway.Load(); err != nil {
		return nil, nil, err
	}
	return store, gateway, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <state-file>",
		Short: "Print record counts and keys from a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := loadStore(args[0])
			if err != nil {
				return err
			}

			counts := store.Count()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "keys:     %d\n", counts.Keys)
			fmt.Fprintf(out, "bindings: %d\n", counts.Bindings)
			fmt.Fprintf(out, "sessions: %d\n", counts.Sessions)
			fmt.Fprintf(out, "logs:     %d\n", counts.Logs)

			for _, k := range store.ListKeys() {
				fmt.Fprintf(out, "%6d  %s  %-8s  %d/%d  %s\n",
					k.ID, k.Key, k.Status, k.CurrentUsers, k.MaxUsers, k.Note)
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		note       string
		expiryDays int
		maxUsers   int
	)

	cmd := &cobra.Command{
		Use:   "generate <state-file>",
		Short: "Generate a license key directly in a state file (server must be stopped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, gateway, err := loadStore(args[0])
			if err != nil {
				return err
			}

			key, err := store.GenerateKey(note, "cli", expiryDays, maxUsers)
			if err != nil {
				return err
			}
			store.AppendLog("generate_key", "cli", key.Key, "generated offline")

			if err := gateway.Flush(); err != nil {
				return fmt.Errorf("save state file: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "descriptive note for the key")
	cmd.Flags().IntVar(&expiryDays, "expiry-days", 30, "days until the key expires")
	cmd.Flags().IntVar(&maxUsers, "max-users", 1, "binding capacity of the key")
	return cmd
}
