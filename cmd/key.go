package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored Gemini API key",
		Long: `A stored key overrides GEMINI_API_KEY (or API_KEY) until it is cleared.
The key is never validated locally; Gemini rejects it on first use if wrong.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [key]",
			Short: "Store a key (reads stdin when no argument is given)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := ""
				if len(args) == 1 {
					key = args[0]
				} else {
					line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if err != nil && line == "" {
						return fmt.Errorf("read key: %w", err)
					}
					key = strings.TrimSpace(line)
				}
				if key == "" {
					return fmt.Errorf("empty key, use `key clear` to remove the stored key")
				}

				cfg, err := config.Load()
				if err != nil {
					return err
				}
				store, closer, err := newCredentialStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer closer()

				if err := store.Set(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key stored")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored key and fall back to the environment",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				store, closer, err := newCredentialStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer closer()

				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stored API key removed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the active key comes from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				store, closer, err := newCredentialStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer closer()

				out := cmd.OutOrStdout()
				switch {
				case store.HasStored():
					fmt.Fprintf(out, "Using stored key (%s backend)\n", cfg.Credentials.Backend)
				case store.APIKey() != "":
					fmt.Fprintln(out, "Using key from environment")
				default:
					fmt.Fprintln(out, "No API key configured")
				}
				return nil
			},
		},
	)

	return cmd
}
