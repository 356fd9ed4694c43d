// History commands for the crediario CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

func newLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Read and annotate a client's history",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <client-id>",
			Short: "List a client's history, newest first",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("client", args[0])
				if err != nil {
					return err
				}
				return a.withLedger(func(ledger types.Ledger) error {
					logs, err := ledger.GetLogsByClient(id)
					if err != nil {
						return fmt.Errorf("list logs: %w", err)
					}
					if a.flagJSON {
						return printJSON(cmd.OutOrStdout(), logs)
					}
					return printLogs(cmd.OutOrStdout(), logs)
				})
			},
		},
		&cobra.Command{
			Use:   "add <client-id> <note...>",
			Short: "Append a note to a client's history",
			Args:  userArgs(cobra.MinimumNArgs(2)),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("client", args[0])
				if err != nil {
					return err
				}
				note := strings.Join(args[1:], " ")
				return a.withLedger(func(ledger types.Ledger) error {
					if _, err := ledger.GetClientByID(id); err != nil {
						return err
					}
					if err := ledger.AddLog(id, note); err != nil {
						return fmt.Errorf("add log: %w", err)
					}
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Noted for client %d\n", id)
					return err
				})
			},
		},
	)
	return cmd
}
