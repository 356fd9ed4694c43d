// Report commands for the crediario CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

func newTotalsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show total owed, paid and receivable",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(ledger types.Ledger) error {
				t, err := ledger.GetTotals()
				if err != nil {
					return fmt.Errorf("totals: %w", err)
				}
				out := cmd.OutOrStdout()
				if a.flagJSON {
					return printJSON(out, t)
				}
				fmt.Fprintf(out, "Total value:   %s\n", types.FormatMoney(t.Value))
				fmt.Fprintf(out, "Total paid:    %s\n", types.FormatMoney(t.Paid))
				_, err = fmt.Fprintf(out, "To receive:    %s\n", types.FormatMoney(t.Receivable()))
				return err
			})
		},
	}
}

func newUpcomingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "List charges due from today through the upcoming window",
		Long: `Upcoming lists clients whose next charge date falls between today and
today plus upcoming_days (default 7), both inclusive, soonest first.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(ledger types.Ledger) error {
				clients, err := ledger.GetUpcomingCharges()
				if err != nil {
					return fmt.Errorf("upcoming charges: %w", err)
				}
				if a.flagJSON {
					return printJSON(cmd.OutOrStdout(), clients)
				}
				return printClients(cmd.OutOrStdout(), clients)
			})
		},
	}
}

func newByDateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "by-date [DD/MM/YYYY]",
		Short: "List clients due on a date, or every charge grouped by date",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(ledger types.Ledger) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					clients, err := ledger.GetClientsByDate(args[0])
					if err != nil {
						return err
					}
					if a.flagJSON {
						return printJSON(out, clients)
					}
					return printClients(out, clients)
				}

				clients, err := ledger.GetAllClients()
				if err != nil {
					return fmt.Errorf("list clients: %w", err)
				}
				groups := types.GroupByChargeDate(clients)
				if a.flagJSON {
					return printJSON(out, groups)
				}
				if len(groups) == 0 {
					_, err := fmt.Fprintln(out, "No scheduled charges.")
					return err
				}
				for i, g := range groups {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s\n", g.Date)
					if err := printClients(out, g.Clients); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
