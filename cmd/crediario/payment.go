// Payment commands for the crediario CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

func newPaymentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Post, list and reverse payments",
	}
	cmd.AddCommand(
		newPaymentAddCmd(a),
		newPaymentListCmd(a),
		newPaymentDeleteCmd(a),
	)
	return cmd
}

func newPaymentAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <client-id> <amount>",
		Short: "Post a payment against a client's balance",
		Long: `Add records a payment, raises the client's paid amount and writes a
history entry. With strict_balance enabled (the default) payments larger than
the outstanding balance are refused.

Example:
  crediario payment add 3 40
  crediario payment add 3 12,50`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("client", args[0])
			if err != nil {
				return err
			}
			amount, err := parseMoney(args[1])
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				p, err := ledger.AddPayment(id, amount)
				if err != nil {
					return fmt.Errorf("add payment: %w", err)
				}
				if a.flagJSON {
					return printJSON(cmd.OutOrStdout(), p)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment %d of %s for client %d\n",
					p.ID, types.FormatMoney(p.Amount), p.ClientID)
				return err
			})
		},
	}
}

func newPaymentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <client-id>",
		Short: "List a client's payments, most recent first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("client", args[0])
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				payments, err := ledger.GetPaymentsByClient(id)
				if err != nil {
					return fmt.Errorf("list payments: %w", err)
				}
				if a.flagJSON {
					return printJSON(cmd.OutOrStdout(), payments)
				}
				return printPayments(cmd.OutOrStdout(), payments)
			})
		},
	}
}

func newPaymentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <payment-id>",
		Short: "Reverse a payment",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("payment", args[0])
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				if err := ledger.DeletePayment(id); err != nil {
					return fmt.Errorf("delete payment: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Reversed payment %d\n", id)
				return err
			})
		},
	}
}
