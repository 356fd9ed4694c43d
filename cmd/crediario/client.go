// Client commands for the crediario CLI.
package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// clientFlags holds the field flags shared by client add and client update.
type clientFlags struct {
	name       string
	value      string
	paid       string
	district   string
	number     string
	reference  string
	phone      string
	nextCharge string
}

func (f *clientFlags) register(fs *pflag.FlagSet, withPaid bool) {
	fs.StringVar(&f.name, "name", "", "client name (required for add)")
	fs.StringVar(&f.value, "value", "", "total owed amount")
	fs.StringVar(&f.district, "district", "", "district (bairro)")
	fs.StringVar(&f.number, "number", "", "street number")
	fs.StringVar(&f.reference, "reference", "", "address reference")
	fs.StringVar(&f.phone, "phone", "", "phone number")
	fs.StringVar(&f.nextCharge, "next-charge", "", "next charge date (DD/MM/YYYY)")
	if withPaid {
		fs.StringVar(&f.paid, "paid", "", "overwrite the paid amount (bypasses payment history)")
	}
}

// client builds a new client from the flags that were set.
func (f *clientFlags) client(fs *pflag.FlagSet) (types.Client, error) {
	c := types.Client{Name: f.name, Value: decimal.Zero, Paid: decimal.Zero}
	if fs.Changed("value") {
		v, err := parseMoney(f.value)
		if err != nil {
			return types.Client{}, err
		}
		c.Value = v
	}
	text := map[string]**string{
		"district":    &c.District,
		"number":      &c.Number,
		"reference":   &c.Reference,
		"phone":       &c.Phone,
		"next-charge": &c.NextCharge,
	}
	values := f.textValues()
	for flag, dst := range text {
		if fs.Changed(flag) && values[flag] != "" {
			v := values[flag]
			*dst = &v
		}
	}
	return c, nil
}

// patch builds a partial update from the flags that were set. An empty value
// clears an optional field.
func (f *clientFlags) patch(fs *pflag.FlagSet) (types.ClientPatch, error) {
	var p types.ClientPatch
	if fs.Changed("name") {
		p.Name = types.Some(f.name)
	}
	if fs.Changed("value") {
		v, err := parseMoney(f.value)
		if err != nil {
			return types.ClientPatch{}, err
		}
		p.Value = types.Some(v)
	}
	if fs.Lookup("paid") != nil && fs.Changed("paid") {
		v, err := parseMoney(f.paid)
		if err != nil {
			return types.ClientPatch{}, err
		}
		p.Paid = types.Some(v)
	}
	text := map[string]*types.Optional[string]{
		"district":    &p.District,
		"number":      &p.Number,
		"reference":   &p.Reference,
		"phone":       &p.Phone,
		"next-charge": &p.NextCharge,
	}
	values := f.textValues()
	for flag, dst := range text {
		if !fs.Changed(flag) {
			continue
		}
		if values[flag] == "" {
			*dst = types.Null[string]()
		} else {
			*dst = types.Some(values[flag])
		}
	}
	return p, nil
}

func (f *clientFlags) textValues() map[string]string {
	return map[string]string{
		"district":    f.district,
		"number":      f.number,
		"reference":   f.reference,
		"phone":       f.phone,
		"next-charge": f.nextCharge,
	}
}

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}
	cmd.AddCommand(
		newClientAddCmd(a),
		newClientListCmd(a),
		newClientShowCmd(a),
		newClientUpdateCmd(a),
		newClientDeleteCmd(a),
	)
	return cmd
}

func newClientAddCmd(a *app) *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new client",
		Long: `Add registers a client with the amount they owe. Optional address and
contact fields are stored as given.

Example:
  crediario client add --name "Ana" --value 100
  crediario client add --name "Bruno" --value 250,75 --phone "(11) 99999-0000" --next-charge 20/10/2026`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client(cmd.Flags())
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				created, err := ledger.AddClient(c)
				if err != nil {
					return fmt.Errorf("add client: %w", err)
				}
				if a.flagJSON {
					return printJSON(cmd.OutOrStdout(), created)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created client %d: %s\n", created.ID, created.Name)
				return err
			})
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func newClientListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every client by name",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(func(ledger types.Ledger) error {
				clients, err := ledger.GetAllClients()
				if err != nil {
					return fmt.Errorf("list clients: %w", err)
				}
				if a.flagJSON {
					return printJSON(cmd.OutOrStdout(), clients)
				}
				return printClients(cmd.OutOrStdout(), clients)
			})
		},
	}
}

// clientDetail is the JSON shape of client show.
type clientDetail struct {
	Client      types.Client    `json:"client"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Payments    []types.Payment `json:"payments"`
	Logs        []types.Log     `json:"logs"`
}

func newClientShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client with payments and history",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("client", args[0])
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				c, err := ledger.GetClientByID(id)
				if err != nil {
					return err
				}
				payments, err := ledger.GetPaymentsByClient(id)
				if err != nil {
					return fmt.Errorf("list payments: %w", err)
				}
				logs, err := ledger.GetLogsByClient(id)
				if err != nil {
					return fmt.Errorf("list logs: %w", err)
				}

				out := cmd.OutOrStdout()
				if a.flagJSON {
					return printJSON(out, clientDetail{Client: c, Outstanding: c.Outstanding(), Payments: payments, Logs: logs})
				}
				fmt.Fprintf(out, "Client %d: %s\n", c.ID, c.Name)
				fmt.Fprintf(out, "  Value:       %s\n", types.FormatMoney(c.Value))
				fmt.Fprintf(out, "  Paid:        %s\n", types.FormatMoney(c.Paid))
				fmt.Fprintf(out, "  Outstanding: %s\n", types.FormatMoney(c.Outstanding()))
				fmt.Fprintf(out, "  District:    %s\n", deref(c.District))
				fmt.Fprintf(out, "  Number:      %s\n", deref(c.Number))
				fmt.Fprintf(out, "  Reference:   %s\n", deref(c.Reference))
				fmt.Fprintf(out, "  Phone:       %s\n", deref(c.Phone))
				fmt.Fprintf(out, "  Next charge: %s\n", deref(c.NextCharge))
				fmt.Fprintln(out)
				if err := printPayments(out, payments); err != nil {
					return err
				}
				fmt.Fprintln(out)
				return printLogs(out, logs)
			})
		},
	}
}

func newClientUpdateCmd(a *app) *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "update <client-id>",
		Short: "Change client fields",
		Long: `Update writes only the fields whose flags are given. An empty value
clears an optional field. One history entry is recorded per update.

Example:
  crediario client update 3 --phone "(11) 98888-1111"
  crediario client update 3 --next-charge ""`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("client", args[0])
			if err != nil {
				return err
			}
			p, err := f.patch(cmd.Flags())
			if err != nil {
				return err
			}
			if p.IsEmpty() {
				return fmt.Errorf("%w: no fields to update", types.ErrInvalidArgument)
			}
			return a.withLedger(func(ledger types.Ledger) error {
				if _, err := ledger.GetClientByID(id); err != nil {
					return err
				}
				if err := ledger.UpdateClient(types.Client{ID: id}, &p); err != nil {
					return fmt.Errorf("update client: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Updated client %d\n", id)
				return err
			})
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func newClientDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client with all payments and history",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("client", args[0])
			if err != nil {
				return err
			}
			return a.withLedger(func(ledger types.Ledger) error {
				if _, err := ledger.GetClientByID(id); err != nil {
					return err
				}
				if err := ledger.DeleteClient(id); err != nil {
					return fmt.Errorf("delete client: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted client %d\n", id)
				return err
			})
		},
	}
}
