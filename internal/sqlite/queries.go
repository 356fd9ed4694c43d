package sqlite

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// GetTotals sums paid and outstanding amounts across every client. The
// outstanding sum is not floored at zero; see types.Totals.Receivable.
func (b *Backend) GetTotals() (types.Totals, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Totals{}, types.ErrDetached
	}

	clients, err := queryClients(b.db, "SELECT "+clientColumns+" FROM clients")
	if err != nil {
		return types.Totals{}, b.storageErr("totals", err)
	}

	totals := types.Totals{Value: decimal.Zero, Paid: decimal.Zero, Outstanding: decimal.Zero}
	for _, c := range clients {
		totals.Value = totals.Value.Add(c.Value)
		totals.Paid = totals.Paid.Add(c.Paid)
		totals.Outstanding = totals.Outstanding.Add(c.Outstanding())
	}
	return totals, nil
}

// GetUpcomingCharges returns clients whose next charge date falls between
// today and today plus the configured window, both inclusive, ordered by
// date and then name. Dates are compared as calendar dates; values that do
// not parse as DD/MM/YYYY are skipped.
func (b *Backend) GetUpcomingCharges() ([]types.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	candidates, err := queryClients(b.db,
		"SELECT "+clientColumns+" FROM clients WHERE next_charge IS NOT NULL AND next_charge <> '' ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, b.storageErr("upcoming charges", err)
	}

	start := b.today()
	end := start.AddDays(b.config.Window())

	type due struct {
		date   types.Date
		client types.Client
	}
	var matches []due
	for _, c := range candidates {
		d, ok := c.ChargeDate()
		if !ok {
			b.log.Warn().Int64("client_id", c.ID).Str("next_charge", *c.NextCharge).Msg("unparseable charge date skipped")
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		matches = append(matches, due{date: d, client: c})
	}
	slices.SortStableFunc(matches, func(x, y due) int {
		return x.date.Compare(y.date)
	})

	clients := make([]types.Client, len(matches))
	for i, m := range matches {
		clients[i] = m.client
	}
	return clients, nil
}

// GetClientsByDate returns the clients whose next charge is exactly date
// (DD/MM/YYYY), ordered by name.
func (b *Backend) GetClientsByDate(date string) ([]types.Client, error) {
	if _, err := types.ParseDate(date); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	clients, err := queryClients(b.db,
		"SELECT "+clientColumns+" FROM clients WHERE next_charge = ? ORDER BY name ASC, id ASC", date)
	if err != nil {
		return nil, b.storageErr("clients by date", err)
	}
	return clients, nil
}
