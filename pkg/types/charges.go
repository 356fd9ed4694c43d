package types

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Totals aggregates balances across every client.
type Totals struct {
	Value       decimal.Decimal `json:"total_value"`
	Paid        decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"total_to_receive"`
}

// Receivable returns Outstanding floored at zero, the figure shown on
// reports. Overpaid clients can otherwise drive the sum negative.
func (t Totals) Receivable() decimal.Decimal {
	if t.Outstanding.IsNegative() {
		return decimal.Zero
	}
	return t.Outstanding
}

// ChargeGroup holds the clients due on one date.
type ChargeGroup struct {
	Date    string   `json:"date"`
	Clients []Client `json:"clients"`
}

// GroupByChargeDate groups clients by their exact NextCharge string. Groups
// are ordered by calendar date; strings that do not parse sort after every
// valid date, in lexical order. Clients without a charge date are skipped.
// Input order is kept within a group.
func GroupByChargeDate(clients []Client) []ChargeGroup {
	index := make(map[string]int)
	var groups []ChargeGroup
	for _, c := range clients {
		if c.NextCharge == nil || *c.NextCharge == "" {
			continue
		}
		key := *c.NextCharge
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ChargeGroup{Date: key})
		}
		groups[i].Clients = append(groups[i].Clients, c)
	}
	slices.SortStableFunc(groups, func(x, y ChargeGroup) int {
		return compareDateString(x.Date, y.Date)
	})
	return groups
}

func compareDateString(a, b string) int {
	da, errA := ParseDate(a)
	db, errB := ParseDate(b)
	switch {
	case errA == nil && errB == nil:
		return da.Compare(db)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
