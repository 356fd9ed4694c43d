package types

import "github.com/shopspring/decimal"

// Payment is a posting against a client's balance. Payments are never edited
// in place; a reversal deletes the row and undoes its effect on Paid.
type Payment struct {
	ID       int64           `json:"id"`
	ClientID int64           `json:"client_id"`
	Date     string          `json:"data"` // DD/MM/YYYY HH:MM
	Amount   decimal.Decimal `json:"valor"`
}

// Log is an append-only audit entry attached to a client.
type Log struct {
	ID          int64  `json:"id"`
	ClientID    int64  `json:"clientId"`
	Date        string `json:"data"` // DD/MM/YYYY HH:MM
	Description string `json:"descricao"`
}
