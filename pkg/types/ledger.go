package types

import "github.com/shopspring/decimal"

// Ledger is the storage contract for clients, payments and audit logs.
// Composite mutations (posting, reversal, cascading delete) are atomic: on
// failure the ledger is left in its pre-operation state.
type Ledger interface {
	// AddClient inserts c and returns it with its assigned ID.
	AddClient(c Client) (Client, error)

	// UpdateClient applies patch to the client with c.ID, or every field of
	// c when patch is nil. A zero ID or an empty patch is a no-op.
	UpdateClient(c Client, patch *ClientPatch) error

	// DeleteClient removes the client with its payments and logs.
	DeleteClient(id int64) error

	// AddPayment posts amount against the client's balance.
	// Returns ErrInvalidArgument when clientID is zero or amount <= 0.
	AddPayment(clientID int64, amount decimal.Decimal) (Payment, error)

	// DeletePayment reverses a payment. Absent payments are a no-op.
	DeletePayment(id int64) error

	// AddLog appends an audit entry. A zero clientID is a no-op.
	AddLog(clientID int64, description string) error

	GetClientByID(id int64) (Client, error)
	GetAllClients() ([]Client, error)
	GetPaymentsByClient(clientID int64) ([]Payment, error)
	GetLogsByClient(clientID int64) ([]Log, error)
	GetUpcomingCharges() ([]Client, error)
	GetClientsByDate(date string) ([]Client, error)
	GetTotals() (Totals, error)

	// Snapshot captures every row in one consistent read.
	Snapshot() (*Snapshot, error)

	// Restore loads a snapshot. Not implemented yet; see ErrUnsupported.
	Restore(s *Snapshot) error

	// Attach opens the backend described by config, creating and
	// reconciling the schema. Returns ErrInvalidArgument if already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error
}
