package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// Audit descriptions written by client and payment operations.
const (
	descClientUpdated   = "Client data updated."
	descPaymentRecorded = "Payment of %s recorded."
	descPaymentReversed = "Payment of %s reversed."
)

const clientColumns = "id, name, value, bairro, numero, referencia, telefone, next_charge, paid"

// AddClient inserts c. Unset optional fields are stored as NULL; Value and
// Paid default to zero. The ID of c is ignored.
func (b *Backend) AddClient(c types.Client) (types.Client, error) {
	if err := c.Validate(); err != nil {
		return types.Client{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Client{}, types.ErrDetached
	}

	res, err := b.db.Exec(
		`INSERT INTO clients (name, value, bairro, numero, referencia, telefone, next_charge, paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name,
		toReal(c.Value),
		nullString(c.District),
		nullString(c.Number),
		nullString(c.Reference),
		nullString(c.Phone),
		nullString(c.NextCharge),
		toReal(c.Paid),
	)
	if err != nil {
		return types.Client{}, b.storageErr("add client", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Client{}, b.storageErr("add client", err)
	}
	c.ID = id
	return c, nil
}

// UpdateClient writes patch, or every field of c when patch is nil, to the
// client with c.ID and appends one audit entry in the same transaction.
// A zero ID, an empty patch or an unknown client is a no-op.
//
// Setting Paid directly bypasses the posting discipline; the caller must keep
// it consistent with the payment history.
func (b *Backend) UpdateClient(c types.Client, patch *types.ClientPatch) error {
	if c.ID == 0 {
		return nil
	}
	p := types.FullPatch(c)
	if patch != nil {
		p = *patch
	}
	if p.IsEmpty() {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	assignments := patchAssignments(p)
	sets := make([]string, len(assignments))
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		sets[i] = a.column + " = ?"
		args = append(args, a.value)
	}
	args = append(args, c.ID)
	query := "UPDATE clients SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	return b.withTx("update client", func(tx *sql.Tx) error {
		res, err := tx.Exec(query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			b.log.Warn().Int64("client_id", c.ID).Msg("update of unknown client ignored")
			return nil
		}
		return addLog(tx, c.ID, b.timestamp(), descClientUpdated)
	})
}

// DeleteClient removes the client, then its payments and logs, in one
// transaction. The schema also declares the cascade. A zero ID is a no-op.
func (b *Backend) DeleteClient(id int64) error {
	if id == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	return b.withTx("delete client", func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM clients WHERE id = ?", id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM payments WHERE client_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM logs WHERE clientId = ?", id); err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			b.log.Warn().Int64("client_id", id).Msg("delete of unknown client ignored")
		}
		return nil
	})
}

// GetClientByID returns the client with id.
// Returns ErrInvalidArgument for a zero id and ErrNotFound when absent.
func (b *Backend) GetClientByID(id int64) (types.Client, error) {
	if id == 0 {
		return types.Client{}, fmt.Errorf("%w: client id is required", types.ErrInvalidArgument)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Client{}, types.ErrDetached
	}

	c, err := getClient(b.db, id)
	if errors.Is(err, types.ErrNotFound) {
		return types.Client{}, err
	}
	if err != nil {
		return types.Client{}, b.storageErr("get client", err)
	}
	return c, nil
}

// GetAllClients returns every client ordered by name.
func (b *Backend) GetAllClients() ([]types.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	clients, err := queryClients(b.db, "SELECT "+clientColumns+" FROM clients ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, b.storageErr("list clients", err)
	}
	return clients, nil
}

func getClient(q queryer, id int64) (types.Client, error) {
	row := q.QueryRow("SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Client{}, fmt.Errorf("client %d: %w", id, types.ErrNotFound)
	}
	return c, err
}

func queryClients(q queryer, query string, args ...any) ([]types.Client, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []types.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (types.Client, error) {
	var (
		c                                  types.Client
		value, paid                        sql.NullFloat64
		district, number, reference, phone sql.NullString
		nextCharge                         sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &value, &district, &number, &reference, &phone, &nextCharge, &paid); err != nil {
		return types.Client{}, err
	}
	c.Value = fromReal(value)
	c.Paid = fromReal(paid)
	c.District = stringPtr(district)
	c.Number = stringPtr(number)
	c.Reference = stringPtr(reference)
	c.Phone = stringPtr(phone)
	c.NextCharge = stringPtr(nextCharge)
	return c, nil
}

// assignment is one "column = ?" term of a client update. Columns come from
// this file only; values are always bound parameters.
type assignment struct {
	column string
	value  any
}

func patchAssignments(p types.ClientPatch) []assignment {
	var out []assignment
	out = appendText(out, "name", p.Name)
	out = appendMoney(out, "value", p.Value)
	out = appendText(out, "bairro", p.District)
	out = appendText(out, "numero", p.Number)
	out = appendText(out, "referencia", p.Reference)
	out = appendText(out, "telefone", p.Phone)
	out = appendText(out, "next_charge", p.NextCharge)
	out = appendMoney(out, "paid", p.Paid)
	return out
}

func appendText(out []assignment, column string, o types.Optional[string]) []assignment {
	if !o.IsSet() {
		return out
	}
	if v, ok := o.Get(); ok {
		return append(out, assignment{column: column, value: v})
	}
	return append(out, assignment{column: column, value: nil})
}

func appendMoney(out []assignment, column string, o types.Optional[decimal.Decimal]) []assignment {
	if !o.IsSet() {
		return out
	}
	if v, ok := o.Get(); ok {
		return append(out, assignment{column: column, value: toReal(v)})
	}
	return append(out, assignment{column: column, value: nil})
}
