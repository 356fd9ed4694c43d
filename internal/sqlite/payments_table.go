package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// AddPayment posts amount against the client's balance: it inserts the
// payment, raises the client's paid amount and appends an audit entry, all in
// one transaction.
//
// Returns ErrInvalidArgument when clientID is zero or amount is not positive,
// ErrNotFound when the client does not exist, and ErrOverpayment when the
// ledger is strict and amount exceeds the outstanding balance. Nothing is
// written in any of these cases.
func (b *Backend) AddPayment(clientID int64, amount decimal.Decimal) (types.Payment, error) {
	if clientID == 0 {
		return types.Payment{}, fmt.Errorf("%w: client id is required", types.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return types.Payment{}, fmt.Errorf("%w: payment amount must be positive, got %s", types.ErrInvalidArgument, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Payment{}, types.ErrDetached
	}

	p := types.Payment{ClientID: clientID, Date: b.timestamp(), Amount: amount}
	err := b.withTx("add payment", func(tx *sql.Tx) error {
		value, paid, err := clientBalance(tx, clientID)
		if err != nil {
			return err
		}
		if b.config.StrictBalance && amount.GreaterThan(value.Sub(paid)) {
			return fmt.Errorf("%w: %s posted, %s outstanding",
				types.ErrOverpayment, types.FormatMoney(amount), types.FormatMoney(value.Sub(paid)))
		}

		res, err := tx.Exec("INSERT INTO payments (client_id, data, valor) VALUES (?, ?, ?)",
			clientID, p.Date, toReal(amount))
		if err != nil {
			return err
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		if err := setPaid(tx, clientID, paid.Add(amount)); err != nil {
			return err
		}
		return addLog(tx, clientID, p.Date, fmt.Sprintf(descPaymentRecorded, types.FormatMoney(amount)))
	})
	if err != nil {
		return types.Payment{}, err
	}
	return p, nil
}

// DeletePayment reverses a payment: it deletes the row, lowers the client's
// paid amount by the payment's amount and appends a reversal entry, in one
// transaction. Zero or unknown ids are a no-op.
func (b *Backend) DeletePayment(id int64) error {
	if id == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	return b.withTx("delete payment", func(tx *sql.Tx) error {
		var (
			clientID int64
			valor    sql.NullFloat64
		)
		err := tx.QueryRow("SELECT client_id, valor FROM payments WHERE id = ?", id).Scan(&clientID, &valor)
		if errors.Is(err, sql.ErrNoRows) {
			b.log.Warn().Int64("payment_id", id).Msg("delete of unknown payment ignored")
			return nil
		}
		if err != nil {
			return err
		}
		if clientID == 0 {
			return nil
		}
		amount := fromReal(valor)

		if _, err := tx.Exec("DELETE FROM payments WHERE id = ?", id); err != nil {
			return err
		}

		_, paid, err := clientBalance(tx, clientID)
		if errors.Is(err, types.ErrNotFound) {
			b.log.Warn().Int64("payment_id", id).Int64("client_id", clientID).Msg("deleted payment of unknown client")
			return nil
		}
		if err != nil {
			return err
		}
		if err := setPaid(tx, clientID, paid.Sub(amount)); err != nil {
			return err
		}
		return addLog(tx, clientID, b.timestamp(), fmt.Sprintf(descPaymentReversed, types.FormatMoney(amount)))
	})
}

// GetPaymentsByClient returns the client's payments, most recent first.
// A zero clientID yields an empty list.
func (b *Backend) GetPaymentsByClient(clientID int64) ([]types.Payment, error) {
	if clientID == 0 {
		return []types.Payment{}, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	payments, err := queryPayments(b.db,
		"SELECT id, client_id, data, valor FROM payments WHERE client_id = ? ORDER BY id DESC", clientID)
	if err != nil {
		return nil, b.storageErr("list payments", err)
	}
	return payments, nil
}

func queryPayments(q queryer, query string, args ...any) ([]types.Payment, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []types.Payment{}
	for rows.Next() {
		var (
			p     types.Payment
			valor sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Date, &valor); err != nil {
			return nil, err
		}
		p.Amount = fromReal(valor)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// clientBalance reads value and paid for one client inside tx.
func clientBalance(tx *sql.Tx, clientID int64) (value, paid decimal.Decimal, err error) {
	var v, p sql.NullFloat64
	err = tx.QueryRow("SELECT value, paid FROM clients WHERE id = ?", clientID).Scan(&v, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("client %d: %w", clientID, types.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return fromReal(v), fromReal(p), nil
}

// setPaid stores a balance computed in decimal, so repeated postings do not
// accumulate floating-point error in the column.
func setPaid(tx *sql.Tx, clientID int64, paid decimal.Decimal) error {
	_, err := tx.Exec("UPDATE clients SET paid = ? WHERE id = ?", toReal(paid), clientID)
	return err
}
