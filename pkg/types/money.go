package types

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency of every amount in the ledger.
const Currency = money.BRL

// FormatMoney renders amount in the ledger currency, rounded to cents
// (for example R$1.234,50).
func FormatMoney(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
