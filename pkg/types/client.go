package types

import "github.com/shopspring/decimal"

// Client is a debtor in the ledger. JSON field names match the clients table
// columns so snapshots can be loaded back without a mapping layer.
type Client struct {
	// ID is assigned on creation and stable for the client's lifetime.
	ID int64 `json:"id"`

	// Name is required. Duplicates are allowed.
	Name string `json:"name"`

	// Value is the total owed amount.
	Value decimal.Decimal `json:"value"`

	// Address and contact fields; nil persists as NULL.
	District  *string `json:"bairro"`
	Number    *string `json:"numero"`
	Reference *string `json:"referencia"`
	Phone     *string `json:"telefone"`

	// NextCharge is the next charge date in DD/MM/YYYY form, kept verbatim.
	NextCharge *string `json:"next_charge"`

	// Paid is the running sum of posted payments.
	Paid decimal.Decimal `json:"paid"`
}

// Outstanding returns Value minus Paid. The result is negative when the
// client has been overpaid.
func (c Client) Outstanding() decimal.Decimal {
	return c.Value.Sub(c.Paid)
}

// ChargeDate parses NextCharge. ok is false when it is unset or malformed.
func (c Client) ChargeDate() (d Date, ok bool) {
	if c.NextCharge == nil || *c.NextCharge == "" {
		return Date{}, false
	}
	d, err := ParseDate(*c.NextCharge)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// Validate checks the fields required to insert the client.
func (c Client) Validate() error {
	if c.Name == "" {
		return errorf("client name is required")
	}
	if c.Value.IsNegative() {
		return errorf("client value must not be negative")
	}
	if c.NextCharge != nil && *c.NextCharge != "" {
		if _, err := ParseDate(*c.NextCharge); err != nil {
			return err
		}
	}
	return nil
}

// ClientPatch is a typed partial update. Unset fields are left untouched.
type ClientPatch struct {
	Name       Optional[string]
	Value      Optional[decimal.Decimal]
	District   Optional[string]
	Number     Optional[string]
	Reference  Optional[string]
	Phone      Optional[string]
	NextCharge Optional[string]

	// Paid overwrites the running balance directly. Callers that set it are
	// responsible for keeping it consistent with the payment history.
	Paid Optional[decimal.Decimal]
}

// FullPatch returns a patch that writes every field of c. Nil optional
// fields clear the stored value.
func FullPatch(c Client) ClientPatch {
	return ClientPatch{
		Name:       Some(c.Name),
		Value:      Some(c.Value),
		District:   FromPtr(c.District),
		Number:     FromPtr(c.Number),
		Reference:  FromPtr(c.Reference),
		Phone:      FromPtr(c.Phone),
		NextCharge: FromPtr(c.NextCharge),
		Paid:       Some(c.Paid),
	}
}

// IsEmpty reports whether no field is set.
func (p ClientPatch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Value.IsSet() &&
		!p.District.IsSet() && !p.Number.IsSet() && !p.Reference.IsSet() &&
		!p.Phone.IsSet() && !p.NextCharge.IsSet() && !p.Paid.IsSet()
}

// Validate rejects patches that would clear a NOT NULL column or store a
// malformed value.
func (p ClientPatch) Validate() error {
	if p.Name.IsSet() {
		if v, ok := p.Name.Get(); !ok || v == "" {
			return errorf("client name cannot be cleared")
		}
	}
	if p.Value.IsNull() {
		return errorf("client value cannot be cleared")
	}
	if v, ok := p.Value.Get(); ok && v.IsNegative() {
		return errorf("client value must not be negative")
	}
	if p.Paid.IsNull() {
		return errorf("client paid amount cannot be cleared")
	}
	if v, ok := p.NextCharge.Get(); ok && v != "" {
		if _, err := ParseDate(v); err != nil {
			return err
		}
	}
	return nil
}
