package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestClientValidate(t *testing.T) {
	tests := []struct {
		name    string
		client  Client
		wantErr bool
	}{
		{name: "minimal client", client: Client{Name: "Ana"}},
		{name: "full client", client: Client{Name: "Ana", Value: decimal.NewFromInt(100), NextCharge: strPtr("20/10/2026")}},
		{name: "missing name", client: Client{Value: decimal.NewFromInt(10)}, wantErr: true},
		{name: "negative value", client: Client{Name: "Ana", Value: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "malformed charge date", client: Client{Name: "Ana", NextCharge: strPtr("2026-10-20")}, wantErr: true},
		{name: "empty charge date is allowed", client: Client{Name: "Ana", NextCharge: strPtr("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClientOutstandingAndChargeDate(t *testing.T) {
	c := Client{Name: "Ana", Value: decimal.NewFromInt(100), Paid: decimal.NewFromInt(130)}
	assert.True(t, c.Outstanding().Equal(decimal.NewFromInt(-30)))

	_, ok := c.ChargeDate()
	assert.False(t, ok)

	c.NextCharge = strPtr("bad")
	_, ok = c.ChargeDate()
	assert.False(t, ok)

	c.NextCharge = strPtr("15/10/2026")
	d, ok := c.ChargeDate()
	require.True(t, ok)
	assert.Equal(t, "15/10/2026", d.String())
}

func TestClientPatch(t *testing.T) {
	t.Run("zero patch is empty", func(t *testing.T) {
		assert.True(t, ClientPatch{}.IsEmpty())
		assert.NoError(t, ClientPatch{}.Validate())
	})

	t.Run("full patch sets every field", func(t *testing.T) {
		p := FullPatch(Client{Name: "Ana", Phone: strPtr("555")})
		assert.False(t, p.IsEmpty())
		assert.True(t, p.District.IsNull())
		v, ok := p.Phone.Get()
		require.True(t, ok)
		assert.Equal(t, "555", v)
		assert.NoError(t, p.Validate())
	})

	t.Run("clearing required fields is rejected", func(t *testing.T) {
		assert.ErrorIs(t, ClientPatch{Name: Null[string]()}.Validate(), ErrInvalidArgument)
		assert.ErrorIs(t, ClientPatch{Name: Some("")}.Validate(), ErrInvalidArgument)
		assert.ErrorIs(t, ClientPatch{Value: Null[decimal.Decimal]()}.Validate(), ErrInvalidArgument)
		assert.ErrorIs(t, ClientPatch{Paid: Null[decimal.Decimal]()}.Validate(), ErrInvalidArgument)
	})

	t.Run("clearing optional fields is allowed", func(t *testing.T) {
		p := ClientPatch{Phone: Null[string](), NextCharge: Null[string]()}
		assert.NoError(t, p.Validate())
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		assert.ErrorIs(t, ClientPatch{NextCharge: Some("10-10-2026")}.Validate(), ErrInvalidArgument)
	})
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "R$40,00", FormatMoney(decimal.NewFromInt(40)))
	assert.Equal(t, "R$1.234,50", FormatMoney(decimal.RequireFromString("1234.5")))
}
