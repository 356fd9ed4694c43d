package sqlite

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

func TestAddClient(t *testing.T) {
	tests := []struct {
		name    string
		client  types.Client
		wantErr error
	}{
		{
			name:   "minimal client stores NULLs and zero paid",
			client: types.Client{Name: "Ana", Value: dec("100")},
		},
		{
			name: "full client",
			client: types.Client{
				Name:       "Bruno",
				Value:      dec("250.75"),
				District:   strPtr("Centro"),
				Number:     strPtr("12A"),
				Reference:  strPtr("near the bakery"),
				Phone:      strPtr("(11) 99999-0000"),
				NextCharge: strPtr("20/10/2026"),
				Paid:       dec("10"),
			},
		},
		{
			name:    "empty name",
			client:  types.Client{Value: dec("1")},
			wantErr: types.ErrInvalidArgument,
		},
		{
			name:    "negative value",
			client:  types.Client{Name: "Ana", Value: dec("-1")},
			wantErr: types.ErrInvalidArgument,
		},
		{
			name:    "malformed charge date",
			client:  types.Client{Name: "Ana", NextCharge: strPtr("2026-10-20")},
			wantErr: types.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			got, err := b.AddClient(tt.client)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, countRows(t, b, tableClients, "1 = 1"))
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, got.ID)

			stored, err := b.GetClientByID(got.ID)
			require.NoError(t, err)
			want := tt.client
			want.ID = got.ID
			assert.Equal(t, want.Name, stored.Name)
			assert.True(t, want.Value.Equal(stored.Value))
			assert.True(t, want.Paid.Equal(stored.Paid))
			assert.Equal(t, want.District, stored.District)
			assert.Equal(t, want.Number, stored.Number)
			assert.Equal(t, want.Reference, stored.Reference)
			assert.Equal(t, want.Phone, stored.Phone)
			assert.Equal(t, want.NextCharge, stored.NextCharge)
		})
	}
}

func TestAddClientAllowsDuplicateNames(t *testing.T) {
	b := setupBackend(t)
	first := mustAddClient(t, b, "Ana", "10")
	second := mustAddClient(t, b, "Ana", "20")
	assert.NotEqual(t, first.ID, second.ID)

	clients, err := b.GetAllClients()
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, first.ID, clients[0].ID)
	assert.Equal(t, second.ID, clients[1].ID)
}

func TestGetAllClientsOrderedByName(t *testing.T) {
	b := setupBackend(t)

	clients, err := b.GetAllClients()
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.NotNil(t, clients)

	for _, name := range []string{"Carla", "Ana", "Bruno"} {
		mustAddClient(t, b, name, "1")
	}
	clients, err = b.GetAllClients()
	require.NoError(t, err)
	var names []string
	for _, c := range clients {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Ana", "Bruno", "Carla"}, names)
}

func TestGetClientByID(t *testing.T) {
	b := setupBackend(t)

	_, err := b.GetClientByID(0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = b.GetClientByID(42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.True(t, types.IsUserError(err))
}

func TestUpdateClientPatch(t *testing.T) {
	b := setupBackend(t)
	c, err := b.AddClient(types.Client{
		Name:     "Ana",
		Value:    dec("100"),
		District: strPtr("Centro"),
		Phone:    strPtr("1234"),
	})
	require.NoError(t, err)

	patch := &types.ClientPatch{
		Value:      types.Some(dec("150")),
		District:   types.Null[string](),
		NextCharge: types.Some("20/10/2026"),
	}
	require.NoError(t, b.UpdateClient(types.Client{ID: c.ID}, patch))

	got, err := b.GetClientByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name, "unset field is untouched")
	assert.True(t, got.Value.Equal(dec("150")))
	assert.Nil(t, got.District, "null clears the column")
	assert.Equal(t, strPtr("1234"), got.Phone)
	assert.Equal(t, strPtr("20/10/2026"), got.NextCharge)

	logs, err := b.GetLogsByClient(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, descClientUpdated, logs[0].Description)
	assert.Equal(t, "14/10/2026 15:30", logs[0].Date)
}

func TestUpdateClientFullRecord(t *testing.T) {
	b := setupBackend(t)
	c, err := b.AddClient(types.Client{Name: "Ana", Value: dec("100"), Phone: strPtr("1234")})
	require.NoError(t, err)

	c.Name = "Ana Maria"
	c.Phone = nil
	c.Reference = strPtr("blue gate")
	require.NoError(t, b.UpdateClient(c, nil))

	got, err := b.GetClientByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Nil(t, got.Phone)
	assert.Equal(t, strPtr("blue gate"), got.Reference)
}

func TestUpdateClientStoresValuesVerbatim(t *testing.T) {
	b := setupBackend(t)
	c := mustAddClient(t, b, "Ana", "100")

	hostile := "x'; DROP TABLE clients; --"
	require.NoError(t, b.UpdateClient(types.Client{ID: c.ID}, &types.ClientPatch{
		Name:      types.Some(hostile),
		Reference: types.Some(`"quoted" 'value'`),
	}))

	got, err := b.GetClientByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, hostile, got.Name)
	assert.Equal(t, strPtr(`"quoted" 'value'`), got.Reference)
	assert.Equal(t, 1, countRows(t, b, tableClients, "1 = 1"))
}

func TestUpdateClientNoOps(t *testing.T) {
	b := setupBackend(t)
	c := mustAddClient(t, b, "Ana", "100")

	require.NoError(t, b.UpdateClient(types.Client{}, nil), "zero id")
	require.NoError(t, b.UpdateClient(types.Client{ID: c.ID}, &types.ClientPatch{}), "empty patch")
	require.NoError(t, b.UpdateClient(types.Client{ID: 999, Name: "Ghost"}, nil), "unknown client")

	assert.Equal(t, 0, countRows(t, b, tableLogs, "1 = 1"))
	assert.Equal(t, 1, countRows(t, b, tableClients, "1 = 1"))
}

func TestUpdateClientRejectsInvalidPatch(t *testing.T) {
	b := setupBackend(t)
	c := mustAddClient(t, b, "Ana", "100")

	patches := map[string]types.ClientPatch{
		"clear name":     {Name: types.Null[string]()},
		"empty name":     {Name: types.Some("")},
		"clear value":    {Value: types.Null[decimal.Decimal]()},
		"negative value": {Value: types.Some(dec("-5"))},
		"clear paid":     {Paid: types.Null[decimal.Decimal]()},
		"bad date":       {NextCharge: types.Some("31/02/2026")},
	}
	for name, p := range patches {
		t.Run(name, func(t *testing.T) {
			err := b.UpdateClient(types.Client{ID: c.ID}, &p)
			assert.ErrorIs(t, err, types.ErrInvalidArgument)
		})
	}
	assert.Equal(t, 0, countRows(t, b, tableLogs, "1 = 1"))
}

func TestDeleteClientCascades(t *testing.T) {
	b := setupBackend(t)
	ana := mustAddClient(t, b, "Ana", "100")
	bruno := mustAddClient(t, b, "Bruno", "50")

	for _, amount := range []string{"10", "20"} {
		_, err := b.AddPayment(ana.ID, dec(amount))
		require.NoError(t, err)
	}
	_, err := b.AddPayment(bruno.ID, dec("5"))
	require.NoError(t, err)
	require.NoError(t, b.AddLog(ana.ID, "called"))

	require.NoError(t, b.DeleteClient(ana.ID))

	_, err = b.GetClientByID(ana.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, 0, countRows(t, b, tablePayments, "client_id = ?", ana.ID))
	assert.Equal(t, 0, countRows(t, b, tableLogs, "clientId = ?", ana.ID))

	assert.Equal(t, 1, countRows(t, b, tablePayments, "client_id = ?", bruno.ID))
	assert.Equal(t, 1, countRows(t, b, tableLogs, "clientId = ?", bruno.ID))

	require.NoError(t, b.DeleteClient(ana.ID), "second delete is a no-op")
	require.NoError(t, b.DeleteClient(0))
}
