package usecase

import (
	"context"
	"testing"

	"bazaar-dashboard/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientState_CartRoundTrip(t *testing.T) {
	ctx := context.Background()
	uc := NewClientStateUsecase(newMemBackend())

	empty, err := uc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = uc.SaveCart(ctx, "u1", domain.Cart{Items: []domain.CartItem{
		{ProductID: "p1", Name: "Kurta", Quantity: 2, Price: decimal.NewFromInt(450)},
	}})
	require.NoError(t, err)

	got, err := uc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(900).Equal(got.Subtotal()))
}

func TestClientState_MalformedValuesReset(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{"cart not json", "cart:u1", "{oops"},
		{"cart wrong shape", "cart:u1", `{"items":"many"}`},
		{"cart bad quantity", "cart:u1", `{"items":[{"productId":"p1","quantity":0}]}`},
		{"addresses object", "addresses:u1", `{"id":"a1"}`},
		{"addresses missing fields", "addresses:u1", `[{"id":"a1"}]`},
		{"two defaults", "addresses:u1", `[{"id":"a1","fullName":"A","line1":"x","city":"D","isDefault":true},{"id":"a2","fullName":"B","line1":"y","city":"D","isDefault":true}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := newMemBackend()
			require.NoError(t, backend.Put(ctx, tt.key, []byte(tt.raw)))
			uc := NewClientStateUsecase(backend)

			cart, err := uc.GetCart(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, cart.Items)
			addresses, err := uc.GetAddresses(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, addresses)

			_, err = backend.Get(ctx, tt.key)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestClientState_SaveRejectsInvalid(t *testing.T) {
	uc := NewClientStateUsecase(newMemBackend())

	_, err := uc.SaveAddresses(context.Background(), "u1", []domain.Address{{ID: "a1"}})

	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestClientState_Clear(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	uc := NewClientStateUsecase(backend)
	_, err := uc.SaveAddresses(ctx, "u1", []domain.Address{{ID: "a1", FullName: "A", Line1: "Road 1", City: "Dhaka", IsDefault: true}})
	require.NoError(t, err)
	_, err = uc.SaveCart(ctx, "u1", domain.Cart{})
	require.NoError(t, err)

	require.NoError(t, uc.Clear(ctx, "u1"))

	assert.Empty(t, backend.data)
}
