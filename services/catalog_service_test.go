package services

import (
	"context"
	"testing"

	"foodninja/apperrors"
	"foodninja/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCatalogService_CreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.foods)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.Food{Name: "  Ramen ", Price: 9.5, IsAvailable: true})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "Ramen", created.Name)

	price := 11.0
	off := false
	updated, err := svc.Update(ctx, created.ID.Hex(), models.FoodPatch{Price: &price, IsAvailable: &off})
	require.NoError(t, err)
	assert.Equal(t, 11.0, updated.Price)
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, "Ramen", updated.Name)

	require.NoError(t, svc.Delete(ctx, created.ID.Hex()))
	_, err = svc.Get(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID.Hex()), apperrors.ErrNotFound)
}

func TestCatalogService_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.foods)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Food{Name: " ", Price: 3})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.Create(ctx, models.Food{Name: "Tea", Price: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	empty := ""
	_, err = svc.Update(ctx, f.food("Tea", 2).Hex(), models.FoodPatch{Name: &empty})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	price := 4.0
	_, err = svc.Update(ctx, primitive.NewObjectID().Hex(), models.FoodPatch{Price: &price})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(ctx, "zzz")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCatalogService_PriceEditDoesNotTouchPlacedOrders(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.foods)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 1)
	require.NoError(t, err)
	order, err := f.materializer.Materialize(ctx, confirmation(user, "pi_snap", 500))
	require.NoError(t, err)

	price := 99.0
	_, err = svc.Update(ctx, burger.Hex(), models.FoodPatch{Price: &price})
	require.NoError(t, err)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.Items[0].Price)
	assert.Equal(t, 5.0, stored.TotalAmount)
}
