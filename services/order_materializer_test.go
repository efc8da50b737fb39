package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"foodninja/apperrors"
	"foodninja/lock"
	"foodninja/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingOrders struct {
	OrderStore
	createErr error
}

func (s *failingOrders) Create(ctx context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.OrderStore.Create(ctx, order)
}

type flakyCarts struct {
	CartStore
	releaseFailures int
}

func (s *flakyCarts) ReleaseSnapshot(ctx context.Context, userID primitive.ObjectID, intentID string, snapshot []models.CartItem) error {
	if s.releaseFailures > 0 {
		s.releaseFailures--
		return errors.New("connection reset")
	}
	return s.CartStore.ReleaseSnapshot(ctx, userID, intentID, snapshot)
}

func TestMaterialize_BurgerAndSaladScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	salad := f.food("Salad", 3)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, user.Hex(), salad.Hex(), 1)
	require.NoError(t, err)

	order, err := f.materializer.Materialize(ctx, confirmation(user, "pi_1", 1300))
	require.NoError(t, err)

	assert.Equal(t, 13.0, order.TotalAmount)
	assert.Equal(t, int64(1300), order.AmountMinor)
	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.Equal(t, models.PaymentStatusSucceeded, order.PaymentStatus)
	assert.Equal(t, "evt_pi_1", order.EventID)
	assert.True(t, order.CartCleared)
	assert.ElementsMatch(t, []models.OrderItem{
		{FoodID: burger, Name: "Burger", Price: 5, Quantity: 2},
		{FoodID: salad, Name: "Salad", Price: 3, Quantity: 1},
	}, order.Items)

	lines, err := f.cart.Read(ctx, user.Hex())
	require.NoError(t, err)
	assert.Empty(t, lines)

	stored, err := f.orders.FindByPaymentIntent(ctx, "pi_1")
	require.NoError(t, err)
	assert.True(t, stored.CartCleared)
}

func TestMaterialize_DuplicateEventCreatesOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	_, err := f.cart.AddItem(ctx, user.Hex(), f.food("Burger", 5).Hex(), 2)
	require.NoError(t, err)

	first, err := f.materializer.Materialize(ctx, confirmation(user, "pi_dup", 1000))
	require.NoError(t, err)

	second, err := f.materializer.Materialize(ctx, confirmation(user, "pi_dup", 1000))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	orders, err := f.orders.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	lines, err := f.cart.Read(ctx, user.Hex())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMaterialize_ConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	_, err := f.cart.AddItem(ctx, user.Hex(), f.food("Burger", 5).Hex(), 3)
	require.NoError(t, err)

	const deliveries = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.materializer.Materialize(ctx, confirmation(user, "pi_race", 1500))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, deliveries-1, conflicts)
	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestMaterialize_TotalIsConfirmedAmountAfterPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 2)
	require.NoError(t, err)

	f.db.PutFood(models.Food{ID: burger, Name: "Burger", Price: 7, IsAvailable: true})

	order, err := f.materializer.Materialize(ctx, confirmation(user, "pi_price", 1000))
	require.NoError(t, err)
	assert.Equal(t, 10.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 7.0, order.Items[0].Price)
}

func TestMaterialize_PersistenceFailureLeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 2)
	require.NoError(t, err)

	broken := &failingOrders{OrderStore: f.orders, createErr: errors.New("write concern timeout")}
	m := NewOrderMaterializer(f.users, f.carts, f.foods, broken, lock.NewLocalLocker(), zerolog.Nop())

	_, err = m.Materialize(ctx, confirmation(user, "pi_fail", 1000))
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	lines, err := f.cart.Read(ctx, user.Hex())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	_, err = f.orders.FindByPaymentIntent(ctx, "pi_fail")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// the replay succeeds once the store recovers
	broken.createErr = nil
	order, err := m.Materialize(ctx, confirmation(user, "pi_fail", 1000))
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
}

func TestMaterialize_RedeliveryFinishesFailedRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	salad := f.food("Salad", 3)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 2)
	require.NoError(t, err)

	carts := &flakyCarts{CartStore: f.carts, releaseFailures: 1}
	m := NewOrderMaterializer(f.users, carts, f.foods, f.orders, lock.NewLocalLocker(), zerolog.Nop())

	order, err := m.Materialize(ctx, confirmation(user, "pi_release", 1000))
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	require.NotNil(t, order)
	assert.False(t, order.CartCleared)

	// added after payment; must survive the release
	_, err = f.cart.AddItem(ctx, user.Hex(), salad.Hex(), 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 1)
	require.NoError(t, err)

	again, err := m.Materialize(ctx, confirmation(user, "pi_release", 1000))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, order.ID, again.ID)
	assert.True(t, again.CartCleared)

	cart, err := f.carts.Get(ctx, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.CartItem{
		{FoodID: burger, Quantity: 1},
		{FoodID: salad, Quantity: 1},
	}, cart)

	// a third delivery changes nothing
	_, err = m.Materialize(ctx, confirmation(user, "pi_release", 1000))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	cart, err = f.carts.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, cart, 2)
}

func TestMaterialize_OmitsDeletedFoods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user()
	burger := f.food("Burger", 5)
	gone := f.food("Seasonal Special", 9)
	_, err := f.cart.AddItem(ctx, user.Hex(), burger.Hex(), 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, user.Hex(), gone.Hex(), 1)
	require.NoError(t, err)
	f.db.DeleteFood(gone)

	order, err := f.materializer.Materialize(ctx, confirmation(user, "pi_gone", 1400))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Burger", order.Items[0].Name)
	assert.Equal(t, 14.0, order.TotalAmount)

	lines, err := f.carts.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMaterialize_EmptyCartStillRecordsPayment(t *testing.T) {
	f := newFixture(t)
	user := f.user()

	order, err := f.materializer.Materialize(context.Background(), confirmation(user, "pi_empty", 500))
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, 5.0, order.TotalAmount)
}

func TestMaterialize_Rejects(t *testing.T) {
	f := newFixture(t)
	user := f.user()

	tests := []struct {
		name    string
		mutate  func(*models.PaymentConfirmation)
		wantErr error
	}{
		{"missing intent", func(c *models.PaymentConfirmation) { c.IntentID = "" }, apperrors.ErrValidation},
		{"not succeeded", func(c *models.PaymentConfirmation) { c.Status = "processing" }, apperrors.ErrValidation},
		{"zero amount", func(c *models.PaymentConfirmation) { c.AmountMinor = 0 }, apperrors.ErrValidation},
		{"missing user", func(c *models.PaymentConfirmation) { c.UserID = "" }, apperrors.ErrValidation},
		{"malformed user", func(c *models.PaymentConfirmation) { c.UserID = "user-1" }, apperrors.ErrValidation},
		{"unknown user", func(c *models.PaymentConfirmation) { c.UserID = primitive.NewObjectID().Hex() }, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := confirmation(user, "pi_bad", 100)
			tt.mutate(&conf)
			_, err := f.materializer.Materialize(context.Background(), conf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}
