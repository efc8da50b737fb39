package services

import (
	"testing"

	"foodninja/lock"
	"foodninja/models"
	"foodninja/repository/memory"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	db           *memory.DB
	users        *memory.UserStore
	foods        *memory.FoodStore
	carts        *memory.CartStore
	orders       *memory.OrderStore
	cart         *CartService
	materializer *OrderMaterializer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	f := &fixture{
		db:     db,
		users:  memory.NewUserStore(db),
		foods:  memory.NewFoodStore(db),
		carts:  memory.NewCartStore(db),
		orders: memory.NewOrderStore(db),
	}
	f.cart = NewCartService(f.carts, f.foods)
	f.materializer = NewOrderMaterializer(f.users, f.carts, f.foods, f.orders, lock.NewLocalLocker(), zerolog.Nop())
	return f
}

func (f *fixture) user() primitive.ObjectID {
	return f.db.PutUser(models.User{Email: "ada@example.com", Role: "Customer", Cart: []models.CartItem{}})
}

func (f *fixture) food(name string, price float64) primitive.ObjectID {
	return f.db.PutFood(models.Food{Name: name, Price: price, IsAvailable: true})
}

func confirmation(userID primitive.ObjectID, intent string, amountMinor int64) models.PaymentConfirmation {
	return models.PaymentConfirmation{
		EventID:     "evt_" + intent,
		IntentID:    intent,
		UserID:      userID.Hex(),
		AmountMinor: amountMinor,
		Currency:    "usd",
		Status:      models.PaymentStatusSucceeded,
	}
}
