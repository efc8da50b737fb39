package services

import (
	"context"

	"foodninja/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores return apperrors kinds: NotFound for missing documents, Conflict for
// unique-key violations.

type UserStore interface {
	Exists(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

type FoodStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Food, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error)
	List(ctx context.Context) ([]models.Food, error)
	Create(ctx context.Context, food *models.Food) error
	Update(ctx context.Context, id primitive.ObjectID, patch models.FoodPatch) (*models.Food, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CartStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	AddItem(ctx context.Context, userID, foodID primitive.ObjectID, quantity int) error
	RemoveItem(ctx context.Context, userID, foodID primitive.ObjectID) error
	// AdjustQuantity adds delta to the item, clamping the result at 1.
	AdjustQuantity(ctx context.Context, userID, foodID primitive.ObjectID, delta int) (int, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
	// ReleaseSnapshot subtracts snapshot from the cart once per intentID.
	ReleaseSnapshot(ctx context.Context, userID primitive.ObjectID, intentID string, snapshot []models.CartItem) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	MarkCartCleared(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	// UpdateStatus sets status only when the current status is one of from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from []models.OrderStatus, to models.OrderStatus) (*models.Order, error)
}

// IntentCreator is the payment provider side of intent creation.
type IntentCreator interface {
	CreateIntent(ctx context.Context, userID string, amountMinor int64) (*models.PaymentIntent, error)
}
