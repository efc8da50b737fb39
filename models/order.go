package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	AmountMinor     int64              `bson:"amountMinor" json:"-"`
	Currency        string             `bson:"currency" json:"currency"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentIntentID string             `bson:"paymentIntentId" json:"paymentIntentId"`
	EventID         string             `bson:"eventId" json:"-"`
	Status          OrderStatus        `bson:"status" json:"status"`
	CartSnapshot    []CartItem         `bson:"cartSnapshot" json:"-"`
	CartCleared     bool               `bson:"cartCleared" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderItem is a copy of the food record taken when the payment was confirmed.
type OrderItem struct {
	FoodID     primitive.ObjectID `bson:"foodId" json:"foodId"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	Image      string             `bson:"image" json:"image"`
	Category   string             `bson:"category" json:"category"`
	Restaurant string             `bson:"restaurant" json:"restaurant"`
	Quantity   int                `bson:"quantity" json:"quantity"`
}
