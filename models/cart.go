package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type CartItem struct {
	FoodID   primitive.ObjectID `bson:"foodId" json:"foodId"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// CartLine is a cart entry joined with the current catalog record.
type CartLine struct {
	FoodID      primitive.ObjectID `json:"foodId"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Image       string             `json:"image"`
	Category    string             `json:"category"`
	Restaurant  string             `json:"restaurant"`
	IsAvailable bool               `json:"isAvailable"`
	Quantity    int                `json:"quantity"`
	Subtotal    float64            `json:"subtotal"`
}

// MaxCartQuantity caps the quantity of a single cart entry.
const MaxCartQuantity = 99

// MaxClearedIntents bounds the per-user history of released cart snapshots.
const MaxClearedIntents = 20
