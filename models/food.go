package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Food struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Restaurant  string             `bson:"restaurant" json:"restaurant"`
	Tags        []string           `bson:"tags" json:"tags"`
	IsAvailable bool               `bson:"isAvailable" json:"isAvailable"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FoodPatch carries the fields an admin update sets. Nil fields are left as
// they are.
type FoodPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" binding:"omitempty,gt=0"`
	Image       *string   `json:"image"`
	Category    *string   `json:"category"`
	Restaurant  *string   `json:"restaurant"`
	Tags        *[]string `json:"tags"`
	IsAvailable *bool     `json:"isAvailable"`
}
