package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document shared with the registration flow. This
// service only reads it and owns the Cart sub-document.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	FirstName      string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName       string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Role           string             `bson:"role" json:"role"`
	Cart           []CartItem         `bson:"cart" json:"cart"`
	ClearedIntents []string           `bson:"clearedIntents,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
