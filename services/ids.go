package services

import (
	"foodninja/apperrors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parseID(raw, what string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, apperrors.Validation("%s is required", what)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid %s", what)
	}
	return id, nil
}
