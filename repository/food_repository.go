package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodninja/apperrors"
	"foodninja/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FoodRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewFoodRepository(col *mongo.Collection) *FoodRepository {
	return &FoodRepository{collection: col, now: time.Now}
}

func (r *FoodRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Food, error) {
	var food models.Food
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&food)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Food not found")
		}
		return nil, fmt.Errorf("find food: %w", err)
	}
	return &food, nil
}

func (r *FoodRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	if len(ids) == 0 {
		return []models.Food{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find foods: %w", err)
	}
	foods := []models.Food{}
	if err := cursor.All(ctx, &foods); err != nil {
		return nil, fmt.Errorf("decode foods: %w", err)
	}
	return foods, nil
}

func (r *FoodRepository) List(ctx context.Context) ([]models.Food, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	foods := []models.Food{}
	if err := cursor.All(ctx, &foods); err != nil {
		return nil, fmt.Errorf("decode foods: %w", err)
	}
	return foods, nil
}

func (r *FoodRepository) Create(ctx context.Context, food *models.Food) error {
	now := r.now().UTC()
	if food.ID.IsZero() {
		food.ID = primitive.NewObjectID()
	}
	if food.Tags == nil {
		food.Tags = []string{}
	}
	food.CreatedAt, food.UpdatedAt = now, now
	if _, err := r.collection.InsertOne(ctx, food); err != nil {
		return fmt.Errorf("insert food: %w", err)
	}
	return nil
}

func (r *FoodRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.FoodPatch) (*models.Food, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Restaurant != nil {
		set["restaurant"] = *patch.Restaurant
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.IsAvailable != nil {
		set["isAvailable"] = *patch.IsAvailable
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Food
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Food not found")
		}
		return nil, fmt.Errorf("update food: %w", err)
	}
	return &updated, nil
}

// Delete removes the food from the catalog. Carts that still reference it
// are left alone; reads and order snapshots skip the missing entry.
func (r *FoodRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete food: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Food not found")
	}
	return nil
}
