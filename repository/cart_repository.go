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

// CartRepository stores the cart as the `cart` array of the user document.
// Every write is a single-document update, so it is atomic per user.
type CartRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewCartRepository(users *mongo.Collection) *CartRepository {
	return &CartRepository{users: users, now: time.Now}
}

var cartOrEmpty = bson.M{"$ifNull": bson.A{"$cart", bson.A{}}}

func (r *CartRepository) Get(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	var user models.User
	opts := options.FindOne().SetProjection(bson.M{"cart": 1})
	err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return user.Cart, nil
}

// AddItem increments the entry for foodID or appends a new one, in one
// pipeline update.
func (r *CartRepository) AddItem(ctx context.Context, userID, foodID primitive.ObjectID, quantity int) error {
	incremented := bson.M{"$map": bson.M{
		"input": cartOrEmpty,
		"as":    "item",
		"in": bson.M{"$cond": bson.M{
			"if":   bson.M{"$eq": bson.A{"$$item.foodId", foodID}},
			"then": bson.M{"foodId": "$$item.foodId", "quantity": bson.M{"$add": bson.A{"$$item.quantity", quantity}}},
			"else": "$$item",
		}},
	}}
	appended := bson.M{"$concatArrays": bson.A{cartOrEmpty, bson.A{bson.M{"foodId": foodID, "quantity": quantity}}}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"cart": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{foodID, bson.M{"$ifNull": bson.A{"$cart.foodId", bson.A{}}}}},
				"then": incremented,
				"else": appended,
			}},
			"updatedAt": r.now(),
		}}},
	}

	if quantity > models.MaxCartQuantity {
		return errQuantityLimit()
	}
	filter := bson.M{"_id": userID, "cart": withinLimit(foodID, quantity)}
	res, err := r.users.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count user: %w", err)
		}
		if n == 0 {
			return apperrors.NotFound("User not found")
		}
		return errQuantityLimit()
	}
	return nil
}

// withinLimit matches carts whose entry for foodID can still take growth
// without passing MaxCartQuantity. Carts without the entry match too.
func withinLimit(foodID primitive.ObjectID, growth int) bson.M {
	return bson.M{"$not": bson.M{"$elemMatch": bson.M{
		"foodId":   foodID,
		"quantity": bson.M{"$gt": models.MaxCartQuantity - growth},
	}}}
}

func errQuantityLimit() error {
	return apperrors.Validation("Quantity cannot exceed %d", models.MaxCartQuantity)
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, foodID primitive.ObjectID) error {
	filter := bson.M{"_id": userID, "cart.foodId": foodID}
	update := bson.M{
		"$pull": bson.M{"cart": bson.M{"foodId": foodID}},
		"$set":  bson.M{"updatedAt": r.now()},
	}
	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		if err := r.missingItem(ctx, userID, foodID); err != nil {
			return err
		}
		return apperrors.NotFound("Food not found in cart")
	}
	return nil
}

// AdjustQuantity adds delta to the entry and clamps the result at 1.
func (r *CartRepository) AdjustQuantity(ctx context.Context, userID, foodID primitive.ObjectID, delta int) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"cart": bson.M{"$map": bson.M{
				"input": cartOrEmpty,
				"as":    "item",
				"in": bson.M{"$cond": bson.M{
					"if": bson.M{"$eq": bson.A{"$$item.foodId", foodID}},
					"then": bson.M{
						"foodId":   "$$item.foodId",
						"quantity": bson.M{"$max": bson.A{1, bson.M{"$add": bson.A{"$$item.quantity", delta}}}},
					},
					"else": "$$item",
				}},
			}},
			"updatedAt": r.now(),
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"cart": 1})

	filter := bson.M{"_id": userID, "cart.foodId": foodID}
	if delta > 0 {
		if delta > models.MaxCartQuantity {
			return 0, errQuantityLimit()
		}
		filter["cart"] = withinLimit(foodID, delta)
	}

	var user models.User
	err := r.users.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if err := r.missingItem(ctx, userID, foodID); err != nil {
				return 0, err
			}
			return 0, errQuantityLimit()
		}
		return 0, fmt.Errorf("adjust cart quantity: %w", err)
	}
	for _, item := range user.Cart {
		if item.FoodID == foodID {
			return item.Quantity, nil
		}
	}
	return 0, apperrors.NotFound("Food not found in cart")
}

func (r *CartRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"cart": bson.A{}, "updatedAt": r.now()}}
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

// ReleaseSnapshot subtracts the snapshot quantities from the cart and drops
// entries that fall below 1. The intent id is recorded in the same update and
// the filter skips users that already carry it, so a release applies once.
func (r *CartRepository) ReleaseSnapshot(ctx context.Context, userID primitive.ObjectID, intentID string, snapshot []models.CartItem) error {
	set := bson.M{
		"clearedIntents": bson.M{"$slice": bson.A{
			bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$clearedIntents", bson.A{}}},
				bson.A{bson.M{"$literal": intentID}},
			}},
			-models.MaxClearedIntents,
		}},
		"updatedAt": r.now(),
	}
	if len(snapshot) > 0 {
		branches := bson.A{}
		for _, item := range snapshot {
			branches = append(branches, bson.M{
				"case": bson.M{"$eq": bson.A{"$$item.foodId", item.FoodID}},
				"then": item.Quantity,
			})
		}
		remaining := bson.M{"$map": bson.M{
			"input": cartOrEmpty,
			"as":    "item",
			"in": bson.M{
				"foodId": "$$item.foodId",
				"quantity": bson.M{"$subtract": bson.A{
					"$$item.quantity",
					bson.M{"$switch": bson.M{"branches": branches, "default": 0}},
				}},
			},
		}}
		set["cart"] = bson.M{"$filter": bson.M{
			"input": remaining,
			"as":    "item",
			"cond":  bson.M{"$gte": bson.A{"$$item.quantity", 1}},
		}}
	}

	filter := bson.M{"_id": userID, "clearedIntents": bson.M{"$ne": intentID}}
	res, err := r.users.UpdateOne(ctx, filter, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return fmt.Errorf("release cart snapshot: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count user: %w", err)
		}
		if n == 0 {
			return apperrors.NotFound("User not found")
		}
	}
	return nil
}

// missingItem explains an update that matched nothing. It returns nil when
// the user holds the entry, which leaves the quantity limit as the cause.
func (r *CartRepository) missingItem(ctx context.Context, userID, foodID primitive.ObjectID) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count user: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("User not found")
	}
	n, err = r.users.CountDocuments(ctx, bson.M{"_id": userID, "cart.foodId": foodID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count cart item: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("Food not found in cart")
	}
	return nil
}
