package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Users  *mongo.Collection
	Foods  *mongo.Collection
	Orders *mongo.Collection
}

func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client.Database(dbName), nil
}

func InitCollections(db *mongo.Database) *Collections {
	return &Collections{
		Users:  db.Collection("users"),
		Foods:  db.Collection("foods"),
		Orders: db.Collection("orders"),
	}
}

// EnsureIndexes creates the indexes the order pipeline relies on. The unique
// paymentIntentId index is what makes order creation happen once per intent.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "paymentIntentId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_payment_intent"),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	if _, err := cols.Orders.Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}
