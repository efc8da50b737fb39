package services

import (
	"context"

	"foodninja/apperrors"
	"foodninja/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errQuantityLimit = apperrors.Validation("Quantity cannot exceed %d", models.MaxCartQuantity)

type CartService struct {
	carts CartStore
	foods FoodStore
}

func NewCartService(carts CartStore, foods FoodStore) *CartService {
	return &CartService{carts: carts, foods: foods}
}

// AddItem puts quantity of a food into the cart, adding to an existing entry.
// A zero quantity means one. The entry never grows past MaxCartQuantity.
func (s *CartService) AddItem(ctx context.Context, userHex, foodHex string, quantity int) ([]models.CartLine, error) {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return nil, err
	}
	foodID, err := parseID(foodHex, "foodId")
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, apperrors.Validation("Quantity must be at least 1")
	}
	if quantity > models.MaxCartQuantity {
		return nil, errQuantityLimit
	}

	food, err := s.foods.FindByID(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if !food.IsAvailable {
		return nil, apperrors.Validation("Food %s is not available", food.Name)
	}

	if err := s.carts.AddItem(ctx, userID, foodID, quantity); err != nil {
		return nil, err
	}
	return s.read(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userHex, foodHex string) ([]models.CartLine, error) {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return nil, err
	}
	foodID, err := parseID(foodHex, "foodId")
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(ctx, userID, foodID); err != nil {
		return nil, err
	}
	return s.read(ctx, userID)
}

// AdjustQuantity moves an entry's quantity by delta. Decrementing never
// deletes the entry; the quantity stops at 1.
func (s *CartService) AdjustQuantity(ctx context.Context, userHex, foodHex string, delta int) (int, error) {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return 0, err
	}
	foodID, err := parseID(foodHex, "foodId")
	if err != nil {
		return 0, err
	}
	if delta == 0 {
		return 0, apperrors.Validation("delta must not be zero")
	}
	if delta > models.MaxCartQuantity {
		return 0, errQuantityLimit
	}
	// any larger decrement lands on the floor of 1 anyway
	delta = max(delta, -models.MaxCartQuantity)
	return s.carts.AdjustQuantity(ctx, userID, foodID, delta)
}

func (s *CartService) Clear(ctx context.Context, userHex string) error {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, userID)
}

func (s *CartService) Read(ctx context.Context, userHex string) ([]models.CartLine, error) {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return nil, err
	}
	return s.read(ctx, userID)
}

func (s *CartService) read(ctx context.Context, userID primitive.ObjectID) ([]models.CartLine, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]models.CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	foods, err := s.lookupFoods(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		food, ok := foods[item.FoodID]
		if !ok {
			continue
		}
		subtotal, _ := decimal.NewFromFloat(food.Price).Mul(decimal.NewFromInt(int64(item.Quantity))).Float64()
		lines = append(lines, models.CartLine{
			FoodID:      food.ID,
			Name:        food.Name,
			Price:       food.Price,
			Image:       food.Image,
			Category:    food.Category,
			Restaurant:  food.Restaurant,
			IsAvailable: food.IsAvailable,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
	}
	return lines, nil
}

func (s *CartService) lookupFoods(ctx context.Context, items []models.CartItem) (map[primitive.ObjectID]models.Food, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.FoodID)
	}
	found, err := s.foods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Food, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}
	return byID, nil
}

// CartTotal sums the subtotals of lines.
func CartTotal(lines []models.CartLine) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	f, _ := total.Float64()
	return f
}
