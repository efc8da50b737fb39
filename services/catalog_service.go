package services

import (
	"context"
	"strings"

	"foodninja/apperrors"
	"foodninja/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService struct {
	foods FoodStore
}

func NewCatalogService(foods FoodStore) *CatalogService {
	return &CatalogService{foods: foods}
}

func (s *CatalogService) List(ctx context.Context) ([]models.Food, error) {
	return s.foods.List(ctx)
}

func (s *CatalogService) Get(ctx context.Context, idHex string) (*models.Food, error) {
	id, err := parseID(idHex, "food id")
	if err != nil {
		return nil, err
	}
	return s.foods.FindByID(ctx, id)
}

// Create adds a food to the catalog. Name and a positive price are required.
func (s *CatalogService) Create(ctx context.Context, food models.Food) (*models.Food, error) {
	food.Name = strings.TrimSpace(food.Name)
	if food.Name == "" {
		return nil, apperrors.Validation("Name is required")
	}
	if food.Price <= 0 {
		return nil, apperrors.Validation("Price must be greater than zero")
	}
	food.ID = primitive.NilObjectID
	if err := s.foods.Create(ctx, &food); err != nil {
		return nil, apperrors.Internal("Failed to create food", err)
	}
	return &food, nil
}

// Update applies patch. Orders already placed keep their own copy of the
// food and do not change.
func (s *CatalogService) Update(ctx context.Context, idHex string, patch models.FoodPatch) (*models.Food, error) {
	id, err := parseID(idHex, "food id")
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.Validation("Name must not be empty")
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return nil, apperrors.Validation("Price must be greater than zero")
	}
	return s.foods.Update(ctx, id, patch)
}

func (s *CatalogService) Delete(ctx context.Context, idHex string) error {
	id, err := parseID(idHex, "food id")
	if err != nil {
		return err
	}
	return s.foods.Delete(ctx, id)
}
