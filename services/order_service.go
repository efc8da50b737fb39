package services

import (
	"context"
	"errors"

	"foodninja/apperrors"
	"foodninja/models"
)

type OrderService struct {
	orders OrderStore
	policy models.TransitionPolicy
}

func NewOrderService(orders OrderStore, policy models.TransitionPolicy) *OrderService {
	return &OrderService{orders: orders, policy: policy}
}

// ListForUser returns the user's orders newest first.
func (s *OrderService) ListForUser(ctx context.Context, userHex string) ([]models.Order, error) {
	userID, err := parseID(userHex, "userId")
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("No orders found")
	}
	return orders, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) Get(ctx context.Context, idHex string) (*models.Order, error) {
	id, err := parseID(idHex, "order id")
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// UpdateStatus applies an admin status change under the transition policy.
// The policy check and the write are one conditional update.
func (s *OrderService) UpdateStatus(ctx context.Context, idHex, rawStatus string) (*models.Order, error) {
	id, err := parseID(idHex, "order id")
	if err != nil {
		return nil, err
	}
	to, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, apperrors.Validation("Invalid status value")
	}

	updated, err := s.orders.UpdateStatus(ctx, id, s.policy.SourcesFor(to), to)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	current, findErr := s.orders.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.Validation("Cannot change status from %s to %s", current.Status, to)
}
