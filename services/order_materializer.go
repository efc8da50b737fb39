package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodninja/apperrors"
	"foodninja/lock"
	"foodninja/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderMaterializer turns a confirmed payment and the user's cart into exactly
// one order per payment intent, then releases the cart.
type OrderMaterializer struct {
	users  UserStore
	carts  CartStore
	foods  FoodStore
	orders OrderStore
	locker lock.Locker
	log    zerolog.Logger
	now    func() time.Time
}

func NewOrderMaterializer(users UserStore, carts CartStore, foods FoodStore, orders OrderStore, locker lock.Locker, log zerolog.Logger) *OrderMaterializer {
	return &OrderMaterializer{
		users:  users,
		carts:  carts,
		foods:  foods,
		orders: orders,
		locker: locker,
		log:    log,
		now:    time.Now,
	}
}

// Materialize records the order for conf. A redelivered confirmation returns
// the order created the first time together with an apperrors.ErrConflict
// error, which callers treat as success.
func (m *OrderMaterializer) Materialize(ctx context.Context, conf models.PaymentConfirmation) (*models.Order, error) {
	userID, err := m.validate(conf)
	if err != nil {
		return nil, err
	}
	log := m.log.With().
		Str("event_id", conf.EventID).
		Str("intent_id", conf.IntentID).
		Str("user_id", conf.UserID).
		Logger()

	unlock, err := m.locker.Lock(ctx, "materialize:"+userID.Hex())
	if err != nil {
		return nil, apperrors.Internal("Failed to lock cart", err)
	}
	defer unlock()

	existing, err := m.orders.FindByPaymentIntent(ctx, conf.IntentID)
	switch {
	case err == nil:
		return m.duplicate(ctx, existing, log)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.Internal("Failed to look up order", err)
	}

	ok, err := m.users.Exists(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up user", err)
	}
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}

	cart, err := m.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := m.snapshot(ctx, cart, log)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     FromMinorUnits(conf.AmountMinor),
		AmountMinor:     conf.AmountMinor,
		Currency:        strings.ToLower(conf.Currency),
		PaymentStatus:   conf.Status,
		PaymentIntentID: conf.IntentID,
		EventID:         conf.EventID,
		Status:          models.StatusPlaced,
		CartSnapshot:    cart,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			winner, findErr := m.orders.FindByPaymentIntent(ctx, conf.IntentID)
			if findErr != nil {
				return nil, apperrors.Internal("Failed to load existing order", findErr)
			}
			return m.duplicate(ctx, winner, log)
		}
		log.Error().Err(err).
			Int64("amount_minor", conf.AmountMinor).
			Msg("order persistence failed after confirmed payment; cart left intact for replay")
		return nil, apperrors.Internal("Failed to create order", err)
	}

	log.Info().
		Str("order_id", order.ID.Hex()).
		Int("items", len(order.Items)).
		Int64("amount_minor", order.AmountMinor).
		Msg("order placed")

	if err := m.releaseCart(ctx, order, log); err != nil {
		return order, err
	}
	return order, nil
}

func (m *OrderMaterializer) validate(conf models.PaymentConfirmation) (primitive.ObjectID, error) {
	if conf.IntentID == "" {
		return primitive.NilObjectID, apperrors.Validation("payment intent id is required")
	}
	if conf.Status != models.PaymentStatusSucceeded {
		return primitive.NilObjectID, apperrors.Validation("payment status %q is not a success", conf.Status)
	}
	if conf.AmountMinor <= 0 {
		return primitive.NilObjectID, apperrors.Validation("confirmed amount must be positive")
	}
	return parseID(conf.UserID, "userId")
}

func (m *OrderMaterializer) duplicate(ctx context.Context, order *models.Order, log zerolog.Logger) (*models.Order, error) {
	log.Info().Str("order_id", order.ID.Hex()).Msg("duplicate payment confirmation")
	if !order.CartCleared {
		if err := m.releaseCart(ctx, order, log); err != nil {
			return order, err
		}
	}
	return order, apperrors.Conflict("order %s already exists for intent %s", order.ID.Hex(), order.PaymentIntentID)
}

// snapshot copies the current catalog fields of every cart entry. Entries whose
// food was deleted are left out.
func (m *OrderMaterializer) snapshot(ctx context.Context, cart []models.CartItem, log zerolog.Logger) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart))
	if len(cart) == 0 {
		log.Warn().Msg("confirmed payment for an empty cart")
		return items, nil
	}

	ids := make([]primitive.ObjectID, 0, len(cart))
	for _, c := range cart {
		ids = append(ids, c.FoodID)
	}
	foods, err := m.foods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to read catalog", err)
	}
	byID := make(map[primitive.ObjectID]models.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	for _, c := range cart {
		food, ok := byID[c.FoodID]
		if !ok {
			log.Warn().Str("food_id", c.FoodID.Hex()).Msg("cart item no longer in catalog; omitted from order")
			continue
		}
		items = append(items, models.OrderItem{
			FoodID:     food.ID,
			Name:       food.Name,
			Price:      food.Price,
			Image:      food.Image,
			Category:   food.Category,
			Restaurant: food.Restaurant,
			Quantity:   c.Quantity,
		})
	}
	return items, nil
}

func (m *OrderMaterializer) releaseCart(ctx context.Context, order *models.Order, log zerolog.Logger) error {
	if err := m.carts.ReleaseSnapshot(ctx, order.UserID, order.PaymentIntentID, order.CartSnapshot); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.Hex()).Msg("cart release failed; will retry on redelivery")
		return apperrors.Internal("Failed to clear cart", err)
	}
	if err := m.orders.MarkCartCleared(ctx, order.ID); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.Hex()).Msg("mark cart cleared failed")
		return apperrors.Internal("Failed to clear cart", fmt.Errorf("mark cart cleared: %w", err))
	}
	order.CartCleared = true
	return nil
}
