// Package memory keeps every store in process memory. It backs
// STORE_DRIVER=memory for local runs and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"foodninja/apperrors"
	"foodninja/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DB struct {
	mu     sync.Mutex
	users  map[primitive.ObjectID]*models.User
	foods  map[primitive.ObjectID]models.Food
	orders map[primitive.ObjectID]models.Order
}

func NewDB() *DB {
	return &DB{
		users:  make(map[primitive.ObjectID]*models.User),
		foods:  make(map[primitive.ObjectID]models.Food),
		orders: make(map[primitive.ObjectID]models.Order),
	}
}

func (db *DB) PutUser(u models.User) primitive.ObjectID {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Cart = slices.Clone(u.Cart)
	db.users[u.ID] = &u
	return u.ID
}

func (db *DB) PutFood(f models.Food) primitive.ObjectID {
	db.mu.Lock()
	defer db.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	db.foods[f.ID] = f
	return f.ID
}

func (db *DB) DeleteFood(id primitive.ObjectID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.foods, id)
}

type UserStore struct{ db *DB }

func NewUserStore(db *DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Exists(_ context.Context, userID primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.users[userID]
	return ok, nil
}

type FoodStore struct{ db *DB }

func NewFoodStore(db *DB) *FoodStore { return &FoodStore{db: db} }

func (s *FoodStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Food, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.foods[id]
	if !ok {
		return nil, apperrors.NotFound("Food not found")
	}
	return &f, nil
}

func (s *FoodStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Food
	for _, id := range ids {
		if f, ok := s.db.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *FoodStore) List(_ context.Context) ([]models.Food, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Food, 0, len(s.db.foods))
	for _, f := range s.db.foods {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *FoodStore) Create(_ context.Context, food *models.Food) error {
	now := time.Now().UTC()
	food.CreatedAt, food.UpdatedAt = now, now
	food.ID = s.db.PutFood(*food)
	return nil
}

func (s *FoodStore) Update(_ context.Context, id primitive.ObjectID, patch models.FoodPatch) (*models.Food, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.foods[id]
	if !ok {
		return nil, apperrors.NotFound("Food not found")
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Description != nil {
		f.Description = *patch.Description
	}
	if patch.Price != nil {
		f.Price = *patch.Price
	}
	if patch.Image != nil {
		f.Image = *patch.Image
	}
	if patch.Category != nil {
		f.Category = *patch.Category
	}
	if patch.Restaurant != nil {
		f.Restaurant = *patch.Restaurant
	}
	if patch.Tags != nil {
		f.Tags = slices.Clone(*patch.Tags)
	}
	if patch.IsAvailable != nil {
		f.IsAvailable = *patch.IsAvailable
	}
	f.UpdatedAt = time.Now().UTC()
	s.db.foods[id] = f
	return &f, nil
}

func (s *FoodStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.foods[id]; !ok {
		return apperrors.NotFound("Food not found")
	}
	delete(s.db.foods, id)
	return nil
}

type CartStore struct{ db *DB }

func NewCartStore(db *DB) *CartStore { return &CartStore{db: db} }

func (s *CartStore) user(id primitive.ObjectID) (*models.User, error) {
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	return u, nil
}

func quantityLimit() error {
	return apperrors.Validation("Quantity cannot exceed %d", models.MaxCartQuantity)
}

func (s *CartStore) Get(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(u.Cart), nil
}

func (s *CartStore) AddItem(_ context.Context, userID, foodID primitive.ObjectID, quantity int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	for i := range u.Cart {
		if u.Cart[i].FoodID == foodID {
			if u.Cart[i].Quantity > models.MaxCartQuantity-quantity {
				return quantityLimit()
			}
			u.Cart[i].Quantity += quantity
			return nil
		}
	}
	if quantity > models.MaxCartQuantity {
		return quantityLimit()
	}
	u.Cart = append(u.Cart, models.CartItem{FoodID: foodID, Quantity: quantity})
	return nil
}

func (s *CartStore) RemoveItem(_ context.Context, userID, foodID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(u.Cart, func(c models.CartItem) bool { return c.FoodID == foodID })
	if i < 0 {
		return apperrors.NotFound("Food not found in cart")
	}
	u.Cart = slices.Delete(u.Cart, i, i+1)
	return nil
}

func (s *CartStore) AdjustQuantity(_ context.Context, userID, foodID primitive.ObjectID, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return 0, err
	}
	for i := range u.Cart {
		if u.Cart[i].FoodID == foodID {
			if delta > models.MaxCartQuantity-u.Cart[i].Quantity {
				return 0, quantityLimit()
			}
			u.Cart[i].Quantity = max(u.Cart[i].Quantity+max(delta, -u.Cart[i].Quantity), 1)
			return u.Cart[i].Quantity, nil
		}
	}
	return 0, apperrors.NotFound("Food not found in cart")
}

func (s *CartStore) Clear(_ context.Context, userID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.Cart = []models.CartItem{}
	return nil
}

func (s *CartStore) ReleaseSnapshot(_ context.Context, userID primitive.ObjectID, intentID string, snapshot []models.CartItem) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if slices.Contains(u.ClearedIntents, intentID) {
		return nil
	}

	taken := make(map[primitive.ObjectID]int, len(snapshot))
	for _, c := range snapshot {
		taken[c.FoodID] += c.Quantity
	}
	kept := make([]models.CartItem, 0, len(u.Cart))
	for _, c := range u.Cart {
		c.Quantity -= taken[c.FoodID]
		if c.Quantity >= 1 {
			kept = append(kept, c)
		}
	}
	u.Cart = kept
	u.ClearedIntents = append(u.ClearedIntents, intentID)
	if n := len(u.ClearedIntents); n > models.MaxClearedIntents {
		u.ClearedIntents = u.ClearedIntents[n-models.MaxClearedIntents:]
	}
	return nil
}

type OrderStore struct {
	db  *DB
	now func() time.Time
}

func NewOrderStore(db *DB) *OrderStore { return &OrderStore{db: db, now: time.Now} }

func (s *OrderStore) Create(_ context.Context, order *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.orders {
		if o.PaymentIntentID == order.PaymentIntentID {
			return apperrors.Conflict("order for intent %s already exists", order.PaymentIntentID)
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.db.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (s *OrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *OrderStore) FindByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.orders {
		if o.PaymentIntentID == intentID {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, apperrors.NotFound("Order not found")
}

func (s *OrderStore) MarkCartCleared(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return apperrors.NotFound("Order not found")
	}
	o.CartCleared = true
	s.db.orders[id] = o
	return nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *OrderStore) List(_ context.Context) ([]models.Order, error) {
	return s.list(func(models.Order) bool { return true }), nil
}

func (s *OrderStore) list(keep func(models.Order) bool) []models.Order {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.db.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *OrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from []models.OrderStatus, to models.OrderStatus) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok || !slices.Contains(from, o.Status) {
		return nil, apperrors.NotFound("Order not found")
	}
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	s.db.orders[id] = o
	o = cloneOrder(o)
	return &o, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	o.CartSnapshot = slices.Clone(o.CartSnapshot)
	return o
}

// SeedDemo loads a small menu and one customer so a memory-backed server is
// usable straight away. It returns the customer's id.
func SeedDemo(db *DB) primitive.ObjectID {
	now := time.Now().UTC()
	menu := []models.Food{
		{Name: "Classic Burger", Price: 5, Category: "Burgers", Restaurant: "Ninja Grill", IsAvailable: true},
		{Name: "Garden Salad", Price: 3, Category: "Salads", Restaurant: "Ninja Grill", IsAvailable: true},
		{Name: "Margherita Pizza", Price: 8.5, Category: "Pizza", Restaurant: "Slice Dojo", IsAvailable: true},
	}
	for _, f := range menu {
		f.CreatedAt, f.UpdatedAt = now, now
		db.PutFood(f)
	}
	return db.PutUser(models.User{
		Email:     "demo@foodninja.local",
		FirstName: "Demo",
		Role:      "Customer",
		Cart:      []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	})
}
