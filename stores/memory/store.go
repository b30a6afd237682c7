package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"overlaysnow/core"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type (
	// cartLine is the stored form of a cart entry. Display fields and prices
	// are joined in from the catalog on every read.
	cartLine struct {
		id        string
		productID string
		quantity  int
	}

	cartRecord struct {
		id    string
		lines []cartLine
	}

	memStore struct {
		mu         sync.RWMutex
		users      map[string]*core.User
		userEmails map[string]string // lowercased email -> user id
		categories map[string]*core.Category
		catOrder   []string
		products   map[string]*core.Product
		prodOrder  []string
		carts      map[string]*cartRecord // user id -> cart
		orders     map[string]*core.Order
		orderIDs   []string
	}
)

// NewStore creates an empty in-memory store.
func NewStore() *memStore {
	return &memStore{
		users:      make(map[string]*core.User),
		userEmails: make(map[string]string),
		categories: make(map[string]*core.Category),
		products:   make(map[string]*core.Product),
		carts:      make(map[string]*cartRecord),
		orders:     make(map[string]*core.Order),
	}
}

// UserStore implementation

func (s *memStore) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.userEmails[email]; taken {
		return core.ErrEmailConflict
	}
	if user.ID == "" {
		user.ID = "user_" + ulid.Make().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	cp := *user
	s.users[user.ID] = &cp
	s.userEmails[email] = user.ID
	logrus.WithField("user_id", user.ID).Info("User created")
	return nil
}

func (s *memStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userEmails[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// CategoryStore implementation

func (s *memStore) ListCategories(ctx context.Context) ([]*core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]*core.Category, 0, len(s.catOrder))
	for _, id := range s.catOrder {
		cp := *s.categories[id]
		categories = append(categories, &cp)
	}
	return categories, nil
}

func (s *memStore) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, core.ErrCategoryNotFound
	}
	cp := *category
	return &cp, nil
}

func (s *memStore) SaveCategory(ctx context.Context, category *core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = "cat_" + ulid.Make().String()
	}
	if _, exists := s.categories[category.ID]; !exists {
		s.catOrder = append(s.catOrder, category.ID)
	}
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *memStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return core.ErrCategoryNotFound
	}
	delete(s.categories, id)
	for i, catID := range s.catOrder {
		if catID == id {
			s.catOrder = append(s.catOrder[:i], s.catOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ProductStore implementation

func (s *memStore) ListProducts(ctx context.Context, filter core.ProductFilter) (*core.ProductPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]*core.Product, 0, len(s.prodOrder))
	search := strings.ToLower(filter.Search)
	for _, id := range s.prodOrder {
		p := s.products[id]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		cp := *p
		filtered = append(filtered, &cp)
	}

	switch filter.Sort {
	case core.SortPriceLow:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price < filtered[j].Price })
	case core.SortPriceHigh:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price > filtered[j].Price })
	default:
		// "newest" and "popular" keep insertion order.
	}

	return paginate(filtered, filter.Page, filter.Limit), nil
}

func paginate(products []*core.Product, page, limit int) *core.ProductPage {
	if limit < 1 {
		limit = 12
	}
	totalItems := len(products)
	totalPages := (totalItems + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return &core.ProductPage{
		Items:      products[start:end],
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

func (s *memStore) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (s *memStore) SaveProduct(ctx context.Context, product *core.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = "prod_" + ulid.Make().String()
	}
	if _, exists := s.products[product.ID]; !exists {
		s.prodOrder = append(s.prodOrder, product.ID)
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *memStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return core.ErrProductNotFound
	}
	delete(s.products, id)
	for i, prodID := range s.prodOrder {
		if prodID == id {
			s.prodOrder = append(s.prodOrder[:i], s.prodOrder[i+1:]...)
			break
		}
	}
	return nil
}

// CartStore implementation

// cartFor returns the user's cart record, creating an empty one on first
// access. Caller must hold the write lock.
func (s *memStore) cartFor(userID string) *cartRecord {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &cartRecord{id: "cart_" + ulid.Make().String()}
		s.carts[userID] = cart
	}
	return cart
}

func (s *memStore) GetCart(ctx context.Context, userID string) (*core.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(userID)

	priced := &core.Cart{ID: cart.id, Items: make([]core.CartLine, 0, len(cart.lines))}
	total := decimal.Zero
	for _, line := range cart.lines {
		product, ok := s.products[line.productID]
		if !ok {
			// Product removed from the catalog since it was added; drop the
			// line from the priced view.
			continue
		}
		subtotal := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(line.quantity)))
		priced.Items = append(priced.Items, core.CartLine{
			ID:        line.id,
			ProductID: line.productID,
			Product:   product.Snapshot(),
			Quantity:  line.quantity,
			Subtotal:  subtotal.InexactFloat64(),
		})
		total = total.Add(subtotal)
	}
	priced.Total = total.InexactFloat64()
	priced.ItemCount = priced.CountItems()
	return priced, nil
}

func (s *memStore) AddCartItem(ctx context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return core.ErrProductNotFound
	}

	cart := s.cartFor(userID)
	for i := range cart.lines {
		if cart.lines[i].productID == productID {
			cart.lines[i].quantity += quantity
			return nil
		}
	}
	cart.lines = append(cart.lines, cartLine{
		id:        "item_" + ulid.Make().String(),
		productID: productID,
		quantity:  quantity,
	})
	return nil
}

func (s *memStore) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return core.ErrCartItemNotFound
	}
	for i := range cart.lines {
		if cart.lines[i].id == itemID {
			if quantity <= 0 {
				cart.lines = append(cart.lines[:i], cart.lines[i+1:]...)
			} else {
				cart.lines[i].quantity = quantity
			}
			return nil
		}
	}
	return core.ErrCartItemNotFound
}

func (s *memStore) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return core.ErrCartItemNotFound
	}
	for i := range cart.lines {
		if cart.lines[i].id == itemID {
			cart.lines = append(cart.lines[:i], cart.lines[i+1:]...)
			return nil
		}
	}
	return core.ErrCartItemNotFound
}

func (s *memStore) ClearCart(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(userID)
	cart.lines = nil
	return nil
}

// OrderStore implementation

func (s *memStore) CreateOrder(ctx context.Context, order *core.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = "order_" + ulid.Make().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	cp := *order
	cp.Items = make([]core.OrderItem, len(order.Items))
	copy(cp.Items, order.Items)
	s.orders[order.ID] = &cp
	s.orderIDs = append(s.orderIDs, order.ID)
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	}).Info("Order created")
	return nil
}

func (s *memStore) ListOrders(ctx context.Context, userID string) ([]*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*core.Order, 0, len(s.orderIDs))
	// Newest first.
	for i := len(s.orderIDs) - 1; i >= 0; i-- {
		order := s.orders[s.orderIDs[i]]
		if userID != "" && order.UserID != userID {
			continue
		}
		cp := *order
		orders = append(orders, &cp)
	}
	return orders, nil
}

func (s *memStore) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, core.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return core.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (s *memStore) SalesByPeriod(ctx context.Context, period string) ([]core.SalesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff time.Time
	var bucket string
	now := time.Now()
	switch period {
	case "week":
		cutoff, bucket = now.AddDate(0, 0, -7), "2006-01-02"
	case "year":
		cutoff, bucket = now.AddDate(-1, 0, 0), "2006-01"
	default: // month
		cutoff, bucket = now.AddDate(0, -1, 0), "2006-01-02"
	}

	type agg struct {
		orders int
		sales  decimal.Decimal
	}
	buckets := make(map[string]*agg)
	for _, id := range s.orderIDs {
		order := s.orders[id]
		if order.CreatedAt.Before(cutoff) {
			continue
		}
		key := order.CreatedAt.Format(bucket)
		a, ok := buckets[key]
		if !ok {
			a = &agg{sales: decimal.Zero}
			buckets[key] = a
		}
		a.orders++
		a.sales = a.sales.Add(decimal.NewFromFloat(order.Total))
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]core.SalesPoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, core.SalesPoint{
			Period: key,
			Orders: buckets[key].orders,
			Sales:  buckets[key].sales.InexactFloat64(),
		})
	}
	return points, nil
}

func (s *memStore) BestSellers(ctx context.Context, limit int) ([]core.BestSeller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		name    string
		units   int
		revenue decimal.Decimal
	}
	byProduct := make(map[string]*agg)
	for _, order := range s.orders {
		for _, item := range order.Items {
			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &agg{name: item.Name, revenue: decimal.Zero}
				byProduct[item.ProductID] = a
			}
			a.units += item.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromFloat(item.Subtotal))
		}
	}

	sellers := make([]core.BestSeller, 0, len(byProduct))
	for productID, a := range byProduct {
		sellers = append(sellers, core.BestSeller{
			ProductID: productID,
			Name:      a.name,
			UnitsSold: a.units,
			Revenue:   a.revenue.InexactFloat64(),
		})
	}
	sort.Slice(sellers, func(i, j int) bool {
		if sellers[i].UnitsSold != sellers[j].UnitsSold {
			return sellers[i].UnitsSold > sellers[j].UnitsSold
		}
		return sellers[i].ProductID < sellers[j].ProductID
	})
	if limit > 0 && len(sellers) > limit {
		sellers = sellers[:limit]
	}
	return sellers, nil
}
