package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"time"

	"overlaysnow/core"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			image TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			price REAL NOT NULL,
			category TEXT,
			image TEXT,
			is_new INTEGER NOT NULL DEFAULT 0,
			is_featured INTEGER NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id TEXT PRIMARY KEY,
			id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			UNIQUE (user_id, product_id)
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			total REAL NOT NULL,
			status TEXT NOT NULL,
			shipping_address TEXT,
			payment_method TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			subtotal REAL NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("failed to create schema: %v", err)
		}
	}

	return &sqliteStore{db}
}

// UserStore implementation

func (s *sqliteStore) CreateUser(ctx context.Context, user *core.User) error {
	if user.ID == "" {
		user.ID = "user_" + ulid.Make().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrEmailConflict
		}
		logrus.WithError(err).Error("Failed to create user")
		return err
	}
	return nil
}

func (s *sqliteStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	var user core.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, is_admin, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *sqliteStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var user core.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, is_admin, created_at FROM users WHERE email = ?",
		strings.ToLower(email)).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CategoryStore implementation

func (s *sqliteStore) ListCategories(ctx context.Context) ([]*core.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description, image FROM categories ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*core.Category
	for rows.Next() {
		var category core.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.Image); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (s *sqliteStore) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	var category core.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, image FROM categories WHERE id = ?", id).
		Scan(&category.ID, &category.Name, &category.Description, &category.Image)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (s *sqliteStore) SaveCategory(ctx context.Context, category *core.Category) error {
	if category.ID == "" {
		category.ID = "cat_" + ulid.Make().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, image) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, description = excluded.description, image = excluded.image`,
		category.ID, category.Name, category.Description, category.Image)
	return err
}

func (s *sqliteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// ProductStore implementation

func (s *sqliteStore) ListProducts(ctx context.Context, filter core.ProductFilter) (*core.ProductPage, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	var totalItems int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 12
	}
	totalPages := (totalItems + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	orderBy := " ORDER BY rowid"
	switch filter.Sort {
	case core.SortPriceLow:
		orderBy = " ORDER BY price ASC, rowid"
	case core.SortPriceHigh:
		orderBy = " ORDER BY price DESC, rowid"
	}

	query := "SELECT id, name, description, price, category, image, is_new, is_featured, stock FROM products" +
		where + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*core.Product{}
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.IsNew, &p.IsFeatured, &p.Stock); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &core.ProductPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *sqliteStore) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	var p core.Product
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, price, category, image, is_new, is_featured, stock FROM products WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.IsNew, &p.IsFeatured, &p.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *sqliteStore) SaveProduct(ctx context.Context, product *core.Product) error {
	if product.ID == "" {
		product.ID = "prod_" + ulid.Make().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, image, is_new, is_featured, stock)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, description = excluded.description, price = excluded.price,
			category = excluded.category, image = excluded.image, is_new = excluded.is_new,
			is_featured = excluded.is_featured, stock = excluded.stock`,
		product.ID, product.Name, product.Description, product.Price, product.Category,
		product.Image, product.IsNew, product.IsFeatured, product.Stock)
	return err
}

func (s *sqliteStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrProductNotFound
	}
	return nil
}

// CartStore implementation

// ensureCart returns the cart id for the user, creating the row on first use.
func (s *sqliteStore) ensureCart(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err == sql.ErrNoRows {
		cartID = "cart_" + ulid.Make().String()
		_, err = s.db.ExecContext(ctx, "INSERT INTO carts (user_id, id) VALUES (?, ?)", userID, cartID)
	}
	if err != nil {
		return "", err
	}
	return cartID, nil
}

func (s *sqliteStore) GetCart(ctx context.Context, userID string) (*core.Cart, error) {
	cartID, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.product_id, ci.quantity, p.name, p.price, p.image
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = ? ORDER BY ci.rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := &core.Cart{ID: cartID, Items: []core.CartLine{}}
	total := decimal.Zero
	for rows.Next() {
		var line core.CartLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.Product.Name, &line.Product.Price, &line.Product.Image); err != nil {
			return nil, err
		}
		line.Product.ID = line.ProductID
		subtotal := decimal.NewFromFloat(line.Product.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))
		line.Subtotal = subtotal.InexactFloat64()
		total = total.Add(subtotal)
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	cart.Total = total.InexactFloat64()
	cart.ItemCount = cart.CountItems()
	return cart, nil
}

func (s *sqliteStore) AddCartItem(ctx context.Context, userID, productID string, quantity int) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", productID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return core.ErrProductNotFound
		}
		return err
	}
	if _, err := s.ensureCart(ctx, userID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		"item_"+ulid.Make().String(), userID, productID, quantity)
	return err
}

func (s *sqliteStore) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveCartItem(ctx, userID, itemID)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?", quantity, itemID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrCartItemNotFound
	}
	return nil
}

func (s *sqliteStore) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = ? AND user_id = ?", itemID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrCartItemNotFound
	}
	return nil
}

func (s *sqliteStore) ClearCart(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return err
}

// OrderStore implementation

func (s *sqliteStore) CreateOrder(ctx context.Context, order *core.Order) error {
	if order.ID == "" {
		order.ID = "order_" + ulid.Make().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, total, status, shipping_address, payment_method, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		order.ID, order.UserID, order.Total, order.Status, string(address), order.PaymentMethod, order.CreatedAt)
	if err != nil {
		return err
	}
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, name, price, quantity, subtotal) VALUES (?, ?, ?, ?, ?, ?)",
			order.ID, item.ProductID, item.Name, item.Price, item.Quantity, item.Subtotal)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) scanOrder(ctx context.Context, row *sql.Row) (*core.Order, error) {
	var order core.Order
	var address string
	err := row.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &address, &order.PaymentMethod, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrOrderNotFound
		}
		return nil, err
	}
	if address != "" {
		if err := json.Unmarshal([]byte(address), &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if err := s.loadOrderItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *sqliteStore) loadOrderItems(ctx context.Context, order *core.Order) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, name, price, quantity, subtotal FROM order_items WHERE order_id = ? ORDER BY rowid", order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = []core.OrderItem{}
	for rows.Next() {
		var item core.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Subtotal); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (s *sqliteStore) ListOrders(ctx context.Context, userID string) ([]*core.Order, error) {
	query := "SELECT id, user_id, total, status, shipping_address, payment_method, created_at FROM orders"
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*core.Order{}
	for rows.Next() {
		var order core.Order
		var address string
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &address, &order.PaymentMethod, &order.CreatedAt); err != nil {
			return nil, err
		}
		if address != "" {
			if err := json.Unmarshal([]byte(address), &order.ShippingAddress); err != nil {
				return nil, err
			}
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := s.loadOrderItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *sqliteStore) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, total, status, shipping_address, payment_method, created_at FROM orders WHERE id = ?", id)
	return s.scanOrder(ctx, row)
}

func (s *sqliteStore) UpdateOrderStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrOrderNotFound
	}
	return nil
}

func (s *sqliteStore) SalesByPeriod(ctx context.Context, period string) ([]core.SalesPoint, error) {
	var cutoff time.Time
	var format string
	now := time.Now()
	switch period {
	case "week":
		cutoff, format = now.AddDate(0, 0, -7), "2006-01-02"
	case "year":
		cutoff, format = now.AddDate(-1, 0, 0), "2006-01"
	default: // month
		cutoff, format = now.AddDate(0, -1, 0), "2006-01-02"
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT created_at, total FROM orders WHERE created_at >= ? ORDER BY created_at", cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type agg struct {
		orders int
		sales  decimal.Decimal
	}
	buckets := make(map[string]*agg)
	var keys []string
	for rows.Next() {
		var createdAt time.Time
		var total float64
		if err := rows.Scan(&createdAt, &total); err != nil {
			return nil, err
		}
		key := createdAt.Format(format)
		a, ok := buckets[key]
		if !ok {
			a = &agg{sales: decimal.Zero}
			buckets[key] = a
			keys = append(keys, key)
		}
		a.orders++
		a.sales = a.sales.Add(decimal.NewFromFloat(total))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

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

func (s *sqliteStore) BestSellers(ctx context.Context, limit int) ([]core.BestSeller, error) {
	if limit < 1 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, name, SUM(quantity) AS units, SUM(subtotal) AS revenue
		 FROM order_items GROUP BY product_id, name
		 ORDER BY units DESC, product_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sellers := []core.BestSeller{}
	for rows.Next() {
		var seller core.BestSeller
		if err := rows.Scan(&seller.ProductID, &seller.Name, &seller.UnitsSold, &seller.Revenue); err != nil {
			return nil, err
		}
		sellers = append(sellers, seller)
	}
	return sellers, rows.Err()
}
