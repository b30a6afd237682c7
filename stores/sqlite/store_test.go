package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"overlaysnow/core"
)

func testStore(t *testing.T) *sqliteStore {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	products := []*core.Product{
		{ID: "prod_board", Name: "Powder Board", Price: 399.99, Category: "cat_boards", Stock: 10},
		{ID: "prod_jacket", Name: "Alpine Jacket", Price: 149.99, Category: "cat_apparel", Stock: 25},
	}
	for _, p := range products {
		if err := s.SaveProduct(context.Background(), p); err != nil {
			t.Fatalf("SaveProduct(%s): %v", p.ID, err)
		}
	}
	return s
}

func TestCreateUserUniqueEmail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, &core.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, &core.User{Name: "B", Email: "A@Example.com", PasswordHash: "y"})
	if !errors.Is(err, core.ErrEmailConflict) {
		t.Errorf("expected ErrEmailConflict, got %v", err)
	}
}

func TestAddCartItemUpsertsQuantity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddCartItem(ctx, "user_1", "prod_board", 1); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	if err := s.AddCartItem(ctx, "user_1", "prod_board", 2); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	cart, err := s.GetCart(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
	if cart.ItemCount != 3 {
		t.Errorf("expected item count 3, got %d", cart.ItemCount)
	}
}

func TestGetCartComputesTotals(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddCartItem(ctx, "user_1", "prod_jacket", 2); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	cart, err := s.GetCart(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart.Items[0].Subtotal != 299.98 || cart.Total != 299.98 {
		t.Errorf("unexpected totals %+v", cart)
	}
	if cart.Items[0].Product.Name != "Alpine Jacket" {
		t.Errorf("expected product joined in, got %+v", cart.Items[0].Product)
	}
}

func TestUpdateCartItemRemovesAtZero(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddCartItem(ctx, "user_1", "prod_board", 2); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	cart, _ := s.GetCart(ctx, "user_1")

	if err := s.UpdateCartItem(ctx, "user_1", cart.Items[0].ID, 0); err != nil {
		t.Fatalf("UpdateCartItem: %v", err)
	}
	cart, _ = s.GetCart(ctx, "user_1")
	if len(cart.Items) != 0 {
		t.Errorf("expected line removed, got %d lines", len(cart.Items))
	}
}

func TestUpdateCartItemUnknownLine(t *testing.T) {
	s := testStore(t)
	err := s.UpdateCartItem(context.Background(), "user_1", "item_missing", 2)
	if !errors.Is(err, core.ErrCartItemNotFound) {
		t.Errorf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestClearCartEmptiesOnlyThatUser(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddCartItem(ctx, "user_1", "prod_board", 1); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	if err := s.AddCartItem(ctx, "user_2", "prod_jacket", 1); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	if err := s.ClearCart(ctx, "user_1"); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}

	cart, _ := s.GetCart(ctx, "user_1")
	if len(cart.Items) != 0 {
		t.Errorf("expected user_1 cart cleared, got %d lines", len(cart.Items))
	}
	other, _ := s.GetCart(ctx, "user_2")
	if len(other.Items) != 1 {
		t.Errorf("expected user_2 cart intact, got %d lines", len(other.Items))
	}
}

func TestCreateOrderRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order := &core.Order{
		UserID: "user_1",
		Items: []core.OrderItem{
			{ProductID: "prod_board", Name: "Powder Board", Price: 399.99, Quantity: 1, Subtotal: 399.99},
		},
		Total:           399.99,
		Status:          core.OrderStatusPending,
		ShippingAddress: map[string]string{"city": "Innsbruck", "zip": "6020"},
		PaymentMethod:   "card",
	}
	if err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected an assigned order id")
	}

	got, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Total != 399.99 || got.Status != core.OrderStatusPending {
		t.Errorf("unexpected order %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != "prod_board" {
		t.Errorf("unexpected items %+v", got.Items)
	}
	if got.ShippingAddress["city"] != "Innsbruck" {
		t.Errorf("unexpected shipping address %+v", got.ShippingAddress)
	}

	if err := s.UpdateOrderStatus(ctx, order.ID, core.OrderStatusShipped); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	got, _ = s.GetOrder(ctx, order.ID)
	if got.Status != core.OrderStatusShipped {
		t.Errorf("expected shipped, got %s", got.Status)
	}
}

func TestListProductsSearchAndPaging(t *testing.T) {
	s := testStore(t)

	page, err := s.ListProducts(context.Background(), core.ProductFilter{Search: "jacket"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.TotalItems != 1 || page.Items[0].ID != "prod_jacket" {
		t.Errorf("unexpected result %+v", page)
	}

	page, err = s.ListProducts(context.Background(), core.ProductFilter{Page: 5, Limit: 1})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.Page != 2 || page.TotalPages != 2 {
		t.Errorf("expected page clamped to the last page, got %+v", page)
	}
}
