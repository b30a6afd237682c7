package core

import (
	"context"
	"errors"
)

var (
	// ErrCartItemNotFound is returned when an item id does not exist in the user's cart.
	ErrCartItemNotFound = errors.New("cart item not found")
)

type (
	// ProductSnapshot holds the denormalized display fields of a product as of
	// the last cart read. It may go stale relative to the live product record;
	// the cart is re-priced from the catalog on every fetch.
	ProductSnapshot struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
		Image string  `json:"image"`
	}

	// CartLine is one product-quantity entry in a cart. The line id is stable
	// across quantity changes and distinct from the product id.
	CartLine struct {
		ID        string          `json:"id"`
		ProductID string          `json:"product_id"`
		Product   ProductSnapshot `json:"product"`
		Quantity  int             `json:"quantity"`
		Subtotal  float64         `json:"subtotal"`
	}

	// Cart is the wholesale-replaceable view of a user's cart. Items and Total
	// always come from the same server response; nothing here is patched
	// field-by-field.
	Cart struct {
		ID        string     `json:"id,omitempty"`
		Items     []CartLine `json:"items"`
		Total     float64    `json:"total"`
		ItemCount int        `json:"itemCount,omitempty"`
	}

	// CartStore defines the persistence layer for carts. All operations are
	// scoped to a user; a cart is created lazily on first access.
	CartStore interface {
		// GetCart returns the user's cart, priced against the current catalog.
		GetCart(ctx context.Context, userID string) (*Cart, error)

		// AddCartItem adds quantity of a product, merging onto an existing
		// line for the same product if one exists.
		AddCartItem(ctx context.Context, userID, productID string, quantity int) error

		// UpdateCartItem sets the quantity of an existing line. A quantity of
		// zero or less removes the line.
		UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error

		// RemoveCartItem deletes a line from the cart.
		RemoveCartItem(ctx context.Context, userID, itemID string) error

		// ClearCart removes every line from the user's cart.
		ClearCart(ctx context.Context, userID string) error
	}
)

// EmptyCart returns the canonical empty cart value.
func EmptyCart() *Cart {
	return &Cart{Items: []CartLine{}, Total: 0}
}

// CountItems sums the quantities across all lines.
func (c *Cart) CountItems() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, line := range c.Items {
		n += line.Quantity
	}
	return n
}

// Clone returns a deep copy so observers cannot mutate the owner's snapshot.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = make([]CartLine, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
