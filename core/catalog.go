package core

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Sort orders accepted by product listing.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortPopular   = "popular"
)

type (
	Product struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Image       string  `json:"image"`
		IsNew       bool    `json:"isNew"`
		IsFeatured  bool    `json:"isFeatured"`
		Stock       int     `json:"stock"`
	}

	Category struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       string `json:"image"`
	}

	// ProductFilter narrows and orders a product listing.
	ProductFilter struct {
		Page     int
		Limit    int
		Sort     string
		Search   string
		Category string
	}

	// ProductPage is the paginated listing envelope.
	ProductPage struct {
		Items      []*Product `json:"items"`
		Page       int        `json:"page"`
		Limit      int        `json:"limit"`
		TotalItems int        `json:"totalItems"`
		TotalPages int        `json:"totalPages"`
	}

	ProductStore interface {
		ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error)
		GetProduct(ctx context.Context, id string) (*Product, error)
		SaveProduct(ctx context.Context, product *Product) error
		DeleteProduct(ctx context.Context, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]*Category, error)
		GetCategory(ctx context.Context, id string) (*Category, error)
		SaveCategory(ctx context.Context, category *Category) error
		DeleteCategory(ctx context.Context, id string) error
	}
)

// Snapshot captures the display fields carried on a cart line.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
	}
}
