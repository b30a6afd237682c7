package memory

import (
	"context"

	"overlaysnow/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var seedCategories = []*core.Category{
	{
		ID:          "cat_tshirt",
		Name:        "T-Shirts",
		Description: "Comfortable and stylish t-shirts for everyday wear",
		Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          "cat_shirt",
		Name:        "Shirts",
		Description: "Elegant shirts for formal and casual occasions",
		Image:       "https://images.unsplash.com/photo-1598033129183-c4f50c736f10?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          "cat_pants",
		Name:        "Pants",
		Description: "Comfortable and durable pants for all occasions",
		Image:       "https://images.unsplash.com/photo-1542272604-787c3835535d?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
	},
}

var seedProducts = []*core.Product{
	{
		ID:          "prod_tshirt_1",
		Name:        "Classic Cotton T-Shirt",
		Description: "A timeless classic, this comfortable 100% cotton t-shirt is perfect for everyday wear. Features a relaxed fit and soft fabric that gets better with each wash.",
		Price:       24.99,
		Category:    "cat_tshirt",
		Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       true,
		IsFeatured:  true,
		Stock:       100,
	},
	{
		ID:          "prod_tshirt_2",
		Name:        "Graphic Print T-Shirt",
		Description: "Express your unique style with our graphic print t-shirt. Made with premium cotton and featuring an original design that's sure to turn heads.",
		Price:       29.99,
		Category:    "cat_tshirt",
		Image:       "https://images.unsplash.com/photo-1554568218-0f1715e72254?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       false,
		IsFeatured:  true,
		Stock:       75,
	},
	{
		ID:          "prod_shirt_1",
		Name:        "Oxford Button-Down Shirt",
		Description: "A wardrobe essential, our Oxford button-down shirt is crafted from premium cotton with a slight texture. Perfect for both casual and semi-formal occasions.",
		Price:       59.99,
		Category:    "cat_shirt",
		Image:       "https://images.unsplash.com/photo-1598033129183-c4f50c736f10?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       true,
		IsFeatured:  false,
		Stock:       50,
	},
	{
		ID:          "prod_shirt_2",
		Name:        "Slim Fit Dress Shirt",
		Description: "Look your best with our slim fit dress shirt. Tailored to perfection with a modern cut that flatters your physique while providing comfort and ease of movement.",
		Price:       69.99,
		Category:    "cat_shirt",
		Image:       "https://images.unsplash.com/photo-1591195853828-11db59a44f6b?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       false,
		IsFeatured:  true,
		Stock:       40,
	},
	{
		ID:          "prod_pants_1",
		Name:        "Classic Chino Pants",
		Description: "Our classic chino pants offer timeless style and all-day comfort. Made from durable cotton twill with a hint of stretch for ease of movement.",
		Price:       49.99,
		Category:    "cat_pants",
		Image:       "https://images.unsplash.com/photo-1542272604-787c3835535d?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       true,
		IsFeatured:  true,
		Stock:       60,
	},
	{
		ID:          "prod_pants_2",
		Name:        "Slim Fit Jeans",
		Description: "These premium slim fit jeans combine style and comfort with just the right amount of stretch. Perfect for casual everyday wear or a night out.",
		Price:       59.99,
		Category:    "cat_pants",
		Image:       "https://images.unsplash.com/photo-1541099649105-f69ad21f3246?ixlib=rb-1.2.1&auto=format&fit=crop&w=800&q=80",
		IsNew:       false,
		IsFeatured:  false,
		Stock:       70,
	},
}

// seedUsers maps demo accounts to their plaintext passwords; hashes are
// generated at seed time.
var seedUsers = []struct {
	user     core.User
	password string
}{
	{
		user:     core.User{ID: "user_admin", Name: "Admin User", Email: "admin@example.com", IsAdmin: true},
		password: "admin123",
	},
	{
		user:     core.User{ID: "user_customer", Name: "Test Customer", Email: "customer@example.com", IsAdmin: false},
		password: "customer123",
	},
}

// NewSeededStore creates an in-memory store populated with the demo catalog
// and demo accounts.
func NewSeededStore() *memStore {
	store := NewStore()
	ctx := context.Background()

	for _, category := range seedCategories {
		cp := *category
		if err := store.SaveCategory(ctx, &cp); err != nil {
			logrus.WithError(err).Fatal("Failed to seed category")
		}
	}
	for _, product := range seedProducts {
		cp := *product
		if err := store.SaveProduct(ctx, &cp); err != nil {
			logrus.WithError(err).Fatal("Failed to seed product")
		}
	}
	for _, seed := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to hash seed password")
		}
		user := seed.user
		user.PasswordHash = string(hash)
		if err := store.CreateUser(ctx, &user); err != nil {
			logrus.WithError(err).Fatal("Failed to seed user")
		}
	}

	logrus.WithFields(logrus.Fields{
		"categories": len(seedCategories),
		"products":   len(seedProducts),
		"users":      len(seedUsers),
	}).Info("Seeded in-memory store")
	return store
}
