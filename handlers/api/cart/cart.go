package cart

import (
	"errors"
	"net/http"

	"overlaysnow/core"
	"overlaysnow/handlers/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	addItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}

	updateItemRequest struct {
		Quantity int `json:"quantity"`
	}
)

func userID(r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// HandleGet returns the caller's cart, creating an empty one on first access.
func HandleGet(store core.CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		cart, err := store.GetCart(r.Context(), uid)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
			}).Error("Failed to load cart")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to load cart"})
			return
		}
		render.JSON(w, r, cart)
	}
}

// HandleAddItem adds a product to the caller's cart, merging quantities for a
// product already present.
func HandleAddItem(store core.CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		var req addItemRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}
		if req.ProductID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "product_id is required"})
			return
		}
		if req.Quantity < 1 {
			req.Quantity = 1
		}

		if err := store.AddCartItem(r.Context(), uid, req.ProductID, req.Quantity); err != nil {
			if errors.Is(err, core.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Product not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"user_id":    uid,
				"product_id": req.ProductID,
			}).Error("Failed to add cart item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to add item to cart"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Item added to cart"})
	}
}

// HandleUpdateItem sets the quantity of a cart line. A quantity of zero or
// less removes the line.
func HandleUpdateItem(store core.CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		itemID := chi.URLParam(r, "itemId")
		var req updateItemRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}

		if err := store.UpdateCartItem(r.Context(), uid, itemID, req.Quantity); err != nil {
			if errors.Is(err, core.ErrCartItemNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Cart item not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
				"item_id": itemID,
			}).Error("Failed to update cart item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to update cart item"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Cart item updated"})
	}
}

// HandleRemoveItem deletes a cart line.
func HandleRemoveItem(store core.CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		itemID := chi.URLParam(r, "itemId")
		if err := store.RemoveCartItem(r.Context(), uid, itemID); err != nil {
			if errors.Is(err, core.ErrCartItemNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Cart item not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
				"item_id": itemID,
			}).Error("Failed to remove cart item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to remove cart item"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Item removed from cart"})
	}
}

// HandleClear removes every line from the caller's cart.
func HandleClear(store core.CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		if err := store.ClearCart(r.Context(), uid); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"user_id": uid,
			}).Error("Failed to clear cart")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to clear cart"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Cart cleared"})
	}
}
