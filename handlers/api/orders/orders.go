package orders

import (
	"errors"
	"net/http"

	"overlaysnow/core"
	"overlaysnow/events"
	"overlaysnow/handlers/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the slice of storage the order handlers need.
type Store interface {
	core.CartStore
	core.OrderStore
}

type createOrderRequest struct {
	ShippingAddress map[string]string `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
}

// HandleCreate checks out the caller's cart: the stored cart is snapshotted
// into an order at current prices, the cart is cleared and the order event is
// published to the admin feed.
func HandleCreate(store Store, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		var req createOrderRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}
		if req.PaymentMethod == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "payment_method is required"})
			return
		}

		cart, err := store.GetCart(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "user_id": claims.Subject}).Error("Failed to load cart for checkout")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to create order"})
			return
		}
		if len(cart.Items) == 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Cart is empty"})
			return
		}

		order := &core.Order{
			UserID:          claims.Subject,
			Status:          core.OrderStatusPending,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Items:           make([]core.OrderItem, 0, len(cart.Items)),
		}
		total := decimal.Zero
		for _, line := range cart.Items {
			order.Items = append(order.Items, core.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Product.Name,
				Price:     line.Product.Price,
				Quantity:  line.Quantity,
				Subtotal:  line.Subtotal,
			})
			total = total.Add(decimal.NewFromFloat(line.Subtotal))
		}
		order.Total = total.InexactFloat64()

		if err := store.CreateOrder(r.Context(), order); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "user_id": claims.Subject}).Error("Failed to create order")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to create order"})
			return
		}
		if err := store.ClearCart(r.Context(), claims.Subject); err != nil {
			// The order exists; a stale cart is recoverable by the user.
			logrus.WithFields(logrus.Fields{"error": err, "order_id": order.ID}).Warn("Failed to clear cart after checkout")
		}

		hub.Publish(events.OrderPlaced{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Total:     order.Total,
			ItemCount: cart.CountItems(),
		})

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, order)
	}
}

// HandleList returns the caller's orders, or every order for admins.
func HandleList(store core.OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		userID := claims.Subject
		if claims.IsAdmin {
			userID = ""
		}
		orders, err := store.ListOrders(r.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "user_id": claims.Subject}).Error("Failed to list orders")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to list orders"})
			return
		}
		render.JSON(w, r, orders)
	}
}

// HandleGet returns one order. Non-admins can only see their own.
func HandleGet(store core.OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Could not validate credentials"})
			return
		}

		id := chi.URLParam(r, "id")
		order, err := store.GetOrder(r.Context(), id)
		if err == nil && order.UserID != claims.Subject && !claims.IsAdmin {
			err = core.ErrOrderNotFound
		}
		if err != nil {
			if errors.Is(err, core.ErrOrderNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Order not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "order_id": id}).Error("Failed to get order")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to get order"})
			return
		}
		render.JSON(w, r, order)
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

var validStatuses = map[string]bool{
	core.OrderStatusPending:   true,
	core.OrderStatusShipped:   true,
	core.OrderStatusDelivered: true,
	core.OrderStatusCancelled: true,
}

// HandleUpdateStatus moves an order through its lifecycle. Admin only.
func HandleUpdateStatus(store core.OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req updateStatusRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil || !validStatuses[req.Status] {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "A valid status is required"})
			return
		}

		if err := store.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
			if errors.Is(err, core.ErrOrderNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Order not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "order_id": id}).Error("Failed to update order status")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to update order"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Order updated"})
	}
}
