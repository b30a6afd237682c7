package client

import (
	"context"
	"errors"
	"sync"

	"overlaysnow/core"
)

// ErrNoProduct is returned by AddItem when no product id is supplied. The
// check happens before any network traffic.
var ErrNoProduct = errors.New("product id is required")

// CartService is the remote cart contract the synchronizer runs against.
// *Client satisfies it; tests substitute an in-memory fake.
type CartService interface {
	GetCart(ctx context.Context) (*core.Cart, error)
	AddCartItem(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// Notifier receives the user-facing side effects of cart operations. Success
// fires for add, remove and clear (quantity updates stay silent); Failure
// fires for every failed load or mutation.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Failure(string) {}

// User-facing cart messages.
const (
	msgItemAdded    = "Item added to cart!"
	msgItemRemoved  = "Item removed from cart"
	msgCartCleared  = "Cart cleared"
	msgCartLoadFail = "Failed to load your cart"
)

// CartSynchronizer owns a local snapshot of the server-authoritative cart.
// The server is the single source of truth: every successful mutation is
// followed by an unconditional full re-fetch, and the snapshot is replaced
// wholesale with whatever comes back. Nothing is patched locally; a failed
// step leaves the snapshot exactly as it was.
//
// Operations are single-flight: one mutex serializes every state-changing
// call per synchronizer, so a re-fetch can never interleave with another
// mutation on the same instance. Reads (Cart, ItemCount) take a separate
// read lock and observe the previous snapshot while an operation is in
// flight.
type CartSynchronizer struct {
	opMu sync.Mutex // serializes SetAuthenticated and all mutations

	stateMu  sync.RWMutex
	snapshot *core.Cart

	service CartService
	notify  Notifier
}

// NewCartSynchronizer starts with an empty snapshot. A nil notifier is
// replaced with NopNotifier.
func NewCartSynchronizer(service CartService, notify Notifier) *CartSynchronizer {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &CartSynchronizer{
		snapshot: core.EmptyCart(),
		service:  service,
		notify:   notify,
	}
}

// Bind subscribes the synchronizer to a session gate: authentication turning
// on triggers an initial load, turning off resets the snapshot.
func (s *CartSynchronizer) Bind(gate *SessionGate) {
	gate.OnChange(func(authenticated bool) {
		s.SetAuthenticated(context.Background(), authenticated)
	})
}

// SetAuthenticated reacts to the session signal. On true the server cart is
// fetched and installed; a failed fetch is swallowed after a failure
// notification, keeping the previous snapshot. On false the snapshot is
// reset to the canonical empty cart without touching the server. Repeated
// calls with the same value are harmless.
func (s *CartSynchronizer) SetAuthenticated(ctx context.Context, authenticated bool) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !authenticated {
		s.replace(core.EmptyCart())
		return
	}

	cart, err := s.service.GetCart(ctx)
	if err != nil {
		s.notify.Failure(msgCartLoadFail)
		return
	}
	s.replace(cart)
}

// Refresh re-fetches the server cart and replaces the snapshot. Unlike
// SetAuthenticated, the error propagates to the caller.
func (s *CartSynchronizer) Refresh(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.refetch(ctx)
}

// AddItem sends an add mutation for productID, then re-fetches. A quantity
// below 1 is treated as 1. Failures leave the snapshot untouched and are
// returned after a failure notification.
func (s *CartSynchronizer) AddItem(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return ErrNoProduct
	}
	if quantity < 1 {
		quantity = 1
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.service.AddCartItem(ctx, productID, quantity); err != nil {
		s.notify.Failure(err.Error())
		return err
	}
	if err := s.refetch(ctx); err != nil {
		return err
	}
	s.notify.Success(msgItemAdded)
	return nil
}

// UpdateItem sets the quantity of an existing cart line, then re-fetches.
// A quantity of 0 or less is rejected before any network call and the
// snapshot stays as-is. Successful updates emit no notification.
func (s *CartSynchronizer) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.service.UpdateCartItem(ctx, itemID, quantity); err != nil {
		s.notify.Failure(err.Error())
		return err
	}
	return s.refetch(ctx)
}

// RemoveItem deletes a cart line, then re-fetches.
func (s *CartSynchronizer) RemoveItem(ctx context.Context, itemID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.service.RemoveCartItem(ctx, itemID); err != nil {
		s.notify.Failure(err.Error())
		return err
	}
	if err := s.refetch(ctx); err != nil {
		return err
	}
	s.notify.Success(msgItemRemoved)
	return nil
}

// Clear empties the server cart. This is the one mutation that skips the
// re-fetch: on success the snapshot is set straight to the empty cart, since
// the result is known.
func (s *CartSynchronizer) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.service.ClearCart(ctx); err != nil {
		s.notify.Failure(err.Error())
		return err
	}
	s.replace(core.EmptyCart())
	s.notify.Success(msgCartCleared)
	return nil
}

// Cart returns a deep copy of the current snapshot. Callers may mutate the
// copy freely without affecting the synchronizer.
func (s *CartSynchronizer) Cart() *core.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.Clone()
}

// ItemCount is the total quantity across all lines, recomputed from the
// snapshot on every call.
func (s *CartSynchronizer) ItemCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot.CountItems()
}

// refetch is called with opMu held.
func (s *CartSynchronizer) refetch(ctx context.Context) error {
	cart, err := s.service.GetCart(ctx)
	if err != nil {
		s.notify.Failure(err.Error())
		return err
	}
	s.replace(cart)
	return nil
}

func (s *CartSynchronizer) replace(cart *core.Cart) {
	s.stateMu.Lock()
	s.snapshot = cart
	s.stateMu.Unlock()
}
