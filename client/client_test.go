package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"overlaysnow/core"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(core.EmptyCart())
	}))
	defer srv.Close()

	gate := NewSessionGate()
	gate.SetToken("abc123")
	c := New(srv.URL, gate)

	if _, err := c.GetCart(context.Background()); err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientOmitsAuthWhenAnonymous(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]core.Category{})
	}))
	defer srv.Close()

	c := New(srv.URL, NewSessionGate())
	if _, err := c.Categories(context.Background()); err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClientExtractsDetailFromErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Product not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Product(context.Background(), "prod_missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "Product not found" {
		t.Errorf("expected detail from body, got %q", apiErr.Detail)
	}
}

func TestClientFallsBackToGenericDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.ClearCart(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Detail != genericErrorDetail {
		t.Errorf("expected generic detail, got %q", apiErr.Detail)
	}
}

func TestClientDecodesCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "cart_1",
			"items": []map[string]any{
				{
					"id":         "item_1",
					"product_id": "prod_1",
					"product":    map[string]any{"id": "prod_1", "name": "Alpine Jacket", "price": 149.99},
					"quantity":   2,
					"subtotal":   299.98,
				},
			},
			"total":     299.98,
			"itemCount": 2,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	cart, err := c.GetCart(context.Background())
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart.ID != "cart_1" || len(cart.Items) != 1 {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if cart.Items[0].Product.Name != "Alpine Jacket" || cart.Items[0].Quantity != 2 {
		t.Errorf("unexpected line %+v", cart.Items[0])
	}
	if cart.Total != 299.98 || cart.ItemCount != 2 {
		t.Errorf("unexpected totals %+v", cart)
	}
}

func TestClientEncodesProductFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(core.ProductPage{})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Products(context.Background(), core.ProductFilter{
		Page: 2, Limit: 12, Sort: core.SortPriceLow, Search: "jacket", Category: "cat_apparel",
	})
	if err != nil {
		t.Fatalf("Products: %v", err)
	}

	want := "category=cat_apparel&limit=12&page=2&search=jacket&sort=" + core.SortPriceLow
	if gotQuery != want {
		t.Errorf("expected query %q, got %q", want, gotQuery)
	}
}

func TestSessionGateNotifiesWatchers(t *testing.T) {
	gate := NewSessionGate()
	var states []bool
	gate.OnChange(func(authenticated bool) { states = append(states, authenticated) })

	gate.SetToken("tok")
	gate.SetToken("tok2")
	gate.Clear()

	want := []bool{true, true, false}
	if len(states) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("notification %d: expected %v, got %v", i, want[i], states[i])
		}
	}
	if gate.Authenticated() {
		t.Error("expected gate to be anonymous after Clear")
	}
}
