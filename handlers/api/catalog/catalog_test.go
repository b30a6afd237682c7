package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"overlaysnow/core"
	"overlaysnow/stores/filesystem"
	"overlaysnow/stores/memory"

	"github.com/go-chi/chi/v5"
)

func catalogRouter(store interface {
	core.ProductStore
	core.CategoryStore
}, assets core.AssetStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/products", HandleListProducts(store))
	r.Get("/products/{id}", HandleGetProduct(store))
	r.Post("/products", HandleSaveProduct(store))
	r.Put("/products/{id}", HandleSaveProduct(store))
	r.Delete("/products/{id}", HandleDeleteProduct(store))
	r.Post("/products/{id}/image", HandleUploadProductImage(store, assets))
	r.Get("/categories", HandleListCategories(store))
	r.Get("/assets/{key}", HandleGetAsset(assets))
	return r
}

func seedProduct(t *testing.T, store core.ProductStore) *core.Product {
	t.Helper()
	p := &core.Product{ID: "prod_board", Name: "Powder Board", Price: 399.99, Category: "cat_boards"}
	if err := store.SaveProduct(context.Background(), p); err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	return p
}

func TestHandleListProductsParsesQuery(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodGet, "/products?page=1&limit=5&search=powder&sort=price_low", nil)
	catalogRouter(store, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page core.ProductPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Limit != 5 || page.TotalItems != 1 {
		t.Errorf("unexpected page %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "prod_board" {
		t.Errorf("unexpected items %+v", page.Items)
	}
}

func TestHandleGetProductNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/prod_missing", nil)

	catalogRouter(memory.NewStore(), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Product not found") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandleSaveProductCreateAndUpdate(t *testing.T) {
	store := memory.NewStore()
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"name":"Storm Goggles","price":79.99,"category":"cat_gear"}`))
	catalogRouter(store, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created core.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned product id")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/products/"+created.ID,
		strings.NewReader(`{"name":"Storm Goggles","price":69.99,"category":"cat_gear"}`))
	catalogRouter(store, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got, err := store.GetProduct(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Price != 69.99 {
		t.Errorf("expected updated price, got %v", got.Price)
	}
}

func TestUploadImageStoresAssetAndLinksProduct(t *testing.T) {
	store := memory.NewStore()
	assets := filesystem.NewStore(t.TempDir())
	product := seedProduct(t, store)
	router := catalogRouter(store, assets)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/"+product.ID+"/image",
		bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}))
	req.Header.Set("Content-Type", "image/png")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated core.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if !strings.HasPrefix(updated.Image, "/assets/") {
		t.Fatalf("expected image under /assets/, got %q", updated.Image)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, updated.Image, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected asset to be served, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("expected image/png, got %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("unexpected asset bytes %v", rec.Body.Bytes())
	}
}

func TestUploadImageUnknownProduct(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/prod_missing/image", bytes.NewReader([]byte{1}))

	catalogRouter(memory.NewStore(), filesystem.NewStore(t.TempDir())).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
