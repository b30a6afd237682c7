package catalog

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"overlaysnow/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleListProducts serves the paginated, filterable product listing.
func HandleListProducts(store core.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		filter := core.ProductFilter{
			Page:     page,
			Limit:    limit,
			Sort:     q.Get("sort"),
			Search:   q.Get("search"),
			Category: q.Get("category"),
		}

		listing, err := store.ListProducts(r.Context(), filter)
		if err != nil {
			logrus.WithError(err).Error("Failed to list products")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to list products"})
			return
		}
		render.JSON(w, r, listing)
	}
}

func HandleGetProduct(store core.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		product, err := store.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Product not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "product_id": id}).Error("Failed to get product")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to get product"})
			return
		}
		render.JSON(w, r, product)
	}
}

// HandleSaveProduct creates a product (empty id in the body) or updates the
// one addressed by the route.
func HandleSaveProduct(store core.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var product core.Product
		if err := render.DecodeJSON(r.Body, &product); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}
		if id := chi.URLParam(r, "id"); id != "" {
			product.ID = id
		}
		if product.Name == "" || product.Price < 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Product name and a non-negative price are required"})
			return
		}

		if err := store.SaveProduct(r.Context(), &product); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "product_id": product.ID}).Error("Failed to save product")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to save product"})
			return
		}
		render.JSON(w, r, product)
	}
}

func HandleDeleteProduct(store core.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeleteProduct(r.Context(), id); err != nil {
			if errors.Is(err, core.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Product not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "product_id": id}).Error("Failed to delete product")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to delete product"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Product deleted"})
	}
}

func HandleListCategories(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list categories")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to list categories"})
			return
		}
		if categories == nil {
			categories = []*core.Category{}
		}
		render.JSON(w, r, categories)
	}
}

func HandleGetCategory(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		category, err := store.GetCategory(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrCategoryNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Category not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "category_id": id}).Error("Failed to get category")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to get category"})
			return
		}
		render.JSON(w, r, category)
	}
}

func HandleSaveCategory(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var category core.Category
		if err := render.DecodeJSON(r.Body, &category); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Invalid request body"})
			return
		}
		if id := chi.URLParam(r, "id"); id != "" {
			category.ID = id
		}
		if category.Name == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Category name is required"})
			return
		}

		if err := store.SaveCategory(r.Context(), &category); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "category_id": category.ID}).Error("Failed to save category")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to save category"})
			return
		}
		render.JSON(w, r, category)
	}
}

func HandleDeleteCategory(store core.CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeleteCategory(r.Context(), id); err != nil {
			if errors.Is(err, core.ErrCategoryNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Category not found"})
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "category_id": id}).Error("Failed to delete category")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to delete category"})
			return
		}
		render.JSON(w, r, map[string]string{"message": "Category deleted"})
	}
}

// HandleUploadProductImage stores the request body as the product's image and
// points the product record at the served asset URL.
func HandleUploadProductImage(products core.ProductStore, assets core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		product, err := products.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"detail": "Product not found"})
				return
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to get product"})
			return
		}

		data, err := io.ReadAll(r.Body)
		if err != nil || len(data) == 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"detail": "Image body is required"})
			return
		}
		defer r.Body.Close()

		key, err := assets.PutAsset(r.Context(), r.Header.Get("Content-Type"), data)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "product_id": id}).Error("Failed to store image")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to store image"})
			return
		}

		product.Image = "/assets/" + key
		if err := products.SaveProduct(r.Context(), product); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "product_id": id}).Error("Failed to update product image")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to update product"})
			return
		}
		render.JSON(w, r, product)
	}
}

// HandleGetAsset serves a stored binary, typically a product image.
func HandleGetAsset(assets core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		asset, err := assets.GetAsset(r.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrAssetNotFound) {
				http.NotFound(w, r)
				return
			}
			logrus.WithFields(logrus.Fields{"error": err, "asset_key": key}).Error("Failed to load asset")
			http.Error(w, "Failed to load asset", http.StatusInternalServerError)
			return
		}
		if asset.ContentType != "" {
			w.Header().Set("Content-Type", asset.ContentType)
		}
		w.Write(asset.Data)
	}
}
