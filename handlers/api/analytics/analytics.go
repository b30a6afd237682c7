package analytics

import (
	"net/http"
	"strconv"

	"overlaysnow/core"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleSales serves the sales-over-time series for the admin dashboard.
// Supported periods are "week", "month" (default) and "year".
func HandleSales(store core.OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = "month"
		}

		points, err := store.SalesByPeriod(r.Context(), period)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "period": period}).Error("Failed to aggregate sales")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to aggregate sales"})
			return
		}
		render.JSON(w, r, points)
	}
}

// HandleBestSellers serves the units-sold ranking.
func HandleBestSellers(store core.OrderStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 {
			limit = 5
		}

		sellers, err := store.BestSellers(r.Context(), limit)
		if err != nil {
			logrus.WithError(err).Error("Failed to rank best sellers")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"detail": "Failed to rank best sellers"})
			return
		}
		render.JSON(w, r, sellers)
	}
}
