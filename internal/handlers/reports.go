package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jayjaytrn/refund-desk/models"
)

func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Lifecycle.Brands(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BrandsResponse{Success: true, Brands: brands})
}

// BrandDashboard accepts season, status, startDate and endDate query parameters.
func (h *Handler) BrandDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dashboard, err := h.Lifecycle.BrandDashboard(r.Context(), chi.URLParam(r, "brand"), models.DashboardQuery{
		Season:    query.Get("season"),
		Status:    query.Get("status"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BrandDashboardResponse{Success: true, BrandDashboard: dashboard})
}

func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Lifecycle.PaymentHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PaymentHistoryResponse{Success: true, PaymentHistory: history})
}
