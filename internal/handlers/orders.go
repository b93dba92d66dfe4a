package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/models"
)

func (h *Handler) ImportOrder(w http.ResponseWriter, r *http.Request) {
	var in models.NewOrder
	if !h.decodeJSON(w, r, &in) {
		return
	}

	order, err := h.Lifecycle.Import(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.OrderResponse{Success: true, Order: order})
}

func (h *Handler) AllotOrder(w http.ResponseWriter, r *http.Request) {
	var req models.AllotRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.Allotter.Allot(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OrderResponse{Success: true, Message: "Order allotted successfully", Order: order})
}

// BulkAllot answers with the ids that blocked the batch so the admin can retry without them.
func (h *Handler) BulkAllot(w http.ResponseWriter, r *http.Request) {
	var req models.BulkAllotRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	modified, err := h.Allotter.BulkAllot(r.Context(), req)
	if err != nil {
		var conflict *apperrors.ConflictError
		var notFound *apperrors.NotFoundError
		switch {
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, models.BulkAllotResponse{
				Message:           "Some orders are already allotted",
				AlreadyAllotedIDs: conflict.IDs,
			})
		case errors.As(err, &notFound):
			writeJSON(w, http.StatusNotFound, models.BulkAllotResponse{
				Message:    "Some orders do not exist",
				MissingIDs: notFound.IDs,
			})
		default:
			h.writeError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, models.BulkAllotResponse{
		Success:       true,
		Message:       "Orders allotted successfully",
		ModifiedCount: modified,
	})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	var placement models.Placement
	if !h.decodeJSON(w, r, &placement) {
		return
	}

	order, err := h.Lifecycle.Place(r.Context(), identity.UserID, chi.URLParam(r, "id"), placement)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OrderResponse{Success: true, Message: "Order placed", Order: order})
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Lifecycle.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.OrderResponse{Success: true, Message: "Order confirmed", Order: order})
}

func (h *Handler) UserOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	orders, err := h.Lifecycle.Orders(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeJSON(w, http.StatusOK, models.OrdersResponse{Success: true, Orders: orders})
}
