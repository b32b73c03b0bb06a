package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jon-the-dev/album-relay/models"
)

// OrderDirectory is the read-only view over processed webhook events the
// admin endpoints expose.
type OrderDirectory interface {
	GetOrder(ctx context.Context, orderID string) (*models.WebhookEvent, error)
	ListOrders(ctx context.Context, pageToken string, limit int) ([]*models.WebhookEvent, string, error)
}

type OrderHandler struct {
	orders OrderDirectory
}

func NewOrderHandler(orders OrderDirectory) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	event, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleListOrders returns processed events newest first, one keyset page at
// a time.
func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	token, limit := pageParams(r)

	events, nextToken, err := h.orders.ListOrders(r.Context(), token, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:         events,
		NextPageToken: nextToken,
	})
}
