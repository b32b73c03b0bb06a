package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/services"
)

// Deliverer runs the zip-and-deliver pipeline on demand.
type Deliverer interface {
	Deliver(ctx context.Context, req *services.DeliveryRequest) (*models.AlbumDelivery, error)
}

// DeliveryLister pages through past deliveries.
type DeliveryLister interface {
	ListPage(ctx context.Context, pageToken string, limit int) ([]*models.AlbumDelivery, string, error)
}

type AlbumHandler struct {
	deliverer Deliverer
	lister    DeliveryLister
}

func NewAlbumHandler(deliverer Deliverer, lister DeliveryLister) *AlbumHandler {
	return &AlbumHandler{
		deliverer: deliverer,
		lister:    lister,
	}
}

// HandleZipAlbum packages an album and mails the download link. The request
// is synchronous: the response carries the link once the archive is stored.
func (h *AlbumHandler) HandleZipAlbum(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ZipAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	delivery, err := h.deliverer.Deliver(r.Context(), &services.DeliveryRequest{
		ClientName: req.ClientName,
		AlbumName:  req.AlbumName,
		Email:      req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ZipAlbumResponse{
		Message:      "album packaged",
		AlbumID:      delivery.ID,
		DownloadLink: delivery.DownloadLink,
	})
}

func (h *AlbumHandler) HandleListDeliveries(w http.ResponseWriter, r *http.Request) {
	token, limit := pageParams(r)

	deliveries, nextToken, err := h.lister.ListPage(r.Context(), token, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:         deliveries,
		NextPageToken: nextToken,
	})
}
