package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jon-the-dev/album-relay/models"
)

// ClientDirectory is the client-management surface the handler exposes.
type ClientDirectory interface {
	CreateClient(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context, pageToken string, limit int) ([]*models.Client, string, error)
}

type ClientHandler struct {
	clients ClientDirectory
}

func NewClientHandler(clients ClientDirectory) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	client, err := h.clients.CreateClient(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateClientResponse{
		ClientID: client.ID,
		Message:  "client created",
	})
}

func (h *ClientHandler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["id"]

	client, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	token, limit := pageParams(r)

	clients, nextToken, err := h.clients.ListClients(r.Context(), token, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:         clients,
		NextPageToken: nextToken,
	})
}
