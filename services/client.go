package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/utils"
)

// ClientRegistry is the slice of the client store the service needs.
type ClientRegistry interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	ListPage(ctx context.Context, pageToken string, limit int) ([]*models.Client, string, error)
}

type ClientService struct {
	clients ClientRegistry
}

func NewClientService(clients ClientRegistry) *ClientService {
	return &ClientService{clients: clients}
}

// CreateClient validates the request and persists a new client record.
// Validation runs before the store is touched so a malformed request never
// produces a partial write.
func (s *ClientService) CreateClient(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	if verr := utils.ValidateString(req.Name, "client_name", 1, 200, true); verr != nil {
		return nil, utils.ErrMissingFields
	}
	if verr := utils.ValidateEmail(req.Email, "email"); verr != nil {
		return nil, utils.ErrInvalidEmail
	}

	client := &models.Client{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, utils.WrapError(err, "failed to create client")
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context, pageToken string, limit int) ([]*models.Client, string, error) {
	return s.clients.ListPage(ctx, pageToken, limit)
}
