package stores

import (
	"context"

	"github.com/jon-the-dev/album-relay/models"
	"gorm.io/gorm"
)

type ClientStore struct {
	BaseStore
}

func NewClientStore(db *gorm.DB) *ClientStore {
	return &ClientStore{BaseStore: BaseStore{db: db}}
}

func (s *ClientStore) Create(ctx context.Context, client *models.Client) error {
	return s.GetDB(ctx).Create(client).Error
}

func (s *ClientStore) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.GetDB(ctx).First(&client, "client_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *ClientStore) ListPage(ctx context.Context, pageToken string, limit int) ([]*models.Client, string, error) {
	cursor, err := decodeCursor(pageToken)
	if err != nil {
		return nil, "", err
	}

	query := s.GetDB(ctx).Order("created_at DESC, client_id DESC").Limit(limit + 1)
	if cursor != nil {
		query = query.Where("(created_at, client_id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var clients []*models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(clients) > limit {
		clients = clients[:limit]
		last := clients[len(clients)-1]
		nextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return clients, nextToken, nil
}
