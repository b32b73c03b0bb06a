package stores

import (
	"context"
	"time"

	"github.com/jon-the-dev/album-relay/models"
	"gorm.io/gorm"
)

type AlbumStore struct {
	BaseStore
}

func NewAlbumStore(db *gorm.DB) *AlbumStore {
	return &AlbumStore{BaseStore: BaseStore{db: db}}
}

func (s *AlbumStore) Create(ctx context.Context, delivery *models.AlbumDelivery) error {
	return s.GetDB(ctx).Create(delivery).Error
}

func (s *AlbumStore) GetByID(ctx context.Context, id string) (*models.AlbumDelivery, error) {
	var delivery models.AlbumDelivery
	if err := s.GetDB(ctx).First(&delivery, "album_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (s *AlbumStore) Update(ctx context.Context, delivery *models.AlbumDelivery) error {
	return s.GetDB(ctx).Save(delivery).Error
}

func (s *AlbumStore) ListPage(ctx context.Context, pageToken string, limit int) ([]*models.AlbumDelivery, string, error) {
	cursor, err := decodeCursor(pageToken)
	if err != nil {
		return nil, "", err
	}

	query := s.GetDB(ctx).Order("created_at DESC, album_id DESC").Limit(limit + 1)
	if cursor != nil {
		query = query.Where("(created_at, album_id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var deliveries []*models.AlbumDelivery
	if err := query.Find(&deliveries).Error; err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(deliveries) > limit {
		deliveries = deliveries[:limit]
		last := deliveries[len(deliveries)-1]
		nextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return deliveries, nextToken, nil
}

// DeleteExpired removes deliveries whose download link has lapsed. The
// archive itself is cleaned up by the bucket lifecycle rule, not here.
func (s *AlbumStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.GetDB(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.AlbumDelivery{})
	return result.RowsAffected, result.Error
}
