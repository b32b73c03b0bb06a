package stores

import (
	"context"
	"time"

	"github.com/jon-the-dev/album-relay/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookStore struct {
	BaseStore
}

func NewWebhookStore(db *gorm.DB) *WebhookStore {
	return &WebhookStore{BaseStore: BaseStore{db: db}}
}

// PutIfAbsent inserts the event unless a row with the same order id already
// exists. It returns true only for the insert that won. The check and the
// write are a single statement (INSERT .. ON CONFLICT DO NOTHING), so two
// concurrent deliveries of the same event cannot both observe "absent".
func (s *WebhookStore) PutIfAbsent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	result := s.GetDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(event)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *WebhookStore) GetByOrderID(ctx context.Context, orderID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := s.GetDB(ctx).First(&event, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListPage returns up to limit events ordered newest first, plus a token for
// the next page. An empty token means the scan is complete.
func (s *WebhookStore) ListPage(ctx context.Context, pageToken string, limit int) ([]*models.WebhookEvent, string, error) {
	cursor, err := decodeCursor(pageToken)
	if err != nil {
		return nil, "", err
	}

	query := s.GetDB(ctx).Order("created_at DESC, id DESC").Limit(limit + 1)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var events []*models.WebhookEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		nextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return events, nextToken, nil
}

// DeleteExpired removes events whose expiry timestamp has passed. Rows with
// a NULL expires_at never expire.
func (s *WebhookStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.GetDB(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.WebhookEvent{})
	return result.RowsAffected, result.Error
}
