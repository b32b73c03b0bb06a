package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/utils"
)

// OrderLedger is the read surface over persisted webhook events.
type OrderLedger interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.WebhookEvent, error)
	ListPage(ctx context.Context, pageToken string, limit int) ([]*models.WebhookEvent, string, error)
}

// OrderCache is an optional read-through cache in front of single-order
// lookups. The admin dashboard polls the same handful of orders; the cache
// keeps those reads off the database.
type OrderCache interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type OrderService struct {
	ledger   OrderLedger
	cache    OrderCache
	cacheTTL time.Duration
	logger   *utils.Logger
}

func NewOrderService(ledger OrderLedger, cache OrderCache, cacheTTL time.Duration) *OrderService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &OrderService{
		ledger:   ledger,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   utils.NewLogger("orders"),
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.WebhookEvent, error) {
	cacheKey := "order:" + orderID

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var event models.WebhookEvent
			if err := json.Unmarshal([]byte(cached), &event); err == nil {
				return &event, nil
			}
		}
	}

	event, err := s.ledger.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, utils.WrapError(err, "order lookup failed")
	}

	if s.cache != nil {
		if data, err := json.Marshal(event); err == nil {
			if err := s.cache.SetWithTTL(ctx, cacheKey, string(data), s.cacheTTL); err != nil {
				s.logger.Warn(ctx, "order cache write failed", map[string]interface{}{
					"order_id": orderID,
					"error":    err.Error(),
				})
			}
		}
	}

	return event, nil
}

func (s *OrderService) ListOrders(ctx context.Context, pageToken string, limit int) ([]*models.WebhookEvent, string, error) {
	return s.ledger.ListPage(ctx, pageToken, limit)
}
