package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/utils"
)

// WebhookLedger is the dedup surface the processor relies on. PutIfAbsent
// must be atomic: when two concurrent deliveries race, exactly one caller
// sees true.
type WebhookLedger interface {
	PutIfAbsent(ctx context.Context, event *models.WebhookEvent) (bool, error)
}

// AlbumDeliverer triggers the delivery pipeline for a paid order.
type AlbumDeliverer interface {
	Deliver(ctx context.Context, req *DeliveryRequest) (*models.AlbumDelivery, error)
}

type WebhookService struct {
	ledger    WebhookLedger
	deliverer AlbumDeliverer
	retention time.Duration
	logger    *utils.Logger
}

// NewWebhookService builds the processor. retention bounds how long
// processed events stay in the ledger before the expiry sweep may remove
// them; zero means events are kept forever.
func NewWebhookService(ledger WebhookLedger, deliverer AlbumDeliverer, retention time.Duration) *WebhookService {
	return &WebhookService{
		ledger:    ledger,
		deliverer: deliverer,
		retention: retention,
		logger:    utils.NewLogger("webhook"),
	}
}

// ProcessEvent runs an authenticated webhook body through the dedup and
// persistence flow. The caller has already verified the vendor signature;
// nothing here trusts the payload beyond parsing it.
//
// The order of operations is load-bearing:
//   - the dedup check and the insert are one atomic PutIfAbsent, so
//     concurrent re-deliveries cannot both proceed;
//   - a ledger failure aborts before any side effect;
//   - a delivery failure after the insert is reported but never rolls the
//     event back. The event is the record of what happened; delivery can be
//     retried out-of-band.
func (s *WebhookService) ProcessEvent(ctx context.Context, rawBody []byte) (*models.ProcessResult, error) {
	var envelope models.WebhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, utils.ErrInvalidPayload
	}
	if envelope.ID == "" {
		return nil, utils.ErrMissingOrderID
	}

	eventType := models.WebhookEventType(envelope.EventType)
	if envelope.EventType == "" {
		eventType = models.EventTypeUnknown
	}

	var payload models.JSON
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, utils.ErrInvalidPayload
	}

	event := &models.WebhookEvent{
		OrderID:    envelope.ID,
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
	if s.retention > 0 {
		expiresAt := time.Now().Add(s.retention)
		event.ExpiresAt = &expiresAt
	}

	inserted, err := s.ledger.PutIfAbsent(ctx, event)
	if err != nil {
		return nil, utils.WrapError(err, "ledger write failed")
	}

	result := &models.ProcessResult{
		OrderID:   envelope.ID,
		EventType: string(eventType),
	}

	if !inserted {
		result.Outcome = models.OutcomeDuplicate
		s.logger.Info(ctx, "duplicate webhook event ignored", map[string]interface{}{
			"order_id": envelope.ID,
		})
		return result, nil
	}

	result.Outcome = models.OutcomePersisted

	if !eventType.IsCompletedPayment() {
		return result, nil
	}

	if err := s.triggerDelivery(ctx, &envelope); err != nil {
		result.DeliveryError = err.Error()
		s.logger.Error(ctx, "delivery failed after event persisted", map[string]interface{}{
			"order_id": envelope.ID,
			"error":    err.Error(),
		})
		return result, nil
	}

	result.Outcome = models.OutcomeDelivered
	return result, nil
}

func (s *WebhookService) triggerDelivery(ctx context.Context, envelope *models.WebhookEnvelope) error {
	recipient := envelope.Resource.Payer.EmailAddress
	customID := envelope.Resource.CustomID

	if recipient == "" || customID == "" {
		return utils.ErrMissingFields
	}

	req := &DeliveryRequest{Email: recipient}

	// custom_id is either "client/album" for a packaged album or a bare
	// object key for a single item.
	if idx := strings.IndexByte(customID, '/'); idx > 0 && strings.Count(customID, "/") == 1 {
		req.ClientName = customID[:idx]
		req.AlbumName = customID[idx+1:]
	} else {
		req.ObjectKey = customID
	}

	_, err := s.deliverer.Deliver(ctx, req)
	return err
}
