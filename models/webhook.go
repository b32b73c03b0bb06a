package models

import (
	"encoding/json"
	"time"
)

type WebhookEventType string

const (
	EventTypeSaleCompleted    WebhookEventType = "PAYMENT.SALE.COMPLETED"
	EventTypeCaptureCompleted WebhookEventType = "PAYMENT.CAPTURE.COMPLETED"
	EventTypeCaptureDenied    WebhookEventType = "PAYMENT.CAPTURE.DENIED"
	EventTypeCaptureRefunded  WebhookEventType = "PAYMENT.CAPTURE.REFUNDED"
	EventTypeUnknown          WebhookEventType = "unknown"
)

// IsCompletedPayment reports whether this event type should trigger delivery.
func (t WebhookEventType) IsCompletedPayment() bool {
	return t == EventTypeSaleCompleted || t == EventTypeCaptureCompleted
}

// WebhookEvent is one vendor webhook delivery, keyed by the vendor-assigned
// order identifier. The unique index on OrderID is what makes re-delivery
// of the same event a no-op.
type WebhookEvent struct {
	ID         string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID    string           `json:"order_id" gorm:"uniqueIndex;not null"`
	EventType  WebhookEventType `json:"event_type" gorm:"not null;index"`
	Payload    JSON             `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt time.Time        `json:"received_at" gorm:"not null"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty" gorm:"index"`
	CreatedAt  time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// WebhookEnvelope is the parsed shape of an inbound PayPal event body.
// Fields the processor does not recognize stay inside Resource untouched.
type WebhookEnvelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  WebhookResource `json:"resource"`
}

type WebhookResource struct {
	ID       string          `json:"id"`
	State    string          `json:"state"`
	CustomID string          `json:"custom_id"`
	Payer    WebhookPayer    `json:"payer"`
	Amount   json.RawMessage `json:"amount,omitempty"`
}

type WebhookPayer struct {
	EmailAddress string `json:"email_address"`
}

type ProcessOutcome string

const (
	OutcomeRejected  ProcessOutcome = "rejected"
	OutcomeDuplicate ProcessOutcome = "duplicate"
	OutcomePersisted ProcessOutcome = "persisted"
	OutcomeDelivered ProcessOutcome = "delivered"
)

// ProcessResult is what the webhook processor hands back to the HTTP layer.
// A duplicate is a success: the sender retries on any non-2xx, so it must
// see 200 without the event being reprocessed.
type ProcessResult struct {
	Outcome       ProcessOutcome `json:"outcome"`
	OrderID       string         `json:"order_id"`
	EventType     string         `json:"event_type"`
	DeliveryError string         `json:"delivery_error,omitempty"`
}
