package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jon-the-dev/album-relay/models"
)

// memoryLedger implements WebhookLedger with the same insert-if-absent
// contract as the Postgres store: one atomic winner per order id.
type memoryLedger struct {
	mu     sync.Mutex
	events map[string]*models.WebhookEvent
	err    error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{events: make(map[string]*models.WebhookEvent)}
}

func (m *memoryLedger) PutIfAbsent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if _, exists := m.events[event.OrderID]; exists {
		return false, nil
	}
	m.events[event.OrderID] = event
	return true, nil
}

type recordingDeliverer struct {
	mu       sync.Mutex
	requests []*DeliveryRequest
	err      error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, req *DeliveryRequest) (*models.AlbumDelivery, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	return &models.AlbumDelivery{ID: "delivery-1"}, nil
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

const completedPayload = `{
	"id": "ORDER-1",
	"event_type": "PAYMENT.SALE.COMPLETED",
	"resource": {
		"id": "SALE-9",
		"custom_id": "acme/wedding",
		"payer": {"email_address": "buyer@example.com"}
	}
}`

func TestWebhookService_ProcessEvent_Delivers(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, time.Hour)

	result, err := svc.ProcessEvent(context.Background(), []byte(completedPayload))
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if result.Outcome != models.OutcomeDelivered {
		t.Errorf("Outcome = %q, want %q", result.Outcome, models.OutcomeDelivered)
	}
	if len(ledger.events) != 1 {
		t.Errorf("persisted %d events, want 1", len(ledger.events))
	}
	if deliverer.count() != 1 {
		t.Errorf("delivery attempts = %d, want 1", deliverer.count())
	}

	req := deliverer.requests[0]
	if req.ClientName != "acme" || req.AlbumName != "wedding" {
		t.Errorf("delivery request = %+v, want client acme album wedding", req)
	}
	if req.Email != "buyer@example.com" {
		t.Errorf("delivery email = %q, want buyer@example.com", req.Email)
	}

	event := ledger.events["ORDER-1"]
	if event.ExpiresAt == nil {
		t.Error("event should carry an expiry when retention is set")
	}
}

func TestWebhookService_ProcessEvent_DuplicateIsNoOp(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, 0)

	body := []byte(completedPayload)
	ctx := context.Background()

	first, err := svc.ProcessEvent(ctx, body)
	if err != nil {
		t.Fatalf("first ProcessEvent() error = %v", err)
	}
	second, err := svc.ProcessEvent(ctx, body)
	if err != nil {
		t.Fatalf("second ProcessEvent() error = %v", err)
	}

	if first.Outcome != models.OutcomeDelivered {
		t.Errorf("first Outcome = %q, want delivered", first.Outcome)
	}
	if second.Outcome != models.OutcomeDuplicate {
		t.Errorf("second Outcome = %q, want duplicate", second.Outcome)
	}
	if len(ledger.events) != 1 {
		t.Errorf("persisted %d events, want exactly 1", len(ledger.events))
	}
	if deliverer.count() != 1 {
		t.Errorf("delivery attempts = %d, want exactly 1", deliverer.count())
	}
}

func TestWebhookService_ProcessEvent_ConcurrentDuplicates(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, 0)

	const workers = 8
	outcomes := make(chan models.ProcessOutcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.ProcessEvent(context.Background(), []byte(completedPayload))
			if err != nil {
				t.Errorf("ProcessEvent() error = %v", err)
				return
			}
			outcomes <- result.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	var winners, duplicates int
	for outcome := range outcomes {
		switch outcome {
		case models.OutcomeDelivered, models.OutcomePersisted:
			winners++
		case models.OutcomeDuplicate:
			duplicates++
		}
	}

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if duplicates != workers-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, workers-1)
	}
	if deliverer.count() != 1 {
		t.Errorf("delivery attempts = %d, want exactly 1", deliverer.count())
	}
}

func TestWebhookService_ProcessEvent_MissingOrderID(t *testing.T) {
	ledger := newMemoryLedger()
	svc := NewWebhookService(ledger, &recordingDeliverer{}, 0)

	_, err := svc.ProcessEvent(context.Background(), []byte(`{"event_type":"PAYMENT.SALE.COMPLETED"}`))
	if err == nil {
		t.Fatal("ProcessEvent() expected error for missing order id")
	}
	if len(ledger.events) != 0 {
		t.Error("no ledger write should happen for a rejected payload")
	}
}

func TestWebhookService_ProcessEvent_MalformedPayload(t *testing.T) {
	ledger := newMemoryLedger()
	svc := NewWebhookService(ledger, &recordingDeliverer{}, 0)

	_, err := svc.ProcessEvent(context.Background(), []byte(`not json`))
	if err == nil {
		t.Fatal("ProcessEvent() expected error for malformed payload")
	}
	if len(ledger.events) != 0 {
		t.Error("no ledger write should happen for a malformed payload")
	}
}

func TestWebhookService_ProcessEvent_UnknownTypeIgnored(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, 0)

	body := []byte(`{"id":"ORDER-2","event_type":"CUSTOMER.DISPUTE.CREATED","resource":{}}`)

	result, err := svc.ProcessEvent(context.Background(), body)
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if result.Outcome != models.OutcomePersisted {
		t.Errorf("Outcome = %q, want persisted", result.Outcome)
	}
	if deliverer.count() != 0 {
		t.Error("unknown event types must not trigger delivery")
	}
	if len(ledger.events) != 1 {
		t.Error("unknown event types are still recorded")
	}
}

func TestWebhookService_ProcessEvent_LedgerFailureAborts(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.err = errors.New("connection refused")
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, 0)

	_, err := svc.ProcessEvent(context.Background(), []byte(completedPayload))
	if err == nil {
		t.Fatal("ProcessEvent() expected error when the ledger is down")
	}
	if deliverer.count() != 0 {
		t.Error("delivery must not run when the dedup check could not complete")
	}
}

func TestWebhookService_ProcessEvent_DeliveryFailureKeepsEvent(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{err: errors.New("bucket unavailable")}
	svc := NewWebhookService(ledger, deliverer, 0)

	result, err := svc.ProcessEvent(context.Background(), []byte(completedPayload))
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v, delivery failure must not fail the event", err)
	}

	if result.Outcome != models.OutcomePersisted {
		t.Errorf("Outcome = %q, want persisted", result.Outcome)
	}
	if result.DeliveryError == "" {
		t.Error("result should report the delivery error")
	}
	if len(ledger.events) != 1 {
		t.Error("the persisted event must survive a delivery failure")
	}
}

func TestWebhookService_ProcessEvent_SingleObjectCustomID(t *testing.T) {
	ledger := newMemoryLedger()
	deliverer := &recordingDeliverer{}
	svc := NewWebhookService(ledger, deliverer, 0)

	body := []byte(`{
		"id": "ORDER-3",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"custom_id": "photos/raw/IMG_0042.jpg",
			"payer": {"email_address": "buyer@example.com"}
		}
	}`)

	if _, err := svc.ProcessEvent(context.Background(), body); err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	req := deliverer.requests[0]
	if req.ObjectKey != "photos/raw/IMG_0042.jpg" {
		t.Errorf("ObjectKey = %q, want the raw custom_id", req.ObjectKey)
	}
	if req.ClientName != "" || req.AlbumName != "" {
		t.Error("multi-segment custom_id should not be split into client/album")
	}
}
