package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/providers"
	"github.com/jon-the-dev/album-relay/utils"
)

type fakeVerifier struct {
	err   error
	calls int
}

func (f *fakeVerifier) VerifyWebhookSignature(ctx context.Context, headers providers.WebhookHeaders, rawBody []byte) error {
	f.calls++
	return f.err
}

type fakeProcessor struct {
	result *models.ProcessResult
	err    error
	calls  int
}

func (f *fakeProcessor) ProcessEvent(ctx context.Context, rawBody []byte) (*models.ProcessResult, error) {
	f.calls++
	return f.result, f.err
}

func postWebhook(handler *WebhookHandler, payload []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/paypal", bytes.NewBuffer(payload))
	w := httptest.NewRecorder()
	handler.HandlePayPalWebhook(w, req)
	return w
}

func TestWebhookHandler_HandlePayPalWebhook_Success(t *testing.T) {
	verifier := &fakeVerifier{}
	processor := &fakeProcessor{result: &models.ProcessResult{
		Outcome: models.OutcomeDelivered,
		OrderID: "ORDER-1",
	}}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`{"id":"ORDER-1","event_type":"PAYMENT.SALE.COMPLETED"}`))

	if w.Code != http.StatusOK {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusOK)
	}

	var response models.ProcessResult
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Outcome != models.OutcomeDelivered {
		t.Errorf("outcome = %q, want delivered", response.Outcome)
	}
}

func TestWebhookHandler_HandlePayPalWebhook_MissingSignature(t *testing.T) {
	verifier := &fakeVerifier{err: utils.ErrMissingSignature}
	processor := &fakeProcessor{}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`{"id":"ORDER-1"}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if processor.calls != 0 {
		t.Error("an unverified payload must never reach the processor")
	}
}

func TestWebhookHandler_HandlePayPalWebhook_InvalidSignature(t *testing.T) {
	verifier := &fakeVerifier{err: utils.ErrInvalidSignature}
	processor := &fakeProcessor{}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`{"id":"ORDER-1"}`))

	if w.Code != http.StatusForbidden {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if processor.calls != 0 {
		t.Error("an unverified payload must never reach the processor")
	}
}

func TestWebhookHandler_HandlePayPalWebhook_DuplicateReturns200(t *testing.T) {
	verifier := &fakeVerifier{}
	processor := &fakeProcessor{result: &models.ProcessResult{
		Outcome: models.OutcomeDuplicate,
		OrderID: "ORDER-1",
	}}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`{"id":"ORDER-1","event_type":"PAYMENT.SALE.COMPLETED"}`))

	if w.Code != http.StatusOK {
		t.Errorf("duplicate delivery status = %d, want %d so the sender stops retrying", w.Code, http.StatusOK)
	}
}

func TestWebhookHandler_HandlePayPalWebhook_BadPayload(t *testing.T) {
	verifier := &fakeVerifier{}
	processor := &fakeProcessor{err: utils.ErrInvalidPayload}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`not json`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestWebhookHandler_HandlePayPalWebhook_LedgerDown(t *testing.T) {
	verifier := &fakeVerifier{}
	processor := &fakeProcessor{err: utils.WrapError(utils.ErrLedgerUnavailable, "ledger write failed")}
	handler := NewWebhookHandler(verifier, processor)

	w := postWebhook(handler, []byte(`{"id":"ORDER-1"}`))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d so the sender retries", w.Code, http.StatusServiceUnavailable)
	}
}

func TestWebhookHandler_HandlePayPalWebhook_OversizedPayload(t *testing.T) {
	verifier := &fakeVerifier{}
	processor := &fakeProcessor{}
	handler := NewWebhookHandler(verifier, processor)

	payload := bytes.Repeat([]byte("a"), 1<<20+1)
	w := postWebhook(handler, payload)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
	if verifier.calls != 0 {
		t.Error("an oversized payload must be rejected before verification")
	}
	if processor.calls != 0 {
		t.Error("an oversized payload must never reach the processor")
	}
}

func TestWebhookHandler_HandlePayPalWebhook_MethodNotAllowed(t *testing.T) {
	handler := NewWebhookHandler(&fakeVerifier{}, &fakeProcessor{})

	req := httptest.NewRequest("GET", "/webhooks/paypal", nil)
	w := httptest.NewRecorder()
	handler.HandlePayPalWebhook(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("HandlePayPalWebhook() status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
