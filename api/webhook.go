package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/providers"
	"github.com/jon-the-dev/album-relay/utils"
)

// maxWebhookBody caps the inbound payload. Vendor events are a few KB;
// anything near the cap is garbage.
const maxWebhookBody = 1 << 20

// WebhookVerifier authenticates an inbound event against the vendor API.
type WebhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, headers providers.WebhookHeaders, rawBody []byte) error
}

// EventProcessor runs a verified event through dedup, persistence and
// delivery.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, rawBody []byte) (*models.ProcessResult, error)
}

type WebhookHandler struct {
	verifier  WebhookVerifier
	processor EventProcessor
	logger    *utils.Logger
}

func NewWebhookHandler(verifier WebhookVerifier, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		processor: processor,
		logger:    utils.NewLogger("webhook-handler"),
	}
}

// HandlePayPalWebhook is the vendor-facing entry point. Verification happens
// before the payload is parsed; an unverifiable request never reaches the
// processor. Duplicates return 200 so the vendor stops retrying them.
func (h *WebhookHandler) HandlePayPalWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Webhook payload too large"})
			return
		}
		writeError(w, utils.ErrInvalidPayload)
		return
	}

	headers := providers.HeadersFromRequest(r.Header)
	if err := h.verifier.VerifyWebhookSignature(r.Context(), headers, body); err != nil {
		utils.LogError(r.Context(), err, "webhook verification failed", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		writeError(w, err)
		return
	}

	result, err := h.processor.ProcessEvent(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
