package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jon-the-dev/album-relay/utils"
)

const defaultPayPalAPIBase = "https://api.paypal.com"

// Header names PayPal attaches to every webhook delivery.
const (
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
)

// SecretSource yields API credentials at call time so rotation in the
// parameter store takes effect without a restart.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// WebhookHeaders carries the signature material from an inbound delivery.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// HeadersFromRequest collects the PayPal signature headers. Missing values
// stay empty; the verifier rejects them.
func HeadersFromRequest(h http.Header) WebhookHeaders {
	return WebhookHeaders{
		TransmissionID:   h.Get(HeaderTransmissionID),
		TransmissionTime: h.Get(HeaderTransmissionTime),
		TransmissionSig:  h.Get(HeaderTransmissionSig),
		CertURL:          h.Get(HeaderCertURL),
		AuthAlgo:         h.Get(HeaderAuthAlgo),
	}
}

func (h WebhookHeaders) complete() bool {
	return h.TransmissionID != "" &&
		h.TransmissionTime != "" &&
		h.TransmissionSig != "" &&
		h.CertURL != "" &&
		h.AuthAlgo != ""
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// PayPalVerifier checks webhook signatures against PayPal's verification
// API. Verification never trusts anything the webhook sender supplied
// beyond the raw signature material; the verdict comes from PayPal.
type PayPalVerifier struct {
	apiBase    string
	secrets    SecretSource
	httpClient *http.Client
	breaker    *utils.CircuitBreaker
}

func NewPayPalVerifier(secrets SecretSource, apiBase string) *PayPalVerifier {
	if apiBase == "" {
		apiBase = defaultPayPalAPIBase
	}
	return &PayPalVerifier{
		apiBase: apiBase,
		secrets: secrets,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// VerifyWebhookSignature returns nil only when PayPal confirms the
// transmission. Every other path fails closed: missing headers, a cert URL
// outside paypal.com, missing credentials, transport errors, non-200
// responses, and any verification status other than SUCCESS.
func (v *PayPalVerifier) VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, rawBody []byte) error {
	if !headers.complete() {
		return utils.ErrMissingSignature
	}

	if err := validateCertURL(headers.CertURL); err != nil {
		return utils.ErrInvalidSignature
	}

	clientID, err := v.secrets.Get(ctx, "paypal_client_id")
	if err != nil {
		return utils.WrapError(err, "paypal client id unavailable")
	}
	clientSecret, err := v.secrets.Get(ctx, "paypal_client_secret")
	if err != nil {
		return utils.WrapError(err, "paypal client secret unavailable")
	}
	webhookID, err := v.secrets.Get(ctx, "paypal_webhook_id")
	if err != nil {
		return utils.WrapError(err, "paypal webhook id unavailable")
	}

	reqBody, err := json.Marshal(verifyRequest{
		AuthAlgo:         headers.AuthAlgo,
		CertURL:          headers.CertURL,
		TransmissionID:   headers.TransmissionID,
		TransmissionSig:  headers.TransmissionSig,
		TransmissionTime: headers.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(rawBody),
	})
	if err != nil {
		return utils.ErrInvalidPayload
	}

	var status string
	err = v.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			v.apiBase+"/v1/notifications/verify-webhook-signature", bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(clientID, clientSecret)

		resp, err := v.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("verification request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("verification API returned status %d", resp.StatusCode)
		}

		var result verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode verification response: %w", err)
		}

		status = result.VerificationStatus
		return nil
	})
	if err != nil {
		return err
	}

	if status != "SUCCESS" {
		return utils.ErrInvalidSignature
	}
	return nil
}

func validateCertURL(certURL string) error {
	parsed, err := url.Parse(certURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("cert url must use https")
	}
	host := parsed.Hostname()
	if host != "paypal.com" && !strings.HasSuffix(host, ".paypal.com") {
		return fmt.Errorf("cert url host %q is not a paypal domain", host)
	}
	return nil
}
