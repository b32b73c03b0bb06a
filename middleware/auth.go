package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/jon-the-dev/album-relay/security"
	"github.com/jon-the-dev/album-relay/utils"
)

// hmacKeyName is the parameter the signing key lives under in the secret
// store.
const hmacKeyName = "hmac_key"

// SecretSource is the slice of the secrets provider the middleware needs.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// SignatureMiddleware authenticates management endpoints with a shared-key
// HMAC over the request body, carried in X-Signature as base64. The body is
// buffered and restored so downstream handlers read it as usual.
type SignatureMiddleware struct {
	secrets SecretSource
	logger  *utils.Logger
}

func NewSignatureMiddleware(secrets SecretSource) *SignatureMiddleware {
	return &SignatureMiddleware{
		secrets: secrets,
		logger:  utils.NewLogger("auth"),
	}
}

func (m *SignatureMiddleware) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.Header.Get("X-Signature")
		if signature == "" {
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		secret, err := m.secrets.Get(r.Context(), hmacKeyName)
		if err != nil {
			m.logger.Error(r.Context(), "signing key unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !security.VerifyHMAC(signature, secret, body) {
			m.logger.Warn(r.Context(), "request signature mismatch", map[string]interface{}{
				"path": r.URL.Path,
			})
			http.Error(w, "Invalid signature", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
