package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jon-the-dev/album-relay/security"
)

type staticSecrets struct {
	values map[string]string
}

func (s *staticSecrets) Get(ctx context.Context, name string) (string, error) {
	value, ok := s.values[name]
	if !ok {
		return "", errors.New("parameter not found: " + name)
	}
	return value, nil
}

func newSignedRequest(t *testing.T, body, secret string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/albums/zip", strings.NewReader(body))
	req.Header.Set("X-Signature", security.SignPayload([]byte(body), secret))
	return req
}

func TestSignatureMiddleware_ValidSignature(t *testing.T) {
	secrets := &staticSecrets{values: map[string]string{"hmac_key": "topsecret"}}
	mw := NewSignatureMiddleware(secrets)

	var seenBody string
	handler := mw.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seenBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"client_name":"acme","album_name":"wedding","email":"a@b.com"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newSignedRequest(t, body, "topsecret"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seenBody != body {
		t.Errorf("handler saw body %q, want the original body restored", seenBody)
	}
}

func TestSignatureMiddleware_MissingSignature(t *testing.T) {
	mw := NewSignatureMiddleware(&staticSecrets{values: map[string]string{"hmac_key": "topsecret"}})
	handler := mw.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a signature")
	}))

	req := httptest.NewRequest(http.MethodPost, "/albums/zip", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSignatureMiddleware_WrongSignature(t *testing.T) {
	mw := NewSignatureMiddleware(&staticSecrets{values: map[string]string{"hmac_key": "topsecret"}})
	handler := mw.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a bad signature")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newSignedRequest(t, "{}", "wrongsecret"))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSignatureMiddleware_SecretUnavailable(t *testing.T) {
	mw := NewSignatureMiddleware(&staticSecrets{values: map[string]string{}})
	handler := mw.Verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the signing key cannot be fetched")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newSignedRequest(t, "{}", "topsecret"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
