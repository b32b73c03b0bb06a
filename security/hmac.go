package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignPayload computes the base64 HMAC-SHA256 signature clients put in the
// X-Signature header.
func SignPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyHMAC compares the supplied signature against the expected one in
// constant time. A byte-by-byte equality check would leak how much of the
// signature matched.
func VerifyHMAC(signature string, secret string, payload []byte) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
