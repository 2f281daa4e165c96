package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the GitHub webhook signature header.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks a webhook body against the shared secret.
// The received value must equal "sha256=" + hex(HMAC-SHA256(secret, body)).
// An absent header or a length mismatch is invalid; the comparison is
// constant-time.
func VerifySignature(body []byte, secret, received string) bool {
	if received == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(received))
}
