package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/jsiptv/mobipay/internal/domain/errors"
)

// Rejection reasons are internal diagnostics only. The wire response is a
// uniform 401 regardless of reason, so a forger learns nothing from it.
const (
	reasonMissingHeader   = "missing_header"
	reasonMalformedHeader = "malformed_header"
	reasonBadAlgorithm    = "bad_algorithm"
	reasonUnknownKey      = "unknown_key"
	reasonBadSignature    = "bad_signature"
	reasonBadTimestamp    = "bad_timestamp"
	reasonStale           = "stale_timestamp"
)

// VerifyError carries the internal rejection reason
type VerifyError struct {
	Reason string
}

func (e *VerifyError) Error() string {
	return "hmac verification failed: " + e.Reason
}

// HMACConfig holds the configuration for the webhook authenticator
type HMACConfig struct {
	// Secrets maps key_id to shared secret. Multiple entries support rotation.
	Secrets map[string]string
	// Skew is the allowed clock drift; a request timestamped exactly now±Skew
	// is still accepted.
	Skew   time.Duration
	Logger *zap.Logger
	// Now is overridable for tests
	Now func() time.Time
}

// Verifier checks signed webhook requests. Verification is a pure function of
// the request and performs no side effects.
type Verifier struct {
	config HMACConfig
}

func NewVerifier(config HMACConfig) *Verifier {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Verifier{config: config}
}

type signatureHeader struct {
	keyID     string
	algorithm string
	signature string
	timestamp string
}

// parseHeader parses `HMAC key_id=..., algorithm=hmac-sha256,
// signature=<base64>, timestamp=<RFC3339>`. Values split on the first `=`
// only, since base64 padding contains the delimiter.
func parseHeader(header string) (*signatureHeader, error) {
	if header == "" {
		return nil, &VerifyError{Reason: reasonMissingHeader}
	}
	if !strings.HasPrefix(strings.ToUpper(header), "HMAC") {
		return nil, &VerifyError{Reason: reasonMalformedHeader}
	}

	parsed := &signatureHeader{algorithm: "hmac-sha256"}
	rest := strings.TrimSpace(header[len("HMAC"):])
	for _, part := range strings.Split(rest, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return nil, &VerifyError{Reason: reasonMalformedHeader}
		}
		value := strings.Trim(kv[1], `"`)
		switch kv[0] {
		case "key_id":
			parsed.keyID = value
		case "algorithm":
			parsed.algorithm = value
		case "signature":
			parsed.signature = value
		case "timestamp":
			parsed.timestamp = value
		}
	}

	if parsed.keyID == "" || parsed.signature == "" || parsed.timestamp == "" {
		return nil, &VerifyError{Reason: reasonMalformedHeader}
	}

	return parsed, nil
}

// CanonicalString builds the deterministic signing input for a request
func CanonicalString(method, path, contentType, timestamp string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	return strings.Join([]string{
		strings.ToUpper(method),
		path,
		strings.ToLower(contentType),
		timestamp,
		hex.EncodeToString(bodyHash[:]),
	}, "\n")
}

// Sign computes the base64 signature for a canonical string. Exposed so tests
// and integrating processors build valid signatures the same way.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify authenticates one request. It rejects on any missing field, unknown
// key id, algorithm mismatch, signature mismatch, unparseable or stale
// timestamp.
func (v *Verifier) Verify(authorization, method, path, contentType string, body []byte) error {
	header, err := parseHeader(authorization)
	if err != nil {
		return err
	}

	if header.algorithm != "hmac-sha256" {
		return &VerifyError{Reason: reasonBadAlgorithm}
	}

	secret, known := v.config.Secrets[header.keyID]
	if !known {
		return &VerifyError{Reason: reasonUnknownKey}
	}

	expected := Sign(secret, CanonicalString(method, path, contentType, header.timestamp, body))
	// hmac.Equal is constant-time for equal lengths; a length mismatch
	// rejects immediately, a documented minor timing surface.
	if !hmac.Equal([]byte(header.signature), []byte(expected)) {
		return &VerifyError{Reason: reasonBadSignature}
	}

	ts, err := time.Parse(time.RFC3339, header.timestamp)
	if err != nil {
		return &VerifyError{Reason: reasonBadTimestamp}
	}

	drift := v.config.Now().Sub(ts)
	if drift < 0 {
		drift = -drift
	}
	if drift > v.config.Skew {
		return &VerifyError{Reason: reasonStale}
	}

	return nil
}

// HMACMiddleware authenticates webhook deliveries before they reach the
// orchestrator. The body is consumed for hashing and restored for binding.
func HMACMiddleware(config HMACConfig) echo.MiddlewareFunc {
	verifier := NewVerifier(config)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			body, err := io.ReadAll(req.Body)
			if err != nil {
				config.Logger.Warn("Failed to read webhook body", zap.Error(err))
				return unauthorized(c)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			err = verifier.Verify(
				req.Header.Get("Authorization"),
				req.Method,
				req.URL.Path,
				req.Header.Get(echo.HeaderContentType),
				body,
			)
			if err != nil {
				var verifyErr *VerifyError
				reason := "unknown"
				if apperrors.As(err, &verifyErr) {
					reason = verifyErr.Reason
				}
				config.Logger.Warn("Webhook signature rejected",
					zap.String("path", req.URL.Path),
					zap.String("reason", reason))
				return unauthorized(c)
			}

			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"status":  "error",
		"code":    apperrors.CodeUnauthorized,
		"message": "unauthorized",
	})
}
