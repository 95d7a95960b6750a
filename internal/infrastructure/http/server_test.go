package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/adapter/repository"
	"github.com/jsiptv/mobipay/internal/config"
	"github.com/jsiptv/mobipay/internal/infrastructure/provider/promax"
	"github.com/jsiptv/mobipay/internal/middleware/auth"
	"github.com/jsiptv/mobipay/internal/notifier"
	"github.com/jsiptv/mobipay/internal/receipts"
	"github.com/jsiptv/mobipay/internal/usecase"
)

const (
	testKeyID     = "processor-key"
	testSecret    = "webhook-shared-secret"
	testJWTSecret = "admin-jwt-secret"
)

// fakePanel speaks just enough of the upstream protocol for the route tests.
// Accounts listed in existing resolve on device_info; everything else is new.
func fakePanel(t *testing.T, existing map[string]bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("action") {
		case "device_info":
			account := q.Get("username")
			if account == "" {
				account = q.Get("mac")
			}
			if enabled, ok := existing[account]; ok {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"status": true, "username": account, "enabled": enabled, "expire": "2026-01-01",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "messasge": "no such device"})
		case "new", "renew":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "1", "messasge": "done", "username": q.Get("username"), "password": "pw123", "user_id": 42,
			})
		case "device_status":
			json.NewEncoder(w).Encode(map[string]interface{}{"status": 1})
		case "bouquet":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": true,
				"items":  []map[string]interface{}{{"id": 1, "name": "Sports"}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "error": "unknown action"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, existing map[string]bool) *Server {
	t.Helper()

	upstream := fakePanel(t, existing)
	log := zap.NewNop()

	cfg := &config.Config{}
	cfg.Service.Name = "mobipay"
	cfg.HMAC = config.HMACConfig{
		Keys: []config.HMACKey{{KeyID: testKeyID, Secret: testSecret}},
		Skew: 300 * time.Second,
	}
	cfg.Admin.JWTSecret = testJWTSecret

	panel := promax.NewClient(&config.PromaxConfig{
		BaseURL:         upstream.URL,
		APIKey:          "test-api-key",
		Timeout:         2 * time.Second,
		BouquetCacheTTL: time.Hour,
	}, log)

	ledger := repository.NewMemoryLedger()
	clients := repository.NewMemoryClientRegistry()
	pricing := usecase.NewPricingService()
	receiptGen, err := receipts.NewGenerator(t.TempDir())
	require.NoError(t, err)
	mailer := notifier.NewMailer(config.EmailConfig{From: "noreply@example.com"}, log)

	deps := Dependencies{
		Ledger:       ledger,
		Clients:      clients,
		Panel:        panel,
		Pricing:      pricing,
		Provisioning: usecase.NewProvisioningService(ledger, clients, panel, pricing, receiptGen, mailer, log),
		Registration: usecase.NewRegistrationService(panel, clients, receiptGen, mailer, log),
		Receipts:     receiptGen,
		Notifier:     mailer,
	}

	return NewServer(cfg, log, deps)
}

func signedWebhookRequest(body string) *http.Request {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	canonical := auth.CanonicalString(http.MethodPost, "/api/v1/payment/callback", "application/json", timestamp, []byte(body))
	header := `HMAC key_id=` + testKeyID + `, algorithm=hmac-sha256, signature=` + auth.Sign(testSecret, canonical) + `, timestamp=` + timestamp

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/json")
	req.Header.Set("Authorization", header)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestServer_WebhookCreatesNewAccount(t *testing.T) {
	server := newTestServer(t, nil)
	body := `{"transaction_id":"txn-2001","account":"newuser","amount":27.99,"currency":"USD","paid_for":3,"timestamp":"2025-06-15T12:00:00Z"}`

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "create", payload["action"])
	assert.NotEmpty(t, payload["receipt_reference"])
}

func TestServer_WebhookRenewsExistingAccount(t *testing.T) {
	server := newTestServer(t, map[string]bool{"alice": true})
	body := `{"transaction_id":"txn-2002","account":"alice","amount":9.99,"currency":"USD","paid_for":1,"timestamp":"2025-06-15T12:00:00Z"}`

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "renew", decodeBody(t, rec)["action"])
}

func TestServer_WebhookDuplicateReturns409(t *testing.T) {
	server := newTestServer(t, nil)
	body := `{"transaction_id":"txn-2003","account":"newuser","amount":27.99,"currency":"USD","paid_for":3,"timestamp":"2025-06-15T12:00:00Z"}`

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "duplicate_transaction", payload["code"])
}

func TestServer_WebhookAmountMismatch(t *testing.T) {
	server := newTestServer(t, nil)
	body := `{"transaction_id":"txn-2004","account":"newuser","amount":19.99,"currency":"USD","paid_for":3,"timestamp":"2025-06-15T12:00:00Z"}`

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "amount_mismatch", payload["code"])
	assert.Contains(t, payload["message"], "27.99")
}

func TestServer_WebhookRejectsUnsignedRequest(t *testing.T) {
	server := newTestServer(t, nil)
	body := `{"transaction_id":"txn-2005","account":"newuser","amount":27.99,"currency":"USD","paid_for":3,"timestamp":"2025-06-15T12:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, rec)["code"])
}

func TestServer_WebhookMissingFields(t *testing.T) {
	server := newTestServer(t, nil)
	body := `{"transaction_id":"txn-2006"}`

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeBody(t, rec)["code"])
}

func TestServer_LookupFoundAndNotFound(t *testing.T) {
	server := newTestServer(t, map[string]bool{"alice": true})

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lookup?account=alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "ok", payload["status"])
	assert.NotNil(t, payload["client"])

	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lookup?account=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["status"])
}

func TestServer_RegisterValidation(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"email":"not-an-email","device_type":"m3u","pack_id":7}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeBody(t, rec)["code"])
}

func TestServer_RegisterProvisionsTrial(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"email":"alice@example.com","device_type":"m3u","pack_id":7,"fullname":"Alice"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	assert.Equal(t, "ok", payload["status"])
	assert.NotEmpty(t, payload["username"])
	assert.NotEmpty(t, payload["password"])
}

func TestServer_Bouquets(t *testing.T) {
	server := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bouquets", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	bouquets, ok := payload["bouquets"].([]interface{})
	require.True(t, ok)
	assert.Len(t, bouquets, 1)
}

func TestServer_AdminRequiresToken(t *testing.T) {
	server := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/transactions/txn-1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AdminGetTransaction(t *testing.T) {
	server := newTestServer(t, nil)

	// Provision one transaction through the webhook first.
	body := `{"transaction_id":"txn-3001","account":"newuser","amount":99.99,"currency":"USD","paid_for":12,"timestamp":"2025-06-15T12:00:00Z"}`
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, signedWebhookRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/transactions/txn-3001", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	txn, ok := payload["transaction"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "verified", txn["status"])
}
