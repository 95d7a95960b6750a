package promax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jsiptv/mobipay/internal/config"
	"github.com/jsiptv/mobipay/internal/domain/entity"
	"github.com/jsiptv/mobipay/internal/domain/provider"
)

// Client talks to the promax panel API: a single endpoint driven by an
// `action` query parameter plus an api_key. Every call is a bounded-timeout
// GET returning the panel's loosely-typed JSON envelope.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger

	bouquets *bouquetCache
}

func NewClient(cfg *config.PromaxConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		logger:     logger,
		bouquets:   newBouquetCache(cfg.BouquetCacheTTL),
	}
}

// call performs one panel request and decodes the raw envelope
func (c *Client) call(ctx context.Context, action string, params url.Values) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params.Set("action", action)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &provider.ProviderError{Op: action, Message: "failed to build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Promax request failed",
			zap.String("action", action),
			zap.Error(err))
		return nil, &provider.ProviderError{Op: action, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{Op: action, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Promax returned non-200",
			zap.String("action", action),
			zap.Int("status_code", resp.StatusCode))
		return nil, &provider.ProviderError{Op: action, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &provider.ProviderError{Op: action, Message: "failed to decode response", Err: err}
	}

	return payload, nil
}

// Lookup resolves an account to its upstream line. An identifier containing a
// MAC separator is queried as a device, otherwise as a username; ambiguous
// identifiers may misclassify.
func (c *Client) Lookup(ctx context.Context, account string) (*entity.Subscriber, error) {
	params := url.Values{}
	if strings.Contains(account, ":") {
		params.Set("mac", account)
	} else {
		params.Set("username", account)
	}

	payload, err := c.call(ctx, "device_info", params)
	if err != nil {
		return nil, err
	}

	if !envelopeSuccess(payload) {
		return nil, nil
	}

	record := primaryRecord(payload)
	username := stringField(record, "username")
	if username == "" {
		username = account
	}

	enabled := true
	if v, present := record["enabled"]; present && v != nil {
		enabled = truthy(v)
	}

	return &entity.Subscriber{
		Username:    username,
		UserID:      stringField(record, "user_id"),
		Expire:      stringField(record, "expire"),
		Enabled:     enabled,
		PackageID:   stringField(record, "package_id"),
		BouquetName: stringField(record, "bouquet_name"),
	}, nil
}

func (c *Client) Create(ctx context.Context, account string, months int) (*provider.Result, error) {
	params := url.Values{}
	params.Set("type", "m3u")
	params.Set("username", account)
	params.Set("sub", strconv.Itoa(months))

	payload, err := c.call(ctx, "new", params)
	if err != nil {
		return nil, err
	}
	return toResult(payload), nil
}

func (c *Client) Renew(ctx context.Context, username string, months int) (*provider.Result, error) {
	params := url.Values{}
	params.Set("type", "m3u")
	params.Set("username", username)
	params.Set("sub", strconv.Itoa(months))

	payload, err := c.call(ctx, "renew", params)
	if err != nil {
		return nil, err
	}
	return toResult(payload), nil
}

func (c *Client) SetEnabled(ctx context.Context, username string, enabled bool) (*provider.Result, error) {
	status := "disable"
	if enabled {
		status = "enable"
	}

	params := url.Values{}
	params.Set("username", username)
	params.Set("status", status)

	payload, err := c.call(ctx, "device_status", params)
	if err != nil {
		return nil, err
	}
	return toResult(payload), nil
}

func (c *Client) CreateTrial(ctx context.Context, req *provider.CreateTrialRequest) (*entity.TrialCredentials, error) {
	params := url.Values{}
	params.Set("type", req.DeviceType)
	params.Set("sub", "1")
	params.Set("pack", strconv.FormatInt(req.PackID, 10))
	params.Set("notes", "trial_via_mobipay")
	if req.TrialDays > 0 {
		params.Set("trial_days", strconv.Itoa(req.TrialDays))
	}

	payload, err := c.call(ctx, "new", params)
	if err != nil {
		return nil, err
	}

	if !envelopeSuccess(payload) {
		return nil, &provider.ProviderError{Op: "new", Message: extractMessage(payload)}
	}

	record := primaryRecord(payload)
	return &entity.TrialCredentials{
		UserID:   stringField(record, "user_id"),
		Username: stringField(record, "username"),
		Password: stringField(record, "password"),
	}, nil
}

func (c *Client) ExtendLine(ctx context.Context, username, password string, months int) (*provider.Result, error) {
	params := url.Values{}
	params.Set("type", "m3u")
	params.Set("username", username)
	params.Set("password", password)
	params.Set("sub", strconv.Itoa(months))

	payload, err := c.call(ctx, "renew", params)
	if err != nil {
		return nil, err
	}
	return toResult(payload), nil
}

func (c *Client) LineInfo(ctx context.Context, username, password, mac string) (*provider.Result, error) {
	params := url.Values{}
	params.Set("password", password)
	if mac != "" {
		params.Set("mac", mac)
	}
	if username != "" {
		params.Set("username", username)
	}

	payload, err := c.call(ctx, "device_info", params)
	if err != nil {
		return nil, err
	}
	return toResult(payload), nil
}

// ListCatalog serves the bouquet catalog through the single-slot TTL cache.
// An expired entry triggers a synchronous refetch; a failed refetch propagates
// instead of serving the stale entry.
func (c *Client) ListCatalog(ctx context.Context) ([]entity.Bouquet, error) {
	return c.bouquets.get(ctx, c.fetchBouquets)
}

func (c *Client) fetchBouquets(ctx context.Context) ([]entity.Bouquet, error) {
	params := url.Values{}
	params.Set("public", "1")

	payload, err := c.call(ctx, "bouquet", params)
	if err != nil {
		return nil, err
	}

	if !envelopeSuccess(payload) {
		return nil, &provider.ProviderError{Op: "bouquet", Message: extractMessage(payload)}
	}

	record := primaryRecord(payload)
	items, _ := record["items"].([]interface{})
	bouquets := make([]entity.Bouquet, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := obj["id"].(float64)
		bouquets = append(bouquets, entity.Bouquet{
			ID:   int64(id),
			Name: stringField(obj, "name"),
		})
	}

	return bouquets, nil
}
