package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloomdesk/backend/internal/application/pipeline"
)

// maxResponseSize is the maximum allowed response size from the upstream API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Sentinel errors for upstream API failures
var (
	ErrNotConfigured   = errors.New("upstream: no configuration for tenant")
	ErrUnavailable     = errors.New("upstream: platform unavailable")
	ErrRequestFailed   = errors.New("upstream: request failed")
	ErrInvalidResponse = errors.New("upstream: invalid response")
)

// OrderSourceClient fetches raw order documents from the upstream commerce
// platform. Responses are returned undecoded beyond generic JSON so the
// pipeline's normalizer can handle either upstream shape.
type OrderSourceClient struct {
	config     *ClientConfig
	httpClient *http.Client

	// tenantConfigs stores per-tenant configurations
	tenantConfigs map[uuid.UUID]*ClientConfig
	mu            sync.RWMutex // Protects tenantConfigs map
}

// NewOrderSourceClient creates an order source client with the given default
// configuration.
func NewOrderSourceClient(config *ClientConfig) (*OrderSourceClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &OrderSourceClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		tenantConfigs: make(map[uuid.UUID]*ClientConfig),
	}, nil
}

// SetTenantConfig sets the configuration for a specific tenant
func (c *OrderSourceClient) SetTenantConfig(tenantID uuid.UUID, config *ClientConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantConfigs[tenantID] = config
	return nil
}

// getTenantConfig retrieves the configuration for a tenant
func (c *OrderSourceClient) getTenantConfig(tenantID uuid.UUID) (*ClientConfig, error) {
	c.mu.RLock()
	config, ok := c.tenantConfigs[tenantID]
	c.mu.RUnlock()
	if ok {
		return config, nil
	}
	// Fall back to default config
	if c.config != nil {
		return c.config, nil
	}
	return nil, ErrNotConfigured
}

// ordersResponse is the envelope the order API wraps result sets in
type ordersResponse struct {
	Orders []map[string]any `json:"orders"`
}

// FetchOrders retrieves the raw orders for a delivery date and optional
// store handle.
func (c *OrderSourceClient) FetchOrders(ctx context.Context, tenantID uuid.UUID, query pipeline.Query) ([]map[string]any, error) {
	config, err := c.getTenantConfig(tenantID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("date", query.Date)
	if query.Store != "" {
		params.Set("store", query.Store)
	}

	endpoint := fmt.Sprintf("%s/orders?%s", config.OrderAPIBaseURL, params.Encode())
	body, err := c.doRequest(ctx, config, endpoint)
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some deployments return the bare array without an envelope
		var orders []map[string]any
		if arrErr := json.Unmarshal(body, &orders); arrErr == nil {
			return orders, nil
		}
		return nil, fmt.Errorf("%w: failed to parse orders: %v", ErrInvalidResponse, err)
	}

	return resp.Orders, nil
}

// doRequest performs an authenticated GET against the upstream API
func (c *OrderSourceClient) doRequest(ctx context.Context, config *ClientConfig, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// Ensure OrderSourceClient implements pipeline.OrderSource
var _ pipeline.OrderSource = (*OrderSourceClient)(nil)
