package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloomdesk/backend/internal/domain/card"
)

// defaultLabelCacheTTL bounds how stale a cached label set may get. Label
// edits in the settings surface show up on the board within this window.
const defaultLabelCacheTTL = 10 * time.Minute

// ProductLabelClient resolves product label sets over HTTP with an
// in-process TTL cache. Lookups for the same product/variant within the TTL
// are served from memory, which matters because the pipeline classifies
// every expanded card.
type ProductLabelClient struct {
	config     *ClientConfig
	httpClient *http.Client
	ttl        time.Duration

	// tenantConfigs stores per-tenant configurations
	tenantConfigs map[uuid.UUID]*ClientConfig
	mu            sync.RWMutex // Protects tenantConfigs map

	labels   map[string]*labelEntry
	labelsMu sync.RWMutex // Protects labels map
}

// labelEntry is one cached label set with its expiry
type labelEntry struct {
	labels    []string
	expiresAt time.Time
}

// ProductLabelClientOption is a functional option for configuring the client
type ProductLabelClientOption func(*ProductLabelClient)

// WithLabelCacheTTL sets the label cache TTL
func WithLabelCacheTTL(ttl time.Duration) ProductLabelClientOption {
	return func(c *ProductLabelClient) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewProductLabelClient creates a product label client with the given
// default configuration.
func NewProductLabelClient(config *ClientConfig, opts ...ProductLabelClientOption) (*ProductLabelClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := &ProductLabelClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		ttl:           defaultLabelCacheTTL,
		tenantConfigs: make(map[uuid.UUID]*ClientConfig),
		labels:        make(map[string]*labelEntry),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// SetTenantConfig sets the configuration for a specific tenant
func (c *ProductLabelClient) SetTenantConfig(tenantID uuid.UUID, config *ClientConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantConfigs[tenantID] = config
	return nil
}

// getTenantConfig retrieves the configuration for a tenant
func (c *ProductLabelClient) getTenantConfig(tenantID uuid.UUID) (*ClientConfig, error) {
	c.mu.RLock()
	config, ok := c.tenantConfigs[tenantID]
	c.mu.RUnlock()
	if ok {
		return config, nil
	}
	if c.config != nil {
		return c.config, nil
	}
	return nil, ErrNotConfigured
}

func labelCacheKey(tenantID uuid.UUID, productID, variantID string) string {
	return tenantID.String() + "|" + productID + "|" + variantID
}

// labelsResponse is the label API response envelope
type labelsResponse struct {
	Labels []string `json:"labels"`
}

// GetLabels returns the label set attached to a product, preferring the
// in-process cache. An empty label set is a valid, cacheable answer.
func (c *ProductLabelClient) GetLabels(ctx context.Context, tenantID uuid.UUID, productID, variantID string) ([]string, error) {
	cacheKey := labelCacheKey(tenantID, productID, variantID)

	c.labelsMu.RLock()
	entry, ok := c.labels[cacheKey]
	c.labelsMu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.labels, nil
	}

	config, err := c.getTenantConfig(tenantID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if variantID != "" {
		params.Set("variantId", variantID)
	}
	endpoint := fmt.Sprintf("%s/products/%s/labels", config.LabelAPIBaseURL, url.PathEscape(productID))
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

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

	var parsed labelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse labels: %v", ErrInvalidResponse, err)
	}

	c.labelsMu.Lock()
	c.labels[cacheKey] = &labelEntry{
		labels:    parsed.Labels,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.labelsMu.Unlock()

	return parsed.Labels, nil
}

// InvalidateLabels drops all cached label sets
func (c *ProductLabelClient) InvalidateLabels() {
	c.labelsMu.Lock()
	c.labels = make(map[string]*labelEntry)
	c.labelsMu.Unlock()
}

// Ensure ProductLabelClient implements card.ProductLabelLookup
var _ card.ProductLabelLookup = (*ProductLabelClient)(nil)
