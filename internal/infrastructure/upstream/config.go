package upstream

import "errors"

// ClientConfig holds the per-tenant configuration for the upstream commerce
// platform APIs.
type ClientConfig struct {
	// OrderAPIBaseURL is the base URL of the order API
	OrderAPIBaseURL string
	// LabelAPIBaseURL is the base URL of the product label API. Empty falls
	// back to OrderAPIBaseURL.
	LabelAPIBaseURL string
	// APIKey is the bearer token sent with every request
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for upstream configuration
var (
	ErrConfigMissingBaseURL = errors.New("upstream: order API base URL is required")
	ErrConfigMissingAPIKey  = errors.New("upstream: API key is required")
)

// NewClientConfig creates a new upstream configuration with defaults
func NewClientConfig(orderAPIBaseURL, labelAPIBaseURL, apiKey string) *ClientConfig {
	return &ClientConfig{
		OrderAPIBaseURL: orderAPIBaseURL,
		LabelAPIBaseURL: labelAPIBaseURL,
		APIKey:          apiKey,
		TimeoutSeconds:  30,
	}
}

// Validate validates the upstream configuration
func (c *ClientConfig) Validate() error {
	if c.OrderAPIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.LabelAPIBaseURL == "" {
		c.LabelAPIBaseURL = c.OrderAPIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
