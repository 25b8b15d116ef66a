package cartsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.CartService = (*HTTPClient)(nil)

// HTTPClient talks to the cart backend. Checkout only clears carts.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(cfg config.CartServiceConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) Clear(ctx context.Context, cartID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/carts/"+url.PathEscape(cartID)+"/items", nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cart clear http %d", resp.StatusCode)
	}
	return nil
}

// Noop is used when no cart service is configured (dev, tests).
type Noop struct{}

func (Noop) Clear(ctx context.Context, cartID string) error { return nil }
