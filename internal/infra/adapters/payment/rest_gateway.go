// File: internal/infra/adapters/payment/rest_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RESTGateway)(nil)

// RESTGateway implements adapter.PaymentGateway against the payment backend's
// REST surface: create-checkout-session, confirm-payment and status/{id}.
type RESTGateway struct {
	baseURL    string
	apiKey     string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewRESTGateway(cfg config.ProcessorConfig) (*RESTGateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("processor base url empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid processor base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTGateway{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (g *RESTGateway) Name() string { return "galaxy" }

func (g *RESTGateway) endpoint(path string) string {
	return g.baseURL + path
}

func (g *RESTGateway) CreateSession(ctx context.Context, req adapter.CreateSessionRequest) (*model.CheckoutSession, error) {
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = g.successURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.cancelURL
	}
	payload := map[string]any{
		"cartId":        req.Cart.ID,
		"mode":          string(req.Mode),
		"successUrl":    successURL,
		"cancelUrl":     cancelURL,
		"customerEmail": req.Identity.Email,
		"metadata": map[string]any{
			"ownerId":   req.Identity.ID,
			"itemCount": req.Cart.ItemCount(),
		},
	}

	var out struct {
		SessionID    string `json:"sessionId"`
		CheckoutURL  string `json:"checkoutUrl"`
		ClientSecret string `json:"clientSecret"`
		Amount       int64  `json:"amount"`
		Currency     string `json:"currency"`
	}
	if err := g.post(ctx, "/create-checkout-session", payload, &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" || (out.CheckoutURL == "" && out.ClientSecret == "") {
		return nil, errors.New("processor returned no session id or payment handle")
	}
	return &model.CheckoutSession{
		ID:           out.SessionID,
		CartID:       req.Cart.ID,
		Mode:         req.Mode,
		CheckoutURL:  out.CheckoutURL,
		ClientSecret: out.ClientSecret,
		Amount:       out.Amount,
		Currency:     out.Currency,
		Status:       model.SessionStatusPending,
		Metadata: model.SessionMetadata{
			OwnerID:   req.Identity.ID,
			Email:     req.Identity.Email,
			ItemCount: req.Cart.ItemCount(),
		},
		CreatedAt: time.Now(),
	}, nil
}

func (g *RESTGateway) ConfirmPayment(ctx context.Context, sessionID, paymentMethodID string) (model.SessionStatus, error) {
	payload := map[string]any{"sessionId": sessionID}
	if paymentMethodID != "" {
		payload["paymentMethodId"] = paymentMethodID
	}
	var out struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := g.post(ctx, "/confirm-payment", payload, &out); err != nil {
		return "", err
	}
	switch model.SessionStatus(out.Status) {
	case model.SessionStatusSucceeded:
		return model.SessionStatusSucceeded, nil
	case model.SessionStatusFailed:
		reason := out.Reason
		if reason == "" {
			reason = "payment declined"
		}
		return model.SessionStatusFailed, fmt.Errorf("%w: %s", domain.ErrProcessorDeclined, reason)
	default:
		return "", fmt.Errorf("unexpected confirm status %q", out.Status)
	}
}

func (g *RESTGateway) GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint("/status/"+url.PathEscape(sessionID)), nil)
	if err != nil {
		return "", "", err
	}
	g.authorize(req)
	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", "", domain.ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("status query http %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	switch s := model.SessionStatus(out.Status); s {
	case model.SessionStatusPending, model.SessionStatusSucceeded, model.SessionStatusFailed:
		return s, out.Reason, nil
	default:
		return "", "", fmt.Errorf("unexpected session status %q", out.Status)
	}
}

func (g *RESTGateway) post(ctx context.Context, path string, payload any, out any) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		msg := failure.Message
		if msg == "" {
			msg = failure.Error
		}
		if msg != "" {
			return fmt.Errorf("processor http %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("processor http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *RESTGateway) authorize(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
}
