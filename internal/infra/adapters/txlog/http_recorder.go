// File: internal/infra/adapters/txlog/http_recorder.go
package txlog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
)

var _ adapter.TransactionRecorder = (*HTTPRecorder)(nil)

// HTTPRecorder posts transaction lifecycle events to the reporting
// side-channel. Best-effort by contract: callers log and ignore failures.
type HTTPRecorder struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPRecorder(cfg config.TxLogConfig) *HTTPRecorder {
	return &HTTPRecorder{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRecorder) Record(ctx context.Context, ev model.TransactionEvent) (bool, error) {
	payload := map[string]any{
		"sessionId": ev.SessionID,
		"amount":    ev.Amount,
		"currency":  ev.Currency,
		"status":    string(ev.Status),
	}
	if ev.Reason != "" {
		payload["reason"] = ev.Reason
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(b))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Success, nil
}
