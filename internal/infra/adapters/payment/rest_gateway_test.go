//go:build !integration

// File: internal/infra/adapters/payment/rest_gateway_test.go
package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/domain/ports/adapter"
	"fitness-checkout/internal/infra/adapters/payment"
)

func newGateway(t *testing.T, handler http.Handler) *payment.RESTGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := payment.NewRESTGateway(config.ProcessorConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		SuccessURL: "https://app.test/checkout/return",
		CancelURL:  "https://app.test/cart",
	})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return g
}

func sessionRequest() adapter.CreateSessionRequest {
	return adapter.CreateSessionRequest{
		Cart: &model.Cart{
			ID:      "cart-1",
			OwnerID: "user-1",
			Items:   []model.LineItem{{PackageName: "Gold Package", Quantity: 2, UnitPrice: 50000}},
		},
		Identity: model.Identity{ID: "user-1", Email: "trainee@example.com"},
		Mode:     model.ModePayment,
	}
}

func TestCreateSession(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-checkout-session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sessionId":    "sess_abc",
			"checkoutUrl":  "https://processor.test/pay/sess_abc",
			"clientSecret": "cs_secret",
			"amount":       100000,
			"currency":     "usd",
		})
	}))

	sess, err := g.CreateSession(context.Background(), sessionRequest())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.ID != "sess_abc" || sess.Amount != 100000 || sess.Currency != "usd" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if sess.Status != model.SessionStatusPending {
		t.Errorf("new session must be pending, got %s", sess.Status)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("missing bearer auth, got %q", gotAuth)
	}
	if gotBody["cartId"] != "cart-1" || gotBody["customerEmail"] != "trainee@example.com" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
	if gotBody["successUrl"] != "https://app.test/checkout/return" {
		t.Errorf("expected configured success url, got %v", gotBody["successUrl"])
	}
	meta, _ := gotBody["metadata"].(map[string]any)
	if meta["ownerId"] != "user-1" {
		t.Errorf("expected owner in metadata, got %v", meta)
	}
}

func TestCreateSession_NoPaymentHandle(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"sessionId": "sess_abc"})
	}))

	if _, err := g.CreateSession(context.Background(), sessionRequest()); err == nil {
		t.Fatal("expected an error for a session without url or client secret")
	}
}

func TestCreateSession_ServerErrorSurfacesMessage(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "upstream unavailable"})
	}))

	_, err := g.CreateSession(context.Background(), sessionRequest())

	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "processor http 502: upstream unavailable" {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestConfirmPayment(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/confirm-payment" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "succeeded", "amount": 100000})
		}))

		status, err := g.ConfirmPayment(context.Background(), "sess_abc", "pm_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status != model.SessionStatusSucceeded {
			t.Errorf("expected succeeded, got %s", status)
		}
	})

	t.Run("declined with reason", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "reason": "Your card was declined."})
		}))

		status, err := g.ConfirmPayment(context.Background(), "sess_abc", "pm_1")
		if !errors.Is(err, domain.ErrProcessorDeclined) {
			t.Fatalf("expected ErrProcessorDeclined, got %v", err)
		}
		if status != model.SessionStatusFailed {
			t.Errorf("expected failed, got %s", status)
		}
		if want := "payment declined by processor: Your card was declined."; err.Error() != want {
			t.Errorf("expected verbatim decline reason, got %q", err.Error())
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		if _, err := g.ConfirmPayment(context.Background(), "sess_gone", "pm_1"); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestGetStatus(t *testing.T) {
	t.Run("failed with reason", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/status/sess_abc" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "reason": "insufficient funds"})
		}))

		status, reason, err := g.GetStatus(context.Background(), "sess_abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status != model.SessionStatusFailed || reason != "insufficient funds" {
			t.Errorf("got %s %q", status, reason)
		}
	})

	t.Run("pending", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "pending"})
		}))

		status, _, err := g.GetStatus(context.Background(), "sess_abc")
		if err != nil || status != model.SessionStatusPending {
			t.Errorf("expected pending, got %s err=%v", status, err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		if _, _, err := g.GetStatus(context.Background(), "sess_gone"); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("garbage status", func(t *testing.T) {
		g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "maybe"})
		}))

		if _, _, err := g.GetStatus(context.Background(), "sess_abc"); err == nil {
			t.Fatal("expected an error for an unknown status value")
		}
	})
}
