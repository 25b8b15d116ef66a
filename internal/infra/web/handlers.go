package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fitness-checkout/internal/domain"
	"fitness-checkout/internal/domain/model"
	"fitness-checkout/internal/infra/logging"
)

// ---- request/response shapes ----

type lineItemDTO struct {
	PackageID     string `json:"packageId"`
	PackageName   string `json:"packageName"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unitPrice"`
	OriginalPrice int64  `json:"originalPrice,omitempty"`
}

type cartDTO struct {
	ID    string        `json:"id"`
	Items []lineItemDTO `json:"items"`
}

type startRequest struct {
	Cart cartDTO `json:"cart"`
	Mode string  `json:"mode"`
}

type attemptResponse struct {
	AttemptID     string `json:"attemptId"`
	State         string `json:"state"`
	SessionID     string `json:"sessionId,omitempty"`
	CheckoutURL   string `json:"checkoutUrl,omitempty"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

func (dto cartDTO) toModel(ownerID string) *model.Cart {
	c := &model.Cart{ID: dto.ID, OwnerID: ownerID}
	for _, li := range dto.Items {
		c.Items = append(c.Items, model.LineItem{
			PackageID:     li.PackageID,
			PackageName:   li.PackageName,
			Quantity:      li.Quantity,
			UnitPrice:     li.UnitPrice,
			OriginalPrice: li.OriginalPrice,
		})
	}
	return c
}

func attemptToResponse(a *model.Attempt, sess *model.CheckoutSession) attemptResponse {
	resp := attemptResponse{
		AttemptID:     a.ID,
		State:         string(a.State),
		SessionID:     a.SessionID,
		Amount:        a.Amount,
		Currency:      a.Currency,
		FailureReason: a.FailureReason,
	}
	if sess != nil {
		resp.CheckoutURL = sess.CheckoutURL
		resp.ClientSecret = sess.ClientSecret
	}
	return resp
}

// ---- handlers ----

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode := model.CheckoutMode(req.Mode)
	if mode == "" {
		mode = model.ModePayment
	}
	if mode != model.ModePayment && mode != model.ModeSubscription {
		writeError(w, http.StatusBadRequest, "mode must be payment or subscription")
		return
	}

	ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
	ctx = logging.WithOwnerID(ctx, identity.ID)
	ctx = logging.WithCartID(ctx, req.Cart.ID)

	a, sess, err := s.checkoutUC.Start(ctx, req.Cart.toModel(identity.ID), *identity, mode)
	if err != nil {
		s.writeStartError(w, a, err)
		return
	}
	writeJSON(w, http.StatusCreated, attemptToResponse(a, sess))
}

// writeStartError maps the error taxonomy: validation errors recover locally
// with an inline message, session-creation failures carry the attempt id so
// the client keeps its retry affordance.
func (s *Server) writeStartError(w http.ResponseWriter, a *model.Attempt, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrNonPositiveTotal):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrCheckoutInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		body := map[string]any{"message": err.Error()}
		if a != nil {
			body["attemptId"] = a.ID
			body["state"] = string(a.State)
		}
		writeJSON(w, http.StatusBadGateway, body)
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethodID string `json:"paymentMethodId"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	a, err := s.checkoutUC.ConfirmEmbedded(r.Context(), chi.URLParam(r, "attemptID"), req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeAttemptError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptToResponse(a, nil))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	a, sess, err := s.checkoutUC.Retry(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAttemptNotRetryable):
			writeError(w, http.StatusConflict, err.Error())
		case a != nil:
			s.writeStartError(w, a, err)
		default:
			s.writeAttemptError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, attemptToResponse(a, sess))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	err := s.checkoutUC.Close(r.Context(), chi.URLParam(r, "attemptID"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrPaymentInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeAttemptError(w, err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := s.attempts.FindByID(r.Context(), nil, chi.URLParam(r, "attemptID"))
	if err != nil {
		s.writeAttemptError(w, err)
		return
	}
	if identity := IdentityFromContext(r.Context()); identity == nil || identity.ID != a.OwnerID {
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, attemptToResponse(a, nil))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	var req struct {
		Cart       cartDTO `json:"cart"`
		IncludeTax bool    `json:"includeTax"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	summary := model.Summarize(req.Cart.toModel(identity.ID), model.SummaryOptions{IncludeTax: req.IncludeTax})
	writeJSON(w, http.StatusOK, summary)
}

// handleReturn is the hosted-flow re-entry point. The redirect arriving here
// proves nothing; the use case polls the processor before declaring SUCCESS.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.renderReturnPage(w, http.StatusBadRequest, false, "missing session_id")
		return
	}
	ctx := logging.WithSessionID(r.Context(), sessionID)
	a, err := s.checkoutUC.ResumeFromRedirect(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.renderReturnPage(w, http.StatusNotFound, false, "unknown checkout session")
			return
		}
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("resume from redirect")
		s.renderReturnPage(w, http.StatusBadGateway, false, "could not verify payment; if you were charged, your order will be confirmed shortly")
		return
	}
	if a.State == model.StateSuccess {
		s.renderReturnPage(w, http.StatusOK, true, "payment verified. Your training sessions are on their way.")
		return
	}
	s.renderReturnPage(w, http.StatusOK, false, a.FailureReason)
}

func (s *Server) writeAttemptError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

var returnPage = template.Must(template.New("return").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Success{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment Successful{{else}}Payment Not Completed{{end}}</h2>
  <p>{{.Msg}}</p>
  <a class="btn" href="/">Back to the store</a>
</div>
</body>
</html>`))

func (s *Server) renderReturnPage(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = returnPage.Execute(w, struct {
		OK  bool
		Msg string
	}{OK: ok, Msg: msg})
}
