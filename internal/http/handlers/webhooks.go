package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"nordkart.com/app/internal/http/middleware"
	"nordkart.com/app/internal/modules/money"
	"nordkart.com/app/internal/modules/payments"
	"nordkart.com/app/internal/shared/apperr"
)

type WebhookHandler struct {
	Logger      *slog.Logger
	Providers   map[string]payments.Provider
	Claims      *payments.ClaimStore
	Settlements *payments.SettlementService
}

func NewWebhookHandler(logger *slog.Logger, providers map[string]payments.Provider, claims *payments.ClaimStore, settlements *payments.SettlementService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Providers: providers, Claims: claims, Settlements: settlements}
}

func (h *WebhookHandler) Register(r *gin.Engine) {
	r.POST("/webhooks/:provider", h.Handle)
}

// POST /webhooks/:provider
//
// Pipeline order matters: the strict monetary guard runs on the raw body
// BEFORE signature verification so that numeric monetary literals never
// reach any parsing path that could corrupt downstream arithmetic. Anything
// safe to ignore answers 200 with a reason so the provider stops retrying.
func (h *WebhookHandler) Handle(c *gin.Context) {
	provider, ok := h.Providers[c.Param("provider")]
	if !ok {
		middleware.Fail(c, apperr.NotFoundErr("UNKNOWN_PROVIDER", "Unknown provider."))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("INVALID_BODY", "Could not read request body."))
		return
	}

	if _, err := money.ParseStrict(body); err != nil {
		var fe *money.MonetaryFieldError
		if errors.As(err, &fe) {
			middleware.Fail(c, apperr.InvalidErr("MONETARY_FIELD_VIOLATION", fe.Reason))
			return
		}
		middleware.Fail(c, apperr.InvalidErr("MALFORMED_PAYLOAD", "Request body is not valid JSON."))
		return
	}

	ev, err := provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "webhook rejected",
			"provider", provider.Name(), "err", err)
		middleware.Fail(c, apperr.InvalidErr("INVALID_SIGNATURE", "Invalid signature or payload."))
		return
	}

	claim, err := h.Claims.Claim(c.Request.Context(), provider.Name(), ev.EventID)
	if err != nil {
		// fail closed: better to make the provider retry than risk a
		// double settlement across instances
		middleware.Fail(c, apperr.UnavailableErr("CLAIM_STORE_UNAVAILABLE", err))
		return
	}
	if !claim.Accepted {
		if claim.Reason == payments.ReasonInvalidEventID {
			middleware.Fail(c, apperr.InvalidErr("INVALID_EVENT_ID", "Event id is required."))
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": claim.Reason})
		return
	}

	if ev.Type != "payment.settled" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": "unhandled_event_type"})
		return
	}

	in := payments.SettleInput{
		Provider:   provider.Name(),
		EventID:    ev.EventID,
		OrderID:    ev.OrderID,
		Amount:     ev.Amount,
		Currency:   ev.Currency,
		RawPayload: body,
	}
	if ev.ResourceID != "" {
		in.ResourceID = &ev.ResourceID
	}
	if ev.IdempotencyKey != "" {
		in.ExpectedIdempotencyKey = &ev.IdempotencyKey
	}

	res, err := h.Settlements.Settle(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, payments.ErrMetadataMismatch) {
			middleware.Fail(c, apperr.ConflictErr("METADATA_MISMATCH", "Webhook metadata does not match the order."))
			return
		}
		// 500 so the provider retries
		h.Logger.ErrorContext(c.Request.Context(), "settlement failed",
			"provider", provider.Name(), "event_id", ev.EventID, "err", err)
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	switch {
	case res.Replayed:
		c.JSON(http.StatusOK, gin.H{"ok": true, "replayed": true})
	case res.IgnoredReason != "":
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": res.IgnoredReason})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "order_marked_paid": true})
	}
}
