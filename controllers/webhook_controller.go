package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 512 << 10

// StripeWebhook verifies the envelope against the raw body and acknowledges
// every event that parses. Materialization runs detached from the client
// connection so a dropped request cannot abort it halfway.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Webhook Error: payload too large"})
			return
		}
		badRequest(c, "Webhook Error: unreadable body")
		return
	}

	event, err := h.webhooks.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.materializeTimeout)
	defer cancel()

	if err := h.webhooks.Dispatch(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("webhook acknowledged with failed dispatch")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
