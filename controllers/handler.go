package controllers

import (
	"context"
	"net/http"
	"time"

	"foodninja/apperrors"
	"foodninja/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
)

// WebhookReceiver verifies and routes provider events.
type WebhookReceiver interface {
	Parse(payload []byte, signature string) (stripe.Event, error)
	Dispatch(ctx context.Context, event stripe.Event) error
}

type Deps struct {
	Cart               *services.CartService
	Catalog            *services.CatalogService
	Payments           *services.PaymentService
	Orders             *services.OrderService
	Webhooks           WebhookReceiver
	RequestTimeout     time.Duration
	MaterializeTimeout time.Duration
}

type Handler struct {
	cart               *services.CartService
	catalog            *services.CatalogService
	payments           *services.PaymentService
	orders             *services.OrderService
	webhooks           WebhookReceiver
	requestTimeout     time.Duration
	materializeTimeout time.Duration
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		cart:               d.Cart,
		catalog:            d.Catalog,
		payments:           d.Payments,
		orders:             d.Orders,
		webhooks:           d.Webhooks,
		requestTimeout:     d.RequestTimeout,
		materializeTimeout: d.MaterializeTimeout,
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = 5 * time.Second
	}
	if h.materializeTimeout <= 0 {
		h.materializeTimeout = 30 * time.Second
	}
	return h
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	log := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
