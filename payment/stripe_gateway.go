// Package payment talks to Stripe: intent creation on the way in, signed
// webhook events on the way back.
package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodninja/apperrors"
	"foodninja/models"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// intentAPI is the slice of the Stripe client the gateway uses.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeGateway struct {
	intents  intentAPI
	currency string
	breaker  *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
	log      zerolog.Logger
}

func NewStripeGateway(secretKey, currency string, log zerolog.Logger) *StripeGateway {
	client := &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
	return newStripeGateway(client, currency, log)
}

func newStripeGateway(intents intentAPI, currency string, log zerolog.Logger) *StripeGateway {
	g := &StripeGateway{
		intents:  intents,
		currency: strings.ToLower(currency),
		log:      log.With().Str("component", "stripe_gateway").Logger(),
	}
	g.breaker = gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](gobreaker.Settings{
		Name:        "stripe-payment-intents",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return g
}

// CreateIntent creates a Stripe PaymentIntent for amountMinor tagged with the
// user id in its metadata.
func (g *StripeGateway) CreateIntent(ctx context.Context, userID string, amountMinor int64) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserKey, userID)

	pi, err := g.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return g.intents.New(params)
	})
	if err != nil {
		g.log.Error().Err(err).
			Str("user_id", userID).
			Int64("amount_minor", amountMinor).
			Msg("create payment intent failed")
		return nil, apperrors.Upstream("Payment initialization failed", err)
	}

	g.log.Info().
		Str("intent_id", pi.ID).
		Str("user_id", userID).
		Int64("amount_minor", amountMinor).
		Msg("payment intent created")
	return &models.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// isClientError reports a 4xx from Stripe other than rate limiting. Those do
// not count against the breaker.
func isClientError(err error) bool {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		code := serr.HTTPStatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}
