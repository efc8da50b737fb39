package payment

import (
	"context"
	"encoding/json"
	"errors"

	"foodninja/apperrors"
	"foodninja/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const metadataUserKey = "user"

// Materializer records the order for a confirmed payment.
type Materializer interface {
	Materialize(ctx context.Context, conf models.PaymentConfirmation) (*models.Order, error)
}

type eventHandler func(ctx context.Context, event stripe.Event) error

// Receiver verifies Stripe webhook envelopes and routes them by event type.
type Receiver struct {
	secret       string
	materializer Materializer
	log          zerolog.Logger
	handlers     map[stripe.EventType]eventHandler
}

func NewReceiver(secret string, materializer Materializer, log zerolog.Logger) *Receiver {
	r := &Receiver{
		secret:       secret,
		materializer: materializer,
		log:          log.With().Str("component", "webhook").Logger(),
	}
	r.handlers = map[stripe.EventType]eventHandler{
		stripe.EventTypePaymentIntentSucceeded: r.paymentSucceeded,
		stripe.EventTypePaymentMethodAttached:  r.paymentMethodAttached,
	}
	return r
}

// Parse checks the Stripe-Signature header against the payload.
func (r *Receiver) Parse(payload []byte, signature string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, apperrors.Validation("Missing Stripe-Signature header")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, r.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("rejected webhook envelope")
		return stripe.Event{}, &apperrors.Error{Kind: apperrors.ErrValidation, Message: "Webhook Error: " + err.Error(), Err: err}
	}
	return event, nil
}

// Dispatch runs the handler registered for the event type. Unknown types are
// acknowledged without side effects. A duplicate delivery is not an error.
func (r *Receiver) Dispatch(ctx context.Context, event stripe.Event) error {
	handle, ok := r.handlers[event.Type]
	if !ok {
		r.log.Debug().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("unhandled event type")
		return nil
	}
	return handle(ctx, event)
}

func (r *Receiver) paymentSucceeded(ctx context.Context, event stripe.Event) error {
	conf, err := confirmationFrom(event)
	if err != nil {
		r.log.Error().Err(err).Str("event_id", event.ID).Msg("undecodable payment_intent.succeeded payload")
		return err
	}
	log := r.log.With().
		Str("event_id", conf.EventID).
		Str("intent_id", conf.IntentID).
		Str("user_id", conf.UserID).
		Logger()

	order, err := r.materializer.Materialize(ctx, conf)
	switch {
	case err == nil:
		log.Info().Str("order_id", order.ID.Hex()).Msg("payment materialized")
		return nil
	case errors.Is(err, apperrors.ErrConflict):
		log.Info().Err(err).Msg("payment already materialized")
		return nil
	default:
		log.Error().Err(err).Int64("amount_minor", conf.AmountMinor).Msg("order materialization failed; replay required")
		return err
	}
}

func (r *Receiver) paymentMethodAttached(_ context.Context, event stripe.Event) error {
	r.log.Info().Str("event_id", event.ID).Msg("payment method attached")
	return nil
}

func confirmationFrom(event stripe.Event) (models.PaymentConfirmation, error) {
	if event.Data == nil {
		return models.PaymentConfirmation{}, apperrors.Validation("event %s has no data", event.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return models.PaymentConfirmation{}, &apperrors.Error{Kind: apperrors.ErrValidation, Message: "Invalid payment intent payload", Err: err}
	}
	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	return models.PaymentConfirmation{
		EventID:     event.ID,
		IntentID:    pi.ID,
		UserID:      pi.Metadata[metadataUserKey],
		AmountMinor: amount,
		Currency:    string(pi.Currency),
		Status:      string(pi.Status),
	}, nil
}
