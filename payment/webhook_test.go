package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"foodninja/apperrors"
	"foodninja/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "whsec_test_secret"

type fakeMaterializer struct {
	calls []models.PaymentConfirmation
	err   error
}

func (f *fakeMaterializer) Materialize(_ context.Context, conf models.PaymentConfirmation) (*models.Order, error) {
	f.calls = append(f.calls, conf)
	return &models.Order{ID: primitive.NewObjectID(), PaymentIntentID: conf.IntentID}, f.err
}

func eventPayload(t *testing.T, eventType string, object map[string]any) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_123",
		"object":      "event",
		"api_version": "2020-08-27",
		"type":        eventType,
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return payload
}

func sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
	return signed.Header
}

type ReceiverSuite struct {
	suite.Suite
	mat      *fakeMaterializer
	receiver *Receiver
}

func (s *ReceiverSuite) SetupTest() {
	s.mat = &fakeMaterializer{}
	s.receiver = NewReceiver(testSecret, s.mat, zerolog.Nop())
}

func (s *ReceiverSuite) succeededPayload(object map[string]any) []byte {
	return eventPayload(s.T(), string(stripe.EventTypePaymentIntentSucceeded), object)
}

func (s *ReceiverSuite) TestParseRejectsBadSignature() {
	payload := s.succeededPayload(map[string]any{"id": "pi_1"})

	_, err := s.receiver.Parse(payload, sign(payload, "whsec_other"))
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.receiver.Parse(payload, "")
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.receiver.Parse([]byte("not json"), sign([]byte("not json"), testSecret))
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Empty(s.mat.calls)
}

func (s *ReceiverSuite) TestSucceededEventReachesMaterializer() {
	user := primitive.NewObjectID().Hex()
	payload := s.succeededPayload(map[string]any{
		"id":              "pi_1",
		"object":          "payment_intent",
		"amount":          1300,
		"amount_received": 1300,
		"currency":        "usd",
		"status":          "succeeded",
		"metadata":        map[string]string{"user": user},
	})

	event, err := s.receiver.Parse(payload, sign(payload, testSecret))
	s.Require().NoError(err)
	s.Require().NoError(s.receiver.Dispatch(context.Background(), event))

	s.Require().Len(s.mat.calls, 1)
	s.Equal(models.PaymentConfirmation{
		EventID:     "evt_123",
		IntentID:    "pi_1",
		UserID:      user,
		AmountMinor: 1300,
		Currency:    "usd",
		Status:      models.PaymentStatusSucceeded,
	}, s.mat.calls[0])
}

func (s *ReceiverSuite) TestAmountFallsBackWhenNothingReceived() {
	payload := s.succeededPayload(map[string]any{
		"id":       "pi_2",
		"amount":   850,
		"currency": "usd",
		"status":   "succeeded",
		"metadata": map[string]string{"user": "u"},
	})
	event, err := s.receiver.Parse(payload, sign(payload, testSecret))
	s.Require().NoError(err)
	s.Require().NoError(s.receiver.Dispatch(context.Background(), event))
	s.Require().Len(s.mat.calls, 1)
	s.Equal(int64(850), s.mat.calls[0].AmountMinor)
}

func (s *ReceiverSuite) TestDuplicateDeliveryIsNotAnError() {
	s.mat.err = apperrors.Conflict("order already exists")
	payload := s.succeededPayload(map[string]any{"id": "pi_1", "amount": 100, "status": "succeeded"})
	event, err := s.receiver.Parse(payload, sign(payload, testSecret))
	s.Require().NoError(err)

	s.NoError(s.receiver.Dispatch(context.Background(), event))
	s.NoError(s.receiver.Dispatch(context.Background(), event))
	s.Len(s.mat.calls, 2)
}

func (s *ReceiverSuite) TestMaterializationFailureIsReturned() {
	cause := apperrors.Internal("Failed to create order", errors.New("write failed"))
	s.mat.err = cause
	payload := s.succeededPayload(map[string]any{"id": "pi_1", "amount": 100, "status": "succeeded"})
	event, err := s.receiver.Parse(payload, sign(payload, testSecret))
	s.Require().NoError(err)

	s.ErrorIs(s.receiver.Dispatch(context.Background(), event), apperrors.ErrInternal)
}

func (s *ReceiverSuite) TestOtherEventsAreNoOps() {
	for _, eventType := range []string{"payment_method.attached", "charge.refunded"} {
		payload := eventPayload(s.T(), eventType, map[string]any{"id": "pm_1"})
		event, err := s.receiver.Parse(payload, sign(payload, testSecret))
		s.Require().NoError(err)
		s.NoError(s.receiver.Dispatch(context.Background(), event))
	}
	s.Empty(s.mat.calls)
}

func TestReceiverSuite(t *testing.T) {
	suite.Run(t, new(ReceiverSuite))
}

func TestConfirmationFromRejectsMissingData(t *testing.T) {
	_, err := confirmationFrom(stripe.Event{ID: "evt_empty"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
