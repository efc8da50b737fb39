package models

// PaymentIntent is the part of a provider intent handed back to the client.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentConfirmation is a provider-confirmed payment, decoded from a webhook
// event. AmountMinor is in the currency's minor unit (cents).
type PaymentConfirmation struct {
	EventID     string
	IntentID    string
	UserID      string
	AmountMinor int64
	Currency    string
	Status      string
}

const PaymentStatusSucceeded = "succeeded"
