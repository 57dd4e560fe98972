package enums

// PaymentIntentStatus tracks a gateway intent from creation to consumption.
type PaymentIntentStatus string

const (
	// PaymentIntentStatusCreated is set when the backend registers the intent
	// with the gateway, before the confirmation surface opens.
	PaymentIntentStatusCreated PaymentIntentStatus = "created"
	// PaymentIntentStatusConsumed is set once an order has been materialized
	// against the intent's verified proof. An intent is consumed at most once.
	PaymentIntentStatusConsumed PaymentIntentStatus = "consumed"
)
