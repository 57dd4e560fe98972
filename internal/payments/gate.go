package payments

import (
	"sync/atomic"

	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
)

// Outcome is the single resolution of a payment attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Gate latches the outcome of one payment attempt. The gateway surface can
// race its callbacks: a success handler, an explicit failure event, and the
// customer dismissing the window can all fire around the same moment. The
// first resolution wins and every later one is a no-op, so a dismissal
// arriving after a latched success never cancels a paid order.
type Gate struct {
	outcome atomic.Value
}

type gateResult struct {
	outcome Outcome
	proof   Proof
	reason  string
}

func NewGate() *Gate {
	return &Gate{}
}

// MarkSuccess latches a successful payment. An incomplete proof latches a
// failure instead. Returns true when this call won the latch.
func (g *Gate) MarkSuccess(proof Proof) bool {
	if !proof.Complete() {
		return g.latch(gateResult{outcome: OutcomeFailed, reason: "payment data incomplete"})
	}
	return g.latch(gateResult{outcome: OutcomeSucceeded, proof: proof})
}

// MarkFailed latches a gateway-reported failure.
func (g *Gate) MarkFailed(reason string) bool {
	if reason == "" {
		reason = "payment failed"
	}
	return g.latch(gateResult{outcome: OutcomeFailed, reason: reason})
}

// MarkDismissed latches a customer dismissal. Called after a success has
// latched it does nothing.
func (g *Gate) MarkDismissed() bool {
	return g.latch(gateResult{outcome: OutcomeCancelled, reason: "payment window dismissed"})
}

func (g *Gate) latch(result gateResult) bool {
	return g.outcome.CompareAndSwap(nil, result)
}

// Resolved reports whether any outcome has latched.
func (g *Gate) Resolved() bool {
	return g.outcome.Load() != nil
}

// Result returns the latched proof, or the coded error for a non-success
// outcome. The boolean is false until an outcome latches.
func (g *Gate) Result() (Proof, error, bool) {
	loaded := g.outcome.Load()
	if loaded == nil {
		return Proof{}, nil, false
	}
	result := loaded.(gateResult)
	switch result.outcome {
	case OutcomeSucceeded:
		return result.proof, nil, true
	case OutcomeCancelled:
		return Proof{}, pkgerrors.New(pkgerrors.CodePaymentCancelled, result.reason), true
	default:
		return Proof{}, pkgerrors.New(pkgerrors.CodePaymentFailed, result.reason), true
	}
}
