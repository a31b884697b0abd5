package payments

import (
	"context"

	"github.com/google/uuid"
)

// StatusOK is the callback status a gateway sends when the payer completed the flow.
const StatusOK = "OK"

// InitiateRequest asks the gateway to open a payment session.
type InitiateRequest struct {
	OrderID     uuid.UUID
	Amount      int64
	CallbackURL string
}

// InitiateResult reports whether the gateway accepted the session.
type InitiateResult struct {
	Accepted    bool
	Authority   string
	RedirectURL string
	// Message carries the gateway's rejection text, if any.
	Message string
}

// VerifyResult reports whether the gateway confirms the charge.
type VerifyResult struct {
	Accepted    bool
	ReferenceID string
}

// Gateway is the external payment provider. A transport failure is returned
// as an error; a business rejection is reported through Accepted.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Verify(ctx context.Context, authority string, amount int64) (VerifyResult, error)
}
