package identity

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AccountActivationMessage is the payload of an activation link.
type AccountActivationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Token      string `json:"token" doc:"Activation token from the emailed link"`
	OnResponse func(resp *AccountActivationResponse)
}

func (m AccountActivationMessage) Type() string { return "account.activate" }

// AccountActivationResponse reports the outcome. Invalid and Expired links
// are expected outcomes, not handler errors.
type AccountActivationResponse struct {
	Account   *Account `json:"-"`
	Activated bool     `json:"activated"`
	Invalid   bool     `json:"invalid"`
	Expired   bool     `json:"expired"`
}

// AccountActivationHandler consumes activation links.
type AccountActivationHandler struct {
	workflow *ActivationWorkflow
	timeout  time.Duration
}

// NewAccountActivationHandler creates a handler around workflow.
func NewAccountActivationHandler(workflow *ActivationWorkflow) *AccountActivationHandler {
	return &AccountActivationHandler{workflow: workflow, timeout: 10 * time.Second}
}

func (h *AccountActivationHandler) Execute(ctx context.Context, event AccountActivationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account activation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AccountActivationHandler) execute(ctx context.Context, event AccountActivationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := &AccountActivationResponse{}

	account, err := h.workflow.ActivateWithToken(ctx, event.Email, event.Token)
	switch {
	case err == nil:
		resp.Account = account
		resp.Activated = true
	case errors.Is(err, ErrActivationTokenInvalid):
		resp.Invalid = true
	case errors.Is(err, ErrActivationExpired):
		resp.Expired = true
	default:
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
