package identity

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset.initialize" }

// InitializePasswordResetResponse reports whether a reset was started.
// Found is false for unknown emails so callers can answer the same way in
// both cases.
type InitializePasswordResetResponse struct {
	Account *Account `json:"-"`
	Found   bool     `json:"found"`
}

type InitializePasswordResetHandler struct {
	workflow *ResetWorkflow
	timeout  time.Duration
}

// NewInitializePasswordResetHandler creates a handler around workflow.
func NewInitializePasswordResetHandler(workflow *ResetWorkflow) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{workflow: workflow, timeout: 10 * time.Second}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := &InitializePasswordResetResponse{}

	account, err := h.workflow.RequestReset(ctx, event.Email)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
	} else {
		resp.Account = account
		resp.Found = true
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
