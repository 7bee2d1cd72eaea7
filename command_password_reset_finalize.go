package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	ResetPasswordMessage
	OnResponse func(account *Account)
}

func (m FinalizePasswordResetMessage) Type() string { return "account.password_reset.finalize" }

type FinalizePasswordResetHandler struct {
	workflow *ResetWorkflow
	timeout  time.Duration
}

// NewFinalizePasswordResetHandler creates a handler around workflow.
func NewFinalizePasswordResetHandler(workflow *ResetWorkflow) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{workflow: workflow, timeout: 10 * time.Second}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	account, err := h.workflow.ResetPassword(ctx, event.ResetPasswordMessage)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
