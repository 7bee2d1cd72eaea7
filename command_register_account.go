package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterAccountResponse is handed to OnResponse after a successful
// registration.
type RegisterAccountResponse struct {
	Account *Account
}

// RegisterAccountCommand wraps a RegisterAccountMessage with a response
// callback.
type RegisterAccountCommand struct {
	RegisterAccountMessage
	OnResponse func(resp *RegisterAccountResponse)
}

// RegisterAccountHandler runs registrations as commands.
type RegisterAccountHandler struct {
	accounts *AccountService
	timeout  time.Duration
}

// NewRegisterAccountHandler creates a handler around accounts.
func NewRegisterAccountHandler(accounts *AccountService) *RegisterAccountHandler {
	return &RegisterAccountHandler{accounts: accounts, timeout: 10 * time.Second}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountCommand) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountCommand) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	account, err := h.accounts.Register(ctx, event.RegisterAccountMessage)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{Account: account})
	}

	return nil
}
