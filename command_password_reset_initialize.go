package credentials

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

// InitializePasswordResetResponse is intentionally identical whether or not
// the email belongs to an account.
type InitializePasswordResetResponse struct {
	Success bool
	Message string
}

// GenericResetMessage is the caller-visible response body for every reset
// request, known and unknown emails alike.
const GenericResetMessage = "If the email is registered, a reset link has been sent"

type InitializePasswordResetHandler struct {
	verifier *Verifier
	logger   Logger
}

// NewInitializePasswordResetHandler creates a handler bound to the verifier.
func NewInitializePasswordResetHandler(verifier *Verifier) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		verifier: verifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
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
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.verifier.RequestPasswordReset(ctx, event.Email); err != nil {
		h.logger.Error("password reset initialization failed: %s", err)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Success: true,
			Message: GenericResetMessage,
		})
	}

	return nil
}
