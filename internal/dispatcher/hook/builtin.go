package hook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/event/events"
)

// Standard hook priorities.
const (
	PriorityAudit        = 1000 // Runs first (pre) / last (post)
	PriorityPrecondition = 900  // Session preconditions
	PriorityValidation   = 800  // Payload validation
	PriorityPlugin       = 100  // Plugin observers
)

// ErrNotLoaded rejects commands sent before a dashboard is initialized.
var ErrNotLoaded = errors.New("dashboard is not loaded")

// AuditHook logs every dispatched command.
type AuditHook struct {
	logger zerolog.Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger zerolog.Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the command being dispatched.
func (h *AuditHook) PreDispatch(_ context.Context, cmd command.Command, _ *execctx.Context) error {
	m := cmd.Metadata()
	h.logger.Debug().
		Str("command", string(cmd.CommandType())).
		Str("command_id", m.ID).
		Str("correlation_id", m.CorrelationID).
		Msg("dispatch start")
	return nil
}

// PostDispatch logs the outcome.
func (h *AuditHook) PostDispatch(_ context.Context, cmd command.Command, _ *execctx.Context, out Outcome) {
	m := cmd.Metadata()
	if out.Failed() {
		ev := h.logger.Warn()
		if out.Reason == events.ReasonInternalError {
			ev = h.logger.Error()
		}
		ev.Err(out.Err).
			Str("command", string(cmd.CommandType())).
			Str("command_id", m.ID).
			Str("correlation_id", m.CorrelationID).
			Str("reason", string(out.Reason)).
			Bool("rejected", out.Rejected).
			Bool("panicked", out.Panicked).
			Dur("duration", out.Duration).
			Msg("dispatch failed")
		return
	}
	h.logger.Debug().
		Str("command", string(cmd.CommandType())).
		Str("command_id", m.ID).
		Str("correlation_id", m.CorrelationID).
		Str("event", out.Event.Type.String()).
		Dur("duration", out.Duration).
		Msg("dispatch complete")
}

// LoadedHook rejects commands until a dashboard is loaded. Initialize is exempt.
type LoadedHook struct{}

// NewLoadedHook creates a loaded precondition hook.
func NewLoadedHook() *LoadedHook {
	return &LoadedHook{}
}

// Name implements Hook.
func (h *LoadedHook) Name() string { return "loaded" }

// Priority implements Hook.
func (h *LoadedHook) Priority() int { return PriorityPrecondition }

// PreDispatch implements PreDispatchHook.
func (h *LoadedHook) PreDispatch(_ context.Context, cmd command.Command, hc *execctx.Context) error {
	if cmd.CommandType() == command.TypeInitialize {
		return nil
	}
	if !hc.State().IsLoaded() {
		return ErrNotLoaded
	}
	return nil
}

// StructValidationHook validates command payloads against their struct tags.
type StructValidationHook struct {
	validate *validator.Validate
}

// NewStructValidationHook creates a struct validation hook.
func NewStructValidationHook() *StructValidationHook {
	return &StructValidationHook{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Name implements Hook.
func (h *StructValidationHook) Name() string { return "struct-validation" }

// Priority implements Hook.
func (h *StructValidationHook) Priority() int { return PriorityValidation }

// PreDispatch implements PreDispatchHook.
func (h *StructValidationHook) PreDispatch(_ context.Context, cmd command.Command, _ *execctx.Context) error {
	err := h.validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid %s: %s", cmd.CommandType(), strings.Join(msgs, "; "))
}

// ValidationHook validates commands with a custom function.
type ValidationHook struct {
	name     string
	priority int
	validate func(command.Command, *execctx.Context) error
}

// NewValidationHook creates a validation hook.
func NewValidationHook(name string, priority int, validate func(command.Command, *execctx.Context) error) *ValidationHook {
	return &ValidationHook{
		name:     name,
		priority: priority,
		validate: validate,
	}
}

// Name implements Hook.
func (h *ValidationHook) Name() string { return h.name }

// Priority implements Hook.
func (h *ValidationHook) Priority() int { return h.priority }

// PreDispatch implements PreDispatchHook.
func (h *ValidationHook) PreDispatch(_ context.Context, cmd command.Command, hc *execctx.Context) error {
	if h.validate == nil {
		return nil
	}
	return h.validate(cmd, hc)
}
