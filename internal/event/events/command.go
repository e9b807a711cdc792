package events

import (
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/event/topic"
)

// Command lifecycle topics.
const (
	// TopicCommandStarted is published when a command enters validation.
	TopicCommandStarted topic.Topic = "dash.evt.command.started"

	// TopicCommandFailed is published when a command is rejected or its handler fails.
	TopicCommandFailed topic.Topic = "dash.evt.command.failed"
)

// FailureReason classifies a command failure.
type FailureReason string

const (
	// ReasonUserError means the caller can retry with corrected input.
	ReasonUserError FailureReason = "USER_ERROR"

	// ReasonInternalError means the backend or the handler failed.
	ReasonInternalError FailureReason = "INTERNAL_ERROR"
)

// CommandStarted is published before a command is validated.
type CommandStarted struct {
	Command command.Command `json:"command"`
}

// EventType implements event.Payload.
func (CommandStarted) EventType() topic.Topic { return TopicCommandStarted }

// CommandFailed ends a command that did not succeed.
type CommandFailed struct {
	Reason  FailureReason   `json:"reason"`
	Message string          `json:"message"`
	Command command.Command `json:"command"`
}

// EventType implements event.Payload.
func (CommandFailed) EventType() topic.Topic { return TopicCommandFailed }
