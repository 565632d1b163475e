// Package tools owns the analysis operation lifecycle. A ToolCall moves
// pending to approved to completed or failed, or pending to declined; nothing
// outside this package may change a call's status.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

// ErrUnknownTool is returned when a request names an operation the registry
// does not carry.
var ErrUnknownTool = errors.New("unknown tool")

// Handler executes one approved operation and returns its payload. Returned
// errors are captured into the ToolResult, never propagated to the caller.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// ApprovalPolicy decides whether a pending call may run. The baseline policy
// approves everything; a gated policy can intercept here without touching
// dispatch.
type ApprovalPolicy interface {
	Approve(call model.ToolCall) bool
}

// AutoApprove approves every call.
type AutoApprove struct{}

func (AutoApprove) Approve(model.ToolCall) bool { return true }

// Orchestrator routes approved ToolCalls to their handlers and produces
// exactly one ToolResult per call.
type Orchestrator struct {
	handlers map[string]Handler
	policy   ApprovalPolicy
	logger   logging.Logger
}

func NewOrchestrator(policy ApprovalPolicy, logger logging.Logger) *Orchestrator {
	if policy == nil {
		policy = AutoApprove{}
	}
	return &Orchestrator{
		handlers: map[string]Handler{},
		policy:   policy,
		logger:   logger.With(logging.Field{Key: "component", Value: "tools"}),
	}
}

// Register binds an operation name to its handler. Later registrations of the
// same name overwrite.
func (o *Orchestrator) Register(name string, h Handler) {
	if name == "" || h == nil {
		return
	}
	o.handlers[name] = h
}

// Names returns the registered operation names.
func (o *Orchestrator) Names() []string {
	out := make([]string, 0, len(o.handlers))
	for name := range o.handlers {
		out = append(out, name)
	}
	return out
}

// NewCall mints a pending ToolCall for a request.
func (o *Orchestrator) NewCall(req model.ToolRequest) model.ToolCall {
	return model.ToolCall{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Parameters: req.Parameters,
		Status:     model.ToolCallPending,
	}
}

// Dispatch runs a pending call through the full lifecycle and returns the
// terminal call plus its result. Declined calls get no result. Every failure
// mode, including an unknown tool name, lands in a failed call with an
// error-bearing result; Dispatch never returns an error itself.
func (o *Orchestrator) Dispatch(ctx context.Context, call model.ToolCall) (model.ToolCall, *model.ToolResult) {
	if !o.policy.Approve(call) {
		call.Status = model.ToolCallDeclined
		o.logger.Info("tool call declined",
			logging.Field{Key: "tool", Value: call.Name},
			logging.Field{Key: "call_id", Value: call.ID})
		return call, nil
	}
	call.Status = model.ToolCallApproved

	handler, ok := o.handlers[call.Name]
	if !ok {
		call.Status = model.ToolCallFailed
		err := fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		o.logger.Warn("tool call failed",
			logging.Field{Key: "tool", Value: call.Name},
			logging.Field{Key: "error", Value: err.Error()})
		return call, &model.ToolResult{ToolCallID: call.ID, Error: err.Error()}
	}

	o.logger.Info("dispatching tool call",
		logging.Field{Key: "tool", Value: call.Name},
		logging.Field{Key: "call_id", Value: call.ID})

	payload, err := handler(ctx, call.Parameters)
	if err != nil {
		call.Status = model.ToolCallFailed
		o.logger.Warn("tool call failed",
			logging.Field{Key: "tool", Value: call.Name},
			logging.Field{Key: "error", Value: err.Error()})
		return call, &model.ToolResult{ToolCallID: call.ID, Error: err.Error()}
	}

	call.Status = model.ToolCallCompleted
	return call, &model.ToolResult{ToolCallID: call.ID, Result: payload}
}

// Run is NewCall followed by Dispatch.
func (o *Orchestrator) Run(ctx context.Context, req model.ToolRequest) (model.ToolCall, *model.ToolResult) {
	return o.Dispatch(ctx, o.NewCall(req))
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func stringSliceParam(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing parameter %q", key)
	}
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q must contain strings only", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter %q must be a list of strings", key)
	}
}
