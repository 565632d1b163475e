package model

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCallStatus is the lifecycle state of a ToolCall. Completed, failed and
// declined are terminal.
type ToolCallStatus string

const (
	ToolCallPending   ToolCallStatus = "pending"
	ToolCallApproved  ToolCallStatus = "approved"
	ToolCallDeclined  ToolCallStatus = "declined"
	ToolCallCompleted ToolCallStatus = "completed"
	ToolCallFailed    ToolCallStatus = "failed"
)

// ToolCall is a requested analysis operation. Only the tool orchestrator may
// move its status.
type ToolCall struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Status     ToolCallStatus `json:"status"`
}

// ToolResult is the completed outcome of a ToolCall, keyed by the call's id.
// Created exactly once and immutable afterwards.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ToolRequest is what an intent classifier proposes: a named operation plus
// its parameters, before any ToolCall exists.
type ToolRequest struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ChatMessage is one entry in the conversation log. Messages are append-only;
// tool results arrive as new messages, never as edits.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}
