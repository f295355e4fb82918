package model

import (
	"encoding/json"
	"time"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleCaller Role = "caller"
	RoleAgent  Role = "agent"
)

// ConversationTurn is one utterance in a call transcript, ordered by time.
// Turns are produced upstream by the transcript builder and consumed read-only.
type ConversationTurn struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Observation records a single tool invocation made by the phone agent:
// what tool ran, what went in, what came out, and whether the platform
// flagged it as an error.
type Observation struct {
	ToolName  string          `json:"tool_name"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	StartedAt time.Time       `json:"started_at,omitempty"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
}

// ParsedInput returns the observation input as a generic JSON object.
// Telemetry payloads arrive either as objects or as JSON-encoded strings
// containing an object; anything else yields nil rather than an error.
func (o Observation) ParsedInput() map[string]any {
	return parseStructured(o.Input)
}

// ParsedOutput returns the observation output as a generic JSON object.
// Same parsing rules as ParsedInput.
func (o Observation) ParsedOutput() map[string]any {
	return parseStructured(o.Output)
}

func parseStructured(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}

	// Some providers double-encode: a JSON string whose contents are the
	// actual object.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			return obj
		}
	}

	return nil
}
