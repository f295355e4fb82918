package model

import "time"

// Analysis is one complete pipeline run for a session: what the caller
// wanted, whether the expected tool protocol ran, and whether the system
// of record reflects the claimed outcome. Immutable once produced.
type Analysis struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"session_id"`
	Intent     CallerIntent       `json:"intent"`
	Sequence   ToolSequenceResult `json:"sequence"`
	Verdict    FulfillmentVerdict `json:"verdict"`
	AnalyzedAt time.Time          `json:"analyzed_at"`
}
