package model

// Occurrence says how many times an expected step should appear: exactly
// once per session, or once per named subject (e.g. per child booked).
type Occurrence string

const (
	OccurrenceOnce       Occurrence = "once"
	OccurrencePerSubject Occurrence = "per_subject"
)

// ExpectedStep is one declarative element of the tool protocol for an
// intent type. It is configuration data, not derived from telemetry.
type ExpectedStep struct {
	Tool       string     `json:"tool"`
	Action     string     `json:"action,omitempty"`
	Occurrence Occurrence `json:"occurrence"`
	Optional   bool       `json:"optional,omitempty"`
}

// StepState is the outcome of matching one expected step against the
// observed tool calls.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepFailed    StepState = "failed"
	StepMissing   StepState = "missing"
)

// StepStatus records how one expected step fared.
type StepStatus struct {
	Step                ExpectedStep `json:"step"`
	Status              StepState    `json:"status"`
	ActualCount         int          `json:"actual_count"`
	ExpectedCount       int          `json:"expected_count"`
	MatchedObservations []int        `json:"matched_observations,omitempty"`
	Errors              []string     `json:"errors,omitempty"`
}

// ToolSequenceResult is the full protocol evaluation for a session.
type ToolSequenceResult struct {
	IntentType     IntentType   `json:"intent_type"`
	Steps          []StepStatus `json:"steps"`
	CompletionRate float64      `json:"completion_rate"`
}
