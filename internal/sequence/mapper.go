package sequence

import (
	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/model"
)

// Map evaluates the expected tool protocol for the classified intent
// against the observed tool calls. It never fails: gaps in the telemetry
// surface as missing or failed steps, not errors.
func Map(intent model.CallerIntent, observations []model.Observation, vocab Vocabulary) model.ToolSequenceResult {
	steps := ExpectedSteps(intent.Type, vocab)

	// Booking outputs sometimes embed per-subject creation flags when the
	// agent created patient records implicitly while booking. Pre-scan so
	// a create step with no direct calls can still be satisfied.
	inlineCreations := countInlineCreations(observations, vocab)

	result := model.ToolSequenceResult{IntentType: intent.Type}

	completed, required := 0, 0
	for _, step := range steps {
		status := evaluateStep(step, intent, observations, vocab)

		if step.Tool == vocab.CreateTool &&
			step.Occurrence == model.OccurrencePerSubject &&
			status.Status == model.StepMissing &&
			inlineCreations > 0 {
			status.ActualCount = inlineCreations
			if inlineCreations >= status.ExpectedCount {
				status.Status = model.StepCompleted
			} else {
				status.Status = model.StepFailed
				status.Errors = append(status.Errors, "inline creations cover only part of the expected subjects")
			}
			zap.L().Debug("sequence: create step satisfied by inline creations",
				zap.Int("inline", inlineCreations),
				zap.Int("expected", status.ExpectedCount),
			)
		}

		// Optional steps that never ran are excluded from the rate.
		if !(step.Optional && status.Status == model.StepMissing) {
			required++
			if status.Status == model.StepCompleted {
				completed++
			}
		}

		result.Steps = append(result.Steps, status)
	}

	if required > 0 {
		result.CompletionRate = float64(completed) / float64(required)
	} else {
		result.CompletionRate = 1.0
	}

	return result
}

func evaluateStep(step model.ExpectedStep, intent model.CallerIntent, observations []model.Observation, vocab Vocabulary) model.StepStatus {
	expected := 1
	if step.Occurrence == model.OccurrencePerSubject {
		expected = intent.SubjectCount()
	}

	status := model.StepStatus{
		Step:          step,
		ExpectedCount: expected,
	}

	nonError := 0
	for i, obs := range observations {
		if !matches(step, obs, vocab) {
			continue
		}
		status.MatchedObservations = append(status.MatchedObservations, i)
		if observationFailed(obs) {
			status.Errors = append(status.Errors, extractErrorMessage(obs))
		} else {
			nonError++
		}
	}
	status.ActualCount = len(status.MatchedObservations)

	switch {
	case status.ActualCount == 0:
		status.Status = model.StepMissing
	case nonError >= expected:
		status.Status = model.StepCompleted
	default:
		status.Status = model.StepFailed
	}

	return status
}

// matches reports whether an observation is a candidate for a step. The
// tool identifier must match; the action tag is enforced only when the
// observation input actually carries one, so deployments with distinct
// per-operation tool names need no action fields at all.
func matches(step model.ExpectedStep, obs model.Observation, vocab Vocabulary) bool {
	if obs.ToolName != step.Tool {
		return false
	}
	if step.Action == "" {
		return true
	}
	observed := StringField(obs.ParsedInput(), vocab.ActionFields)
	if observed == "" {
		return true
	}
	return vocab.ActionMatches(step.Action, observed)
}

func observationFailed(obs model.Observation) bool {
	if obs.IsError {
		return true
	}
	out := obs.ParsedOutput()
	if out == nil {
		return false
	}
	if success, ok := out["success"].(bool); ok && !success {
		return true
	}
	return false
}

// extractErrorMessage pulls a human-readable failure reason from a
// matching observation, checking fields in a fixed priority order.
func extractErrorMessage(obs model.Observation) string {
	out := obs.ParsedOutput()
	for _, key := range []string{"error", "message", "debug_error", "status_message"} {
		if msg, ok := out[key].(string); ok && msg != "" {
			return msg
		}
		// Some providers nest the failure under an error object.
		if nested, ok := out[key].(map[string]any); ok {
			if msg, ok := nested["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return "marked as error"
}

// countInlineCreations counts per-subject creation flags embedded in
// booking outputs.
func countInlineCreations(observations []model.Observation, vocab Vocabulary) int {
	count := 0
	for _, obs := range observations {
		if obs.ToolName != vocab.BookTool {
			continue
		}
		out := obs.ParsedOutput()
		if out == nil {
			continue
		}
		for _, key := range vocab.ChildKeys {
			entries, ok := out[key].([]any)
			if !ok {
				continue
			}
			for _, entry := range entries {
				block, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				for _, flag := range vocab.CreatedKeys {
					if created, ok := block[flag].(bool); ok && created {
						count++
						break
					}
				}
			}
		}
	}
	return count
}
