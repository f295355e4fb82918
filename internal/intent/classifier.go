// Package intent determines what the caller wanted from a session
// transcript, preferring a generative-model call with a deterministic
// pattern fallback.
package intent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/config"
	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/resilience"
	"github.com/sells-group/callaudit/pkg/anthropic"
)

const classifySystemPrompt = `You audit transcripts of phone calls handled by an automated medical scheduling agent. Classify the caller's intent as exactly one of: booking, rescheduling, cancellation, info_lookup. Respond with a single JSON object and nothing else:
{"type": "<intent>", "confidence": <0.0-1.0>, "summary": "<one sentence>", "booking_details": {"child_count": <n>, "child_names": [], "parent_name": null, "parent_phone": null, "requested_dates": []}}
Include booking_details only for booking or rescheduling intents.`

// fallbackTriggerConfidence is the ceiling under which an info_lookup
// answer from the model is treated as a non-answer.
const fallbackTriggerConfidence = 0.1

// Classifier derives a CallerIntent from a conversation transcript.
type Classifier struct {
	ai    anthropic.Client
	cfg   config.AnthropicConfig
	retry resilience.RetryConfig
}

// NewClassifier creates a classifier backed by the given provider. A nil
// client disables the model path entirely.
func NewClassifier(ai anthropic.Client, cfg config.AnthropicConfig) *Classifier {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "classify")
	return &Classifier{ai: ai, cfg: cfg, retry: retry}
}

// Classify determines the caller's intent. It never returns an error:
// provider failures degrade to the deterministic fallback classifier,
// and an unclassifiable transcript yields a zero-confidence intent.
func (c *Classifier) Classify(ctx context.Context, turns []model.ConversationTurn) model.CallerIntent {
	if len(turns) < 2 {
		return model.CallerIntent{
			Type:       model.IntentInfoLookup,
			Confidence: 0.5,
			Summary:    "insufficient data: transcript has fewer than 2 turns",
		}
	}

	if c.ai != nil && c.ai.Available() {
		intent, err := c.classifyModel(ctx, turns)
		if err != nil {
			zap.L().Warn("classify: provider call failed, using fallback", zap.Error(err))
		} else if intent.Type == model.IntentInfoLookup && intent.Confidence < fallbackTriggerConfidence {
			zap.L().Debug("classify: near-zero-confidence model answer, using fallback")
		} else {
			return intent
		}
	}

	return classifyFallback(turns)
}

func (c *Classifier) classifyModel(ctx context.Context, turns []model.ConversationTurn) (model.CallerIntent, error) {
	temperature := 0.0
	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       c.cfg.Model,
			MaxTokens:   c.cfg.MaxTokens,
			System:      classifySystemPrompt,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{Role: "user", Content: formatTranscript(turns)},
			},
		})
	})
	if err != nil {
		return model.CallerIntent{}, err
	}

	return parseIntent(extractText(resp))
}

// formatTranscript renders the turns as a role-tagged text block.
func formatTranscript(turns []model.ConversationTurn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// parseIntent locates the first balanced JSON object in the model output
// and coerces it into a valid CallerIntent: unknown types become
// info_lookup, confidence is clamped to [0,1], and malformed
// booking-detail sub-objects are defaulted rather than rejected.
func parseIntent(text string) (model.CallerIntent, error) {
	obj := extractJSONObject(text)

	var raw struct {
		Type           string         `json:"type"`
		Confidence     float64        `json:"confidence"`
		Summary        string         `json:"summary"`
		BookingDetails map[string]any `json:"booking_details"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return model.CallerIntent{}, err
	}

	intent := model.CallerIntent{
		Type:       coerceIntentType(raw.Type),
		Confidence: clamp01(raw.Confidence),
		Summary:    raw.Summary,
	}

	if intent.Type == model.IntentBooking || intent.Type == model.IntentRescheduling {
		intent.BookingDetails = coerceBookingDetails(raw.BookingDetails)
	}

	return intent, nil
}

func coerceIntentType(s string) model.IntentType {
	t := model.IntentType(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range model.AllIntentTypes() {
		if t == valid {
			return t
		}
	}
	return model.IntentInfoLookup
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func coerceBookingDetails(raw map[string]any) *model.BookingDetails {
	d := &model.BookingDetails{}
	if raw != nil {
		if n, ok := raw["child_count"].(float64); ok {
			d.ChildCount = int(n)
		}
		d.ChildNames = stringSlice(raw["child_names"])
		if s, ok := raw["parent_name"].(string); ok {
			d.ParentName = s
		}
		if s, ok := raw["parent_phone"].(string); ok {
			d.ParentPhone = s
		}
		d.RequestedDates = stringSlice(raw["requested_dates"])
	}
	d.Normalize()
	return d
}

func stringSlice(raw any) []string {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range entries {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// extractJSONObject returns the first balanced {...} substring, skipping
// braces inside JSON strings. Returns the input unchanged when no object
// is found so the caller's unmarshal reports the real problem.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return text
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}
