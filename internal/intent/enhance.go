package intent

import (
	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/model"
)

// Enhance overrides transcript-derived names with names re-derived from
// tool outputs, which reflect actually-created records and so are the
// better source. Names found only in the transcript survive when the
// tool outputs yielded none. Only booking intents are enhanced.
func Enhance(intent model.CallerIntent, claims []model.ClaimedRecord) model.CallerIntent {
	if intent.Type != model.IntentBooking {
		return intent
	}

	var children []string
	parent := ""
	for _, c := range claims {
		if c.Kind != model.ClaimPerson {
			continue
		}
		name := c.ClaimedName
		if name == "" {
			name = c.SubjectName
		}
		if name == "" {
			continue
		}
		if c.SubjectName != "" {
			children = appendName(children, name)
		} else if parent == "" {
			parent = name
		}
	}

	if len(children) == 0 && parent == "" {
		return intent
	}

	details := &model.BookingDetails{}
	if intent.BookingDetails != nil {
		copied := *intent.BookingDetails
		details = &copied
	}
	if len(children) > 0 {
		details.ChildNames = children
	}
	if parent != "" {
		details.ParentName = parent
	}
	details.Normalize()

	zap.L().Debug("classify: enhanced booking details from tool outputs",
		zap.Int("children", len(details.ChildNames)),
		zap.Bool("parent", details.ParentName != ""),
	)

	out := intent
	out.BookingDetails = details
	return out
}
