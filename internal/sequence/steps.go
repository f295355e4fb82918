package sequence

import "github.com/sells-group/callaudit/internal/model"

// ExpectedSteps returns the ordered tool protocol for an intent type,
// expressed in the given deployment vocabulary.
func ExpectedSteps(t model.IntentType, v Vocabulary) []model.ExpectedStep {
	switch t {
	case model.IntentBooking:
		return []model.ExpectedStep{
			{Tool: v.SearchTool, Action: ActionSearch, Occurrence: model.OccurrenceOnce, Optional: true},
			{Tool: v.SlotsTool, Action: ActionSlots, Occurrence: model.OccurrenceOnce},
			{Tool: v.CreateTool, Action: ActionCreate, Occurrence: model.OccurrencePerSubject},
			{Tool: v.BookTool, Action: ActionBook, Occurrence: model.OccurrencePerSubject},
		}
	case model.IntentRescheduling:
		return []model.ExpectedStep{
			{Tool: v.SearchTool, Action: ActionSearch, Occurrence: model.OccurrenceOnce, Optional: true},
			{Tool: v.SlotsTool, Action: ActionSlots, Occurrence: model.OccurrenceOnce},
			{Tool: v.CancelTool, Action: ActionCancel, Occurrence: model.OccurrenceOnce, Optional: true},
			{Tool: v.BookTool, Action: ActionBook, Occurrence: model.OccurrencePerSubject},
		}
	case model.IntentCancellation:
		return []model.ExpectedStep{
			{Tool: v.SearchTool, Action: ActionSearch, Occurrence: model.OccurrenceOnce, Optional: true},
			{Tool: v.CancelTool, Action: ActionCancel, Occurrence: model.OccurrenceOnce},
		}
	default:
		// Info lookups have no required protocol; a search or slots call
		// may legitimately appear.
		return []model.ExpectedStep{
			{Tool: v.SearchTool, Action: ActionSearch, Occurrence: model.OccurrenceOnce, Optional: true},
			{Tool: v.SlotsTool, Action: ActionSlots, Occurrence: model.OccurrenceOnce, Optional: true},
		}
	}
}
