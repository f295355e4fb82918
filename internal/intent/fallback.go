package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/callaudit/internal/model"
)

// bookingSignals are lexical cues that the caller is trying to get an
// appointment on the books. Each signal counts at most once.
var bookingSignals = []string{
	"appointment",
	"schedule",
	"book",
	"available",
	"availability",
	"opening",
	"slot",
	"visit",
	"checkup",
	"check-up",
}

const (
	minBookingSignals   = 2
	maxFallbackScore    = 0.85
	fallbackBaseScore   = 0.5
	fallbackSignalScore = 0.1
)

var titleCaser = cases.Title(language.English)

// classifyFallback is the deterministic classifier used when the
// generative provider is unavailable or non-committal. It requires at
// least two booking signals and otherwise returns a zero-confidence
// info_lookup rather than erroring.
func classifyFallback(turns []model.ConversationTurn) model.CallerIntent {
	text := strings.ToLower(joinTurns(turns))

	hits := 0
	for _, signal := range bookingSignals {
		if strings.Contains(text, signal) {
			hits++
		}
	}

	if hits < minBookingSignals {
		return model.CallerIntent{
			Type:       model.IntentInfoLookup,
			Confidence: 0,
			Summary:    "fallback classifier found no clear intent signals in the transcript",
		}
	}

	details := &model.BookingDetails{
		ChildNames:  mineChildNames(turns),
		ParentName:  mineParentName(turns),
		ParentPhone: minePhone(turns),
	}
	if count := mineChildCount(text); count > 0 {
		details.ChildCount = count
	}
	details.Normalize()

	confidence := fallbackBaseScore + fallbackSignalScore*float64(hits)
	if confidence > maxFallbackScore {
		confidence = maxFallbackScore
	}

	return model.CallerIntent{
		Type:           model.IntentBooking,
		Confidence:     confidence,
		Summary:        fmt.Sprintf("booking intent inferred from %d transcript signals", hits),
		BookingDetails: details,
	}
}

func joinTurns(turns []model.ConversationTurn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

var (
	directChildNameRe = regexp.MustCompile(`(?i)\b(?:son|daughter|child|kid)(?:'s)?\s+name\s+is\s+([a-z]+)`)
	childNameAskRe    = regexp.MustCompile(`(?i)(?:child|son|daughter|patient)(?:'s)?\s+name`)
	answerFillerRe    = regexp.MustCompile(`(?i)^(?:um|uh|well|yes|sure|okay|ok|it's|its|his name is|her name is|the name is)[,.\s]+`)
	leadingNameRe     = regexp.MustCompile(`(?i)^([a-z]+)`)
	spelledNameRe     = regexp.MustCompile(`\b([A-Za-z](?:[\s\-][A-Za-z]){2,})\b`)
	childCountRe      = regexp.MustCompile(`(?i)\b(one|two|three|four|five|both|\d)\s+(?:children|kids|sons|daughters)\b`)
	introNameRe       = regexp.MustCompile(`(?i)\bthis is ([a-z]+(?:\s+[a-z]+)?)\b`)
	myNameRe          = regexp.MustCompile(`(?i)\bmy name is ([a-z]+(?:\s+[a-z]+)?)\b`)
	phoneRe           = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

// answerStopwords are replies that look like a name to the leading-token
// heuristic but never are.
var answerStopwords = map[string]bool{
	"yes": true, "no": true, "yeah": true, "sure": true,
	"okay": true, "ok": true, "thanks": true, "hello": true,
}

// mineChildNames extracts child names from the transcript using several
// complementary heuristics: direct "child's name is X" phrasing, the
// caller's answer to an agent question about the child's name, and
// letter-by-letter spelling confirmations.
func mineChildNames(turns []model.ConversationTurn) []string {
	var names []string

	// Direct phrasing anywhere in the transcript.
	for _, t := range turns {
		for _, m := range directChildNameRe.FindAllStringSubmatch(t.Content, -1) {
			names = appendName(names, m[1])
		}
	}

	// Question/answer adjacency: agent asks for the child's name, the
	// caller's next turn leads with it.
	for i := 0; i < len(turns)-1; i++ {
		if turns[i].Role != model.RoleAgent || !strings.Contains(turns[i].Content, "?") {
			continue
		}
		if !childNameAskRe.MatchString(turns[i].Content) {
			continue
		}
		answer := turns[i+1]
		if answer.Role != model.RoleCaller {
			continue
		}
		cleaned := strings.TrimSpace(answer.Content)
		for {
			next := answerFillerRe.ReplaceAllString(cleaned, "")
			if next == cleaned {
				break
			}
			cleaned = next
		}
		if m := leadingNameRe.FindStringSubmatch(cleaned); m != nil {
			word := strings.ToLower(m[1])
			if len(word) >= 2 && !answerStopwords[word] {
				names = appendName(names, word)
			}
		}
	}

	// Spelling confirmation ("I-S-A-I-A-H"), only in turns that are about
	// spelling to avoid matching stray letter runs.
	for i, t := range turns {
		if t.Role != model.RoleCaller {
			continue
		}
		spellingContext := strings.Contains(strings.ToLower(t.Content), "spell") ||
			(i > 0 && strings.Contains(strings.ToLower(turns[i-1].Content), "spell"))
		if !spellingContext {
			continue
		}
		for _, m := range spelledNameRe.FindAllStringSubmatch(t.Content, -1) {
			joined := strings.NewReplacer(" ", "", "-", "").Replace(m[1])
			if len(joined) >= 3 {
				names = appendName(names, joined)
			}
		}
	}

	return names
}

func appendName(names []string, raw string) []string {
	name := titleCaser.String(strings.ToLower(strings.TrimSpace(raw)))
	if name == "" {
		return names
	}
	for _, existing := range names {
		if strings.EqualFold(existing, name) {
			return names
		}
	}
	return append(names, name)
}

// mineParentName looks for the responsible party introducing themselves
// within the first few turns.
func mineParentName(turns []model.ConversationTurn) string {
	limit := min(len(turns), 4)
	for _, t := range turns[:limit] {
		if t.Role != model.RoleCaller {
			continue
		}
		for _, re := range []*regexp.Regexp{introNameRe, myNameRe} {
			if m := re.FindStringSubmatch(t.Content); m != nil {
				return titleCaser.String(strings.ToLower(m[1]))
			}
		}
	}
	return ""
}

func minePhone(turns []model.ConversationTurn) string {
	for _, t := range turns {
		if t.Role != model.RoleCaller {
			continue
		}
		if m := phoneRe.FindString(t.Content); m != "" {
			return m
		}
	}
	return ""
}

var countWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "both": 2,
}

// mineChildCount extracts explicit child-count phrases such as
// "two children".
func mineChildCount(lowerText string) int {
	m := childCountRe.FindStringSubmatch(lowerText)
	if m == nil {
		return 0
	}
	word := strings.ToLower(m[1])
	if n, ok := countWords[word]; ok {
		return n
	}
	if n, err := strconv.Atoi(word); err == nil {
		return n
	}
	return 0
}
