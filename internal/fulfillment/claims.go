// Package fulfillment extracts the records the agent's tools claimed to
// create and cross-checks them against the system of record.
package fulfillment

import (
	"fmt"

	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/sequence"
)

// shapeMatcher tries to read one known tool-response shape out of a
// parsed output. It returns nil when the shape does not apply, letting
// the next matcher try.
type shapeMatcher func(out map[string]any, provenance string, vocab sequence.Vocabulary) []model.ClaimedRecord

// shapeMatchers are tried in priority order: the nested multi-subject
// booking shape first, the legacy flat single-identifier shape last.
var shapeMatchers = []shapeMatcher{
	matchNestedBooking,
	matchFlatRecord,
}

// ExtractClaims scans every observation's output for known tool-response
// shapes. Unparsable payloads are skipped, never failed.
func ExtractClaims(observations []model.Observation, vocab sequence.Vocabulary) []model.ClaimedRecord {
	var claims []model.ClaimedRecord
	for i, obs := range observations {
		out := obs.ParsedOutput()
		if out == nil {
			continue
		}
		provenance := fmt.Sprintf("%s output #%d", obs.ToolName, i)
		for _, match := range shapeMatchers {
			if got := match(out, provenance, vocab); got != nil {
				claims = append(claims, got...)
				break
			}
		}
	}
	return claims
}

// matchNestedBooking reads the newer response shape: a responsible-party
// block plus an array of per-subject blocks, each optionally carrying a
// nested appointment block.
func matchNestedBooking(out map[string]any, provenance string, vocab sequence.Vocabulary) []model.ClaimedRecord {
	var claims []model.ClaimedRecord

	for _, key := range vocab.ParentKeys {
		block, ok := out[key].(map[string]any)
		if !ok {
			continue
		}
		if id := sequence.StringField(block, vocab.PersonIDFields); id != "" {
			claims = append(claims, model.ClaimedRecord{
				Kind:        model.ClaimPerson,
				Identifier:  id,
				ClaimedName: sequence.StringField(block, vocab.NameFields),
				Provenance:  provenance,
			})
		}
		break
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
			subjectName := sequence.StringField(block, vocab.NameFields)
			personID := sequence.StringField(block, vocab.PersonIDFields)
			if personID != "" {
				claims = append(claims, model.ClaimedRecord{
					Kind:        model.ClaimPerson,
					Identifier:  personID,
					ClaimedName: subjectName,
					SubjectName: subjectName,
					Provenance:  provenance,
				})
			}
			for _, apptKey := range vocab.ApptKeys {
				appt, ok := block[apptKey].(map[string]any)
				if !ok {
					continue
				}
				if apptID := sequence.StringField(appt, vocab.AppointmentIDFields); apptID != "" {
					claims = append(claims, model.ClaimedRecord{
						Kind:            model.ClaimAppointment,
						Identifier:      apptID,
						RelatedPersonID: personID,
						ClaimedDate:     sequence.StringField(appt, vocab.DateFields),
						SubjectName:     subjectName,
						Provenance:      provenance,
					})
				}
				break
			}
		}
		break
	}

	return claims
}

// matchFlatRecord reads the legacy flat shape: identifiers at the top
// level of the output.
func matchFlatRecord(out map[string]any, provenance string, vocab sequence.Vocabulary) []model.ClaimedRecord {
	var claims []model.ClaimedRecord

	personID := flatField(out, vocab.PersonIDFields)
	if personID != "" {
		claims = append(claims, model.ClaimedRecord{
			Kind:        model.ClaimPerson,
			Identifier:  personID,
			ClaimedName: sequence.StringField(out, vocab.NameFields),
			Provenance:  provenance,
		})
	}

	if apptID := flatField(out, vocab.AppointmentIDFields); apptID != "" && apptID != personID {
		claims = append(claims, model.ClaimedRecord{
			Kind:            model.ClaimAppointment,
			Identifier:      apptID,
			RelatedPersonID: personID,
			ClaimedDate:     sequence.StringField(out, vocab.DateFields),
			Provenance:      provenance,
		})
	}

	return claims
}

// flatField resolves identifier synonyms but skips the generic "id" key
// when it is the only candidate left and the output has no other signal
// it refers to this record kind. Legacy outputs use the explicit keys.
func flatField(out map[string]any, keys []string) string {
	for _, k := range keys {
		if k == "id" {
			continue
		}
		if s, ok := out[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
