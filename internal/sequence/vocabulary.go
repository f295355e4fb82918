// Package sequence evaluates whether the tool protocol expected for a
// classified intent actually ran in a session.
package sequence

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Canonical action tags used by expected steps. Deployments map these to
// their own observed spellings through the vocabulary alias table.
const (
	ActionSearch = "search"
	ActionSlots  = "slots"
	ActionCreate = "create"
	ActionBook   = "book"
	ActionCancel = "cancel"
)

// Vocabulary names the tools and payload fields of one deployment's
// telemetry. Each analysis run receives its vocabulary as a parameter;
// there is no global table.
type Vocabulary struct {
	// Tool identifiers as they appear in observations. Deployments that
	// route everything through a single gateway tool set all of these to
	// the same name and rely on action tags instead.
	SearchTool string `yaml:"search_tool"`
	SlotsTool  string `yaml:"slots_tool"`
	CreateTool string `yaml:"create_tool"`
	BookTool   string `yaml:"book_tool"`
	CancelTool string `yaml:"cancel_tool"`

	// ActionAliases maps canonical action tags to the spellings observed
	// in tool inputs.
	ActionAliases map[string][]string `yaml:"action_aliases"`

	// ActionFields are the input keys that may carry the action tag.
	ActionFields []string `yaml:"action_fields"`

	// Ordered identifier synonyms; the first present field wins.
	PersonIDFields      []string `yaml:"person_id_fields"`
	AppointmentIDFields []string `yaml:"appointment_id_fields"`
	NameFields          []string `yaml:"name_fields"`
	DateFields          []string `yaml:"date_fields"`

	// Keys under which multi-subject booking outputs nest their blocks.
	ParentKeys  []string `yaml:"parent_keys"`
	ChildKeys   []string `yaml:"child_keys"`
	ApptKeys    []string `yaml:"appointment_keys"`
	CreatedKeys []string `yaml:"created_keys"`
}

// DefaultVocabulary returns the vocabulary of the reference deployment.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		SearchTool: "search_patients",
		SlotsTool:  "get_appointment_slots",
		CreateTool: "create_patient",
		BookTool:   "book_appointment",
		CancelTool: "cancel_appointment",
		ActionAliases: map[string][]string{
			ActionSearch: {"search", "search_patients", "find_patient", "lookup"},
			ActionSlots:  {"slots", "get_slots", "available_slots", "availability", "appointment_slots"},
			ActionCreate: {"create", "create_patient", "new_patient", "register_patient"},
			ActionBook:   {"book", "book_appointment", "create_appointment", "schedule_appointment"},
			ActionCancel: {"cancel", "cancel_appointment", "delete_appointment"},
		},
		ActionFields:        []string{"action", "operation", "method"},
		PersonIDFields:      []string{"patient_id", "patientId", "person_id", "id"},
		AppointmentIDFields: []string{"appointment_id", "appointmentId", "booking_id", "id"},
		NameFields:          []string{"name", "full_name", "patient_name", "first_name"},
		DateFields:          []string{"date", "appointment_date", "start_time", "slot"},
		ParentKeys:          []string{"parent", "responsible_party", "guarantor"},
		ChildKeys:           []string{"children", "patients", "subjects"},
		ApptKeys:            []string{"appointment", "booking"},
		CreatedKeys:         []string{"created", "is_new_patient", "newly_created"},
	}
}

// LoadVocabulary reads a per-deployment vocabulary file. Fields left
// empty fall back to the default vocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	v := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		return v, eris.Wrapf(err, "vocabulary: read %s", path)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, eris.Wrapf(err, "vocabulary: parse %s", path)
	}
	return v, nil
}

// ActionMatches reports whether an observed action spelling resolves to
// the given canonical action tag.
func (v Vocabulary) ActionMatches(canonical, observed string) bool {
	observed = strings.ToLower(strings.TrimSpace(observed))
	if observed == "" {
		return false
	}
	if observed == canonical {
		return true
	}
	for _, alias := range v.ActionAliases[canonical] {
		if observed == alias {
			return true
		}
	}
	return false
}

// StringField returns the first non-empty string value among the given
// candidate keys of a parsed payload.
func StringField(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
