package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservation_ParsedOutput_Object(t *testing.T) {
	obs := Observation{
		ToolName: "book_appointment",
		Output:   json.RawMessage(`{"success": true, "patient_id": "p-1"}`),
	}

	out := obs.ParsedOutput()
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "p-1", out["patient_id"])
}

func TestObservation_ParsedOutput_DoubleEncoded(t *testing.T) {
	// Some providers deliver the payload as a JSON string containing JSON.
	obs := Observation{
		Output: json.RawMessage(`"{\"success\": false, \"error\": \"no slots\"}"`),
	}

	out := obs.ParsedOutput()
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "no slots", out["error"])
}

func TestObservation_ParsedOutput_Unparsable(t *testing.T) {
	for name, raw := range map[string]json.RawMessage{
		"empty":        nil,
		"plain string": json.RawMessage(`"sorry, something went wrong"`),
		"number":       json.RawMessage(`42`),
		"array":        json.RawMessage(`[1, 2, 3]`),
		"garbage":      json.RawMessage(`{{not json`),
	} {
		t.Run(name, func(t *testing.T) {
			obs := Observation{Output: raw}
			assert.Nil(t, obs.ParsedOutput())
		})
	}
}

func TestObservation_ParsedInput(t *testing.T) {
	obs := Observation{Input: json.RawMessage(`{"action": "get_slots"}`)}
	assert.Equal(t, "get_slots", obs.ParsedInput()["action"])
}

func TestBookingDetails_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        BookingDetails
		wantCount int
	}{
		{"zero count defaults to one", BookingDetails{}, 1},
		{"count raised to name count", BookingDetails{ChildCount: 1, ChildNames: []string{"Ava", "Ben", "Cal"}}, 3},
		{"explicit count above names kept", BookingDetails{ChildCount: 3, ChildNames: []string{"Ava"}}, 3},
		{"negative count defaults to one", BookingDetails{ChildCount: -2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.in
			d.Normalize()
			assert.Equal(t, tt.wantCount, d.ChildCount)
			assert.NotNil(t, d.ChildNames)
			assert.NotNil(t, d.RequestedDates)
			assert.GreaterOrEqual(t, d.ChildCount, len(d.ChildNames))
		})
	}
}

func TestCallerIntent_SubjectCount(t *testing.T) {
	assert.Equal(t, 1, CallerIntent{Type: IntentInfoLookup}.SubjectCount())
	assert.Equal(t, 1, CallerIntent{Type: IntentBooking, BookingDetails: &BookingDetails{}}.SubjectCount())
	assert.Equal(t, 2, CallerIntent{
		Type:           IntentBooking,
		BookingDetails: &BookingDetails{ChildCount: 2},
	}.SubjectCount())
}

func TestRecordVerification_Passed(t *testing.T) {
	assert.True(t, RecordVerification{Exists: true}.Passed())
	assert.False(t, RecordVerification{Exists: false}.Passed())
	assert.False(t, RecordVerification{Exists: true, Error: "boom"}.Passed())
	assert.False(t, RecordVerification{Exists: true, FieldMismatches: []string{"name"}}.Passed())
}
