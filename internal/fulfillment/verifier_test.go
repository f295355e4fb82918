package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/sequence"
	"github.com/sells-group/callaudit/pkg/pms"
)

func subjectByName(t *testing.T, verdict model.FulfillmentVerdict, name string) model.SubjectVerification {
	t.Helper()
	for _, s := range verdict.Subjects {
		if s.SubjectName == name {
			return s
		}
	}
	t.Fatalf("no subject named %s", name)
	return model.SubjectVerification{}
}

func TestVerify_PartialWhenOneAppointmentMissing(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, "ch-1").Return(foundPatient("ch-1", "Isaiah Johnson"), nil)
	client.On("LookupPatient", mock.Anything, "ch-2").Return(foundPatient("ch-2", "Ava Johnson"), nil)
	client.On("LookupPatientAppointments", mock.Anything, "ch-1").Return(
		foundAppointments(pms.Appointment{ID: "ap-1", PatientID: "ch-1", Date: "2026-03-14T09:30:00Z"}), nil)
	client.On("LookupPatientAppointments", mock.Anything, "ch-2").Return(foundAppointments(), nil)

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)

	output := `{
		"children": [
			{"patient_id": "ch-1", "name": "Isaiah", "appointment": {"appointment_id": "ap-1", "date": "2026-03-14"}},
			{"patient_id": "ch-2", "name": "Ava", "appointment": {"appointment_id": "ap-2", "date": "2026-03-14"}}
		]
	}`
	verdict := v.Verify(context.Background(), []model.Observation{bookObs(output)},
		model.CallerIntent{Type: model.IntentBooking})

	assert.Equal(t, model.VerdictPartial, verdict.Status)
	require.Len(t, verdict.Subjects, 2)

	isaiah := subjectByName(t, verdict, "Isaiah")
	assert.Equal(t, model.CheckPass, isaiah.PersonStatus)
	assert.Equal(t, model.CheckPass, isaiah.AppointmentStatus)

	ava := subjectByName(t, verdict, "Ava")
	assert.Equal(t, model.CheckPass, ava.PersonStatus)
	assert.Equal(t, model.CheckFail, ava.AppointmentStatus)

	assert.Contains(t, verdict.Summary, "Isaiah: verified")
	assert.Contains(t, verdict.Summary, "Ava: appointment record failed verification")
	client.AssertExpectations(t)
}

func TestVerify_AllClaimsConfirmed(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, "par-1").Return(foundPatient("par-1", "Maria Lopez"), nil)
	client.On("LookupPatient", mock.Anything, "ch-1").Return(foundPatient("ch-1", "Isaiah Lopez"), nil)
	client.On("LookupPatient", mock.Anything, "ch-2").Return(foundPatient("ch-2", "Ava Lopez"), nil)
	client.On("LookupPatientAppointments", mock.Anything, "ch-1").Return(
		foundAppointments(pms.Appointment{ID: "ap-1", Date: "2026-03-14T09:30:00Z"}), nil)
	client.On("LookupPatientAppointments", mock.Anything, "ch-2").Return(
		foundAppointments(pms.Appointment{ID: "ap-2", Date: "2026-03-14T10:00:00Z"}), nil)

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	verdict := v.Verify(context.Background(), []model.Observation{bookObs(nestedBookingOutput)},
		model.CallerIntent{Type: model.IntentBooking})

	assert.Equal(t, model.VerdictVerified, verdict.Status)
	assert.Len(t, verdict.Verifications, 5)
	assert.Contains(t, verdict.Summary, "responsible party verified")
}

func TestVerify_NoClaims(t *testing.T) {
	v := NewVerifier(&mockPMSClient{}, sequence.DefaultVocabulary(), 0)

	verdict := v.Verify(context.Background(), nil, model.CallerIntent{Type: model.IntentBooking})
	assert.Equal(t, model.VerdictNoClaims, verdict.Status)
	assert.Contains(t, verdict.Summary, "no verifiable claims")
	assert.Contains(t, verdict.Summary, "despite a detected booking intent")

	verdict = v.Verify(context.Background(), nil, model.CallerIntent{Type: model.IntentInfoLookup})
	assert.Equal(t, model.VerdictNoClaims, verdict.Status)
	assert.NotContains(t, verdict.Summary, "booking intent")
}

func TestVerify_NameMismatchFails(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, "p-9").Return(foundPatient("p-9", "Zebulon Quarles"), nil)

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	verdict := v.Verify(context.Background(),
		[]model.Observation{bookObs(`{"patient_id": "p-9", "name": "Jo"}`)},
		model.CallerIntent{Type: model.IntentBooking})

	assert.Equal(t, model.VerdictFailed, verdict.Status)
	require.Len(t, verdict.Verifications, 1)
	assert.True(t, verdict.Verifications[0].Exists)
	require.Len(t, verdict.Verifications[0].FieldMismatches, 1)
	assert.Contains(t, verdict.Verifications[0].FieldMismatches[0], "name")
}

func TestVerify_LookupErrorDegradesToFailed(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, "p-9").Return(nil, errors.New("pms: status 500"))

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	observations := []model.Observation{bookObs(`{"patient_id": "p-9"}`)}
	intent := model.CallerIntent{Type: model.IntentBooking}

	verdict := v.Verify(context.Background(), observations, intent)
	assert.Equal(t, model.VerdictFailed, verdict.Status)
	require.Len(t, verdict.Verifications, 1)
	assert.Contains(t, verdict.Verifications[0].Error, "pms: status 500")

	// Re-running the same session yields the same verdict.
	again := v.Verify(context.Background(), observations, intent)
	assert.Equal(t, verdict.Status, again.Status)
	assert.Equal(t, verdict.Summary, again.Summary)
}

func TestVerify_IntentNamedSubjectWithoutClaimsInjected(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, "par-1").Return(foundPatient("par-1", "Maria Lopez"), nil)

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	intent := model.CallerIntent{
		Type:           model.IntentBooking,
		BookingDetails: &model.BookingDetails{ChildCount: 1, ChildNames: []string{"Mia"}},
	}

	verdict := v.Verify(context.Background(),
		[]model.Observation{bookObs(`{"parent": {"id": "par-1", "name": "Maria Lopez"}}`)},
		intent)

	assert.Equal(t, model.VerdictPartial, verdict.Status)
	mia := subjectByName(t, verdict, "Mia")
	assert.Equal(t, model.CheckFail, mia.PersonStatus)
	assert.Equal(t, model.CheckFail, mia.AppointmentStatus)
	assert.Contains(t, verdict.Summary, "Mia: patient record and appointment record failed verification")
}

func TestVerify_AppointmentWithoutRelatedPerson(t *testing.T) {
	client := &mockPMSClient{}

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	verdict := v.Verify(context.Background(),
		[]model.Observation{bookObs(`{"appointment_id": "a-1"}`)},
		model.CallerIntent{Type: model.IntentBooking})

	assert.Equal(t, model.VerdictFailed, verdict.Status)
	require.Len(t, verdict.Verifications, 1)
	assert.Contains(t, verdict.Verifications[0].Error, "no related person")
	client.AssertNotCalled(t, "LookupPatientAppointments")
}

func TestVerify_CanceledContextAbandonsRemainingClaims(t *testing.T) {
	client := &mockPMSClient{}
	client.On("LookupPatient", mock.Anything, mock.Anything).Return(foundPatient("x", "X"), nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewVerifier(client, sequence.DefaultVocabulary(), 0)
	output := `{"children": [{"patient_id": "ch-1", "name": "A"}, {"patient_id": "ch-2", "name": "B"}]}`
	verdict := v.Verify(ctx, []model.Observation{bookObs(output)},
		model.CallerIntent{Type: model.IntentBooking})

	require.Len(t, verdict.Verifications, 2)
	assert.Contains(t, verdict.Verifications[1].Error, "verification abandoned")
}
