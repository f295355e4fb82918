package model

import "time"

// ClaimKind distinguishes the two record types the agent can claim to
// have created or found.
type ClaimKind string

const (
	ClaimPerson      ClaimKind = "person"
	ClaimAppointment ClaimKind = "appointment"
)

// ClaimedRecord is an assertion extracted from tool output that some
// record exists in the system of record. It is evidence to be checked,
// never authoritative.
type ClaimedRecord struct {
	Kind            ClaimKind `json:"kind"`
	Identifier      string    `json:"identifier"`
	RelatedPersonID string    `json:"related_person_id,omitempty"`
	ClaimedName     string    `json:"claimed_name,omitempty"`
	ClaimedDate     string    `json:"claimed_date,omitempty"`
	SubjectName     string    `json:"subject_name,omitempty"`
	Provenance      string    `json:"provenance"`
}

// RecordVerification is the result of checking one claim against the
// system of record. Nonexistence and field mismatches are first-class
// outputs, not errors; Error is reserved for lookup failures.
type RecordVerification struct {
	Claim           ClaimedRecord `json:"claim"`
	Exists          bool          `json:"exists"`
	FieldMismatches []string      `json:"field_mismatches,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Passed reports whether the verification confirms the claim outright.
func (rv RecordVerification) Passed() bool {
	return rv.Exists && rv.Error == "" && len(rv.FieldMismatches) == 0
}

// CheckState summarizes a group of verifications for one record kind.
type CheckState string

const (
	CheckPass    CheckState = "pass"
	CheckFail    CheckState = "fail"
	CheckSkipped CheckState = "skipped"
)

// SubjectVerification aggregates the person and appointment checks for
// one named subject of a booking (e.g. one child).
type SubjectVerification struct {
	SubjectName       string               `json:"subject_name"`
	PersonStatus      CheckState           `json:"person_status"`
	AppointmentStatus CheckState           `json:"appointment_status"`
	Verifications     []RecordVerification `json:"verifications,omitempty"`
}

// VerdictStatus is the overall fulfillment outcome for a session.
type VerdictStatus string

const (
	VerdictVerified VerdictStatus = "verified"
	VerdictPartial  VerdictStatus = "partial"
	VerdictFailed   VerdictStatus = "failed"
	VerdictNoClaims VerdictStatus = "no_claims"
)

// FulfillmentVerdict is the final cross-check of claimed outcomes against
// the system of record.
type FulfillmentVerdict struct {
	Status        VerdictStatus         `json:"status"`
	Verifications []RecordVerification  `json:"verifications,omitempty"`
	Subjects      []SubjectVerification `json:"subjects,omitempty"`
	Summary       string                `json:"summary"`
	VerifiedAt    time.Time             `json:"verified_at"`
}
