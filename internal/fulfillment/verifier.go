package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/sequence"
	"github.com/sells-group/callaudit/pkg/pms"
)

// Verifier cross-checks claimed records against the system of record.
type Verifier struct {
	client pms.Client
	vocab  sequence.Vocabulary
	delay  time.Duration
}

// NewVerifier creates a verifier. The delay is enforced between
// consecutive lookups because the system of record rate-limits callers;
// claims within one session are never checked concurrently.
func NewVerifier(client pms.Client, vocab sequence.Vocabulary, delay time.Duration) *Verifier {
	return &Verifier{client: client, vocab: vocab, delay: delay}
}

// Verify extracts every claimed record from the observations, checks each
// against the system of record, groups the results per named subject, and
// produces an overall verdict. Lookup failures degrade to failed
// verifications; Verify itself never errors.
func (v *Verifier) Verify(ctx context.Context, observations []model.Observation, intent model.CallerIntent) model.FulfillmentVerdict {
	claims := ExtractClaims(observations, v.vocab)

	if len(claims) == 0 {
		summary := "no verifiable claims found in tool outputs"
		if intent.Type == model.IntentBooking {
			summary += " despite a detected booking intent"
		}
		return model.FulfillmentVerdict{
			Status:     model.VerdictNoClaims,
			Summary:    summary,
			VerifiedAt: time.Now().UTC(),
		}
	}

	zap.L().Info("verify: checking claims against system of record",
		zap.Int("claims", len(claims)),
	)

	verifications := make([]model.RecordVerification, 0, len(claims))
	for i, claim := range claims {
		if i > 0 && !sleepCtx(ctx, v.delay) {
			// Context gone; record the remaining claims as unchecked.
			verifications = append(verifications, model.RecordVerification{
				Claim: claim,
				Error: "verification abandoned: " + ctx.Err().Error(),
			})
			continue
		}
		verifications = append(verifications, v.verifyClaim(ctx, claim))
	}

	subjects, parentVers := groupSubjects(verifications, intent)
	status := aggregateStatus(subjects, parentVers)

	return model.FulfillmentVerdict{
		Status:        status,
		Verifications: verifications,
		Subjects:      subjects,
		Summary:       buildSummary(subjects, parentVers),
		VerifiedAt:    time.Now().UTC(),
	}
}

func (v *Verifier) verifyClaim(ctx context.Context, claim model.ClaimedRecord) model.RecordVerification {
	switch claim.Kind {
	case model.ClaimAppointment:
		return v.verifyAppointment(ctx, claim)
	default:
		return v.verifyPerson(ctx, claim)
	}
}

func (v *Verifier) verifyPerson(ctx context.Context, claim model.ClaimedRecord) model.RecordVerification {
	rv := model.RecordVerification{Claim: claim}

	res, err := v.client.LookupPatient(ctx, claim.Identifier)
	if err != nil {
		rv.Error = err.Error()
		return rv
	}
	if res.Status != pms.StatusFound || len(res.Patients) == 0 {
		return rv
	}

	rv.Exists = true
	if claim.ClaimedName != "" {
		actual := res.Patients[0].Name()
		if !namesMatch(claim.ClaimedName, actual) {
			rv.FieldMismatches = append(rv.FieldMismatches,
				fmt.Sprintf("name: claimed %q, actual %q", claim.ClaimedName, actual))
		}
	}
	return rv
}

func (v *Verifier) verifyAppointment(ctx context.Context, claim model.ClaimedRecord) model.RecordVerification {
	rv := model.RecordVerification{Claim: claim}

	if claim.RelatedPersonID == "" {
		rv.Error = "appointment claim carries no related person identifier"
		return rv
	}

	res, err := v.client.LookupPatientAppointments(ctx, claim.RelatedPersonID)
	if err != nil {
		rv.Error = err.Error()
		return rv
	}
	if res.Status != pms.StatusFound {
		return rv
	}

	for _, appt := range res.Appointments {
		if appt.ID != claim.Identifier {
			continue
		}
		rv.Exists = true
		if claim.ClaimedDate != "" && !datesMatch(claim.ClaimedDate, appt.Date) {
			rv.FieldMismatches = append(rv.FieldMismatches,
				fmt.Sprintf("date: claimed %q, actual %q", claim.ClaimedDate, appt.Date))
		}
		return rv
	}

	return rv
}

// groupSubjects splits verifications into per-subject groups keyed by
// normalized subject name. The empty-name group is the responsible party
// and is returned separately. Subjects named in the intent but matched by
// no claim are injected as fully failed: the intent decides who should
// have a record.
func groupSubjects(verifications []model.RecordVerification, intent model.CallerIntent) ([]model.SubjectVerification, []model.RecordVerification) {
	var parent []model.RecordVerification
	var order []string
	groups := make(map[string][]model.RecordVerification)
	display := make(map[string]string)

	for _, rv := range verifications {
		key := normalizeSubject(rv.Claim.SubjectName)
		if key == "" {
			parent = append(parent, rv)
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			display[key] = rv.Claim.SubjectName
		}
		groups[key] = append(groups[key], rv)
	}

	var subjects []model.SubjectVerification
	for _, key := range order {
		vers := groups[key]
		subjects = append(subjects, model.SubjectVerification{
			SubjectName:       display[key],
			PersonStatus:      kindStatus(vers, model.ClaimPerson),
			AppointmentStatus: kindStatus(vers, model.ClaimAppointment),
			Verifications:     vers,
		})
	}

	if intent.BookingDetails != nil {
		for _, name := range intent.BookingDetails.ChildNames {
			if _, seen := groups[normalizeSubject(name)]; seen {
				continue
			}
			subjects = append(subjects, model.SubjectVerification{
				SubjectName:       name,
				PersonStatus:      model.CheckFail,
				AppointmentStatus: model.CheckFail,
			})
		}
	}

	return subjects, parent
}

func kindStatus(verifications []model.RecordVerification, kind model.ClaimKind) model.CheckState {
	found := false
	for _, rv := range verifications {
		if rv.Claim.Kind != kind {
			continue
		}
		found = true
		if !rv.Passed() {
			return model.CheckFail
		}
	}
	if !found {
		return model.CheckSkipped
	}
	return model.CheckPass
}

func aggregateStatus(subjects []model.SubjectVerification, parent []model.RecordVerification) model.VerdictStatus {
	parentPassed, parentFailed := 0, 0
	for _, rv := range parent {
		if rv.Passed() {
			parentPassed++
		} else {
			parentFailed++
		}
	}

	if len(subjects) == 0 {
		switch {
		case parentFailed == 0:
			return model.VerdictVerified
		case parentPassed == 0:
			return model.VerdictFailed
		default:
			return model.VerdictPartial
		}
	}

	fullPass := parentFailed == 0
	anyPass := parentPassed > 0
	for _, s := range subjects {
		if s.PersonStatus != model.CheckPass || s.AppointmentStatus != model.CheckPass {
			fullPass = false
		}
		if s.PersonStatus == model.CheckPass || s.AppointmentStatus == model.CheckPass {
			anyPass = true
		}
	}

	switch {
	case fullPass:
		return model.VerdictVerified
	case anyPass:
		return model.VerdictPartial
	default:
		return model.VerdictFailed
	}
}

// buildSummary names the responsible-party status and, when subjects
// exist, a per-subject breakdown naming which record type failed.
func buildSummary(subjects []model.SubjectVerification, parent []model.RecordVerification) string {
	var parts []string

	if len(parent) == 0 {
		parts = append(parts, "no responsible-party records claimed")
	} else {
		passed := 0
		for _, rv := range parent {
			if rv.Passed() {
				passed++
			}
		}
		if passed == len(parent) {
			parts = append(parts, "responsible party verified")
		} else {
			parts = append(parts, fmt.Sprintf("responsible party: %d of %d records confirmed", passed, len(parent)))
		}
	}

	for _, s := range subjects {
		parts = append(parts, fmt.Sprintf("%s: %s", s.SubjectName, describeSubject(s)))
	}

	return strings.Join(parts, "; ")
}

func describeSubject(s model.SubjectVerification) string {
	if s.PersonStatus == model.CheckPass && s.AppointmentStatus == model.CheckPass {
		return "verified"
	}

	var failed []string
	if s.PersonStatus == model.CheckFail {
		failed = append(failed, "patient record")
	}
	if s.AppointmentStatus == model.CheckFail {
		failed = append(failed, "appointment record")
	}
	if len(failed) > 0 {
		return strings.Join(failed, " and ") + " failed verification"
	}

	var missing []string
	if s.PersonStatus == model.CheckSkipped {
		missing = append(missing, "patient")
	}
	if s.AppointmentStatus == model.CheckSkipped {
		missing = append(missing, "appointment")
	}
	return "no " + strings.Join(missing, " or ") + " claim to check"
}

// sleepCtx honors the inter-lookup delay; it returns false when the
// context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
