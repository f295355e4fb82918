package fulfillment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/callaudit/pkg/pms"
)

type mockPMSClient struct {
	mock.Mock
}

func (m *mockPMSClient) LookupPatient(ctx context.Context, patientID string) (*pms.LookupResult, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pms.LookupResult), args.Error(1)
}

func (m *mockPMSClient) LookupPatientAppointments(ctx context.Context, patientID string) (*pms.AppointmentsResult, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pms.AppointmentsResult), args.Error(1)
}

func foundPatient(id, fullName string) *pms.LookupResult {
	return &pms.LookupResult{
		Status:   pms.StatusFound,
		Patients: []pms.Patient{{ID: id, FullName: fullName}},
	}
}

func foundAppointments(appts ...pms.Appointment) *pms.AppointmentsResult {
	return &pms.AppointmentsResult{Status: pms.StatusFound, Appointments: appts}
}
