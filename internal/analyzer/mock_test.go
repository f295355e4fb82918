package analyzer

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/callaudit/internal/model"
	"github.com/sells-group/callaudit/internal/store"
	"github.com/sells-group/callaudit/pkg/pms"
)

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *mockStore) LatestAnalysis(ctx context.Context, sessionID string, maxAge time.Duration) (*model.Analysis, error) {
	args := m.Called(ctx, sessionID, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *mockStore) ListAnalyses(ctx context.Context, filter store.AnalysisFilter) ([]model.Analysis, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Analysis), args.Error(1)
}

func (m *mockStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	args := m.Called(ctx, age)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- PMS mock ---

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
