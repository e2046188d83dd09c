package agreement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/usecase"
)

// MockAgreementRepository is a mock implementation of AgreementRepository
type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) Create(ctx context.Context, agreement *domain.RentAgreement) (uint32, error) {
	args := m.Called(ctx, agreement)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *MockAgreementRepository) Get(ctx context.Context, agreementID string) (*domain.RentAgreement, error) {
	args := m.Called(ctx, agreementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentAgreement), args.Error(1)
}

func (m *MockAgreementRepository) Count(ctx context.Context) (uint32, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint32), args.Error(1)
}

type recorder struct {
	created  []uint32
	rejected []string
}

func (r *recorder) ObserveCreated(count uint32, _ time.Duration) { r.created = append(r.created, count) }
func (r *recorder) ObserveRejected(reason string, _ time.Duration) {
	r.rejected = append(r.rejected, reason)
}

func terms() domain.AgreementTerms {
	agent := "agent-1"
	return domain.AgreementTerms{
		AgreementID:         "AGREEMENT_001",
		Landlord:            "landlord-1",
		Tenant:              "tenant-1",
		Agent:               &agent,
		MonthlyRent:         1000,
		SecurityDeposit:     2000,
		StartDate:           100,
		EndDate:             200,
		AgentCommissionRate: 10,
	}
}

var landlord = domain.Caller{Principal: "landlord-1"}

func TestCreateAgreement_Success(t *testing.T) {
	repo := new(MockAgreementRepository)
	rec := &recorder{}
	uc := New(repo, rec, zap.NewNop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(a *domain.RentAgreement) bool {
		return a.AgreementID == "AGREEMENT_001" && a.Status == domain.StatusDraft && *a.Agent == "agent-1"
	})).Return(uint32(1), nil).Once()

	created, err := uc.CreateAgreement(ctx, landlord, terms())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, created.Status)
	assert.Equal(t, int64(1000), created.MonthlyRent)
	assert.Equal(t, []uint32{1}, rec.created)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Count", mock.Anything)
}

func TestCreateAgreement_ValidationPrecedesPersistence(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.AgreementTerms)
		wantErr error
		reason  string
	}{
		{"negative rent", func(tr *domain.AgreementTerms) { tr.MonthlyRent = -100 }, domain.ErrInvalidRent, "invalid_rent"},
		{"inverted dates", func(tr *domain.AgreementTerms) { tr.StartDate, tr.EndDate = 200, 100 }, domain.ErrInvalidDateRange, "invalid_date_range"},
		{"commission 101", func(tr *domain.AgreementTerms) { tr.AgentCommissionRate = 101 }, domain.ErrInvalidCommissionRate, "invalid_commission_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAgreementRepository)
			rec := &recorder{}
			uc := New(repo, rec, zap.NewNop())

			in := terms()
			tt.mutate(&in)

			created, err := uc.CreateAgreement(context.Background(), landlord, in)
			assert.Nil(t, created)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{tt.reason}, rec.rejected)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateAgreement_Unauthorized(t *testing.T) {
	repo := new(MockAgreementRepository)
	uc := New(repo, nil, zap.NewNop())

	_, err := uc.CreateAgreement(context.Background(), domain.Caller{Principal: "tenant-1"}, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.CreateAgreement(context.Background(), domain.Caller{}, terms())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAgreement_PropagatesDuplicate(t *testing.T) {
	repo := new(MockAgreementRepository)
	rec := &recorder{}
	uc := New(repo, rec, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(uint32(0), domain.ErrDuplicateAgreement).Once()

	_, err := uc.CreateAgreement(context.Background(), landlord, terms())
	assert.ErrorIs(t, err, domain.ErrDuplicateAgreement)
	assert.Equal(t, []string{"duplicate_agreement"}, rec.rejected)
	repo.AssertNotCalled(t, "Count", mock.Anything)
}

func TestCreateAgreement_RecordsCommittedCount(t *testing.T) {
	repo := new(MockAgreementRepository)
	rec := &recorder{}
	uc := New(repo, rec, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(uint32(7), nil).Once()

	created, err := uc.CreateAgreement(context.Background(), landlord, terms())
	require.NoError(t, err)
	assert.Equal(t, "AGREEMENT_001", created.AgreementID)
	assert.Equal(t, []uint32{7}, rec.created)
	repo.AssertNotCalled(t, "Count", mock.Anything)
}

func TestCreateAgreement_NotificationFailure(t *testing.T) {
	repo := new(MockAgreementRepository)
	rec := &recorder{}
	uc := New(repo, rec, zap.NewNop())

	notifyErr := fmt.Errorf("%w: %v", domain.ErrNotificationFailed, errors.New("outbox closed"))
	repo.On("Create", mock.Anything, mock.Anything).Return(uint32(1), notifyErr).Once()

	_, err := uc.CreateAgreement(context.Background(), landlord, terms())
	assert.ErrorIs(t, err, domain.ErrNotificationFailed)
	assert.Equal(t, []string{"notification_failed"}, rec.rejected)
	assert.Empty(t, rec.created)
}

func TestRegister_DispatchesThroughUseCase(t *testing.T) {
	repo := new(MockAgreementRepository)
	uc := New(repo, nil, zap.NewNop())
	d := usecase.NewDispatcher()
	uc.Register(d)
	ctx := context.Background()

	stored := domain.NewDraftAgreement(terms())
	repo.On("Get", ctx, "AGREEMENT_001").Return(stored, nil).Once()
	repo.On("Count", ctx).Return(uint32(3), nil).Once()

	got, err := d.ExecuteQuery(ctx, QueryGet, "AGREEMENT_001")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	count, err := d.ExecuteQuery(ctx, QueryCount, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	_, err = d.ExecuteCommand(ctx, CommandCreate, "not a command")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	bad := terms()
	bad.MonthlyRent = 0
	_, err = d.ExecuteCommand(ctx, CommandCreate, CreateCommand{Caller: landlord, Terms: bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRent)

	assert.Equal(t, []string{CommandCreate}, d.Commands())
	repo.AssertExpectations(t)
}
