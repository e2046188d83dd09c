package agreement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/pkg/logger"
	"github.com/fastygo/rentledger/repository"
	"github.com/fastygo/rentledger/usecase"
)

const (
	CommandCreate = "agreement.create"
	QueryGet      = "agreement.get"
	QueryCount    = "agreement.count"
)

// CreateCommand is the dispatcher payload for CommandCreate.
type CreateCommand struct {
	Caller domain.Caller
	Terms  domain.AgreementTerms
}

// Recorder observes creation outcomes.
type Recorder interface {
	ObserveCreated(count uint32, elapsed time.Duration)
	ObserveRejected(reason string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCreated(uint32, time.Duration)  {}
func (nopRecorder) ObserveRejected(string, time.Duration) {}

type UseCase struct {
	agreements repository.AgreementRepository
	recorder   Recorder
	logger     *zap.Logger
}

func New(agreements repository.AgreementRepository, recorder Recorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &UseCase{
		agreements: agreements,
		recorder:   recorder,
		logger:     logger,
	}
}

// CreateAgreement authorizes the caller, validates the terms and stores a
// new Draft agreement. Validation failures never reach storage.
func (uc *UseCase) CreateAgreement(ctx context.Context, caller domain.Caller, terms domain.AgreementTerms) (*domain.RentAgreement, error) {
	start := time.Now()
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("agreement_id", terms.AgreementID))

	if !caller.Authorizes(terms) {
		uc.recorder.ObserveRejected(rejectionReason(domain.ErrUnauthorized), time.Since(start))
		log.Warn("agreement creation not authorized", zap.String("caller", caller.Principal))
		return nil, domain.ErrUnauthorized
	}

	if err := domain.ValidateTerms(terms); err != nil {
		uc.recorder.ObserveRejected(rejectionReason(err), time.Since(start))
		log.Info("agreement rejected", zap.Error(err))
		return nil, err
	}

	agreement := domain.NewDraftAgreement(terms)
	count, err := uc.agreements.Create(ctx, agreement)
	if err != nil {
		uc.recorder.ObserveRejected(rejectionReason(err), time.Since(start))
		if errors.Is(err, domain.ErrDuplicateAgreement) {
			log.Info("agreement rejected", zap.Error(err))
		} else {
			log.Error("agreement creation failed", zap.Error(err))
		}
		return nil, err
	}

	uc.recorder.ObserveCreated(count, time.Since(start))
	return agreement, nil
}

func (uc *UseCase) GetAgreement(ctx context.Context, agreementID string) (*domain.RentAgreement, error) {
	return uc.agreements.Get(ctx, agreementID)
}

func (uc *UseCase) AgreementCount(ctx context.Context) (uint32, error) {
	return uc.agreements.Count(ctx)
}

// Register exposes the use case on the dispatcher.
func (uc *UseCase) Register(d *usecase.Dispatcher) {
	d.RegisterCommand(CommandCreate, func(ctx context.Context, payload interface{}) (interface{}, error) {
		cmd, ok := payload.(CreateCommand)
		if !ok {
			return nil, domain.ErrInvalidPayload
		}
		return uc.CreateAgreement(ctx, cmd.Caller, cmd.Terms)
	})
	d.RegisterQuery(QueryGet, func(ctx context.Context, params interface{}) (interface{}, error) {
		id, ok := params.(string)
		if !ok || id == "" {
			return nil, domain.ErrInvalidPayload
		}
		return uc.GetAgreement(ctx, id)
	})
	d.RegisterQuery(QueryCount, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return uc.AgreementCount(ctx)
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrInvalidRent):
		return "invalid_rent"
	case errors.Is(err, domain.ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, domain.ErrInvalidCommissionRate):
		return "invalid_commission_rate"
	case errors.Is(err, domain.ErrDuplicateAgreement):
		return "duplicate_agreement"
	case errors.Is(err, domain.ErrNotificationFailed):
		return "notification_failed"
	default:
		return "internal"
	}
}
