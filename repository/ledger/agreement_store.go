package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
)

// AgreementStore persists agreements and the running agreement counter on top
// of a transactional ledger and notifies observers after each creation.
type AgreementStore struct {
	ledger    repository.LedgerStore
	publisher repository.EventPublisher
	logger    *zap.Logger
}

// NewAgreementStore creates a ledger-backed AgreementRepository.
func NewAgreementStore(ledger repository.LedgerStore, publisher repository.EventPublisher, logger *zap.Logger) *AgreementStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgreementStore{
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Create stores a new Draft agreement and returns the counter value it
// committed. The uniqueness check, the record write and the counter increment
// commit in one ledger transaction; the creation event is published only
// after that transaction commits.
func (s *AgreementStore) Create(ctx context.Context, agreement *domain.RentAgreement) (uint32, error) {
	if agreement == nil {
		return 0, domain.ErrInvalidPayload
	}

	record := *agreement
	record.Status = domain.StatusDraft

	payload, err := json.Marshal(record)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "encode agreement", err)
	}

	key := repository.AgreementKey(record.AgreementID)
	var count uint32

	err = s.ledger.Update(ctx, func(tx repository.LedgerTx) error {
		exists, err := tx.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateAgreement
		}
		if err := tx.Set(key, payload); err != nil {
			return err
		}
		count, err = incrementCounter(tx)
		return err
	})
	if err != nil {
		var dErr *domain.Error
		if errors.As(err, &dErr) {
			return 0, err
		}
		return 0, domain.WrapError(domain.ErrCodeInternal, "persist agreement", err)
	}

	agreement.Status = record.Status

	event, err := domain.NewAgreementCreatedEvent(&record)
	if err != nil {
		return count, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("agreement created but event not delivered",
				zap.String("agreement_id", record.AgreementID),
				zap.String("event_id", event.ID),
				zap.Error(err))
			return count, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
		}
	}

	s.logger.Info("agreement created",
		zap.String("agreement_id", record.AgreementID),
		zap.Uint32("agreement_count", count))
	return count, nil
}

func (s *AgreementStore) Get(ctx context.Context, agreementID string) (*domain.RentAgreement, error) {
	var agreement domain.RentAgreement
	err := s.ledger.View(ctx, func(tx repository.LedgerTx) error {
		raw, err := tx.Get(repository.AgreementKey(agreementID))
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &agreement)
	})
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return nil, domain.ErrAgreementNotFound
		}
		return nil, err
	}
	return &agreement, nil
}

func (s *AgreementStore) Count(ctx context.Context) (uint32, error) {
	var count uint32
	err := s.ledger.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		count, err = readCounter(tx)
		return err
	})
	return count, err
}

func readCounter(tx repository.LedgerTx) (uint32, error) {
	raw, err := tx.Get(repository.AgreementCountKey)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var count uint32
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("decode agreement counter: %w", err)
	}
	return count, nil
}

func incrementCounter(tx repository.LedgerTx) (uint32, error) {
	count, err := readCounter(tx)
	if err != nil {
		return 0, err
	}
	if count == math.MaxUint32 {
		return 0, domain.ErrCounterOverflow
	}
	count++
	raw, err := json.Marshal(count)
	if err != nil {
		return 0, err
	}
	return count, tx.Set(repository.AgreementCountKey, raw)
}

var _ repository.AgreementRepository = (*AgreementStore)(nil)
