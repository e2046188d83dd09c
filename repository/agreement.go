package repository

import (
	"context"

	"github.com/fastygo/rentledger/domain"
)

type AgreementRepository interface {
	// Create persists a new agreement and returns the agreement counter as
	// committed by the same transaction.
	Create(ctx context.Context, agreement *domain.RentAgreement) (uint32, error)
	Get(ctx context.Context, agreementID string) (*domain.RentAgreement, error)
	Count(ctx context.Context) (uint32, error)
}
