package transport

import (
	"strings"

	"github.com/fastygo/rentledger/domain"
)

// CreateAgreementRequest is the body of POST /api/v1/agreements.
type CreateAgreementRequest struct {
	AgreementID         string  `json:"agreement_id"`
	Landlord            string  `json:"landlord"`
	Tenant              string  `json:"tenant"`
	Agent               *string `json:"agent"`
	MonthlyRent         int64   `json:"monthly_rent"`
	SecurityDeposit     int64   `json:"security_deposit"`
	StartDate           int64   `json:"start_date"`
	EndDate             int64   `json:"end_date"`
	AgentCommissionRate int32   `json:"agent_commission_rate"`
}

// Terms converts the request into domain terms. Identifiers are opaque and
// pass through unchanged; blank ones are rejected. The numeric terms are left
// to domain validation.
func (r CreateAgreementRequest) Terms() (domain.AgreementTerms, error) {
	if isBlank(r.AgreementID) || isBlank(r.Landlord) || isBlank(r.Tenant) {
		return domain.AgreementTerms{}, domain.ErrInvalidPayload
	}
	terms := domain.AgreementTerms{
		AgreementID:         r.AgreementID,
		Landlord:            r.Landlord,
		Tenant:              r.Tenant,
		MonthlyRent:         r.MonthlyRent,
		SecurityDeposit:     r.SecurityDeposit,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		AgentCommissionRate: r.AgentCommissionRate,
	}
	if r.Agent != nil {
		agent := *r.Agent
		terms.Agent = &agent
	}
	return terms, nil
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
