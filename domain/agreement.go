package domain

// AgreementStatus is the lifecycle state of a rent agreement.
type AgreementStatus string

// StatusDraft is the state every agreement is created in.
const StatusDraft AgreementStatus = "Draft"

const (
	MinCommissionRate = 0
	MaxCommissionRate = 100
)

// AgreementTerms is the proposed field set of a new agreement.
type AgreementTerms struct {
	AgreementID         string  `json:"agreement_id"`
	Landlord            string  `json:"landlord"`
	Tenant              string  `json:"tenant"`
	Agent               *string `json:"agent,omitempty"`
	MonthlyRent         int64   `json:"monthly_rent"`
	SecurityDeposit     int64   `json:"security_deposit"`
	StartDate           int64   `json:"start_date"`
	EndDate             int64   `json:"end_date"`
	AgentCommissionRate int32   `json:"agent_commission_rate"`
}

// RentAgreement is the persisted lease between a landlord and a tenant.
type RentAgreement struct {
	AgreementID         string          `json:"agreement_id"`
	Landlord            string          `json:"landlord"`
	Tenant              string          `json:"tenant"`
	Agent               *string         `json:"agent,omitempty"`
	MonthlyRent         int64           `json:"monthly_rent"`
	SecurityDeposit     int64           `json:"security_deposit"`
	StartDate           int64           `json:"start_date"`
	EndDate             int64           `json:"end_date"`
	AgentCommissionRate int32           `json:"agent_commission_rate"`
	Status              AgreementStatus `json:"status"`
}

// NewDraftAgreement builds the record stored for accepted terms.
func NewDraftAgreement(terms AgreementTerms) *RentAgreement {
	var agent *string
	if terms.Agent != nil {
		value := *terms.Agent
		agent = &value
	}
	return &RentAgreement{
		AgreementID:         terms.AgreementID,
		Landlord:            terms.Landlord,
		Tenant:              terms.Tenant,
		Agent:               agent,
		MonthlyRent:         terms.MonthlyRent,
		SecurityDeposit:     terms.SecurityDeposit,
		StartDate:           terms.StartDate,
		EndDate:             terms.EndDate,
		AgentCommissionRate: terms.AgentCommissionRate,
		Status:              StatusDraft,
	}
}

func (a *RentAgreement) HasAgent() bool {
	return a != nil && a.Agent != nil
}

func (a *RentAgreement) IsDraft() bool {
	return a != nil && a.Status == StatusDraft
}

// ValidateTerms checks the numeric terms of a proposed agreement. Checks run
// in a fixed order and the first violation is returned. The commission rate
// is checked even when no agent is set.
func ValidateTerms(terms AgreementTerms) error {
	if terms.MonthlyRent <= 0 {
		return ErrInvalidRent
	}
	if terms.EndDate <= terms.StartDate {
		return ErrInvalidDateRange
	}
	if terms.AgentCommissionRate < MinCommissionRate || terms.AgentCommissionRate > MaxCommissionRate {
		return ErrInvalidCommissionRate
	}
	return nil
}

// Caller is the verified principal invoking an operation.
type Caller struct {
	Principal string
}

// Authorizes reports whether the caller may create the given agreement.
func (c Caller) Authorizes(terms AgreementTerms) bool {
	return c.Principal != "" && c.Principal == terms.Landlord
}
