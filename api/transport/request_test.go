package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rentledger/domain"
)

func TestCreateAgreementRequest_Terms(t *testing.T) {
	agent := "agent-7"
	req := CreateAgreementRequest{
		AgreementID:         "agr-1",
		Landlord:            "landlord-1",
		Tenant:              "tenant-1",
		Agent:               &agent,
		MonthlyRent:         1500,
		SecurityDeposit:     3000,
		StartDate:           100,
		EndDate:             200,
		AgentCommissionRate: 5,
	}

	terms, err := req.Terms()
	require.NoError(t, err)
	require.NotNil(t, terms.Agent)
	assert.Equal(t, "agent-7", *terms.Agent)
	assert.Equal(t, int64(1500), terms.MonthlyRent)
	assert.Equal(t, int32(5), terms.AgentCommissionRate)

	agent = "changed"
	assert.Equal(t, "agent-7", *terms.Agent)
}

func TestCreateAgreementRequest_IdentifiersPassThroughUnchanged(t *testing.T) {
	padded, err := CreateAgreementRequest{AgreementID: "A-1 ", Landlord: " l", Tenant: "t"}.Terms()
	require.NoError(t, err)
	plain, err := CreateAgreementRequest{AgreementID: "A-1", Landlord: "l", Tenant: "t"}.Terms()
	require.NoError(t, err)

	assert.Equal(t, "A-1 ", padded.AgreementID)
	assert.Equal(t, " l", padded.Landlord)
	assert.NotEqual(t, padded.AgreementID, plain.AgreementID)
}

func TestCreateAgreementRequest_AgentKeptAsSupplied(t *testing.T) {
	empty := ""
	terms, err := CreateAgreementRequest{AgreementID: "a", Landlord: "l", Tenant: "t", Agent: &empty}.Terms()
	require.NoError(t, err)
	require.NotNil(t, terms.Agent)
	assert.Equal(t, "", *terms.Agent)

	terms, err = CreateAgreementRequest{AgreementID: "a", Landlord: "l", Tenant: "t"}.Terms()
	require.NoError(t, err)
	assert.Nil(t, terms.Agent)
}

func TestCreateAgreementRequest_RequiresIdentifiers(t *testing.T) {
	_, err := CreateAgreementRequest{Landlord: "l", Tenant: "t"}.Terms()
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = CreateAgreementRequest{AgreementID: "a", Tenant: "t"}.Terms()
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = CreateAgreementRequest{AgreementID: "  ", Landlord: "l", Tenant: "t"}.Terms()
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestEnvelope_String(t *testing.T) {
	env := NewError("CONFLICT", "agreement already exists", ErrorMeta{LedgerCode: 4})
	assert.JSONEq(t,
		`{"status":"error","code":"CONFLICT","error":"agreement already exists","meta":{"ledger_code":4}}`,
		env.String())
}
