package upstream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

// StubBenefitsGateway is an in-process stand-in for the legacy benefits
// system used in local runs. Every create returns a freshly generated
// record ID; no state is kept beyond the ID counter.
type StubBenefitsGateway struct {
	seq atomic.Uint64
}

func NewStubBenefitsGateway() *StubBenefitsGateway {
	return &StubBenefitsGateway{}
}

func (g *StubBenefitsGateway) nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, g.seq.Add(1))
}

func (g *StubBenefitsGateway) CreateProcess(_ context.Context, _ ports.AuthBlock, _ string) (domain.Process, error) {
	return domain.Process{
		ID:    g.nextID("proc"),
		State: domain.ProcStateStarted,
	}, nil
}

func (g *StubBenefitsGateway) CreateProcessForm(_ context.Context, _ ports.AuthBlock, _, _ string) error {
	return nil
}

func (g *StubBenefitsGateway) UpdateProcess(_ context.Context, _ ports.AuthBlock, processID, state string) (domain.Process, error) {
	return domain.Process{ID: processID, State: state}, nil
}

func (g *StubBenefitsGateway) CreateParticipant(_ context.Context, _ ports.AuthBlock, _, _ string) (string, error) {
	return g.nextID("ptcpnt"), nil
}

func (g *StubBenefitsGateway) CreatePerson(_ context.Context, _ ports.AuthBlock, params ports.CreatePersonParams) (ports.PersonRecord, error) {
	return ports.PersonRecord{
		ID:         g.nextID("person"),
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		SSN:        params.SSN,
		FileNumber: params.FileNumber,
	}, nil
}

func (g *StubBenefitsGateway) CreatePhone(_ context.Context, _ ports.AuthBlock, _, _, _ string) (string, error) {
	return g.nextID("phone"), nil
}

func (g *StubBenefitsGateway) CreateAddress(_ context.Context, _ ports.AuthBlock, params ports.CreateAddressParams) (ports.AddressRecord, error) {
	return ports.AddressRecord{
		ID:        g.nextID("addrs"),
		Line1:     params.Line1,
		City:      params.City,
		StateCode: params.StateCode,
		ZipCode:   params.ZipCode,
		Country:   params.Country,
	}, nil
}

func (g *StubBenefitsGateway) CreateRelationship(_ context.Context, _ ports.AuthBlock, params ports.CreateRelationshipParams) (domain.RelationshipRecord, error) {
	return domain.RelationshipRecord{
		ID:                          g.nextID("rlnshp"),
		ParticipantID:               params.ParticipantID,
		VeteranParticipantID:        params.VeteranParticipantID,
		ParticipantRelationshipType: params.ParticipantRelationshipType,
		FamilyRelationshipType:      params.FamilyRelationshipType,
		EventDate:                   params.EventDate,
		MarriageCity:                params.MarriageCity,
		MarriageState:               params.MarriageState,
		DivorceCity:                 params.DivorceCity,
		DivorceState:                params.DivorceState,
		MarriageTerminationTypeCode: params.MarriageTerminationTypeCode,
	}, nil
}

func (g *StubBenefitsGateway) CreateBenefitClaim(_ context.Context, _ ports.AuthBlock, params ports.CreateBenefitClaimParams) (domain.BenefitClaimRecord, error) {
	return domain.BenefitClaimRecord{
		ID:             g.nextID("claim"),
		ProcessID:      params.ProcessID,
		ClaimTypeCode:  params.ClaimTypeCode,
		EndProductCode: params.EndProductCode,
	}, nil
}

func (g *StubBenefitsGateway) FindBenefitClaimTypeIncrement(_ context.Context, _ ports.AuthBlock, _, _ string) (string, error) {
	return "130", nil
}

func (g *StubBenefitsGateway) FindVAFileNumber(_ context.Context, _ ports.AuthBlock, ssn string) (string, error) {
	return ssn, nil
}
