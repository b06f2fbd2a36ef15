package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/vagov/benefits-portal/internal/domain"
)

// StubIdentityGateway is an in-process stand-in for the master patient
// index used in local runs. It derives stable correlation IDs from the
// account UUID so repeated lookups agree with each other.
type StubIdentityGateway struct{}

func NewStubIdentityGateway() *StubIdentityGateway {
	return &StubIdentityGateway{}
}

func (g *StubIdentityGateway) FindProfile(_ context.Context, user domain.UserIdentity) (domain.ProfileResponse, error) {
	if user.ICN == "" && user.SSN == "" {
		return domain.ProfileResponse{Status: domain.ProfileStatusNotFound}, nil
	}
	return domain.ProfileResponse{
		Status:  domain.ProfileStatusOK,
		Profile: deriveProfile(user),
	}, nil
}

func (g *StubIdentityGateway) OrchestratedSearch(_ context.Context, user domain.UserIdentity) (domain.ProfileResponse, error) {
	return domain.ProfileResponse{
		Status:  domain.ProfileStatusOK,
		Profile: deriveProfile(user),
	}, nil
}

func (g *StubIdentityGateway) AddPerson(_ context.Context, user domain.UserIdentity) (domain.AddPersonResponse, error) {
	profile := deriveProfile(user)
	return domain.AddPersonResponse{
		Status:        domain.ProfileStatusOK,
		BIRLSID:       profile.BIRLSID,
		ParticipantID: profile.ParticipantID,
	}, nil
}

func deriveProfile(user domain.UserIdentity) domain.IdentityProfile {
	icn := user.ICN
	if icn == "" {
		icn = fmt.Sprintf("%d^NI^200M^USVHA^P", stableID(user.AccountUUID.String(), "icn"))
	}
	return domain.IdentityProfile{
		ICN:           icn,
		ParticipantID: fmt.Sprintf("%d", stableID(user.AccountUUID.String(), "pid")),
		BIRLSID:       fmt.Sprintf("%d", stableID(user.AccountUUID.String(), "birls")),
		EDIPI:         fmt.Sprintf("%d", stableID(user.AccountUUID.String(), "edipi")),
	}
}

func stableID(seed, salt string) uint32 {
	sum := sha256.Sum256([]byte(salt + ":" + seed))
	return binary.BigEndian.Uint32(sum[:4])%900000000 + 100000000
}
