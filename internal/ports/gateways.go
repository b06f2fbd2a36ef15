package ports

import (
	"context"
	"time"

	"github.com/vagov/benefits-portal/internal/domain"
)

// IdentityGateway fronts the master patient index. The actual SOAP client
// lives outside this service; implementations here are injected.
type IdentityGateway interface {
	// FindProfile resolves the golden record for a user. Lookup failures are
	// expressed as failure statuses in the response, not errors; an error
	// return means the gateway itself could not be reached.
	FindProfile(ctx context.Context, user domain.UserIdentity) (domain.ProfileResponse, error)
	// OrchestratedSearch primes the upstream system for a subsequent add.
	OrchestratedSearch(ctx context.Context, user domain.UserIdentity) (domain.ProfileResponse, error)
	// AddPerson registers the person and returns the newly issued
	// correlation IDs. It must only be called after a successful
	// OrchestratedSearch.
	AddPerson(ctx context.Context, user domain.UserIdentity) (domain.AddPersonResponse, error)
}

// ReferenceDataGateway serves eligibility reference data sets. Responses are
// not personalized and are cached once for everybody.
type ReferenceDataGateway interface {
	Fetch(ctx context.Context, set string) ([]byte, error)
}

// AuthBlock is the shared authentication envelope merged into every payload
// sent to the legacy benefits system.
type AuthBlock struct {
	JournalDate     time.Time
	StationID       string
	ApplicationID   string
	ActingUser      string
	StatusTypeCode  string
	VeteranSSN      string
	VeteranICN      string
	ExternalUserKey string
}

// CreatePersonParams is the person sub-record for one participant.
type CreatePersonParams struct {
	ProcessID     string
	ParticipantID string
	FirstName     string
	MiddleName    string
	LastName      string
	Suffix        string
	SSN           string
	FileNumber    string
	BirthDate     string
	DeathDate     string
	VeteranFlag   bool
}

// CreateAddressParams is the address sub-record for one participant.
type CreateAddressParams struct {
	ProcessID     string
	ParticipantID string
	Line1         string
	Line2         string
	Line3         string
	City          string
	StateCode     string
	ZipCode       string
	Country       string
	EmailAddress  string
}

// CreateRelationshipParams links a dependent participant to the veteran
// participant. Exactly one of the marriage, divorce, or death field groups
// is set by the caller.
type CreateRelationshipParams struct {
	ProcessID                   string
	ParticipantID               string
	VeteranParticipantID        string
	ParticipantRelationshipType string
	FamilyRelationshipType      string
	EventDate                   string
	MarriageCity                string
	MarriageState               string
	DivorceCity                 string
	DivorceState                string
	MarriageTerminationTypeCode string
}

// CreateBenefitClaimParams creates the claim record under the process.
type CreateBenefitClaimParams struct {
	ProcessID            string
	VeteranParticipantID string
	ClaimTypeCode        string
	ProgramTypeCode      string
	EndProductCode       string
}

// PersonRecord is the created person sub-record as echoed back by the
// benefits system.
type PersonRecord struct {
	ID         string
	FirstName  string
	LastName   string
	SSN        string
	FileNumber string
}

// AddressRecord is the created address sub-record.
type AddressRecord struct {
	ID        string
	Line1     string
	City      string
	StateCode string
	ZipCode   string
	Country   string
}

// BenefitsGateway is the remote-procedure surface of the legacy benefits
// system used by the claim submission pipeline. Every call carries the
// shared AuthBlock. A fault is returned as *domain.BackendServiceError so
// the retry wrapper can surface the upstream code.
type BenefitsGateway interface {
	CreateProcess(ctx context.Context, auth AuthBlock, procType string) (domain.Process, error)
	CreateProcessForm(ctx context.Context, auth AuthBlock, processID, formType string) error
	UpdateProcess(ctx context.Context, auth AuthBlock, processID, state string) (domain.Process, error)
	CreateParticipant(ctx context.Context, auth AuthBlock, processID, corpParticipantID string) (string, error)
	CreatePerson(ctx context.Context, auth AuthBlock, params CreatePersonParams) (PersonRecord, error)
	CreatePhone(ctx context.Context, auth AuthBlock, processID, participantID, phoneNumber string) (string, error)
	CreateAddress(ctx context.Context, auth AuthBlock, params CreateAddressParams) (AddressRecord, error)
	CreateRelationship(ctx context.Context, auth AuthBlock, params CreateRelationshipParams) (domain.RelationshipRecord, error)
	CreateBenefitClaim(ctx context.Context, auth AuthBlock, params CreateBenefitClaimParams) (domain.BenefitClaimRecord, error)
	FindBenefitClaimTypeIncrement(ctx context.Context, auth AuthBlock, participantID, claimTypeCode string) (string, error)
	FindVAFileNumber(ctx context.Context, auth AuthBlock, ssn string) (string, error)
}
