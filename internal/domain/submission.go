package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission process states in the legacy benefits system. Manual is
// terminal: it is entered when automatic finalization fails and is handed
// to an operator instead of being retried.
const (
	ProcStateStarted = "Started"
	ProcStateReady   = "Ready"
	ProcStateManual  = "Manual"
)

// FormTypeDependencyChange is the representative retained form mapping.
const FormTypeDependencyChange = "21-686c"

// Benefit claim coding for dependency-change claims.
const (
	ClaimTypeDependencyChange = "130DPNEBNADJ"
	ClaimProgramTypeCPL       = "CPL"
)

// Marriage termination codes as the benefits system spells them.
const (
	TerminationDivorce = "Divorce"
	TerminationDeath   = "Death"
)

// AddressInput is one mailing address from the submitted form.
type AddressInput struct {
	Line1     string `json:"address_line1"`
	Line2     string `json:"address_line2,omitempty"`
	Line3     string `json:"address_line3,omitempty"`
	City      string `json:"city"`
	StateCode string `json:"state_code"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// PersonInput is one person named on the submitted form.
type PersonInput struct {
	FirstName    string       `json:"first"`
	MiddleName   string       `json:"middle,omitempty"`
	LastName     string       `json:"last"`
	Suffix       string       `json:"suffix,omitempty"`
	SSN          string       `json:"ssn"`
	VAFileNumber string       `json:"va_file_number,omitempty"`
	BirthDate    string       `json:"birth_date,omitempty"`
	DeathDate    string       `json:"death_date,omitempty"`
	PhoneNumber  string       `json:"phone_number,omitempty"`
	EmailAddress string       `json:"email_address,omitempty"`
	Address      AddressInput `json:"address"`
}

// DependentInput is a dependent named on the form, together with the
// relationship event data used to build the relationship record.
type DependentInput struct {
	PersonInput

	ParticipantRelationshipType string `json:"participant_relationship_type"`
	FamilyRelationshipType      string `json:"family_relationship_type,omitempty"`
	EventDate                   string `json:"event_date,omitempty"`
	MarriageCity                string `json:"marriage_city,omitempty"`
	MarriageState               string `json:"marriage_state,omitempty"`
	DivorceCity                 string `json:"divorce_city,omitempty"`
	DivorceState                string `json:"divorce_state,omitempty"`
	MarriageTerminationTypeCode string `json:"marriage_termination_type_code,omitempty"`
}

// ClaimPayload is a submitted dependency-change form: the veteran plus the
// dependents the claim adds or removes.
type ClaimPayload struct {
	FormType   string           `json:"form_type"`
	Veteran    PersonInput      `json:"veteran"`
	Dependents []DependentInput `json:"dependents"`
}

// Submission is a persisted claim submission awaiting (or finished with)
// background processing.
type Submission struct {
	ID          uuid.UUID
	AccountUUID uuid.UUID
	FormType    string
	Payload     ClaimPayload
	EnqueuedAt  time.Time
}

// Process is the legacy-system container record under which all records for
// one claim submission are grouped.
type Process struct {
	ID       string
	State    string
	FormType string
}

// ParticipantRole distinguishes the veteran from dependents within a
// submission process.
type ParticipantRole string

const (
	RoleVeteran   ParticipantRole = "veteran"
	RoleDependent ParticipantRole = "dependent"
)

// ParticipantRecord accumulates the identifiers generated while creating
// one person's records (participant, person, phone, address) in the
// benefits system. It is the pipeline value threaded through the
// per-participant creation steps.
type ParticipantRecord struct {
	ParticipantID string
	ProcessID     string
	Role          ParticipantRole
	FirstName     string
	LastName      string
	SSN           string
	FileNumber    string
	AddressID     string
	PhoneID       string

	// Relationship event data, carried from the form input for dependents.
	EventDate                   string
	MarriageCity                string
	MarriageState               string
	DivorceCity                 string
	DivorceState                string
	MarriageTerminationTypeCode string
	ParticipantRelationshipType string
	FamilyRelationshipType      string
}

// RelationshipRecord is the created dependent-to-veteran link. Exactly one
// of the marriage, divorce, or death field groups is populated, selected by
// the relationship event type.
type RelationshipRecord struct {
	ID                          string
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

// BenefitClaimRecord is the claim created under the submission process once
// all participants and relationships exist.
type BenefitClaimRecord struct {
	ID             string
	ProcessID      string
	ClaimTypeCode  string
	EndProductCode string
}

// SubmissionResult is the outcome of one orchestrated pipeline run.
// ManualReview is set when finalization failed and the process was parked
// in the Manual state for operator handling.
type SubmissionResult struct {
	ProcessID     string
	ProcessState  string
	Veteran       ParticipantRecord
	Dependents    []ParticipantRecord
	Relationships []RelationshipRecord
	Claim         BenefitClaimRecord
	ManualReview  bool
}
