package domain

// ProfileStatus is the golden-record status of an identity profile lookup.
type ProfileStatus string

const (
	ProfileStatusOK            ProfileStatus = "ok"
	ProfileStatusNotFound      ProfileStatus = "not_found"
	ProfileStatusServerError   ProfileStatus = "server_error"
	ProfileStatusNotAuthorized ProfileStatus = "not_authorized"
)

// IdentityProfile is the authoritative merged identity record for a person
// across the legacy source systems. The correlation IDs link the same person
// in the master patient index, the benefits system, and the records locator.
type IdentityProfile struct {
	ICN            string   `json:"icn"`
	ParticipantID  string   `json:"participant_id"`
	BIRLSID        string   `json:"birls_id"`
	EDIPI          string   `json:"edipi"`
	HistoricalICNs []string `json:"historical_icns,omitempty"`
}

// ProfileResponse pairs a profile with the status of the lookup that
// produced it. Failure statuses carry no profile and are cached under a
// shorter TTL than ok responses.
type ProfileResponse struct {
	Status  ProfileStatus   `json:"status"`
	Profile IdentityProfile `json:"profile"`
}

// OK reports whether the lookup resolved a golden record.
func (r ProfileResponse) OK() bool {
	return r.Status == ProfileStatusOK
}

// AddPersonResponse is the outcome of the orchestrated search-then-add
// correlation sequence. When the search step fails the add is never
// attempted and Status carries the search failure.
type AddPersonResponse struct {
	Status        ProfileStatus `json:"status"`
	BIRLSID       string        `json:"birls_id"`
	ParticipantID string        `json:"participant_id"`
}
