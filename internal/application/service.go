package application

import (
	"time"

	"github.com/vagov/benefits-portal/internal/ports"
)

// Config is the application-level tuning for the portal backend.
type Config struct {
	SessionTTL time.Duration
	TrackerTTL time.Duration

	// Differentiated cache TTLs for identity profile responses.
	ProfileTTL        time.Duration
	ProfileFailureTTL time.Duration
	ReferenceDataTTL  time.Duration

	// Success/failure redirect targets handed back to the browser.
	LoginRedirectURL  string
	LogoutRedirectURL string

	// Bounded-retry policy for legacy benefits calls.
	BackendAttempts   int
	BackendRetryDelay time.Duration

	// Worker-level retry budget for submission jobs.
	SubmissionJobAttempts int

	// Shared auth block constants for the benefits system.
	StationID     string
	ApplicationID string
	ActingUser    string
}

type Service struct {
	cfg            Config
	sessions       ports.SessionRepository
	jobStatuses    ports.JobStatusRepository
	submissions    ports.SubmissionRepository
	cache          ports.ResponseCache
	trackers       ports.TrackerStore
	logoutRequests ports.LogoutRequestStore
	saml           ports.SAMLProvider
	identity       ports.IdentityGateway
	refData        ports.ReferenceDataGateway
	benefits       ports.BenefitsGateway
	tasks          ports.TaskPublisher
	tokenSigner    ports.TokenSigner
	telemetry      ports.Telemetry
	errTracker     ports.ErrorTracker
	nowFn          func() time.Time
}

type Dependencies struct {
	Config         Config
	Sessions       ports.SessionRepository
	JobStatuses    ports.JobStatusRepository
	Submissions    ports.SubmissionRepository
	Cache          ports.ResponseCache
	Trackers       ports.TrackerStore
	LogoutRequests ports.LogoutRequestStore
	SAML           ports.SAMLProvider
	Identity       ports.IdentityGateway
	ReferenceData  ports.ReferenceDataGateway
	Benefits       ports.BenefitsGateway
	Tasks          ports.TaskPublisher
	TokenSigner    ports.TokenSigner
	Telemetry      ports.Telemetry
	ErrorTracker   ports.ErrorTracker
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.BackendAttempts <= 0 {
		cfg.BackendAttempts = 3
	}
	if cfg.BackendRetryDelay <= 0 {
		cfg.BackendRetryDelay = time.Second
	}
	if cfg.SubmissionJobAttempts <= 0 {
		cfg.SubmissionJobAttempts = 5
	}
	return &Service{
		cfg:            cfg,
		sessions:       deps.Sessions,
		jobStatuses:    deps.JobStatuses,
		submissions:    deps.Submissions,
		cache:          deps.Cache,
		trackers:       deps.Trackers,
		logoutRequests: deps.LogoutRequests,
		saml:           deps.SAML,
		identity:       deps.Identity,
		refData:        deps.ReferenceData,
		benefits:       deps.Benefits,
		tasks:          deps.Tasks,
		tokenSigner:    deps.TokenSigner,
		telemetry:      deps.Telemetry,
		errTracker:     deps.ErrorTracker,
		nowFn:          func() time.Time { return time.Now().UTC() },
	}
}
