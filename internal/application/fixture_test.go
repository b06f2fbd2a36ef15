package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/adapters/security"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]domain.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, session := range r.sessions {
		if session.AccountUUID == params.AccountUUID && session.RevokedAt == nil {
			revoked := params.IssuedAt
			session.RevokedAt = &revoked
			r.sessions[token] = session
		}
	}
	session := domain.Session{
		Token:        uuid.NewString(),
		AccountUUID:  params.AccountUUID,
		IssuedAt:     params.IssuedAt,
		ExpiresAt:    params.ExpiresAt,
		NameID:       params.NameID,
		SessionIndex: params.SessionIndex,
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) RevokeByToken(_ context.Context, token string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return domain.ErrNotFound
	}
	if session.RevokedAt == nil {
		session.RevokedAt = &revokedAt
		r.sessions[token] = session
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllByAccount(_ context.Context, accountUUID uuid.UUID, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, session := range r.sessions {
		if session.AccountUUID == accountUUID && session.RevokedAt == nil {
			session.RevokedAt = &revokedAt
			r.sessions[token] = session
		}
	}
	return nil
}

type fakeJobStatusRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.JobStatusRecord
	history []domain.JobStatus
}

func newFakeJobStatusRepo() *fakeJobStatusRepo {
	return &fakeJobStatusRepo{records: map[uuid.UUID]domain.JobStatusRecord{}}
}

func (r *fakeJobStatusRepo) Upsert(_ context.Context, params ports.JobStatusUpsertParams) (domain.JobStatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[params.JobID]
	if !ok {
		record = domain.JobStatusRecord{
			JobID:        params.JobID,
			SubmissionID: params.SubmissionID,
			CreatedAt:    params.At,
		}
	}
	record.Status = params.Status
	record.ErrorClass = params.ErrorClass
	record.ErrorMessage = params.ErrorMessage
	record.UpdatedAt = params.At
	r.records[params.JobID] = record
	r.history = append(r.history, params.Status)
	return record, nil
}

func (r *fakeJobStatusRepo) GetByJobID(_ context.Context, jobID uuid.UUID) (domain.JobStatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[jobID]
	if !ok {
		return domain.JobStatusRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (r *fakeJobStatusRepo) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]domain.JobStatusRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.JobStatusRecord
	for _, record := range r.records {
		if record.SubmissionID == submissionID {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]domain.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uuid.UUID]domain.Submission{}}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, submission domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[submission.ID] = submission
	return nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	submission, ok := r.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrNotFound
	}
	return submission, nil
}

type cacheEntry struct {
	value []byte
	ttl   time.Duration
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]cacheEntry{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return entry.value, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, ttl: ttl}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) ttlFor(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key].ttl
}

type fakeTrackerStore struct {
	mu       sync.Mutex
	trackers map[string]domain.Tracker
}

func newFakeTrackerStore() *fakeTrackerStore {
	return &fakeTrackerStore{trackers: map[string]domain.Tracker{}}
}

func (s *fakeTrackerStore) Put(_ context.Context, tracker domain.Tracker, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers[tracker.UUID.String()] = tracker
	return nil
}

func (s *fakeTrackerStore) Get(_ context.Context, id string) (*domain.Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.trackers[id]
	if !ok {
		return nil, nil
	}
	return &tracker, nil
}

func (s *fakeTrackerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, id)
	return nil
}

type fakeLogoutRequestStore struct {
	mu       sync.Mutex
	requests map[string]domain.LogoutRequest
}

func newFakeLogoutRequestStore() *fakeLogoutRequestStore {
	return &fakeLogoutRequestStore{requests: map[string]domain.LogoutRequest{}}
}

func (s *fakeLogoutRequestStore) Put(_ context.Context, req domain.LogoutRequest, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.RequestID] = req
	return nil
}

func (s *fakeLogoutRequestStore) Get(_ context.Context, requestID string) (*domain.LogoutRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (s *fakeLogoutRequestStore) Delete(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, requestID)
	return nil
}

// fakeSAMLProvider is scripted per test: validation outcomes are assigned
// directly, URL building echoes its inputs.
type fakeSAMLProvider struct {
	assertion    ports.Assertion
	loginErr     error
	logoutResult ports.LogoutResult
	logoutErr    error

	lastAuthnContext string
	lastRelayState   string
	lastNameID       string
	lastSessionIndex string
}

func (p *fakeSAMLProvider) BuildLoginURL(_ context.Context, authnContext, relayState string) (string, error) {
	p.lastAuthnContext = authnContext
	p.lastRelayState = relayState
	return "https://idp.example.gov/sso?ctx=" + authnContext, nil
}

func (p *fakeSAMLProvider) BuildLogoutURL(_ context.Context, relayState, nameID, sessionIndex string) (string, error) {
	p.lastRelayState = relayState
	p.lastNameID = nameID
	p.lastSessionIndex = sessionIndex
	return "https://idp.example.gov/slo?req=" + relayState, nil
}

func (p *fakeSAMLProvider) ValidateLoginResponse(_ context.Context, _ string) (ports.Assertion, error) {
	return p.assertion, p.loginErr
}

func (p *fakeSAMLProvider) ValidateLogoutResponse(_ context.Context, _ string) (ports.LogoutResult, error) {
	return p.logoutResult, p.logoutErr
}

type fakeIdentityGateway struct {
	findResponse   domain.ProfileResponse
	findErr        error
	findCalls      int
	searchResponse domain.ProfileResponse
	searchErr      error
	addResponse    domain.AddPersonResponse
	addErr         error
	addCalls       int
}

func (g *fakeIdentityGateway) FindProfile(_ context.Context, _ domain.UserIdentity) (domain.ProfileResponse, error) {
	g.findCalls++
	return g.findResponse, g.findErr
}

func (g *fakeIdentityGateway) OrchestratedSearch(_ context.Context, _ domain.UserIdentity) (domain.ProfileResponse, error) {
	return g.searchResponse, g.searchErr
}

func (g *fakeIdentityGateway) AddPerson(_ context.Context, _ domain.UserIdentity) (domain.AddPersonResponse, error) {
	g.addCalls++
	return g.addResponse, g.addErr
}

type fakeReferenceDataGateway struct {
	payload []byte
	err     error
	calls   int
}

func (g *fakeReferenceDataGateway) Fetch(_ context.Context, _ string) ([]byte, error) {
	g.calls++
	return g.payload, g.err
}

// fakeBenefitsGateway records the full call sequence and fails scripted
// operations a configured number of times before succeeding.
type fakeBenefitsGateway struct {
	mu        sync.Mutex
	seq       int
	calls     []string
	failures  map[string]int
	failCode  string
	relations []ports.CreateRelationshipParams
	claims    []ports.CreateBenefitClaimParams
	updates   []string
}

func newFakeBenefitsGateway() *fakeBenefitsGateway {
	return &fakeBenefitsGateway{failures: map[string]int{}, failCode: "PIF0001"}
}

func (g *fakeBenefitsGateway) failTimes(operation string, times int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[operation] = times
}

func (g *fakeBenefitsGateway) record(operation string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, operation)
	if g.failures[operation] > 0 {
		g.failures[operation]--
		return &domain.BackendServiceError{
			Code:      g.failCode,
			Operation: operation,
			Message:   "simulated upstream fault",
		}
	}
	return nil
}

func (g *fakeBenefitsGateway) nextID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *fakeBenefitsGateway) CreateProcess(_ context.Context, _ ports.AuthBlock, _ string) (domain.Process, error) {
	if err := g.record("create_process"); err != nil {
		return domain.Process{}, err
	}
	return domain.Process{ID: g.nextID("proc"), State: domain.ProcStateStarted}, nil
}

func (g *fakeBenefitsGateway) CreateProcessForm(_ context.Context, _ ports.AuthBlock, _, _ string) error {
	return g.record("create_process_form")
}

func (g *fakeBenefitsGateway) UpdateProcess(_ context.Context, _ ports.AuthBlock, processID, state string) (domain.Process, error) {
	if err := g.record("update_process:" + state); err != nil {
		return domain.Process{}, err
	}
	g.mu.Lock()
	g.updates = append(g.updates, state)
	g.mu.Unlock()
	return domain.Process{ID: processID, State: state}, nil
}

func (g *fakeBenefitsGateway) CreateParticipant(_ context.Context, _ ports.AuthBlock, _, _ string) (string, error) {
	if err := g.record("create_participant"); err != nil {
		return "", err
	}
	return g.nextID("ptcpnt"), nil
}

func (g *fakeBenefitsGateway) CreatePerson(_ context.Context, _ ports.AuthBlock, params ports.CreatePersonParams) (ports.PersonRecord, error) {
	if err := g.record("create_person"); err != nil {
		return ports.PersonRecord{}, err
	}
	return ports.PersonRecord{
		ID:         g.nextID("person"),
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		SSN:        params.SSN,
		FileNumber: params.FileNumber,
	}, nil
}

func (g *fakeBenefitsGateway) CreatePhone(_ context.Context, _ ports.AuthBlock, _, _, _ string) (string, error) {
	if err := g.record("create_phone"); err != nil {
		return "", err
	}
	return g.nextID("phone"), nil
}

func (g *fakeBenefitsGateway) CreateAddress(_ context.Context, _ ports.AuthBlock, params ports.CreateAddressParams) (ports.AddressRecord, error) {
	if err := g.record("create_address"); err != nil {
		return ports.AddressRecord{}, err
	}
	return ports.AddressRecord{ID: g.nextID("addrs"), Line1: params.Line1, City: params.City}, nil
}

func (g *fakeBenefitsGateway) CreateRelationship(_ context.Context, _ ports.AuthBlock, params ports.CreateRelationshipParams) (domain.RelationshipRecord, error) {
	if err := g.record("create_relationship"); err != nil {
		return domain.RelationshipRecord{}, err
	}
	g.mu.Lock()
	g.relations = append(g.relations, params)
	g.mu.Unlock()
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

func (g *fakeBenefitsGateway) CreateBenefitClaim(_ context.Context, _ ports.AuthBlock, params ports.CreateBenefitClaimParams) (domain.BenefitClaimRecord, error) {
	if err := g.record("create_benefit_claim"); err != nil {
		return domain.BenefitClaimRecord{}, err
	}
	g.mu.Lock()
	g.claims = append(g.claims, params)
	g.mu.Unlock()
	return domain.BenefitClaimRecord{
		ID:             g.nextID("claim"),
		ProcessID:      params.ProcessID,
		ClaimTypeCode:  params.ClaimTypeCode,
		EndProductCode: params.EndProductCode,
	}, nil
}

func (g *fakeBenefitsGateway) FindBenefitClaimTypeIncrement(_ context.Context, _ ports.AuthBlock, _, _ string) (string, error) {
	if err := g.record("find_benefit_claim_type_increment"); err != nil {
		return "", err
	}
	return "130", nil
}

func (g *fakeBenefitsGateway) FindVAFileNumber(_ context.Context, _ ports.AuthBlock, ssn string) (string, error) {
	if err := g.record("find_va_file_number"); err != nil {
		return "", err
	}
	return ssn, nil
}

type publishedTask struct {
	topic        string
	partitionKey string
	payload      []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedTask
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, partitionKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedTask{topic: topic, partitionKey: partitionKey, payload: payload})
	return nil
}

func (p *fakePublisher) byTopic(topic string) []publishedTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedTask
	for _, task := range p.published {
		if task.topic == topic {
			out = append(out, task)
		}
	}
	return out
}

type fakeTelemetry struct {
	mu       sync.Mutex
	counts   map[string]int
	measures map[string][]time.Duration
}

func newFakeTelemetry() *fakeTelemetry {
	return &fakeTelemetry{counts: map[string]int{}, measures: map[string][]time.Duration{}}
}

func (t *fakeTelemetry) Increment(name string, _ ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[name]++
}

func (t *fakeTelemetry) Measure(name string, d time.Duration, _ ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.measures[name] = append(t.measures[name], d)
}

func (t *fakeTelemetry) count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[name]
}

type fakeErrorTracker struct {
	mu       sync.Mutex
	notified []error
}

func (t *fakeErrorTracker) Notify(_ context.Context, err error, _ map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notified = append(t.notified, err)
}

type fixture struct {
	service        *Service
	sessions       *fakeSessionRepo
	jobStatuses    *fakeJobStatusRepo
	submissions    *fakeSubmissionRepo
	cache          *fakeCache
	trackers       *fakeTrackerStore
	logoutRequests *fakeLogoutRequestStore
	saml           *fakeSAMLProvider
	identity       *fakeIdentityGateway
	refData        *fakeReferenceDataGateway
	benefits       *fakeBenefitsGateway
	publisher      *fakePublisher
	telemetry      *fakeTelemetry
	errTracker     *fakeErrorTracker
}

func newFixture() *fixture {
	f := &fixture{
		sessions:       newFakeSessionRepo(),
		jobStatuses:    newFakeJobStatusRepo(),
		submissions:    newFakeSubmissionRepo(),
		cache:          newFakeCache(),
		trackers:       newFakeTrackerStore(),
		logoutRequests: newFakeLogoutRequestStore(),
		saml:           &fakeSAMLProvider{},
		identity:       &fakeIdentityGateway{},
		refData:        &fakeReferenceDataGateway{},
		benefits:       newFakeBenefitsGateway(),
		publisher:      &fakePublisher{},
		telemetry:      newFakeTelemetry(),
		errTracker:     &fakeErrorTracker{},
	}
	f.service = NewService(Dependencies{
		Config: Config{
			SessionTTL:            30 * time.Minute,
			TrackerTTL:            10 * time.Minute,
			ProfileTTL:            24 * time.Hour,
			ProfileFailureTTL:     30 * time.Minute,
			ReferenceDataTTL:      24 * time.Hour,
			LoginRedirectURL:      "https://portal.example.gov/loggedin",
			LogoutRedirectURL:     "https://portal.example.gov/loggedout",
			BackendAttempts:       3,
			BackendRetryDelay:     time.Millisecond,
			SubmissionJobAttempts: 5,
			StationID:             "281",
			ApplicationID:         "SSO",
			ActingUser:            "portal-system",
		},
		Sessions:       f.sessions,
		JobStatuses:    f.jobStatuses,
		Submissions:    f.submissions,
		Cache:          f.cache,
		Trackers:       f.trackers,
		LogoutRequests: f.logoutRequests,
		SAML:           f.saml,
		Identity:       f.identity,
		ReferenceData:  f.refData,
		Benefits:       f.benefits,
		Tasks:          f.publisher,
		TokenSigner:    security.NewEphemeralJWTSigner(),
		Telemetry:      f.telemetry,
		ErrorTracker:   f.errTracker,
	})
	return f
}
