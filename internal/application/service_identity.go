package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vagov/benefits-portal/internal/domain"
)

func profileCacheKey(user domain.UserIdentity) string {
	return "mpi:profile:" + user.AccountUUID.String()
}

func referenceDataCacheKey(set string) string {
	return "reference_data:" + set
}

// ResolveProfile returns the user's golden record, from cache when a fresh
// entry exists, otherwise from the identity gateway. Responses are cached
// under the user key with the success TTL for ok lookups and the shorter
// failure TTL otherwise. Users below the minimum identity-assurance level
// are denied without any backend call.
func (s *Service) ResolveProfile(ctx context.Context, user domain.UserIdentity) (domain.ProfileResponse, error) {
	if !user.LOA3() {
		return domain.ProfileResponse{Status: domain.ProfileStatusNotAuthorized}, nil
	}

	key := profileCacheKey(user)
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		var cached domain.ProfileResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	response, err := s.identity.FindProfile(ctx, user)
	if err != nil {
		// Gateway unreachable: degrade to a typed status, do not cache.
		slog.Default().WarnContext(ctx, "identity gateway unreachable",
			"module", "application",
			"layer", "service",
			"operation", "resolve_profile",
			"outcome", "failure",
			"error", err,
		)
		return domain.ProfileResponse{Status: domain.ProfileStatusServerError}, nil
	}

	s.cacheProfile(ctx, key, response)
	return response, nil
}

func (s *Service) cacheProfile(ctx context.Context, key string, response domain.ProfileResponse) {
	ttl := s.cfg.ProfileTTL
	if !response.OK() {
		ttl = s.cfg.ProfileFailureTTL
	}
	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		slog.Default().WarnContext(ctx, "profile cache write failed",
			"module", "application",
			"layer", "service",
			"operation", "cache_profile",
			"outcome", "failure",
			"error", err,
		)
	}
}

// AddCorrelationIDs performs the orchestrated search-then-add sequence. The
// search must succeed before the add is attempted; a failed search returns a
// composed failure response. A successful add merges the newly issued IDs
// into the profile and re-caches it so the next resolve sees them.
func (s *Service) AddCorrelationIDs(ctx context.Context, user domain.UserIdentity) (domain.AddPersonResponse, error) {
	if !user.LOA3() {
		return domain.AddPersonResponse{}, domain.ErrNotAuthorized
	}

	searchResponse, err := s.identity.OrchestratedSearch(ctx, user)
	if err != nil {
		return domain.AddPersonResponse{}, fmt.Errorf("orchestrated search: %w", err)
	}
	if !searchResponse.OK() {
		return domain.AddPersonResponse{Status: searchResponse.Status}, nil
	}

	addResponse, err := s.identity.AddPerson(ctx, user)
	if err != nil {
		return domain.AddPersonResponse{}, fmt.Errorf("add person: %w", err)
	}
	if addResponse.Status != domain.ProfileStatusOK {
		return addResponse, nil
	}

	profile := searchResponse.Profile
	if addResponse.BIRLSID != "" {
		profile.BIRLSID = addResponse.BIRLSID
	}
	if addResponse.ParticipantID != "" {
		profile.ParticipantID = addResponse.ParticipantID
	}
	s.cacheProfile(ctx, profileCacheKey(user), domain.ProfileResponse{
		Status:  domain.ProfileStatusOK,
		Profile: profile,
	})
	return addResponse, nil
}

// ReferenceData serves an eligibility reference-data set through the
// response cache. Reference data is not personalized, so one cached copy
// serves everybody.
func (s *Service) ReferenceData(ctx context.Context, set string) ([]byte, error) {
	key := referenceDataCacheKey(set)
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		return raw, nil
	}

	raw, err := s.refData.Fetch(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("fetch reference data %q: %w", set, err)
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.ReferenceDataTTL); err != nil {
		slog.Default().WarnContext(ctx, "reference data cache write failed",
			"module", "application",
			"layer", "service",
			"operation", "reference_data",
			"outcome", "failure",
			"set", set,
			"error", err,
		)
	}
	return raw, nil
}
