package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vagov/benefits-portal/internal/domain"
)

func dependencyClaimPayload() domain.ClaimPayload {
	return domain.ClaimPayload{
		FormType: domain.FormTypeDependencyChange,
		Veteran: domain.PersonInput{
			FirstName:    "Wesley",
			LastName:     "Ford",
			SSN:          "796043735",
			VAFileNumber: "796043735",
			PhoneNumber:  "8135551234",
			EmailAddress: "vet@example.com",
			Address: domain.AddressInput{
				Line1:     "8200 Doby Ln",
				City:      "Pasadena",
				StateCode: "CA",
				ZipCode:   "21122",
				Country:   "USA",
			},
		},
		Dependents: []domain.DependentInput{
			{
				PersonInput: domain.PersonInput{
					FirstName: "Jesse",
					LastName:  "Ford",
					SSN:       "300400000",
					Address: domain.AddressInput{
						Line1:     "8200 Doby Ln",
						City:      "Pasadena",
						StateCode: "CA",
						ZipCode:   "21122",
						Country:   "USA",
					},
				},
				ParticipantRelationshipType: "Spouse",
				FamilyRelationshipType:      "Spouse",
				EventDate:                   "2024-03-01",
				MarriageCity:                "Slidell",
				MarriageState:               "LA",
			},
		},
	}
}

func TestSubmitRunsFullPipelineInOrder(t *testing.T) {
	t.Parallel()
	f := newFixture()

	result, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err)

	require.Equal(t, []string{
		"create_process",
		"create_process_form",
		"create_participant",
		"create_person",
		"create_phone",
		"create_address",
		"create_participant",
		"create_person",
		"create_address",
		"create_relationship",
		"find_benefit_claim_type_increment",
		"create_benefit_claim",
		"update_process:Ready",
	}, f.benefits.calls)

	require.Equal(t, domain.ProcStateReady, result.ProcessState)
	require.False(t, result.ManualReview)
	require.Equal(t, domain.RoleVeteran, result.Veteran.Role)
	require.Len(t, result.Dependents, 1)
	require.Len(t, result.Relationships, 1)
	require.Equal(t, domain.ClaimTypeDependencyChange, result.Claim.ClaimTypeCode)
	require.Equal(t, "130", result.Claim.EndProductCode)

	require.Len(t, f.benefits.claims, 1)
	require.Equal(t, domain.ClaimProgramTypeCPL, f.benefits.claims[0].ProgramTypeCode)
}

func TestSubmitResolvesFileNumberOnlyWhenMissing(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	payload.Veteran.VAFileNumber = ""
	_, err := f.service.Submit(context.Background(), payload, loa3User())
	require.NoError(t, err)
	require.Contains(t, f.benefits.calls, "find_va_file_number")

	f2 := newFixture()
	_, err = f2.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err)
	require.NotContains(t, f2.benefits.calls, "find_va_file_number")
}

func TestSubmitDivorceBuildsExSpouseRelationship(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	payload.Dependents[0].MarriageTerminationTypeCode = domain.TerminationDivorce
	payload.Dependents[0].DivorceCity = "Tampa"
	payload.Dependents[0].DivorceState = "FL"

	result, err := f.service.Submit(context.Background(), payload, loa3User())
	require.NoError(t, err)
	require.Equal(t, "Ex-Spouse", result.Dependents[0].FamilyRelationshipType)

	require.Len(t, f.benefits.relations, 1)
	rel := f.benefits.relations[0]
	require.Equal(t, "Ex-Spouse", rel.FamilyRelationshipType)
	require.Equal(t, domain.TerminationDivorce, rel.MarriageTerminationTypeCode)
	require.Equal(t, "Tampa", rel.DivorceCity)
	require.Equal(t, "FL", rel.DivorceState)
	require.Empty(t, rel.MarriageCity)
	require.Empty(t, rel.MarriageState)
}

func TestSubmitDeathCarriesTerminationOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	payload.Dependents[0].MarriageTerminationTypeCode = domain.TerminationDeath
	payload.Dependents[0].DeathDate = "2024-01-10"

	_, err := f.service.Submit(context.Background(), payload, loa3User())
	require.NoError(t, err)

	require.Len(t, f.benefits.relations, 1)
	rel := f.benefits.relations[0]
	require.Equal(t, domain.TerminationDeath, rel.MarriageTerminationTypeCode)
	require.Empty(t, rel.MarriageCity)
	require.Empty(t, rel.DivorceCity)
	require.Empty(t, rel.DivorceState)
}

func TestSubmitDefaultCarriesMarriageFields(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err)

	require.Len(t, f.benefits.relations, 1)
	rel := f.benefits.relations[0]
	require.Equal(t, "Slidell", rel.MarriageCity)
	require.Equal(t, "LA", rel.MarriageState)
	require.Empty(t, rel.MarriageTerminationTypeCode)
	require.Empty(t, rel.DivorceCity)
}

func TestSubmitRetriesTransientFaults(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.benefits.failTimes("create_process", 2)
	_, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err)

	attempts := 0
	for _, call := range f.benefits.calls {
		if call == "create_process" {
			attempts++
		}
	}
	require.Equal(t, 3, attempts)
}

func TestSubmitSurfacesBackendErrorAfterExhaustion(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.benefits.failTimes("create_process", 3)
	_, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())

	var backendErr *domain.BackendServiceError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "PIF0001", backendErr.Code)
	require.Equal(t, "create_process", backendErr.Operation)
}

func TestSubmitDependentFailureAbortsThatDependentOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()

	payload := dependencyClaimPayload()
	second := payload.Dependents[0]
	second.FirstName = "Pat"
	second.SSN = "300400001"
	payload.Dependents = append(payload.Dependents, second)

	// Only the first dependent carries a phone number, so a permanent phone
	// fault fails that dependent while the second still completes.
	payload.Veteran.PhoneNumber = ""
	payload.Dependents[0].PhoneNumber = "5045559876"
	f.benefits.failTimes("create_phone", 3)

	result, err := f.service.Submit(context.Background(), payload, loa3User())

	var backendErr *domain.BackendServiceError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "vnp_ptcpnt_phone_create", backendErr.Operation)

	require.Len(t, result.Dependents, 1)
	require.Equal(t, "Pat", result.Dependents[0].FirstName)
	require.Empty(t, f.benefits.relations, "relationships must not be created on a partial failure")
}

func TestSubmitFinalizationFailureParksForManualReview(t *testing.T) {
	t.Parallel()
	f := newFixture()

	// One transient fault is enough: finalization is never retried, so the
	// run must park immediately instead of succeeding on a second attempt.
	f.benefits.failTimes("update_process:Ready", 1)
	result, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err, "a parked run is not a failed run")
	require.True(t, result.ManualReview)
	require.Equal(t, domain.ProcStateManual, result.ProcessState)
	require.Equal(t, []string{domain.ProcStateManual}, f.benefits.updates)

	readyAttempts := 0
	for _, call := range f.benefits.calls {
		if call == "update_process:Ready" {
			readyAttempts++
		}
	}
	require.Equal(t, 1, readyAttempts, "finalization must not be retried")
}

func TestSubmitManualParkFailureIsReported(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.benefits.failTimes("update_process:Ready", 1)
	f.benefits.failTimes("update_process:Manual", 1)

	result, err := f.service.Submit(context.Background(), dependencyClaimPayload(), loa3User())
	require.NoError(t, err)
	require.True(t, result.ManualReview)
	require.Equal(t, domain.ProcStateManual, result.ProcessState)
	require.Len(t, f.errTracker.notified, 1)
}
