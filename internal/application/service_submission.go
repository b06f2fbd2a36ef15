package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vagov/benefits-portal/internal/domain"
	"github.com/vagov/benefits-portal/internal/ports"
)

const (
	statsSubmissionAttempt = "api.claims.vnp.attempt"
	statsSubmissionStep    = "api.claims.vnp.step"
)

const procTypeDependencyChange = "DEPCHG"

// AcceptSubmission persists a submitted claim and schedules its background
// processing. The request returns before any downstream record exists;
// callers observe progress through the job status ledger.
func (s *Service) AcceptSubmission(ctx context.Context, accountUUID uuid.UUID, payload domain.ClaimPayload) (uuid.UUID, error) {
	if payload.Veteran.FirstName == "" || payload.Veteran.LastName == "" {
		return uuid.Nil, fmt.Errorf("%w: veteran name is required", domain.ErrUnprocessableEntity)
	}
	if payload.FormType == "" {
		payload.FormType = domain.FormTypeDependencyChange
	}

	now := s.nowFn()
	submission := domain.Submission{
		ID:          uuid.New(),
		AccountUUID: accountUUID,
		FormType:    payload.FormType,
		Payload:     payload,
		EnqueuedAt:  now,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return uuid.Nil, fmt.Errorf("persist submission: %w", err)
	}

	jobID := uuid.New()
	if _, err := s.jobStatuses.Upsert(ctx, ports.JobStatusUpsertParams{
		JobID:        jobID,
		SubmissionID: submission.ID,
		Status:       domain.JobStatusTry,
		At:           now,
	}); err != nil {
		return uuid.Nil, fmt.Errorf("record job start: %w", err)
	}

	raw, _ := json.Marshal(ports.SubmissionTask{
		JobID:        jobID,
		SubmissionID: submission.ID,
		AccountUUID:  accountUUID,
		Attempt:      1,
	})
	if err := s.tasks.Publish(ctx, ports.TopicSubmissionRequested, accountUUID.String(), raw); err != nil {
		return uuid.Nil, fmt.Errorf("publish submission task: %w", err)
	}
	return jobID, nil
}

// Submit drives the multi-record creation sequence against the legacy
// benefits system for one claim. The sequence is: process, then per person
// participant/person/phone/address in payload order, then one relationship
// per dependent, then the benefit claim, then finalization. Each call is
// wrapped in bounded retry; retry exhaustion propagates as
// *domain.BackendServiceError for the caller to persist in the ledger. The
// one exception is finalization, which is a single unretried attempt that
// degrades to the Manual state instead of failing the run, because retrying
// at that point risks duplicate downstream records.
func (s *Service) Submit(ctx context.Context, payload domain.ClaimPayload, user domain.UserIdentity) (domain.SubmissionResult, error) {
	auth := s.authBlock(user)

	proc, err := s.createProcess(ctx, auth, payload.FormType)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	result := domain.SubmissionResult{
		ProcessID:    proc.ID,
		ProcessState: proc.State,
	}

	if payload.Veteran.VAFileNumber == "" {
		fileNumber, err := withRetry(ctx, s, "find_va_file_number", func(ctx context.Context) (string, error) {
			return s.benefits.FindVAFileNumber(ctx, auth, user.SSN)
		})
		if err != nil {
			return result, err
		}
		payload.Veteran.VAFileNumber = fileNumber
	}

	veteran, err := s.createParticipantRecords(ctx, auth, proc.ID, payload.Veteran, domain.RoleVeteran, user.ICN)
	if err != nil {
		return result, err
	}
	result.Veteran = veteran

	// A failed step aborts the remaining steps for that dependent only;
	// dependents already created stay part of the submission.
	var firstDependentErr error
	for _, dep := range payload.Dependents {
		record, err := s.createParticipantRecords(ctx, auth, proc.ID, dep.PersonInput, domain.RoleDependent, "")
		if err != nil {
			if firstDependentErr == nil {
				firstDependentErr = err
			}
			continue
		}
		record.EventDate = dep.EventDate
		record.MarriageCity = dep.MarriageCity
		record.MarriageState = dep.MarriageState
		record.DivorceCity = dep.DivorceCity
		record.DivorceState = dep.DivorceState
		record.MarriageTerminationTypeCode = dep.MarriageTerminationTypeCode
		record.ParticipantRelationshipType = dep.ParticipantRelationshipType
		record.FamilyRelationshipType = familyRelationshipType(dep)
		result.Dependents = append(result.Dependents, record)
	}
	if firstDependentErr != nil {
		return result, firstDependentErr
	}

	// Relationships reference the veteran participant ID, so they must wait
	// for all participant creation to complete.
	for _, dep := range result.Dependents {
		relationship, err := s.createRelationship(ctx, auth, proc.ID, veteran.ParticipantID, dep)
		if err != nil {
			return result, err
		}
		result.Relationships = append(result.Relationships, relationship)
	}

	claim, err := s.createBenefitClaim(ctx, auth, proc.ID, veteran.ParticipantID, user)
	if err != nil {
		return result, err
	}
	result.Claim = claim

	// Finalization is a single attempt, never retried: every downstream
	// record already exists at this point, and a repeated Ready transition
	// can duplicate claim establishment. Any failure parks the process.
	s.telemetry.Increment(statsSubmissionAttempt, "operation:vnp_proc_update", "attempt:1")
	finalized, err := s.benefits.UpdateProcess(ctx, auth, proc.ID, domain.ProcStateReady)
	if err != nil {
		s.telemetry.Increment(statsSubmissionStep, "operation:vnp_proc_update", "outcome:manual")
		return s.parkForManualReview(ctx, auth, result), nil
	}
	s.telemetry.Increment(statsSubmissionStep, "operation:vnp_proc_update", "outcome:success")
	result.ProcessState = finalized.State
	return result, nil
}

func (s *Service) authBlock(user domain.UserIdentity) ports.AuthBlock {
	return ports.AuthBlock{
		JournalDate:     s.nowFn(),
		StationID:       s.cfg.StationID,
		ApplicationID:   s.cfg.ApplicationID,
		ActingUser:      s.cfg.ActingUser,
		StatusTypeCode:  "U",
		VeteranSSN:      user.SSN,
		VeteranICN:      user.ICN,
		ExternalUserKey: user.Email,
	}
}

func (s *Service) createProcess(ctx context.Context, auth ports.AuthBlock, formType string) (domain.Process, error) {
	proc, err := withRetry(ctx, s, "vnp_proc_create", func(ctx context.Context) (domain.Process, error) {
		return s.benefits.CreateProcess(ctx, auth, procTypeDependencyChange)
	})
	if err != nil {
		return domain.Process{}, err
	}
	_, err = withRetry(ctx, s, "vnp_proc_form_create", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.benefits.CreateProcessForm(ctx, auth, proc.ID, formType)
	})
	if err != nil {
		return domain.Process{}, err
	}
	return proc, nil
}

// createParticipantRecords runs the participant, person, phone, address
// sequence for one person. Each step's generated ID is required input for
// the next, so the steps are strictly sequential.
func (s *Service) createParticipantRecords(ctx context.Context, auth ports.AuthBlock, processID string, person domain.PersonInput, role domain.ParticipantRole, corpParticipantID string) (domain.ParticipantRecord, error) {
	record := domain.ParticipantRecord{
		ProcessID: processID,
		Role:      role,
	}

	participantID, err := withRetry(ctx, s, "vnp_ptcpnt_create", func(ctx context.Context) (string, error) {
		return s.benefits.CreateParticipant(ctx, auth, processID, corpParticipantID)
	})
	if err != nil {
		return record, err
	}
	record.ParticipantID = participantID

	personRecord, err := withRetry(ctx, s, "vnp_person_create", func(ctx context.Context) (ports.PersonRecord, error) {
		return s.benefits.CreatePerson(ctx, auth, ports.CreatePersonParams{
			ProcessID:     processID,
			ParticipantID: participantID,
			FirstName:     person.FirstName,
			MiddleName:    person.MiddleName,
			LastName:      person.LastName,
			Suffix:        person.Suffix,
			SSN:           person.SSN,
			FileNumber:    person.VAFileNumber,
			BirthDate:     person.BirthDate,
			DeathDate:     person.DeathDate,
			VeteranFlag:   role == domain.RoleVeteran,
		})
	})
	if err != nil {
		return record, err
	}
	record.FirstName = personRecord.FirstName
	record.LastName = personRecord.LastName
	record.SSN = personRecord.SSN
	record.FileNumber = personRecord.FileNumber

	if person.PhoneNumber != "" {
		phoneID, err := withRetry(ctx, s, "vnp_ptcpnt_phone_create", func(ctx context.Context) (string, error) {
			return s.benefits.CreatePhone(ctx, auth, processID, participantID, person.PhoneNumber)
		})
		if err != nil {
			return record, err
		}
		record.PhoneID = phoneID
	}

	address, err := withRetry(ctx, s, "vnp_ptcpnt_addrs_create", func(ctx context.Context) (ports.AddressRecord, error) {
		return s.benefits.CreateAddress(ctx, auth, ports.CreateAddressParams{
			ProcessID:     processID,
			ParticipantID: participantID,
			Line1:         person.Address.Line1,
			Line2:         person.Address.Line2,
			Line3:         person.Address.Line3,
			City:          person.Address.City,
			StateCode:     person.Address.StateCode,
			ZipCode:       person.Address.ZipCode,
			Country:       person.Address.Country,
			EmailAddress:  person.EmailAddress,
		})
	})
	if err != nil {
		return record, err
	}
	record.AddressID = address.ID
	return record, nil
}

// createRelationship builds the dependent-to-veteran link. The attribute
// subset is selected by relationship event type: exactly one of the
// marriage, divorce, or death field groups is populated.
func (s *Service) createRelationship(ctx context.Context, auth ports.AuthBlock, processID, veteranParticipantID string, dep domain.ParticipantRecord) (domain.RelationshipRecord, error) {
	params := ports.CreateRelationshipParams{
		ProcessID:                   processID,
		ParticipantID:               dep.ParticipantID,
		VeteranParticipantID:        veteranParticipantID,
		ParticipantRelationshipType: dep.ParticipantRelationshipType,
		FamilyRelationshipType:      dep.FamilyRelationshipType,
		EventDate:                   dep.EventDate,
	}

	switch dep.MarriageTerminationTypeCode {
	case domain.TerminationDivorce:
		params.MarriageTerminationTypeCode = domain.TerminationDivorce
		params.DivorceCity = dep.DivorceCity
		params.DivorceState = dep.DivorceState
	case domain.TerminationDeath:
		params.MarriageTerminationTypeCode = domain.TerminationDeath
	default:
		params.MarriageCity = dep.MarriageCity
		params.MarriageState = dep.MarriageState
	}

	return withRetry(ctx, s, "vnp_ptcpnt_rlnshp_create", func(ctx context.Context) (domain.RelationshipRecord, error) {
		return s.benefits.CreateRelationship(ctx, auth, params)
	})
}

// familyRelationshipType derives the family relationship from the event
// data: a divorced spouse is recorded as Ex-Spouse regardless of the
// submitted value.
func familyRelationshipType(dep domain.DependentInput) string {
	if dep.MarriageTerminationTypeCode == domain.TerminationDivorce {
		return "Ex-Spouse"
	}
	if dep.FamilyRelationshipType != "" {
		return dep.FamilyRelationshipType
	}
	return dep.ParticipantRelationshipType
}

func (s *Service) createBenefitClaim(ctx context.Context, auth ports.AuthBlock, processID, veteranParticipantID string, user domain.UserIdentity) (domain.BenefitClaimRecord, error) {
	endProductCode, err := withRetry(ctx, s, "find_benefit_claim_type_increment", func(ctx context.Context) (string, error) {
		return s.benefits.FindBenefitClaimTypeIncrement(ctx, auth, veteranParticipantID, domain.ClaimTypeDependencyChange)
	})
	if err != nil {
		return domain.BenefitClaimRecord{}, err
	}

	return withRetry(ctx, s, "vnp_bnft_claim_create", func(ctx context.Context) (domain.BenefitClaimRecord, error) {
		return s.benefits.CreateBenefitClaim(ctx, auth, ports.CreateBenefitClaimParams{
			ProcessID:            processID,
			VeteranParticipantID: veteranParticipantID,
			ClaimTypeCode:        domain.ClaimTypeDependencyChange,
			ProgramTypeCode:      domain.ClaimProgramTypeCPL,
			EndProductCode:       endProductCode,
		})
	})
}

// parkForManualReview moves the process to the Manual terminal state after
// a failed finalization. The manual update itself is a single attempt:
// failures are reported and swallowed, leaving the run for operator
// handling either way.
func (s *Service) parkForManualReview(ctx context.Context, auth ports.AuthBlock, result domain.SubmissionResult) domain.SubmissionResult {
	result.ManualReview = true
	proc, err := s.benefits.UpdateProcess(ctx, auth, result.ProcessID, domain.ProcStateManual)
	if err != nil {
		s.errTracker.Notify(ctx, err, map[string]string{
			"operation":  "update_manual_proc",
			"process_id": result.ProcessID,
		})
		result.ProcessState = domain.ProcStateManual
		return result
	}
	result.ProcessState = proc.State
	slog.Default().WarnContext(ctx, "submission parked for manual review",
		"module", "application",
		"layer", "service",
		"operation", "vnp_proc_update",
		"outcome", "failure",
		"process_id", result.ProcessID,
	)
	return result
}

// withRetry wraps one legacy-system call in the bounded retry policy: a
// fixed number of attempts with a fixed short delay, each attempt counted.
// Exhaustion surfaces as *domain.BackendServiceError carrying the upstream
// fault code.
func withRetry[T any](ctx context.Context, s *Service, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= s.cfg.BackendAttempts; attempt++ {
		s.telemetry.Increment(statsSubmissionAttempt, "operation:"+operation, fmt.Sprintf("attempt:%d", attempt))
		out, err := fn(ctx)
		if err == nil {
			s.telemetry.Increment(statsSubmissionStep, "operation:"+operation, "outcome:success")
			return out, nil
		}
		lastErr = err
		slog.Default().WarnContext(ctx, "benefits call failed",
			"module", "application",
			"layer", "service",
			"operation", operation,
			"outcome", "failure",
			"attempt", attempt,
			"error", err,
		)
		if attempt < s.cfg.BackendAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(s.cfg.BackendRetryDelay):
			}
		}
	}
	s.telemetry.Increment(statsSubmissionStep, "operation:"+operation, "outcome:exhausted")

	var backendErr *domain.BackendServiceError
	if errors.As(lastErr, &backendErr) {
		return zero, backendErr
	}
	return zero, &domain.BackendServiceError{
		Code:      "UNKNOWN",
		Operation: operation,
		Message:   lastErr.Error(),
	}
}
