package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessagesForReportingPassthrough(t *testing.T) {
	t.Parallel()

	record := JobStatusRecord{
		Status:       JobStatusNonRetryableError,
		ErrorClass:   "Error",
		ErrorMessage: "connection reset by peer",
	}
	require.Equal(t, []string{"connection reset by peer"}, record.ErrorMessagesForReporting())
}

func TestErrorMessagesForReportingEmptyForSuccess(t *testing.T) {
	t.Parallel()

	record := JobStatusRecord{Status: JobStatusSuccess}
	require.Empty(t, record.ErrorMessagesForReporting())
}

func TestErrorMessagesForReportingBackendClassIsNotParsed(t *testing.T) {
	t.Parallel()

	// Typed backend faults are already structured and must not be run
	// through the key/text extraction even when they contain the markers.
	raw := `backend fault: {"key"=>"PIF0001", "text"=>"proc not found"}`
	record := JobStatusRecord{
		Status:       JobStatusExhausted,
		ErrorClass:   BackendServiceErrorClass,
		ErrorMessage: raw,
	}
	require.Equal(t, []string{raw}, record.ErrorMessagesForReporting())
}

func TestErrorMessagesForReportingExtractsEveryPair(t *testing.T) {
	t.Parallel()

	record := JobStatusRecord{
		Status:     JobStatusNonRetryableError,
		ErrorClass: "Error",
		ErrorMessage: `[{"key"=>"dependent[0].address", "severity"=>"ERROR", "text"=>"Address line is too long"}, ` +
			`{"key"=>"dependent[1].ssn", "severity"=>"ERROR", "text"=>"SSN is malformed"}]`,
	}
	require.Equal(t, []string{
		"dependent.address: Address line is too long",
		"dependent.ssn: SSN is malformed",
	}, record.ErrorMessagesForReporting())
}

func TestErrorMessagesForReportingStripsGUIDSuffix(t *testing.T) {
	t.Parallel()

	record := JobStatusRecord{
		Status:       JobStatusNonRetryableError,
		ErrorClass:   "Error",
		ErrorMessage: `{"key"=>"proc.create", "severity"=>"FATAL", "text"=>"Unexpected fault GUID 4f2a77b1 logged"}`,
	}
	require.Equal(t, []string{"proc.create: Unexpected fault "}, record.ErrorMessagesForReporting())
}

func TestErrorMessagesForReportingUnmatchedMarkers(t *testing.T) {
	t.Parallel()

	record := JobStatusRecord{
		Status:       JobStatusNonRetryableError,
		ErrorClass:   "Error",
		ErrorMessage: `mapping {"stage"=>"create"} failed`,
	}
	require.Equal(t, []string{`mapping {"stage"=>"create"} failed`}, record.ErrorMessagesForReporting())
}
