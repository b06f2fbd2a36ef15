package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle status of one background submission job.
type JobStatus string

const (
	JobStatusTry               JobStatus = "try"
	JobStatusSuccess           JobStatus = "success"
	JobStatusRetryableError    JobStatus = "retryable_error"
	JobStatusNonRetryableError JobStatus = "non_retryable_error"
	JobStatusExhausted         JobStatus = "exhausted"
)

// BackendServiceErrorClass is the recorded error class for typed backend
// faults. Messages under this class are already structured and are not run
// through the key/text extraction below.
const BackendServiceErrorClass = "BackendServiceError"

// JobStatusRecord is the persisted outcome of one background job, upserted
// on every status transition and never deleted.
type JobStatusRecord struct {
	JobID        uuid.UUID
	SubmissionID uuid.UUID
	Status       JobStatus
	ErrorClass   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r JobStatusRecord) Success() bool {
	return r.Status == JobStatusSuccess
}

// The legacy claims system flattens multiple structured sub-errors into one
// opaque string of stringified key/text pairs. This regex groups every
// key/text pair present in the message; it is a contract with that upstream
// format, not incidental behavior.
var upstreamMessagesRegex = regexp.MustCompile(`key"=>"(.*?)".*?text"=>"(.*?)"`)

var (
	arrayIndexRegex = regexp.MustCompile(`\[\d*\]`)
	guidSuffixRegex = regexp.MustCompile(`GUID.*`)
)

// ErrorMessagesForReporting normalizes the raw error message into one
// human-readable string per upstream sub-error. Enumeration indices (e.g.
// "[0]") are stripped from keys and trailing GUID identifiers from texts.
// Messages without the key/text markers are returned whole.
func (r JobStatusRecord) ErrorMessagesForReporting() []string {
	if r.ErrorMessage == "" {
		return nil
	}
	if !strings.Contains(r.ErrorMessage, "=>") || r.ErrorClass == BackendServiceErrorClass {
		return []string{r.ErrorMessage}
	}

	matches := upstreamMessagesRegex.FindAllStringSubmatch(r.ErrorMessage, -1)
	if len(matches) == 0 {
		return []string{r.ErrorMessage}
	}

	messages := make([]string, 0, len(matches))
	for _, m := range matches {
		key := arrayIndexRegex.ReplaceAllString(m[1], "")
		text := guidSuffixRegex.ReplaceAllString(m[2], "")
		messages = append(messages, key+": "+text)
	}
	return messages
}
