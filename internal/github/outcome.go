package github

import "net/http"

// Outcome is the classification of an API response status.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeRateLimited
	OutcomeInvalidQuery
	OutcomeFailed
)

// Classify maps an HTTP status code to an Outcome. GitHub answers exhausted
// rate limits with either 403 or 429.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeOK
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status == http.StatusUnprocessableEntity:
		return OutcomeInvalidQuery
	default:
		return OutcomeFailed
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeInvalidQuery:
		return "invalid_query"
	default:
		return "failed"
	}
}
