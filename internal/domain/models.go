package domain

import "time"

// Domain contains core models shared by the runner, storage and publishers.

// CheckResult is the outcome of one check execution.
type CheckResult struct {
	CheckID     string        `json:"check_id"`
	Name        string        `json:"name"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	BaseURL     string        `json:"base_url"`
	Expected    string        `json:"expected"`
	StatusCode  int           `json:"status_code"`
	OK          bool          `json:"ok"`
	Reason      string        `json:"reason,omitempty"`
	Payload     string        `json:"payload,omitempty"`
	BodySnippet string        `json:"body_snippet,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// RunReport summarizes a single pass over all enabled checks.
type RunReport struct {
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Requests  int           `json:"requests"`
	Results   []CheckResult `json:"results"`
}

// Failed returns the results that did not pass.
func (r RunReport) Failed() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// FailureRecord is a persisted failed check result.
type FailureRecord struct {
	CheckID    string    `json:"check_id"`
	Method     string    `json:"method"`
	BaseURL    string    `json:"base_url"`
	StatusCode int       `json:"status_code"`
	Expected   string    `json:"expected"`
	Reason     string    `json:"reason"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewFailureRecord builds a FailureRecord from a result.
func NewFailureRecord(res CheckResult, at time.Time) FailureRecord {
	return FailureRecord{
		CheckID:    res.CheckID,
		Method:     res.Method,
		BaseURL:    res.BaseURL,
		StatusCode: res.StatusCode,
		Expected:   res.Expected,
		Reason:     res.Reason,
		ObservedAt: at.UTC(),
	}
}
