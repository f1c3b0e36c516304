package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/restprobe/internal/domain"
)

// Event represents a failed check published downstream.
type Event struct {
	CheckID     string    `json:"check_id"`
	CheckName   string    `json:"check_name"`
	Method      string    `json:"method"`
	BaseURL     string    `json:"base_url"`
	StatusCode  int       `json:"status_code"`
	Expected    string    `json:"expected"`
	Reason      string    `json:"reason,omitempty"`
	Payload     string    `json:"payload,omitempty"`
	BodySnippet string    `json:"body_snippet,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// NewEvent constructs an Event for a failed check result.
func NewEvent(res domain.CheckResult) Event {
	return Event{
		CheckID:     res.CheckID,
		CheckName:   res.Name,
		Method:      res.Method,
		BaseURL:     res.BaseURL,
		StatusCode:  res.StatusCode,
		Expected:    res.Expected,
		Reason:      res.Reason,
		Payload:     res.Payload,
		BodySnippet: res.BodySnippet,
		ObservedAt:  time.Now().UTC(),
	}
}

// attributes are the message attributes attached by queue/topic publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"check_id":    e.CheckID,
		"method":      e.Method,
		"status_code": strconv.Itoa(e.StatusCode),
	}
}
