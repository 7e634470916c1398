package audit

import (
	"time"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

// EventID tipe untuk Event
type EventID string

// Outcome enum
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeInvalidInput    Outcome = Outcome(analysis.KindInvalidInput)
	OutcomeInvocationError Outcome = Outcome(analysis.KindInvocation)
	OutcomeInvalidOutput   Outcome = Outcome(analysis.KindInvalidOutput)
)

// Event is a metadata-only record of one pipeline call. It never holds image bytes or labels.
type Event struct {
	ID         EventID              `json:"id"`
	MIMEType   string               `json:"mime_type,omitempty"`
	ImageBytes int                  `json:"image_bytes"`
	Outcome    Outcome              `json:"outcome"`
	Message    string               `json:"message,omitempty"`
	Counts     analysis.LabelCounts `json:"counts"`
	Model      string               `json:"model,omitempty"`
	DurationMS int64                `json:"duration_ms"`
	CreatedAt  time.Time            `json:"created_at"`
}

// OutcomeOf maps a pipeline error (or nil) to an outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if k := analysis.KindOf(err); k != "" {
		return Outcome(k)
	}
	return OutcomeInvocationError
}
