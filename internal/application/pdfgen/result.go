package pdfgen

import (
	"fmt"
	"time"
)

// Request asks for the PDF of one invoice to be regenerated
type Request struct {
	InvoiceID string
	UserID    string
}

// Outcome classifies how a generation cycle ended
type Outcome string

const (
	OutcomeGenerated   Outcome = "generated"
	OutcomeMissingData Outcome = "missing_data"
	OutcomeFailed      Outcome = "failed"
	OutcomeTimedOut    Outcome = "timed_out"
	OutcomeCancelled   Outcome = "cancelled"
)

// Stage names the step of a cycle a failure happened in
type Stage string

const (
	StageFetchInvoice Stage = "fetch_invoice"
	StageFetchUser    Stage = "fetch_user"
	StageRender       Stage = "render"
	StageUpload       Stage = "upload"
	StagePersist      Stage = "persist"
)

// Result is the outcome of one generation cycle. Cycles never return errors
// to callers; the coordinator logs the Result instead.
type Result struct {
	Request
	Outcome  Outcome
	Stage    Stage
	Err      error
	URL      string
	Bytes    int
	Duration time.Duration

	// StaleDeleteErr is set when removing the previous PDF failed.
	// It never changes the outcome.
	StaleDeleteErr error
}

// Succeeded reports whether a new PDF was stored
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeGenerated
}

// Reason is a short human-readable description used in logs and tests
func (r Result) Reason() string {
	if r.Err == nil {
		return string(r.Outcome)
	}
	if r.Stage == "" {
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	}
	return fmt.Sprintf("%s at %s: %v", r.Outcome, r.Stage, r.Err)
}

func (r Result) missing(stage Stage, err error) Result {
	r.Outcome = OutcomeMissingData
	r.Stage = stage
	r.Err = err
	return r
}

func (r Result) fail(stage Stage, err error) Result {
	r.Outcome = OutcomeFailed
	r.Stage = stage
	r.Err = err
	return r
}
