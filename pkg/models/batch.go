package models

import "fmt"

// Stage is the step of an item's pipeline that failed
type Stage string

const (
	StageNone   Stage = ""
	StageSign   Stage = "sign"
	StageSubmit Stage = "submit"
)

// Outcome classifies a finished batch
type Outcome int

const (
	// OutcomeEmpty is an empty batch, treated as success
	OutcomeEmpty Outcome = iota
	OutcomeSuccess
	OutcomePartial
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ItemResult records what happened to one intent of a batch
type ItemResult struct {
	Index     int
	Intent    Intent
	Signature []byte
	Stage     Stage
	Err       error
}

// OK reports whether the item was accepted by the relayer
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// BatchResult is the aggregate of a batch submission
type BatchResult struct {
	Attempted int
	Succeeded int
	Items     []ItemResult
}

// Outcome returns the batch classification
func (r BatchResult) Outcome() Outcome {
	switch {
	case r.Attempted == 0:
		return OutcomeEmpty
	case r.Succeeded == r.Attempted:
		return OutcomeSuccess
	case r.Succeeded == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Success is true when every intent was accepted, including the empty batch
func (r BatchResult) Success() bool {
	o := r.Outcome()
	return o == OutcomeSuccess || o == OutcomeEmpty
}

// Failed returns the items that were not accepted, in schedule order
func (r BatchResult) Failed() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if !item.OK() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Summary renders the user-facing "X of Y" line
func (r BatchResult) Summary() string {
	return fmt.Sprintf("%d of %d intents submitted", r.Succeeded, r.Attempted)
}
