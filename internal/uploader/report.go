package uploader

import "fmt"

// ItemKind distinguishes pages from attachments in per-item results.
type ItemKind string

const (
	KindPage       ItemKind = "page"
	KindAttachment ItemKind = "attachment"
)

// Outcome is the terminal status of one synchronized item.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeUploaded Outcome = "uploaded"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// ItemResult records what happened to one page or attachment during a run.
type ItemResult struct {
	Kind    ItemKind
	LocalID string
	Title   string
	Outcome Outcome
	Err     error
}

// Report aggregates the results of one space run.
type Report struct {
	SpaceKey     string
	CollectionID string
	Items        []ItemResult

	// FatalErr is set when the space run aborted before completing all items
	// (structural defect, ambiguous collection, authentication failure).
	FatalErr error
}

// Add appends one item result.
func (r *Report) Add(res ItemResult) {
	r.Items = append(r.Items, res)
}

// Count returns how many items ended with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the items that ended in failure.
func (r *Report) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			out = append(out, it)
		}
	}
	return out
}

// OK reports whether the run completed with nothing failed. Skips are
// successes: a fully-synchronized space reruns clean.
func (r *Report) OK() bool {
	return r.FatalErr == nil && r.Count(OutcomeFailed) == 0
}

// Summary renders a one-line human summary of the run.
func (r *Report) Summary() string {
	if r.FatalErr != nil {
		return fmt.Sprintf("space %s: aborted: %v", r.SpaceKey, r.FatalErr)
	}
	return fmt.Sprintf("space %s: %d created, %d updated, %d uploaded, %d skipped, %d failed",
		r.SpaceKey,
		r.Count(OutcomeCreated),
		r.Count(OutcomeUpdated),
		r.Count(OutcomeUploaded),
		r.Count(OutcomeSkipped),
		r.Count(OutcomeFailed))
}
