package review

import (
	"fmt"
	"time"

	"github.com/linemerge/propref/internal/domain/entity"
)

// Outcome classifies why a mention landed in the review queue.
type Outcome string

const (
	// OutcomePending marks a mention waiting on operator curation after a
	// mutation-disallowed source failed fuzzy matching.
	OutcomePending Outcome = "pending"
	// OutcomeProblem marks a mention that could not be persisted even
	// though its source was allowed to mutate the store.
	OutcomeProblem Outcome = "problem"
)

// Entry records one unresolved mention for manual review. Entries are
// append-only and never read by the resolution hot path.
type Entry struct {
	Source       string      `json:"source"`
	Kind         entity.Kind `json:"kind"`
	Partition    string      `json:"partition,omitempty"`
	Mention      string      `json:"mention"`
	Outcome      Outcome     `json:"outcome"`
	BestDistance float64     `json:"best_distance,omitempty"`
	HasCandidate bool        `json:"has_candidate"`
	SeenAt       time.Time   `json:"seen_at"`
}

func (e Entry) Validate() error {
	if e.Source == "" {
		return fmt.Errorf("review entry source is required")
	}
	if e.Mention == "" {
		return fmt.Errorf("review entry mention is required")
	}
	if e.Outcome != OutcomePending && e.Outcome != OutcomeProblem {
		return fmt.Errorf("invalid review outcome: %s", e.Outcome)
	}
	return nil
}
