package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Stage names a step of a council's pipeline.
type Stage string

const (
	StageStart    Stage = "start"
	StageDedupe   Stage = "dedupe_check"
	StageDownload Stage = "download"
	StageExtract  Stage = "extract_text"
	StageParse    Stage = "parse_fields"
	StageNotify   Stage = "notify"
	StagePersist  Stage = "persist"
	StageCleanup  Stage = "cleanup"
	StageDone     Stage = "done"
)

// Outcome is how a council's pipeline ended.
type Outcome string

const (
	// OutcomeDone means a new record was persisted.
	OutcomeDone Outcome = "done"
	// OutcomeSkipped means the scraper found nothing to download.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDuplicate means the document was processed on an earlier run.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeFailed means the pipeline aborted on a fault.
	OutcomeFailed Outcome = "failed"
)

// StageError attributes a failure to a council and stage.
type StageError struct {
	Council string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("council %s: %s: %v", e.Council, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result describes one council's pipeline run.
type Result struct {
	Council  string
	Region   string
	Outcome  Outcome
	Stage    Stage
	Err      error
	DedupKey string
	RecordID string
	Fields   map[string]string
	// NotifyErr is set when the notification failed; the record is still persisted.
	NotifyErr error
	// CleanupErr is set when working files could not be removed.
	CleanupErr error
	Duration   time.Duration
}

// Report aggregates a run over several councils.
type Report struct {
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Count returns how many councils ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the number of councils whose pipeline aborted on a fault.
func (r Report) Failed() int { return r.Count(OutcomeFailed) }

// Err joins the errors of every failed council, or nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed && res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}
