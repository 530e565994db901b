// Package pipeline runs each council's agenda through scrape, dedup,
// download, extraction, parsing, notification, persistence and cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/scrapers"
)

// Deps are the capabilities the orchestrator drives. Notifier may be nil.
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Parser    Parser
	Notifier  Notifier
	Records   RecordStore
	Ledger    Ledger
	Workspace Workspace
	Log       logger.Logger
}

// Options tune a run.
type Options struct {
	// Recipient receives the summary; empty disables notification.
	Recipient string
	// SaveFiles keeps working files after a successful run.
	SaveFiles bool
	// Fields are applied to every council; scraper patterns override by name.
	Fields []parser.Field
	Now    func() time.Time
}

// Orchestrator processes councils one at a time. A failure in one council
// never stops the others.
type Orchestrator struct {
	deps Deps
	opts Options
	log  logger.Logger
}

// New validates deps and returns an orchestrator.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	var missing []string
	if deps.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.Parser == nil {
		missing = append(missing, "parser")
	}
	if deps.Records == nil {
		missing = append(missing, "record store")
	}
	if deps.Ledger == nil {
		missing = append(missing, "ledger")
	}
	if deps.Workspace == nil {
		missing = append(missing, "workspace")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline is missing %v", missing)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Fields == nil {
		opts.Fields = parser.DefaultFields()
	}
	return &Orchestrator{deps: deps, opts: opts, log: logger.Ensure(deps.Log)}, nil
}

// Run processes the scrapers in order. A cancelled context stops the run
// between councils; the council in progress is finished first.
func (o *Orchestrator) Run(ctx context.Context, list []scrapers.Scraper) Report {
	report := Report{Started: o.opts.Now()}

	for i, s := range list {
		if err := ctx.Err(); err != nil {
			o.log.WarnObj("run cancelled", "pipeline_run", map[string]any{
				"remaining": len(list) - i,
				"error":     err.Error(),
			})
			break
		}
		if s == nil {
			continue
		}
		report.Results = append(report.Results, o.Process(ctx, s))
	}

	report.Finished = o.opts.Now()
	o.log.InfoObj("run completed", "pipeline_run", map[string]any{
		"councils":   len(report.Results),
		"done":       report.Count(OutcomeDone),
		"skipped":    report.Count(OutcomeSkipped),
		"duplicates": report.Count(OutcomeDuplicate),
		"failed":     report.Failed(),
		"duration":   report.Finished.Sub(report.Started).String(),
	})
	return report
}

// Process runs one council's pipeline to completion or abort. Panics inside
// any stage are contained and reported as a failure.
func (o *Orchestrator) Process(ctx context.Context, s scrapers.Scraper) (res Result) {
	started := o.opts.Now()
	res.Stage = StageStart

	defer func() {
		if p := recover(); p != nil {
			res.Outcome = OutcomeFailed
			res.Err = &StageError{Council: res.Council, Stage: res.Stage, Err: fmt.Errorf("panic: %v", p)}
		}
		res.Duration = o.opts.Now().Sub(started)
		o.logResult(res)
	}()

	council := s.Council()
	res.Council, res.Region = council.Name, council.Region

	rec, err := s.Scrape(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNothingFound) {
			return o.skip(res, err)
		}
		return o.fail(res, err)
	}
	if rec.Empty() {
		return o.skip(res, nil)
	}

	res.Stage = StageDedupe
	res.DedupKey = rec.DedupKey()
	seen, err := o.deps.Ledger.Contains(ctx, res.DedupKey)
	if err != nil {
		return o.fail(res, fmt.Errorf("ledger lookup: %w", err))
	}
	if seen {
		res.Outcome = OutcomeDuplicate
		return res
	}

	res.Stage = StageDownload
	data, err := o.deps.Fetcher.Fetch(ctx, res.DedupKey)
	if err != nil {
		return o.fail(res, err)
	}
	if _, err := o.deps.Workspace.WriteDocument(council.Name, data); err != nil {
		return o.fail(res, err)
	}

	res.Stage = StageExtract
	text, err := o.deps.Extractor.ExtractText(ctx, data)
	if err != nil {
		return o.fail(res, err)
	}
	if _, err := o.deps.Workspace.WriteText(council.Name, text); err != nil {
		return o.fail(res, err)
	}

	res.Stage = StageParse
	res.Fields = o.deps.Parser.Parse(text, o.fieldsFor(s))
	if !anyMatched(res.Fields) {
		o.log.WarnObj("no fields matched", "pipeline_stage", map[string]any{
			"council": council.Name,
			"fields":  len(res.Fields),
		})
	}

	agenda := o.buildRecord(council, rec, res.Fields)

	res.Stage = StageNotify
	res.NotifyErr = o.notify(ctx, agenda)

	res.Stage = StagePersist
	inserted, err := o.deps.Records.Insert(ctx, agenda)
	if err != nil {
		return o.fail(res, fmt.Errorf("persist record: %w", err))
	}
	if inserted {
		res.RecordID = agenda.ID
		res.Outcome = OutcomeDone
	} else {
		res.Outcome = OutcomeDuplicate
	}

	res.Stage = StageCleanup
	if !o.opts.SaveFiles {
		if err := o.deps.Workspace.Remove(council.Name); err != nil {
			res.CleanupErr = err
			o.log.WarnObj("cleanup failed", "pipeline_stage", map[string]any{
				"council": council.Name,
				"error":   err.Error(),
			})
		}
	}

	res.Stage = StageDone
	return res
}

func (o *Orchestrator) notify(ctx context.Context, rec domain.AgendaRecord) error {
	if o.opts.Recipient == "" || o.deps.Notifier == nil {
		return nil
	}
	body, err := Summary(rec)
	if err != nil {
		return err
	}
	if err := o.deps.Notifier.Notify(ctx, o.opts.Recipient, rec, Subject(rec), body); err != nil {
		o.log.ErrorObj("notification failed", "pipeline_stage", map[string]any{
			"council":   rec.Council,
			"recipient": o.opts.Recipient,
			"error":     err.Error(),
		})
		return err
	}
	return nil
}

func (o *Orchestrator) buildRecord(c domain.Council, rec *domain.ResultRecord, fields map[string]string) domain.AgendaRecord {
	date, clock := rec.Date, rec.Time
	if date == "" {
		date = fields["date"]
	}
	if clock == "" {
		clock = fields["time"]
	}
	return domain.AgendaRecord{
		ID:           uuid.NewString(),
		Council:      c.Name,
		Region:       c.Region,
		Date:         date,
		Time:         clock,
		WebpageURL:   rec.WebpageURL,
		DownloadURLs: append([]string(nil), rec.DownloadURLs...),
		Titles:       append([]string(nil), rec.Titles...),
		Fields:       fields,
		DedupKey:     rec.DedupKey(),
		CreatedAt:    o.opts.Now().UTC(),
	}
}

func (o *Orchestrator) fieldsFor(s scrapers.Scraper) []parser.Field {
	if fp, ok := s.(scrapers.FieldPatterner); ok {
		return parser.Merge(o.opts.Fields, fp.FieldPatterns())
	}
	return o.opts.Fields
}

func (o *Orchestrator) skip(res Result, err error) Result {
	res.Outcome = OutcomeSkipped
	res.Err = err
	return res
}

func (o *Orchestrator) fail(res Result, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = &StageError{Council: res.Council, Stage: res.Stage, Err: err}
	return res
}

func (o *Orchestrator) logResult(res Result) {
	entry := map[string]any{
		"council":  res.Council,
		"outcome":  string(res.Outcome),
		"stage":    string(res.Stage),
		"duration": res.Duration.String(),
	}
	if res.DedupKey != "" {
		entry["dedup_key"] = res.DedupKey
	}
	if res.RecordID != "" {
		entry["record_id"] = res.RecordID
	}
	if res.Err != nil {
		entry["error"] = res.Err.Error()
	}
	if res.NotifyErr != nil {
		entry["notify_error"] = res.NotifyErr.Error()
	}

	switch res.Outcome {
	case OutcomeFailed:
		o.log.ErrorObj("council pipeline aborted", "pipeline_result", entry)
	case OutcomeSkipped:
		o.log.WarnObj("no agenda found", "pipeline_result", entry)
	case OutcomeDuplicate:
		o.log.InfoObj("agenda already processed", "pipeline_result", entry)
	default:
		o.log.InfoObj("agenda processed", "pipeline_result", entry)
	}
}

func anyMatched(fields map[string]string) bool {
	for _, v := range fields {
		if v != "" {
			return true
		}
	}
	return false
}
