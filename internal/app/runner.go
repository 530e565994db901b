package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/config"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/document"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/metrics"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/pipeline"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/storage"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/workspace"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/browser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/notifiers"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/scrapers"
)

// Runner wires the scrapers, storage, notifiers and pipeline for the CLI. It
// runs once, or on a fixed interval until the context is cancelled.
type Runner struct {
	cfg        *config.Config
	log        logger.Logger
	registry   *scrapers.Registry
	store      storage.Store
	dispatcher *notifiers.Dispatcher
	pipeline   *pipeline.Orchestrator
	metrics    *metrics.Recorder
	interval   time.Duration
}

// Option overrides a collaborator, mostly for tests.
type Option func(*runnerDeps)

type runnerDeps struct {
	client   httpclient.Client
	renderer browser.Renderer
	sinks    []notifiers.Sink
	now      func() time.Time
}

// WithHTTPClient replaces the resty client used by scrapers and the fetcher.
func WithHTTPClient(c httpclient.Client) Option {
	return func(d *runnerDeps) { d.client = c }
}

// WithRenderer replaces the Chrome renderer.
func WithRenderer(r browser.Renderer) Option {
	return func(d *runnerDeps) { d.renderer = r }
}

// WithSinks uses sinks instead of those declared in the notifiers file.
func WithSinks(sinks ...notifiers.Sink) Option {
	return func(d *runnerDeps) { d.sinks = sinks }
}

// WithClock sets the time source for records and reports.
func WithClock(now func() time.Time) Option {
	return func(d *runnerDeps) { d.now = now }
}

// NewRunner builds a runner from config. The store is opened here and
// released by Close.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	deps := runnerDeps{now: time.Now}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.client == nil {
		deps.client = httpclient.NewRestyClient(cfg.FetchTimeout, cfg.UserAgent)
	}
	if deps.renderer == nil {
		deps.renderer = browser.NewChrome(browser.Options{
			Headless:  cfg.BrowserHeadless,
			Timeout:   cfg.BrowserTimeout,
			UserAgent: cfg.UserAgent,
		})
	}

	entries, err := scrapers.LoadManifest(cfg.CouncilsFile)
	if err != nil {
		return nil, fmt.Errorf("load councils manifest: %w", err)
	}
	registry := scrapers.NewRegistry(log)
	if err := scrapers.RegisterAll(registry, scrapers.DefaultBuilders(), entries, scrapers.Deps{
		Client:  deps.client,
		Browser: deps.renderer,
		Log:     log,
		Now:     deps.now,
	}); err != nil {
		return nil, fmt.Errorf("register scrapers: %w", err)
	}
	log.InfoObj("councils registry loaded", "councils_meta", map[string]any{
		"count": len(registry.Names()),
		"names": registry.Names(),
	})

	ws, err := workspace.New(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	dispatcher, err := buildDispatcher(ctx, cfg, deps.sinks, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath, storage.Options{})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), dispatcher.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.StoragePath,
	})

	pdeps := pipeline.Deps{
		Fetcher:   document.NewHTTPFetcher(deps.client, cfg.MaxDocumentBytes),
		Extractor: document.NewTextExtractor(),
		Parser:    parser.Regex{},
		Records:   store,
		Ledger:    store,
		Workspace: ws,
		Log:       log,
	}
	// A nil *Dispatcher must not become a non-nil Notifier.
	if dispatcher != nil {
		pdeps.Notifier = dispatcher
	}
	orch, err := pipeline.New(pdeps, pipeline.Options{
		Recipient: cfg.NotifyRecipient,
		SaveFiles: cfg.SaveFiles,
		Now:       deps.now,
	})
	if err != nil {
		return nil, errors.Join(err, store.Close(), dispatcher.Close())
	}

	return &Runner{
		cfg:        cfg,
		log:        log,
		registry:   registry,
		store:      store,
		dispatcher: dispatcher,
		pipeline:   orch,
		metrics:    metrics.New(),
		interval:   cfg.RunInterval,
	}, nil
}

// buildDispatcher returns nil when notification is disabled.
func buildDispatcher(ctx context.Context, cfg *config.Config, sinks []notifiers.Sink, log logger.Logger) (*notifiers.Dispatcher, error) {
	if !cfg.NotifyEnabled() {
		log.InfoObj("notifications disabled", "notify_config", "no recipient configured")
		return nil, nil
	}

	if len(sinks) == 0 {
		reg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
		if err != nil {
			return nil, fmt.Errorf("load notifiers registry: %w", err)
		}
		enabled := reg.Enabled()
		if len(enabled) == 0 {
			return nil, fmt.Errorf("notify_recipient is set but no notifiers are enabled in %s", cfg.NotifiersFile)
		}
		sinks, err = notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabled, log)
		if err != nil {
			return nil, fmt.Errorf("build notifiers: %w", err)
		}
	}

	summaries := make([]map[string]string, 0, len(sinks))
	for _, s := range sinks {
		summaries = append(summaries, map[string]string{"id": s.ID(), "type": s.Type()})
	}
	log.InfoObj("notifiers loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})
	return notifiers.NewDispatcher(notifiers.NewFanout(sinks), log), nil
}

// Councils returns the registered council names.
func (r *Runner) Councils() []string { return r.registry.Names() }

// Run executes the pipeline for the allowed councils (all when allow is
// empty). Without an interval it runs once and returns the run's failure.
// With one it keeps running until ctx is cancelled; failed runs are logged.
func (r *Runner) Run(ctx context.Context, allow []string) error {
	if r == nil || r.pipeline == nil {
		return fmt.Errorf("runner is not initialized")
	}

	err := r.RunOnce(ctx, allow)
	if r.interval <= 0 {
		return err
	}
	if err != nil {
		r.log.ErrorObj("run failed", "error", err)
	}

	r.log.InfoObj("scheduler started", "scheduler_state", map[string]any{
		"interval": r.interval.String(),
	})
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("scheduler exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.RunOnce(ctx, allow); err != nil {
				r.log.ErrorObj("scheduled run failed", "error", err)
			}
		}
	}
}

// RunOnce processes the selected councils a single time.
func (r *Runner) RunOnce(ctx context.Context, allow []string) error {
	// Unknown names are logged by the registry and never abort the run.
	selected, _ := r.registry.List(allow)
	if len(selected) == 0 {
		r.log.WarnObj("no councils to run", "councils_file", r.cfg.CouncilsFile)
		return nil
	}

	report := r.pipeline.Run(ctx, selected)
	r.metrics.Record(report)
	if err := r.metrics.WriteTextfile(r.cfg.MetricsTextfile); err != nil {
		r.log.WarnObj("metrics not written", "metrics_error", err.Error())
	}

	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d councils failed: %w", n, len(report.Results), report.Err())
	}
	return ctx.Err()
}

// Show loads the record stored for a council and download URL.
func (r *Runner) Show(ctx context.Context, council, downloadURL string) (domain.AgendaRecord, bool, error) {
	return r.store.Get(ctx, council, downloadURL)
}

// History lists the council's stored records, oldest first.
func (r *Runner) History(ctx context.Context, council string) ([]domain.AgendaRecord, error) {
	return r.store.List(ctx, council)
}

// Close releases the store and notifier connections.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := r.dispatcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifiers: %w", err))
	}
	return errors.Join(errs...)
}
