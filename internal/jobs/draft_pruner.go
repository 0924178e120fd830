package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const draftPrunerJob = "draft_pruner"

// DraftRemover deletes unnamed drafts created before a cutoff
type DraftRemover interface {
	PruneDrafts(ctx context.Context, before time.Time) (int, error)
}

// RunRecorder counts job runs by outcome
type RunRecorder interface {
	JobRun(job, status string)
}

// DraftPruner removes stale drafts on a cron schedule
type DraftPruner struct {
	recipes  DraftRemover
	schedule string
	maxAge   time.Duration
	metrics  RunRecorder
	logger   *slog.Logger
	now      func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// DraftPrunerConfig holds dependencies for the draft pruner
type DraftPrunerConfig struct {
	Recipes DraftRemover
	// Schedule is a standard five-field cron expression; empty disables the job
	Schedule string
	MaxAge   time.Duration
	Metrics  RunRecorder
	Logger   *slog.Logger
}

// NewDraftPruner creates a new draft pruner job
func NewDraftPruner(cfg DraftPrunerConfig) *DraftPruner {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DraftPruner{
		recipes:  cfg.Recipes,
		schedule: cfg.Schedule,
		maxAge:   cfg.MaxAge,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With(slog.String("job", draftPrunerJob)),
		now:      time.Now,
		cron:     cron.New(),
	}
}

// Start schedules the job. It stops on its own when ctx is cancelled.
func (p *DraftPruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.schedule == "" {
		p.logger.Info("draft prune schedule not configured, skipping")
		return nil
	}

	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}
	p.cron.Start()
	p.running = true

	p.logger.Info("draft pruner started",
		slog.String("schedule", p.schedule),
		slog.Duration("max_age", p.maxAge),
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish
func (p *DraftPruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("draft pruner stopped")
}

// IsRunning reports whether the job is scheduled
func (p *DraftPruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled run, or nil when not scheduled
func (p *DraftPruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if !p.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// RunOnce prunes drafts older than the configured age
func (p *DraftPruner) RunOnce(ctx context.Context) (int, error) {
	cutoff := p.now().Add(-p.maxAge)
	start := time.Now()

	pruned, err := p.recipes.PruneDrafts(ctx, cutoff)
	if err != nil {
		p.record("error")
		p.logger.Error("draft pruning failed",
			slog.String("error", err.Error()),
			slog.Int("pruned", pruned),
		)
		return pruned, err
	}

	p.record("success")
	if pruned > 0 {
		p.logger.Info("draft pruning completed",
			slog.Int("pruned", pruned),
			slog.Duration("duration", time.Since(start)),
		)
	} else {
		p.logger.Debug("draft pruning completed, nothing to remove")
	}
	return pruned, nil
}

func (p *DraftPruner) record(status string) {
	if p.metrics != nil {
		p.metrics.JobRun(draftPrunerJob, status)
	}
}
