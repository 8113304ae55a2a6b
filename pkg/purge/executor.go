package purge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

// Options configures an Executor.
type Options struct {
	// Out receives the per-unit report lines. Default: os.Stdout
	Out io.Writer

	// Logger is the structured logger. Default: slog.Default()
	Logger *slog.Logger

	// Metrics, if set, records every run.
	Metrics *Metrics

	// Tracer creates spans for runs and units. Default: the global
	// OpenTelemetry tracer provider.
	Tracer trace.Tracer

	// Now returns the reference time of a run. Default: time.Now
	Now func() time.Time
}

// Executor evaluates purge units against a store and, when committing,
// deletes their eligible records.
type Executor struct {
	store   store.Store
	catalog *catalog.Catalog
	out     io.Writer
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewExecutor creates an executor over st, resolving models in cat.
func NewExecutor(st store.Store, cat *catalog.Catalog, opts Options) *Executor {
	e := &Executor{
		store:   st,
		catalog: cat,
		out:     opts.Out,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		now:     opts.Now,
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "purge.executor")
	if e.tracer == nil {
		e.tracer = otel.Tracer("coursys/purge")
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Run processes units in order. With commit false nothing is deleted, but
// eligibility is computed and reported exactly as in a committing run.
//
// A failing unit is reported and skipped; it never stops the run. Run only
// returns an error if ctx is done, together with the results so far.
func (e *Executor) Run(ctx context.Context, units []Unit, commit bool) (*Report, error) {
	now := e.now()
	report := &Report{
		RunID:     uuid.NewString(),
		DryRun:    !commit,
		StartedAt: now,
	}

	ctx, span := e.tracer.Start(ctx, "purge.run", trace.WithAttributes(
		attribute.String("purge.run_id", report.RunID),
		attribute.Bool("purge.dry_run", !commit),
		attribute.Int("purge.units", len(units)),
	))
	defer span.End()

	logger := e.logger.With("run_id", report.RunID, "dry_run", !commit)
	logger.Info("purge run started", "units", len(units))

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = e.now()
			span.SetStatus(codes.Error, "canceled")
			logger.Warn("purge run interrupted", "error", err, "processed", len(report.Units))
			return report, err
		}

		res := e.runUnit(ctx, logger, u, now, commit)
		report.Units = append(report.Units, res)

		if e.metrics != nil {
			e.metrics.ObserveUnit(res)
		}
	}

	report.FinishedAt = e.now()
	if e.metrics != nil {
		e.metrics.ObserveRun(report)
	}

	failed := len(report.Failed())
	span.SetAttributes(
		attribute.Int64("purge.eligible", report.TotalEligible()),
		attribute.Int64("purge.deleted", report.TotalDeleted()),
		attribute.Int("purge.failed", failed),
	)

	logger.Info("purge run completed",
		"units", len(report.Units),
		"eligible", report.TotalEligible(),
		"deleted", report.TotalDeleted(),
		"failed", failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, nil
}

// runUnit evaluates and applies one unit. Panics raised by purger code are
// converted into a failed result.
func (e *Executor) runUnit(ctx context.Context, logger *slog.Logger, u Unit, now time.Time, commit bool) (res UnitResult) {
	start := time.Now()
	res = UnitResult{
		Model:  u.Model,
		Source: u.Source,
		State:  StateDiscovered,
	}

	ctx, span := e.tracer.Start(ctx, "purge.unit", trace.WithAttributes(
		attribute.String("purge.model", u.Model),
		attribute.String("purge.source", string(u.Source)),
	))

	defer func() {
		if r := recover(); r != nil {
			res.fail(&UnitError{Model: u.Model, Phase: PhasePanic, Cause: fmt.Errorf("%v", r)})
		}
		res.Duration = time.Since(start)

		if res.State == StateFailed {
			fmt.Fprintf(e.out, "Skipping %s: %v\n", u.Model, res.Err)
			logger.Error("purge unit failed", "model", u.Model, "source", u.Source, "error", res.Err)
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Error)
		}
		span.SetAttributes(
			attribute.String("purge.mode", res.Mode.String()),
			attribute.Int64("purge.eligible", res.Eligible),
			attribute.Int64("purge.deleted", res.Deleted),
		)
		span.End()
	}()

	if u.Err != nil {
		res.fail(u.Err)
		return res
	}
	if u.Purger == nil {
		res.fail(NewConfigError(u.Model, "unit has no purger", ErrNoRetrieval))
		return res
	}

	model, ok := e.catalog.Lookup(u.Model)
	if !ok {
		res.fail(NewConfigError(u.Model, "model is not in the catalog", nil))
		return res
	}

	env := &Env{Model: model, Catalog: e.catalog, Now: now}
	retrieval, err := u.Purger.Retrieval(env)
	if err != nil {
		res.fail(NewConfigError(u.Model, "cannot build retrieval", err))
		return res
	}
	res.Mode = retrieval.Mode()

	switch retrieval.Mode() {
	case ModeBulk:
		cond, _ := retrieval.Condition()
		e.runBulk(ctx, model, cond, commit, &res)
	case ModeEnumeration:
		enumerate, _ := retrieval.Enumerator()
		e.runEnumeration(ctx, model, enumerate, commit, &res)
	default:
		res.fail(NewConfigError(u.Model, "invalid purger", ErrNoRetrieval))
		return res
	}

	if res.State != StateFailed {
		logger.Info("purge unit processed",
			"model", u.Model,
			"source", u.Source,
			"mode", res.Mode,
			"eligible", res.Eligible,
			"deleted", res.Deleted,
		)
	}
	return res
}

func (e *Executor) runBulk(ctx context.Context, model *catalog.Model, cond store.Condition, commit bool, res *UnitResult) {
	count, err := e.store.Count(ctx, model, cond)
	if err != nil {
		res.fail(&UnitError{Model: model.Name, Phase: PhaseCount, Cause: err})
		return
	}
	res.Eligible = count
	res.State = StateEvaluated

	e.printPurging(count, model.Name)
	res.State = StateReported

	if !commit {
		return
	}

	deleted, err := e.store.Delete(ctx, model, cond)
	if err != nil {
		res.fail(&UnitError{Model: model.Name, Phase: PhaseDelete, Cause: err})
		return
	}
	res.Deleted = deleted
	res.State = StateDeleted
}

func (e *Executor) runEnumeration(ctx context.Context, model *catalog.Model, enumerate Enumerator, commit bool, res *UnitResult) {
	var items []store.Record
	for rec, err := range enumerate(ctx, e.store) {
		if err != nil {
			res.fail(&UnitError{Model: model.Name, Phase: PhaseEnumerate, Cause: err})
			return
		}
		items = append(items, rec)
	}
	res.Eligible = int64(len(items))
	res.State = StateEvaluated

	e.printPurging(res.Eligible, model.Name)
	res.State = StateReported

	if !commit {
		return
	}

	for _, rec := range items {
		if err := e.store.DeleteRecord(ctx, model, rec.ID); err != nil {
			res.fail(&UnitError{Model: model.Name, Phase: PhaseDelete, Cause: err})
			return
		}
		res.Deleted++
	}
	res.State = StateDeleted
}

func (e *Executor) printPurging(count int64, model string) {
	fmt.Fprintf(e.out, "Purging %d instances of %s\n", count, model)
}
