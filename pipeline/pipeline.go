package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/adapter"
	"github.com/vitalsink/vitalsink/chunk"
	"github.com/vitalsink/vitalsink/config"
	"github.com/vitalsink/vitalsink/dedup"
	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/metrics"
	"github.com/vitalsink/vitalsink/store"
	"github.com/vitalsink/vitalsink/types"
	"github.com/vitalsink/vitalsink/validate"
)

// Pipeline wires the ingestion stages together. One Pipeline serves many
// concurrent Ingest calls; per-call state lives on the stack of each call.
type Pipeline struct {
	cfg       *config.Config
	validator *validate.Registry
	filter    *dedup.Filter
	store     store.MetricStore
	archive   store.Archive
	sink      metrics.Sink
	publisher adapter.Adapter
	logger    *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetricsSink mirrors counters to the given sink (Prometheus in
// production).
func WithMetricsSink(sink metrics.Sink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithPublisher publishes a completion event after each ingestion call.
func WithPublisher(pub adapter.Adapter) Option {
	return func(p *Pipeline) {
		if pub != nil {
			p.publisher = pub
		}
	}
}

// WithLogger sets the base logger; Ingest derives a per-call logger from it.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New assembles a pipeline over the given stores. cfg must already have
// defaults applied and be validated.
func New(cfg *config.Config, metricStore store.MetricStore, archive store.Archive, cache dedup.Cache, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		store:     metricStore,
		archive:   archive,
		sink:      metrics.NopSink{},
		publisher: adapter.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.validator = validate.NewRegistry(p.logger)
	p.filter = dedup.NewFilter(cache, p.logger)
	return p
}

// Ingest processes one payload end to end and returns the report.
//
// The raw payload is archived before any processing; if archiving fails the
// whole call fails, because an unarchived payload cannot be replayed. Every
// later failure degrades instead: the call still returns a report accounting
// for all rows.
func (p *Pipeline) Ingest(ctx context.Context, userID uuid.UUID, payload types.ParsedPayload) (*types.IngestionReport, error) {
	start := time.Now()
	ingestID := uuid.New()
	logger := p.logger
	if logger == nil {
		logger = log.NewLogger(ingestID, userID)
	}

	rec, err := p.archive.Create(ctx, userID, payload.Raw)
	if err != nil {
		return nil, fmt.Errorf("archive payload: %w", err)
	}
	if err := p.archive.Finalize(ctx, rec.ID, types.ArchiveProcessing, ""); err != nil {
		logger.Warn("archive status update failed", map[string]any{"error": err.Error()})
	}

	collector := metrics.NewCollector(ingestID.String(), userID.String(), p.sink)
	collector.AddRowsReceived(payload.TotalRows())
	logger.Info("ingestion started", map[string]any{
		"archive_id": rec.ID.String(),
		"groups":     len(payload.Groups),
		"rows":       payload.TotalRows(),
	})

	agg := newAggregator(ingestID, userID, payload.TotalRows(), p.cfg.Report.MaxErrors)

	// Stage 1-3: validate, dedup, plan. Per group, sequential; groups are
	// small compared to chunk execution.
	var chunks []chunk.Chunk
	for _, group := range payload.Groups {
		rows := p.validator.Apply(group)

		if !p.store.Supports(group.Kind) {
			for i := range rows {
				if rows[i].Outcome == types.RowAccepted {
					rows[i].Outcome = types.RowFailed
					rows[i].Reason = fmt.Sprintf("no storage for metric kind %q", group.Kind)
				}
			}
			agg.absorbRows(group.Kind, rows)
			collectRowOutcomes(collector, group.Kind, rows)
			continue
		}

		stats := p.filter.Apply(ctx, userID, rows)
		if stats.InPayload+stats.FromCache > 0 {
			logger.Debug("dedup filtered rows", map[string]any{
				"kind":       string(group.Kind),
				"in_payload": stats.InPayload,
				"from_cache": stats.FromCache,
			})
		}

		accepted := make([]types.ValidatedRow, 0, len(rows))
		for _, r := range rows {
			if r.Outcome == types.RowAccepted {
				accepted = append(accepted, r)
			}
		}
		agg.absorbRows(group.Kind, rows)
		collectRowOutcomes(collector, group.Kind, rows)

		lim := chunk.Limits{
			MaxParameters: p.cfg.Batch.MaxParameters,
			SafetyMargin:  p.cfg.Batch.MaxParameters * p.cfg.Batch.SafetyMarginPercent / 100,
			PreferredRows: p.cfg.Batch.PreferredChunkSizes[group.Kind],
			MemoryScale:   memoryScale(p.cfg.Batch.MemoryLimitMB),
		}
		chunks = append(chunks, chunk.Plan(group.Kind, accepted, lim)...)
	}

	// Stage 4: parallel execution with retry.
	runner := NewChunkRunner(p.store, RetryPolicy{
		MaxRetries:     p.cfg.Retry.MaxRetries,
		InitialBackoff: p.cfg.Retry.InitialBackoff.Duration,
		MaxBackoff:     p.cfg.Retry.MaxBackoff.Duration,
	}, collector, logger)
	exec := NewExecutor(runner, p.cfg.Batch.MaxParallelChunks, collector, logger)

	outcomes := exec.Execute(ctx, userID, chunks)

	// Stage 5: aggregate, mark the cache, finalize the archive record.
	markCtx := context.WithoutCancel(ctx)
	for i, out := range outcomes {
		agg.absorbChunk(out, len(chunks[i].Rows))
		collectOutcomeRows(collector, out, len(chunks[i].Rows))
		p.markPersisted(markCtx, userID, chunks[i], out)
	}

	report := agg.finish(time.Since(start))
	status := report.Status()
	if err := p.archive.Finalize(markCtx, rec.ID, status, summarize(report)); err != nil {
		logger.Error("archive finalize failed", map[string]any{
			"archive_id": rec.ID.String(),
			"error":      err.Error(),
		})
	}

	p.publish(markCtx, logger, report)
	logger.Info("ingestion finished", map[string]any{
		"status":     string(status),
		"accepted":   report.Accepted,
		"rejected":   report.Rejected,
		"duplicated": report.Duplicated,
		"failed":     report.Failed,
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})
	return report, nil
}

// markPersisted records a finished chunk's surviving rows in the dedup
// cache. Rows that failed row fallback stay unmarked so a replay can try
// them again.
func (p *Pipeline) markPersisted(ctx context.Context, userID uuid.UUID, c chunk.Chunk, out types.ChunkOutcome) {
	switch out.State {
	case types.ChunkCommitted:
		p.filter.MarkPersisted(ctx, userID, c.Rows)
	case types.ChunkRowFallback:
		failed := make(map[int]struct{}, len(out.RowErrors))
		for _, e := range out.RowErrors {
			failed[e.Index] = struct{}{}
		}
		survived := make([]types.ValidatedRow, 0, len(c.Rows))
		for _, r := range c.Rows {
			if _, bad := failed[r.Row.Index]; !bad {
				survived = append(survived, r)
			}
		}
		p.filter.MarkPersisted(ctx, userID, survived)
	}
}

// collectRowOutcomes tallies rows that ended before reaching the store.
func collectRowOutcomes(collector *metrics.Collector, kind types.Kind, rows []types.ValidatedRow) {
	var rejected, duplicated, failed int
	for _, r := range rows {
		switch r.Outcome {
		case types.RowRejected:
			rejected++
		case types.RowDuplicate:
			duplicated++
		case types.RowFailed:
			failed++
		}
	}
	collector.AddRowsRejected(rejected)
	collector.AddRowsDuplicated(string(kind), duplicated)
	collector.AddRowsFailed(failed)
}

func collectOutcomeRows(collector *metrics.Collector, out types.ChunkOutcome, chunkRows int) {
	collector.AddRowsAccepted(out.Committed)
	collector.AddRowsDuplicated(string(out.Kind), out.Duplicates)
	if out.State == types.ChunkNotAttempted {
		collector.AddRowsFailed(chunkRows)
		return
	}
	collector.AddRowsFailed(len(out.RowErrors))
}

func (p *Pipeline) publish(ctx context.Context, logger *log.Logger, report *types.IngestionReport) {
	event := adapter.FromReport(report, time.Now().UTC().Format(time.RFC3339))
	if err := p.publisher.Publish(ctx, event); err != nil {
		logger.Warn("completion event publish failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// memoryScale maps the configured memory budget to a chunk scale factor.
// Full-size chunks need roughly the default budget; below it, chunks shrink
// proportionally with a floor of 10%.
func memoryScale(limitMB int) float64 {
	if limitMB <= 0 || limitMB >= config.DefaultMemoryLimitMB {
		return 1
	}
	scale := float64(limitMB) / float64(config.DefaultMemoryLimitMB)
	if scale < 0.1 {
		return 0.1
	}
	return scale
}

// summarize renders the compact error summary stored on the archive record.
func summarize(report *types.IngestionReport) string {
	if report.Failed == 0 && report.ChunksNotAttempted == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "failed=%d rejected=%d duplicated=%d", report.Failed, report.Rejected, report.Duplicated)
	if report.ChunksNotAttempted > 0 {
		fmt.Fprintf(&b, " chunks_not_attempted=%d", report.ChunksNotAttempted)
	}
	for i, e := range report.Errors {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(report.Errors)-3)
			break
		}
		fmt.Fprintf(&b, "; [%s#%d] %s", e.Kind, e.Index, e.Message)
	}
	return b.String()
}
