// Package run drives the extractors across every configured source,
// one fetch in flight at a time, and owns the accumulated state of a
// single extraction run.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/paginate"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/run")

type State int

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Source pairs an extractor with the http client its origin needs
// (api profile vs browser profile).
type Source struct {
	Extractor SourceExtractor
	Client    *fetch.Client
}

type Options struct {
	// politeness pause between consecutive fetches against one origin
	RequestDelay time.Duration
	// pause between sources
	SourceDelay time.Duration
	// page cap handed to the paginator
	MaxPages int
}

// Run owns all mutable state of one extraction: the ordered result
// set, the dedup index and the audit recorder. It is discarded or
// persisted at the end, nothing lives at package level.
type Run struct {
	ID       string
	recorder *auditlog.Recorder
	opts     Options
	state    State

	records []Record
	index   map[string]int

	// per-source count of ids dropped because an earlier source
	// already produced them
	Duplicates map[string]int
	// detail fetches that failed and yielded no record
	Gaps int
	// ids skipped because the record store already had them
	AlreadyStored int

	// optional precheck against previously persisted records
	Known func(ctx context.Context, id string) bool
}

func New(recorder *auditlog.Recorder, opts Options) *Run {
	id, err := random.String(12)
	if err != nil {
		// crypto/rand failing is not survivable anyway
		panic(err)
	}
	return &Run{
		ID:         id,
		recorder:   recorder,
		opts:       opts,
		state:      StateIdle,
		index:      map[string]int{},
		Duplicates: map[string]int{},
	}
}

func (r *Run) State() State {
	return r.state
}

// Records returns the result set in discovery order: source order,
// then page order, then document order.
func (r *Run) Records() []Record {
	return r.records
}

func (r *Run) Recorder() *auditlog.Recorder {
	return r.recorder
}

// Execute walks every source in declaration order. Nothing inside a
// running extraction is fatal: failed listings skip the seed, failed
// details skip the record. The only error returned is the
// before-first-fetch configuration check.
func (r *Run) Execute(ctx context.Context, sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	for _, src := range sources {
		if src.Extractor == nil || src.Client == nil {
			return fmt.Errorf("source misconfigured: extractor and client are both required")
		}
	}

	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", r.ID))

	r.state = StateRunning
	for i, src := range sources {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "run cancelled, draining", "run_id", r.ID)
			break
		}

		r.extractSource(ctx, src)

		if i < len(sources)-1 {
			r.pause(ctx, r.opts.SourceDelay)
		}
	}

	r.state = StateDraining
	slog.InfoContext(ctx, "run drained",
		"run_id", r.ID,
		"records", len(r.records),
		"gaps", r.Gaps,
	)
	r.state = StateDone
	return nil
}

func (r *Run) extractSource(ctx context.Context, src Source) {
	name := src.Extractor.Name()
	ctx, span := tracer.Start(ctx, "extractSource")
	defer span.End()
	span.SetAttributes(attribute.String("source", name))

	slog.InfoContext(ctx, "extracting source", "source", name)

	duplicates := 0
	for _, seed := range src.Extractor.Seeds() {
		if ctx.Err() != nil {
			return
		}

		pages := paginate.Follow(ctx, src.Client, r.recorder, seed.Path, seed.Params, paginate.Options{
			MaxPages: r.opts.MaxPages,
		})

		for _, page := range pages {
			if failure := page.Response.Failure(); failure != nil {
				slog.WarnContext(ctx, "listing page failed, skipping",
					"source", name, "seed", seed.Path, "kind", failure.Kind)
				continue
			}

			for _, id := range src.Extractor.ExtractListingLinks(page, seed.Path) {
				if ctx.Err() != nil {
					return
				}
				if _, seen := r.index[id]; seen {
					duplicates++
					slog.DebugContext(ctx, "duplicate identifier dropped", "source", name, "id", id)
					continue
				}
				if r.Known != nil && r.Known(ctx, id) {
					r.AlreadyStored++
					continue
				}

				r.pause(ctx, r.opts.RequestDelay)
				r.extractDetail(ctx, src, id)
			}
		}
	}

	r.Duplicates[name] = duplicates
	if duplicates > 0 {
		slog.InfoContext(ctx, "dropped duplicates", "source", name, "count", duplicates)
	}
}

func (r *Run) extractDetail(ctx context.Context, src Source, id string) {
	req := src.Extractor.DetailRequest(id)
	res := src.Client.Get(ctx, req.Path, req.Params, nil)
	r.recorder.Record(req.Path, req.Params, res, 0)

	if failure := res.Failure(); failure != nil {
		r.Gaps++
		slog.WarnContext(ctx, "detail fetch failed, skipping record",
			"source", src.Extractor.Name(), "id", id, "kind", failure.Kind)
		return
	}

	record := Record{
		ID:          id,
		Fields:      src.Extractor.ExtractRecordFields(paginate.Page{Response: res}),
		Source:      src.Extractor.Name(),
		ExtractedAt: time.Now().UTC(),
	}
	if enricher, ok := src.Extractor.(Enricher); ok {
		enricher.Enrich(ctx, &record)
	}

	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
}

// pause sleeps for the politeness delay unless cancelled. Not a
// correctness mechanism, just rate courtesy to the origin.
func (r *Run) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
