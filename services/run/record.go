package run

import (
	"context"
	"net/url"
	"time"

	"guaymallen-backend/lib/paginate"
)

// Record is one extracted entity: a post, a comment thread, an
// article. Identity is the api id or the canonical url.
type Record struct {
	ID          string
	Fields      map[string]string
	Source      string
	ExtractedAt time.Time
}

// Seed is one fetchable location: an api path with its query or a
// plain listing url.
type Seed struct {
	Path   string
	Params url.Values
}

// SourceExtractor is the uniform contract every upstream origin
// implements. Selection happens through a name registry, never through
// type switches in the orchestrator.
type SourceExtractor interface {
	Name() string
	Seeds() []Seed
	// DetailRequest maps a candidate id from a listing page to the
	// request that fetches its detail payload.
	DetailRequest(id string) Seed
	// ExtractListingLinks pulls the candidate ids/urls out of one
	// listing page, in document order, already absolute.
	ExtractListingLinks(page paginate.Page, origin string) []string
	// ExtractRecordFields pulls the named fields out of one detail
	// page. Selector failures leave individual fields empty, they
	// never abort the record.
	ExtractRecordFields(page paginate.Page) map[string]string
}

// Enricher is an optional capability for extractors that attach
// dependent sub-resources (per-record metrics, comment counts) before
// the record is frozen into the result set.
type Enricher interface {
	Enrich(ctx context.Context, record *Record)
}
