// Package paginate follows the `{"data": [...], "paging": {"next": url}}`
// convention the Graph API uses. Responses without a continuation
// pointer (html listings included) yield exactly one page.
package paginate

import (
	"context"
	"log/slog"
	"net/url"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("lib/paginate")

// upstream chains are expected to terminate on their own, the cap only
// guards against a misbehaving origin returning a repeating pointer
const DefaultMaxPages = 25

type Page struct {
	Index    int
	Response fetch.Response
	// the continuation url, "" on the last page
	Next string
}

type Options struct {
	MaxPages int
}

// Follow fetches page 0 from path+params and keeps following the
// `paging.next` pointer until it is absent, a fetch fails, ctx is
// cancelled, or the page cap is hit. Continuation urls come fully
// qualified and pre-authenticated, so they are fetched with no extra
// parameters. Every attempt is recorded, success or not; exceeding the
// cap additionally records a pagination-loop entry.
func Follow(ctx context.Context, client *fetch.Client, rec *auditlog.Recorder, path string, params url.Values, opts Options) []Page {
	ctx, span := tracer.Start(ctx, "Follow")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var pages []Page
	endpoint := path
	for index := 0; ; index++ {
		if index >= maxPages {
			slog.WarnContext(ctx, "pagination cap exceeded, stopping chain",
				"path", path, "pages", index)
			rec.RecordLoop(endpoint, index)
			break
		}

		var res fetch.Response
		if index == 0 {
			res = client.Get(ctx, endpoint, params, nil)
			rec.Record(endpoint, params, res, index)
		} else {
			res = client.Get(ctx, endpoint, nil, nil)
			rec.Record(endpoint, nil, res, index)
		}

		next := ""
		if res.Failure() == nil {
			next = nextPointer(res)
		}
		pages = append(pages, Page{Index: index, Response: res, Next: next})

		if res.Failure() != nil {
			slog.WarnContext(ctx, "fetch failed, stopping pagination",
				"endpoint", endpoint, "kind", res.Failure().Kind)
			break
		}
		if next == "" {
			break
		}
		endpoint = next
	}

	span.SetAttributes(attribute.Int("pages", len(pages)))
	return pages
}

func nextPointer(res fetch.Response) string {
	if res.JSON == nil {
		return ""
	}
	paging, ok := res.JSON["paging"].(map[string]any)
	if !ok {
		return ""
	}
	next, _ := paging["next"].(string)
	return next
}

// Data returns the `data` array of a page payload, nil when absent.
func Data(res fetch.Response) []any {
	if res.JSON == nil {
		return nil
	}
	data, _ := res.JSON["data"].([]any)
	return data
}
