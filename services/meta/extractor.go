package meta

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"guaymallen-backend/lib/paginate"
	"guaymallen-backend/services/run"
)

// Source adapts the Graph client to the extraction contract: listing
// pages are the paginated /media feed, candidate ids are media ids, and
// detail pages are the per-post field payloads. It also enriches each
// record with its insight metrics.
type Source struct {
	client *Client
}

func NewSource(client *Client) *Source {
	return &Source{client: client}
}

func (s *Source) Name() string {
	return "Instagram"
}

func (s *Source) Client() *Client {
	return s.client
}

func (s *Source) Seeds() []run.Seed {
	return []run.Seed{{
		Path:   s.client.accountID + "/media",
		Params: s.client.withToken(url.Values{"fields": {mediaFields}}),
	}}
}

func (s *Source) DetailRequest(id string) run.Seed {
	return run.Seed{
		Path:   id,
		Params: s.client.withToken(url.Values{"fields": {mediaFields}}),
	}
}

func (s *Source) ExtractListingLinks(page paginate.Page, origin string) []string {
	var ids []string
	for _, item := range paginate.Data(page.Response) {
		post, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := post["id"].(string); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Source) ExtractRecordFields(page paginate.Page) map[string]string {
	fields := map[string]string{}
	for _, name := range []string{
		"caption", "media_type", "media_product_type", "media_url",
		"permalink", "timestamp", "like_count", "comments_count",
	} {
		fields[name] = fieldString(page.Response.JSON[name])
	}
	return fields
}

// Enrich attaches the post's insight metrics, and for commented posts
// the comment thread, as additional fields. A sub-resource failure is
// already in the audit log; the record keeps its base fields.
func (s *Source) Enrich(ctx context.Context, record *run.Record) {
	s.enrichInsights(ctx, record)
	if count := record.Fields["comments_count"]; count != "" && count != "0" {
		s.enrichComments(ctx, record)
	}
}

func (s *Source) enrichInsights(ctx context.Context, record *run.Record) {
	insights, err := s.client.MediaInsights(ctx,
		record.ID,
		record.Fields["media_type"],
		record.Fields["media_product_type"],
	)
	if err != nil {
		slog.WarnContext(ctx, "insights unavailable for post", "id", record.ID, "err", err)
		return
	}

	data, _ := insights["data"].([]any)
	for _, item := range data {
		metric, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := metric["name"].(string)
		values, _ := metric["values"].([]any)
		if name == "" || len(values) == 0 {
			continue
		}
		if point, ok := values[0].(map[string]any); ok {
			record.Fields[name] = fieldString(point["value"])
		}
	}
}

func (s *Source) enrichComments(ctx context.Context, record *run.Record) {
	comments, err := s.client.Comments(ctx, record.ID)
	if err != nil {
		slog.WarnContext(ctx, "comments unavailable for post", "id", record.ID, "err", err)
		return
	}

	data, _ := comments["data"].([]any)
	var lines []string
	for _, item := range data {
		comment, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := comment["text"].(string)
		if text == "" {
			continue
		}
		if username, _ := comment["username"].(string); username != "" {
			text = username + ": " + text
		}
		lines = append(lines, text)
	}
	if len(lines) > 0 {
		record.Fields["comments"] = strings.Join(lines, " | ")
	}
}

// fieldString flattens a json scalar into export form. Graph numbers
// arrive as float64; counts must not grow a trailing ".0".
func fieldString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}
