// Package news implements the portal extractors. Every portal shares
// the same mechanics (fetch listing, collect article links, pull named
// fields out of article markup); only the selector rules and the link
// harvesting differ, so portals are values built from rule tables
// rather than separate types.
package news

import (
	"log/slog"
	"net/url"
	"strings"

	"guaymallen-backend/lib/htmlutil"
	"guaymallen-backend/lib/paginate"
	"guaymallen-backend/services/run"

	"github.com/PuerkitoBio/goquery"
)

// Attempt is one way to pull a field out of the document. Attempts for
// a field run in order until one produces text; a miss costs nothing
// but leaves the field for the next attempt.
type Attempt struct {
	Selector string
	// pull this attribute instead of node text
	Attr string
	// concatenate every match instead of taking the first
	Join bool
}

type FieldRule struct {
	Field    string
	Attempts []Attempt
}

// Portal is one configured newspaper. It implements run.SourceExtractor.
type Portal struct {
	name    string
	domain  *url.URL
	seeds   []string
	listing func(doc *goquery.Document, base *url.URL) []string
	fields  []FieldRule
}

func (p *Portal) Name() string {
	return p.name
}

func (p *Portal) Seeds() []run.Seed {
	seeds := make([]run.Seed, len(p.seeds))
	for i, seed := range p.seeds {
		seeds[i] = run.Seed{Path: seed}
	}
	return seeds
}

func (p *Portal) DetailRequest(id string) run.Seed {
	return run.Seed{Path: id}
}

func (p *Portal) ExtractListingLinks(page paginate.Page, origin string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Response.Text))
	if err != nil {
		slog.Warn("failed to parse listing page", "portal", p.name, "origin", origin, "err", err)
		return nil
	}

	base := p.domain
	if parsed, err := url.Parse(origin); err == nil && parsed.IsAbs() {
		base = parsed
	}
	return p.listing(doc, base)
}

func (p *Portal) ExtractRecordFields(page paginate.Page) map[string]string {
	fields := make(map[string]string, len(p.fields))
	for _, rule := range p.fields {
		fields[rule.Field] = ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Response.Text))
	if err != nil {
		slog.Warn("failed to parse article page", "portal", p.name, "err", err)
		return fields
	}

	for _, rule := range p.fields {
		fields[rule.Field] = applyRule(doc, rule)
	}
	return fields
}

// applyRule runs each attempt until one yields text. A field no
// attempt can satisfy stays empty; the record survives.
func applyRule(doc *goquery.Document, rule FieldRule) string {
	for _, attempt := range rule.Attempts {
		sel := doc.Find(attempt.Selector)
		var value string
		switch {
		case attempt.Attr != "":
			value = htmlutil.FirstAttr(sel, attempt.Attr)
		case attempt.Join:
			value = htmlutil.JoinedText(sel)
		default:
			value = htmlutil.FirstText(sel)
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// anchorLinks is the default listing harvester: resolve every matched
// anchor against the portal domain and keep the absolute http(s) ones,
// deduplicated in document order.
func anchorLinks(sel *goquery.Selection, base *url.URL) []string {
	var links []string
	seen := map[string]bool{}
	for _, anchor := range htmlutil.Anchors(base, sel) {
		if seen[anchor.Href] {
			continue
		}
		seen[anchor.Href] = true
		links = append(links, anchor.Href)
	}
	return links
}
