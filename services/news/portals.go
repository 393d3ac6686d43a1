package news

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// selector rules are hand-derived from each portal's markup; keep them
// in sync with the portal, not with each other

func mustDomain(raw string) *url.URL {
	parsed, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return parsed
}

const losAndesArticleRoot = "body > main > div:nth-of-type(2) > div:nth-of-type(1)"

func NewLosAndes(seeds []string) *Portal {
	return &Portal{
		name:   "Los Andes",
		domain: mustDomain("https://www.losandes.com.ar"),
		seeds:  seeds,
		listing: func(doc *goquery.Document, base *url.URL) []string {
			// one card per column inside the simple-news groupers,
			// first anchor of the card is the article link
			var links []string
			seen := map[string]bool{}
			doc.Find("section.grouper-simple-news.news-article-wrapper div.col.col-lg-4").
				Each(func(_ int, col *goquery.Selection) {
					for _, link := range anchorLinks(col.Find("a").First(), base) {
						if !seen[link] {
							seen[link] = true
							links = append(links, link)
						}
					}
				})
			return links
		},
		fields: []FieldRule{
			{Field: "headline", Attempts: []Attempt{
				{Selector: losAndesArticleRoot + " > header h1"},
			}},
			{Field: "summary", Attempts: []Attempt{
				{Selector: losAndesArticleRoot + " > div:nth-of-type(1) p", Join: true},
			}},
			{Field: "body", Attempts: []Attempt{
				{Selector: losAndesArticleRoot + " article[class^=article-body]", Join: true},
			}},
			{Field: "date", Attempts: []Attempt{
				{Selector: losAndesArticleRoot + " > header div span"},
			}},
			{Field: "author", Attempts: []Attempt{
				{Selector: losAndesArticleRoot + " > div:nth-of-type(3) a b"},
			}},
		},
	}
}

func NewDiarioUno(seeds []string) *Portal {
	return &Portal{
		name:   "Diario UNO",
		domain: mustDomain("https://www.diariouno.com.ar"),
		seeds:  seeds,
		listing: func(doc *goquery.Document, base *url.URL) []string {
			// first link of each article card
			var links []string
			seen := map[string]bool{}
			doc.Find("article").Each(func(_ int, article *goquery.Selection) {
				for _, link := range anchorLinks(article.Find("a").First(), base) {
					if !seen[link] {
						seen[link] = true
						links = append(links, link)
					}
				}
			})
			return links
		},
		fields: []FieldRule{
			{Field: "headline", Attempts: []Attempt{
				{Selector: "h1[class*=title]"},
			}},
			{Field: "summary", Attempts: []Attempt{
				{Selector: "h2"},
				{Selector: "p[class*=ignore-parser]"},
			}},
			{Field: "body", Attempts: []Attempt{
				{Selector: "div[class*=article-body] p", Join: true},
			}},
			{Field: "date", Attempts: []Attempt{
				{Selector: "time"},
			}},
			{Field: "author", Attempts: []Attempt{
				{Selector: "span[class*=author-name]"},
			}},
		},
	}
}

func NewElSol(seeds []string) *Portal {
	return &Portal{
		name:   "El Sol",
		domain: mustDomain("https://www.elsol.com.ar"),
		seeds:  seeds,
		listing: func(doc *goquery.Document, base *url.URL) []string {
			return anchorLinks(doc.Find("article h2 a, article h3 a"), base)
		},
		fields: []FieldRule{
			{Field: "headline", Attempts: []Attempt{
				{Selector: "h1"},
			}},
			{Field: "summary", Attempts: []Attempt{
				{Selector: "div.newspack-post-subtitle"},
			}},
			{Field: "body", Attempts: []Attempt{
				{Selector: "div[class*=entry-content] p", Join: true},
			}},
			{Field: "date", Attempts: []Attempt{
				// datetime attribute parses reliably, rendered text
				// is a fallback
				{Selector: "time[datetime]", Attr: "datetime"},
				{Selector: "time"},
			}},
			{Field: "author", Attempts: []Attempt{
				{Selector: "a.url.fn"},
			}},
		},
	}
}

func NewMDZ(seeds []string) *Portal {
	return &Portal{
		name:   "MDZ",
		domain: mustDomain("https://www.mdzol.com"),
		seeds:  seeds,
		listing: func(doc *goquery.Document, base *url.URL) []string {
			return anchorLinks(doc.Find("a.news-article__link"), base)
		},
		fields: []FieldRule{
			{Field: "headline", Attempts: []Attempt{
				{Selector: "h1"},
			}},
			{Field: "summary", Attempts: []Attempt{
				{Selector: "div[class*=news-detail__lead]", Join: true},
			}},
			{Field: "body", Attempts: []Attempt{
				{Selector: "div[class*=news-detail__body] p", Join: true},
			}},
			{Field: "date", Attempts: []Attempt{
				{Selector: "time[datetime]", Attr: "datetime"},
				{Selector: "time"},
			}},
			{Field: "author", Attempts: []Attempt{
				{Selector: `a[href*="/autor/"]`},
			}},
		},
	}
}

var registry = map[string]func(seeds []string) *Portal{
	"Los Andes":  NewLosAndes,
	"Diario UNO": NewDiarioUno,
	"El Sol":     NewElSol,
	"MDZ":        NewMDZ,
}

// New looks a portal up by its configured name.
func New(name string, seeds []string) (*Portal, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown portal %q (known: %v)", name, Known())
	}
	return build(seeds), nil
}

func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
