package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// collapses runs of whitespace and strips non-printable runes, the
// usual cleanup for text pulled out of article markup.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// FirstText returns the cleaned text of the first matched node, or ""
// when the selector matches nothing. selector misses never abort a
// record, the field just stays empty.
func FirstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return CleanText(sel.First().Text())
}

// JoinedText concatenates the cleaned text of every matched node,
// skipping nodes that are empty after cleanup.
func JoinedText(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := CleanText(s.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// FirstAttr returns the given attribute of the first matched node,
// or "" when absent.
func FirstAttr(sel *goquery.Selection, attr string) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().AttrOr(attr, ""))
}

// ResolveLink resolves href against base, returning "" for anything
// that does not end up as an absolute http(s) url.
func ResolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

type Anchor struct {
	Name string
	Href string
}

// Anchors extracts every anchor in the selection, resolving hrefs
// against base and dropping ones that are not absolute http(s) links.
func Anchors(base *url.URL, sel *goquery.Selection) []Anchor {
	var anchors []Anchor
	sel.Each(func(_ int, s *goquery.Selection) {
		link := ResolveLink(base, s.AttrOr("href", ""))
		if link == "" {
			return
		}
		anchors = append(anchors, Anchor{
			Name: CleanText(s.Text()),
			Href: link,
		})
	})
	return anchors
}
