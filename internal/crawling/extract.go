package crawling

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one anchor on a page, resolved to an absolute URL.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// LinkOptions narrows which anchors are returned.
type LinkOptions struct {
	// Selectors limits extraction to anchors matching any selector. Empty means all anchors.
	Selectors []string
	// SameHost drops links to other hosts.
	SameHost bool
	// Max caps the number of links. Zero means no cap.
	Max int
}

// ExtractLinks returns the http(s) links of a page in document order, without
// fragments, trailing slashes or duplicates. Anchors without visible text keep
// their title or aria-label as text.
func ExtractLinks(htmlContent string, baseURL string, opts LinkOptions) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{Message: "failed to parse base URL", Cause: err}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	anchors := doc.Find("a[href]")
	if len(opts.Selectors) > 0 {
		if scoped := doc.Find(strings.Join(opts.Selectors, ", ")).Filter("a[href]"); scoped.Length() > 0 {
			anchors = scoped
		}
	}

	seen := make(map[string]bool)
	links := make([]Link, 0)
	anchors.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		linkURL, err := url.Parse(href)
		if err != nil {
			return true
		}

		abs := base.ResolveReference(linkURL)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		if opts.SameHost && abs.Host != base.Host {
			return true
		}
		abs.Fragment = ""
		u := strings.TrimSuffix(abs.String(), "/")
		if seen[u] {
			return true
		}
		seen[u] = true

		links = append(links, Link{URL: u, Text: anchorText(s)})
		return opts.Max <= 0 || len(links) < opts.Max
	})

	return links, nil
}

func anchorText(s *goquery.Selection) string {
	if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
		return t
	}
	if t := strings.TrimSpace(s.AttrOr("title", "")); t != "" {
		return t
	}
	return strings.TrimSpace(s.AttrOr("aria-label", ""))
}
