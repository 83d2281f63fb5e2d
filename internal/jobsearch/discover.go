package jobsearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Discoverer finds the careers page of a company when a task gives no URL.
type Discoverer interface {
	CareersURL(ctx context.Context, company string) (string, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(ctx context.Context, company string) (string, error)

// CareersURL calls f.
func (f DiscovererFunc) CareersURL(ctx context.Context, company string) (string, error) {
	return f(ctx, company)
}

// careerHints mark search results that look like a careers page.
var careerHints = []string{"career", "jobs", "join", "greenhouse.io", "lever.co", "myworkdayjobs.com", "ashbyhq.com"}

// SearchDiscoverer looks the careers page up with Google Programmable Search.
type SearchDiscoverer struct {
	svc *customsearch.Service
	cx  string
}

// NewSearchDiscoverer creates a discoverer for the search engine cx.
func NewSearchDiscoverer(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*SearchDiscoverer, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &SearchDiscoverer{svc: svc, cx: cx}, nil
}

// CareersURL returns the first result that looks like a careers page, or the
// first result when none does.
func (d *SearchDiscoverer) CareersURL(ctx context.Context, company string) (string, error) {
	query := fmt.Sprintf("%s careers jobs", company)
	resp, err := d.svc.Cse.List().Cx(d.cx).Q(query).Num(5).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("no search results found for %s", company)
	}

	for _, item := range resp.Items {
		if looksLikeCareers(item.Link) {
			return item.Link, nil
		}
	}
	return resp.Items[0].Link, nil
}

func looksLikeCareers(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	target := strings.ToLower(u.Host + u.Path)
	for _, hint := range careerHints {
		if strings.Contains(target, hint) {
			return true
		}
	}
	return false
}
