package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// maxResearchPages bounds how many result pages are fetched per query.
	maxResearchPages = 3
	// pageExcerptBytes bounds how much of each fetched page lands in the notes.
	pageExcerptBytes = 2000
)

// SiteSearch researches a query against a single website. It scopes the web
// search with a site: operator, fetches the top result pages, and condenses
// them into plain-text research notes suitable for a model prompt.
type SiteSearch struct {
	site     string
	searcher Searcher
	fetcher  Fetcher
}

// NewSiteSearch creates a research tool scoped to the given site URL, e.g.
// "https://www.stilltasty.com/" or "https://www.americastestkitchen.com/recipes".
// A path component narrows the scope to that section of the site.
func NewSiteSearch(siteURL string, searcher Searcher, fetcher Fetcher) (*SiteSearch, error) {
	site, err := siteScope(siteURL)
	if err != nil {
		return nil, err
	}
	return &SiteSearch{site: site, searcher: searcher, fetcher: fetcher}, nil
}

// siteScope reduces a URL to the host[/path] form the site: operator expects.
func siteScope(siteURL string) (string, error) {
	trimmed := strings.TrimSpace(siteURL)
	if trimmed == "" {
		return "", fmt.Errorf("site URL is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parsing site URL %q: %w", siteURL, err)
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return "", fmt.Errorf("site URL %q has no host", siteURL)
	}
	return host + strings.TrimSuffix(u.Path, "/"), nil
}

// Name identifies the tool in logs.
func (t *SiteSearch) Name() string {
	return t.site
}

// Research searches the site for the query and returns numbered notes built
// from the top result pages. Pages that fail to fetch fall back to their
// search snippet. Returns an empty string when the search finds nothing.
func (t *SiteSearch) Research(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("research query is empty")
	}

	results, err := t.searcher.Search(ctx, fmt.Sprintf("site:%s %s", t.site, query))
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", t.site, err)
	}
	if len(results) == 0 {
		return "", nil
	}
	if len(results) > maxResearchPages {
		results = results[:maxResearchPages]
	}

	// Fetch the result pages concurrently. A failed fetch is tolerated; the
	// note for that result falls back to the search snippet.
	pages := make([]string, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxResearchPages)
	for i, r := range results {
		g.Go(func() error {
			text, fetchErr := t.fetcher.Fetch(gctx, r.URL)
			if fetchErr != nil {
				return nil
			}
			pages[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research notes from %s for %q:\n", t.site, query)
	for i, r := range results {
		excerpt := pages[i]
		if excerpt == "" {
			excerpt = r.Snippet
		}
		if len(excerpt) > pageExcerptBytes {
			excerpt = excerpt[:pageExcerptBytes] + " [TRUNCATED]"
		}
		fmt.Fprintf(&b, "\n%d. %s | %s\n", i+1, strings.TrimSpace(r.Title), strings.TrimSpace(r.URL))
		if strings.TrimSpace(excerpt) != "" {
			b.WriteString(strings.TrimSpace(excerpt))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}
