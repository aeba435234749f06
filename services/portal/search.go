package portal

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SearchResult is one card of the portal's own search page
type SearchResult struct {
	Title      string `json:"title"`
	Details    string `json:"details"`
	CaseNumber string `json:"case_number,omitempty"`
	Link       string `json:"link"`
}

// SearchResponse carries results plus a warning for the operator when the
// search could not run. Results is empty whenever Warning is set.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Warning string         `json:"warning,omitempty"`
	Kind    FailureKind    `json:"failure_kind,omitempty"`
}

// Searcher queries the portal through an already authenticated session
type Searcher struct {
	session *SessionManager
}

// NewSearcher creates a searcher sharing the given session
func NewSearcher(session *SessionManager) *Searcher {
	return &Searcher{session: session}
}

// SearchURL builds the portal search route for a free-text query
func SearchURL(baseURL, query string) string {
	q := url.Values{}
	q.Set("identificador", query)
	q.Set("open", "false")
	q.Add("tipoBusqueda", "Actuaciones")
	q.Add("tipoBusqueda", "JUR")
	return strings.TrimSuffix(baseURL, "/") + searchPath + "?" + q.Encode()
}

// Search runs query on the portal. It never fails: a missing session or any
// scraping error yields an empty result set with a warning.
func (s *Searcher) Search(ctx context.Context, query string) SearchResponse {
	resp := SearchResponse{Query: query, Results: []SearchResult{}}

	if !s.session.Authenticated() {
		log.Println("[PORTAL] Search requested without an authenticated session")
		return resp.fail(ErrNotAuthenticated)
	}

	html, err := s.session.LoadPaged(ctx, SearchURL(s.session.BaseURL(), query), searchCardSelector)
	if err != nil {
		log.Printf("[PORTAL] Error en la búsqueda %q: %v", query, err)
		// An expired portal session redirects away from the results page
		if Classify(err) == FailureLayout {
			s.session.Invalidate()
		}
		return resp.fail(err)
	}

	results, err := ExtractSearchResults(html, s.session.BaseURL())
	if err != nil {
		log.Printf("[PORTAL] Error en la búsqueda %q: %v", query, err)
		return resp.fail(err)
	}

	resp.Results = results
	return resp
}

func (r SearchResponse) fail(err error) SearchResponse {
	r.Results = []SearchResult{}
	r.Kind = Classify(err)
	r.Warning = OperatorMessage(err)
	return r
}

// ExtractSearchResults parses a rendered search page into results
func ExtractSearchResults(html, baseURL string) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search HTML: %w", err)
	}

	cards := doc.Find(searchCardSelector)
	results := make([]SearchResult, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		number := textOf(card, numberSelector, "")
		result := SearchResult{
			Title:      textOf(card, titleSelector, NotAvailable).Value,
			Details:    textOf(card, detailSelector, "").Value,
			CaseNumber: number.Value,
			Link:       "#",
		}
		if link, ok := CaseLink(baseURL, number.Value); ok {
			result.Link = link
		}
		results = append(results, result)
	})
	return results, nil
}
