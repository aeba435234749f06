package portal

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NotAvailable is the value recorded when a card has no such field
const NotAvailable = "N/D"

// Card markup of the portal's Angular listing
const (
	caseCardSelector   = "iol-expediente-tarjeta"
	searchCardSelector = "iol-actuacion-tarjeta"

	numberSelector  = "p.fontSizeEncabezadoCuij"
	titleSelector   = "strong"
	statusSelector  = "p.badge"
	noveltySelector = "p.fontSizePie"
	linkSelector    = "a.textColorEncabezado"
	detailSelector  = "p.actuacion-texto"
)

// Field is one scraped value. Found is false when the card lacked the element,
// in which case Value holds the field's fallback.
type Field struct {
	Value string
	Found bool
}

func found(v string) Field { return Field{Value: v, Found: true} }

func missing(fallback string) Field { return Field{Value: fallback} }

// RawCase is one listing card as scraped, before reconciliation
type RawCase struct {
	Number      Field
	Title       Field
	Status      Field
	NoveltyDate Field
	NoveltyText Field
	Link        Field
}

// ExtractCases parses a rendered "Mis Causas" listing into one RawCase per card.
// A card missing sub-elements still yields a record; an empty listing yields
// an empty slice.
func ExtractCases(html, baseURL string) ([]RawCase, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	cards := doc.Find(caseCardSelector)
	records := make([]RawCase, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		records = append(records, extractCase(card, baseURL))
	})
	return records, nil
}

func extractCase(card *goquery.Selection, baseURL string) RawCase {
	rc := RawCase{
		Number:      textOf(card, numberSelector, NotAvailable),
		Title:       textOf(card, titleSelector, NotAvailable),
		Status:      textOf(card, statusSelector, NotAvailable),
		NoveltyDate: missing(""),
		NoveltyText: missing(""),
		Link:        missing(""),
	}

	if nov := textOf(card, noveltySelector, ""); nov.Found {
		date, text, hasText := strings.Cut(nov.Value, "|")
		rc.NoveltyDate = found(strings.TrimSpace(date))
		if hasText {
			rc.NoveltyText = found(strings.TrimSpace(text))
		}
	}

	if href, ok := card.Find(linkSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		rc.Link = found(absoluteURL(baseURL, strings.TrimSpace(href)))
	}

	return rc
}

// textOf returns the whitespace-collapsed text of the first match
func textOf(card *goquery.Selection, selector, fallback string) Field {
	sel := card.Find(selector).First()
	if sel.Length() == 0 {
		return missing(fallback)
	}
	return found(collapseSpace(sel.Text()))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absoluteURL resolves portal-relative links ("/iol-ui/...") against the base URL
func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(baseURL, "/") + href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// countCards is the readiness probe used while the listing re-renders
func countCards(html, selector string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find(selector).Length()
}
