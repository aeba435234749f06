package portal

import (
	"net/url"
	"regexp"
	"strings"
)

// caseNumberPattern matches CUIJ-style numbers such as J-01-02-00345-6/2024-1
var caseNumberPattern = regexp.MustCompile(`J-((?:\d{2}-){2}\d{5}-\d)/(\d{4})-\d`)

// CaseLink derives the portal deep link for a case number.
// It returns false when the number does not follow the CUIJ format.
func CaseLink(baseURL, number string) (string, bool) {
	m := caseNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return "", false
	}

	q := url.Values{}
	q.Set("identificador", number)
	q.Set("tipoBusqueda", "CAU")
	q.Set("open", "true")
	q.Set("cuij", m[1])
	q.Set("anio", m[2])
	q.Set("desmontar", "true")

	return strings.TrimSuffix(baseURL, "/") + "/iol-ui/p/expedientes?" + q.Encode(), true
}

// FormatCaption shortens a carátula to "ACTOR c/ DEMANDADO".
// Captions without a defendant clause default to the city government.
func FormatCaption(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Carátula inválida"
	}
	actor, rest, ok := strings.Cut(title, " CONTRA ")
	defendant := "GCBA"
	if ok {
		if d, _, hasSubject := strings.Cut(rest, " SOBRE "); hasSubject {
			defendant = d
		}
	}
	return actor + " c/ " + defendant
}
