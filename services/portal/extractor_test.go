package portal_test

import (
	"testing"

	"expedientes_app_go/services/portal"
	"expedientes_app_go/services/portal/portaltest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://eje.juscaba.gob.ar"

func TestExtractCases(t *testing.T) {
	html := portaltest.ListingPage(
		portaltest.Card{
			Number:  "J-01-02-00345-6/2024-1",
			Title:   "PEREZ JUAN CONTRA GCBA SOBRE AMPARO",
			Status:  "EN LETRA",
			Novelty: "  12/03/2024 |  Se   dicta   sentencia ",
			Href:    "/iol-ui/p/expedientes?identificador=X",
		},
		portaltest.Card{
			Number:  "J-01-02-00999-1/2023-0",
			Title:   "GOMEZ ANA CONTRA OSBA SOBRE AMPARO",
			Status:  "A DESPACHO",
			Novelty: "01/02/2024",
			Href:    "https://otro.example/causa/1",
		},
	)

	records, err := portal.ExtractCases(html, baseURL)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "J-01-02-00345-6/2024-1", first.Number.Value)
	assert.Equal(t, "PEREZ JUAN CONTRA GCBA SOBRE AMPARO", first.Title.Value)
	assert.Equal(t, "EN LETRA", first.Status.Value)
	assert.Equal(t, "12/03/2024", first.NoveltyDate.Value)
	assert.Equal(t, "Se dicta sentencia", first.NoveltyText.Value)
	assert.Equal(t, baseURL+"/iol-ui/p/expedientes?identificador=X", first.Link.Value)
	assert.True(t, first.Link.Found)

	second := records[1]
	assert.Equal(t, "01/02/2024", second.NoveltyDate.Value, "without a pipe the whole block is the date")
	assert.Empty(t, second.NoveltyText.Value)
	assert.Equal(t, "https://otro.example/causa/1", second.Link.Value)
}

func TestExtractCasesToleratesMissingFields(t *testing.T) {
	html := portaltest.ListingPage(
		portaltest.Card{Number: "J-01-02-00345-6/2024-1", Title: "SIN ESTADO", Novelty: "10/10/2024 | Cédula"},
		portaltest.Card{},
	)

	records, err := portal.ExtractCases(html, baseURL)
	require.NoError(t, err)
	require.Len(t, records, 2)

	noStatus := records[0]
	assert.Equal(t, portal.NotAvailable, noStatus.Status.Value)
	assert.False(t, noStatus.Status.Found)
	assert.Equal(t, "SIN ESTADO", noStatus.Title.Value)

	bare := records[1]
	assert.Equal(t, portal.NotAvailable, bare.Number.Value)
	assert.Equal(t, portal.NotAvailable, bare.Title.Value)
	assert.Equal(t, portal.NotAvailable, bare.Status.Value)
	assert.False(t, bare.NoveltyDate.Found)
	assert.Empty(t, bare.Link.Value)
}

func TestExtractCasesEmptyListing(t *testing.T) {
	records, err := portal.ExtractCases(portaltest.ListingPage(), baseURL)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records, err = portal.ExtractCases("", baseURL)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractSearchResults(t *testing.T) {
	html := portaltest.SearchPage(
		portaltest.SearchCard{Number: "J-01-02-00345-6/2024-1", Title: "PEREZ c/ GCBA", Detail: "Se hace lugar a la medida cautelar."},
		portaltest.SearchCard{Title: "SIN NUMERO", Detail: "Texto"},
		portaltest.SearchCard{Number: "EXPTE 123"},
	)

	results, err := portal.ExtractSearchResults(html, baseURL)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "PEREZ c/ GCBA", results[0].Title)
	assert.Equal(t, "Se hace lugar a la medida cautelar.", results[0].Details)
	assert.Contains(t, results[0].Link, "cuij=01-02-00345-6")

	assert.Equal(t, "#", results[1].Link)
	assert.Equal(t, "#", results[2].Link)
	assert.Equal(t, portal.NotAvailable, results[2].Title)
	assert.Empty(t, results[2].Details)
}
