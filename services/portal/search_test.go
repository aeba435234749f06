package portal_test

import (
	"context"
	"net/url"
	"testing"

	"expedientes_app_go/services/portal"
	"expedientes_app_go/services/portal/portaltest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	u, err := url.Parse(portal.SearchURL(baseURL, "amparo salud"))
	require.NoError(t, err)

	assert.Equal(t, "/iol-ui/p/jurisprudencia", u.Path)
	assert.Equal(t, "amparo salud", u.Query().Get("identificador"))
	assert.Equal(t, "false", u.Query().Get("open"))
	assert.Equal(t, []string{"Actuaciones", "JUR"}, u.Query()["tipoBusqueda"])
}

func TestSearchWithoutSession(t *testing.T) {
	m, b, launches := newSession(t)
	s := portal.NewSearcher(m)

	resp := s.Search(context.Background(), "amparo")
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, portal.FailureAuthentication, resp.Kind)
	assert.NotEmpty(t, resp.Warning)
	assert.Empty(t, b.Calls())
	assert.Equal(t, 0, *launches)
}

func TestSearch(t *testing.T) {
	m, b, _ := newSession(t)
	b.Pages["/iol-ui/p/jurisprudencia"] = portaltest.SearchPage(
		portaltest.SearchCard{Number: "J-01-02-00345-6/2024-1", Title: "PEREZ c/ GCBA", Detail: "Sentencia"},
	)
	require.NoError(t, m.Login(context.Background(), creds))

	resp := portal.NewSearcher(m).Search(context.Background(), "perez")
	assert.Empty(t, resp.Warning)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "PEREZ c/ GCBA", resp.Results[0].Title)
	assert.Contains(t, resp.Results[0].Link, "anio=2024")
}

func TestSearchFailureIsNonFatal(t *testing.T) {
	m, b, _ := newSession(t)
	require.NoError(t, m.Login(context.Background(), creds))
	b.Hang["mat-select[aria-label='Registros por página:']"] = true

	resp := portal.NewSearcher(m).Search(context.Background(), "perez")
	assert.Empty(t, resp.Results)
	assert.Equal(t, portal.FailureLayout, resp.Kind)
	assert.Contains(t, resp.Warning, "paginación")
	assert.True(t, m.Alive(), "the browser stays open")
	assert.False(t, m.Authenticated(), "a layout failure forgets the login")

	again := portal.NewSearcher(m).Search(context.Background(), "perez")
	assert.Equal(t, portal.FailureAuthentication, again.Kind)
	assert.Equal(t, portal.OperatorMessage(portal.ErrNotAuthenticated), again.Warning)
}
