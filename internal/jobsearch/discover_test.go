package jobsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func searchServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "engine-1", r.URL.Query().Get("cx"))
		assert.Equal(t, "Acme careers jobs", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSearchDiscoverer_PrefersCareersResult(t *testing.T) {
	server := searchServer(t, `{"items": [
		{"link": "https://acme.example.com/about"},
		{"link": "https://boards.greenhouse.io/acme"},
		{"link": "https://acme.example.com/careers"}
	]}`)

	d, err := NewSearchDiscoverer(context.Background(), "key", "engine-1", option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	got, err := d.CareersURL(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "https://boards.greenhouse.io/acme", got)
}

func TestSearchDiscoverer_FirstResultFallback(t *testing.T) {
	server := searchServer(t, `{"items": [{"link": "https://acme.example.com/"}]}`)

	d, err := NewSearchDiscoverer(context.Background(), "key", "engine-1", option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	got, err := d.CareersURL(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example.com/", got)
}

func TestSearchDiscoverer_NoResults(t *testing.T) {
	server := searchServer(t, `{}`)

	d, err := NewSearchDiscoverer(context.Background(), "key", "engine-1", option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)

	_, err = d.CareersURL(context.Background(), "Acme")
	assert.ErrorContains(t, err, "no search results found for Acme")
}

func TestNewSearchDiscoverer_RequiresCredentials(t *testing.T) {
	_, err := NewSearchDiscoverer(context.Background(), "", "engine-1")
	assert.Error(t, err)

	_, err = NewSearchDiscoverer(context.Background(), "key", "")
	assert.Error(t, err)
}

func TestLooksLikeCareers(t *testing.T) {
	assert.True(t, looksLikeCareers("https://acme.example.com/careers"))
	assert.True(t, looksLikeCareers("https://jobs.lever.co/acme"))
	assert.True(t, looksLikeCareers("https://acme.wd5.myworkdayjobs.com/External"))
	assert.False(t, looksLikeCareers("https://acme.example.com/blog"))
	assert.False(t, looksLikeCareers("://bad"))
}
