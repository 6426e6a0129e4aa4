package info

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azhovan/propbind"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_Invoke(t *testing.T) {
	calls := 0
	endpoint := NewEndpoint(EndpointOptions{
		Contributors: []Contributor{
			ContributorFunc(func(b *Builder) { calls++; b.WithDetail("first", 1) }),
			nil,
			ContributorFunc(func(b *Builder) { b.WithDetail("first", 2).WithDetail("second", true) }),
		},
	})

	got := endpoint.Invoke()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"first", "second"}, got.Details().Keys())
	v, _ := got.Get("first")
	assert.Equal(t, 2, v)

	endpoint.Invoke()
	assert.Equal(t, 2, calls, "contributors run on every invocation")
}

func TestEndpoint_Routes(t *testing.T) {
	sources := propbind.NewPropertySources(propbind.NewMapSource("test", map[string]any{
		"info.app.name":    "demo",
		"info.app.version": "1.0",
	}))
	endpoint := NewEndpoint(EndpointOptions{
		Contributors: []Contributor{NewEnvironmentContributor(propbind.NewBinder(sources))},
	})

	r := chi.NewRouter()
	r.Mount("/info", endpoint.Routes())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.JSONEq(t, `{"app":{"name":"demo","version":"1.0"}}`, rec.Body.String())
}

func TestEndpoint_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewEndpoint(EndpointOptions{}).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
