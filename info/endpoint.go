package info

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// EndpointOptions configures an Endpoint.
type EndpointOptions struct {
	// Contributors run in order on every invocation.
	Contributors []Contributor

	// Logger reports response write failures. Default: slog.Default().
	Logger *slog.Logger
}

// Endpoint exposes the combined output of its contributors.
type Endpoint struct {
	contributors []Contributor
	logger       *slog.Logger
}

// NewEndpoint creates an Endpoint. Nil contributors are skipped.
func NewEndpoint(opts EndpointOptions) *Endpoint {
	e := &Endpoint{logger: opts.Logger}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, c := range opts.Contributors {
		if c != nil {
			e.contributors = append(e.contributors, c)
		}
	}
	return e
}

// Invoke runs every contributor against a fresh Builder.
func (e *Endpoint) Invoke() *Info {
	b := NewBuilder()
	for _, c := range e.contributors {
		c.Contribute(b)
	}
	return b.Build()
}

// Routes returns a router serving GET / as JSON.
//
//	r.Mount("/info", endpoint.Routes())
func (e *Endpoint) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", e.serveInfo)
	return r
}

func (e *Endpoint) serveInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(e.Invoke()); err != nil {
		e.logger.ErrorContext(r.Context(), "write info response failed", slog.Any("error", err))
	}
}
