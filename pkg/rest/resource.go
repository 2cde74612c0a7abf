package rest

import (
	"context"
	"errors"
	"net/http"

	gojson "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/schemafield/schemafield/pkg/adapter"
)

// HandlerFunc processes a validated request value and returns the response
// value to render.
type HandlerFunc func(ctx context.Context, value any) (any, error)

// Resource wires a parser, a handler and a renderer into a routable HTTP
// endpoint, with a schema introspection route alongside.
type Resource struct {
	name     string
	parser   *SchemaParser
	renderer *SchemaRenderer
	handle   HandlerFunc
	logger   *zap.Logger
}

// ResourceOption configures a resource.
type ResourceOption func(*Resource)

// WithLogger sets the resource's request logger.
func WithLogger(logger *zap.Logger) ResourceOption {
	return func(r *Resource) { r.logger = logger }
}

// NewResource creates a resource handling validated JSON round trips.
func NewResource(name string, parser *SchemaParser, renderer *SchemaRenderer, handle HandlerFunc, opts ...ResourceOption) *Resource {
	r := &Resource{
		name:     name,
		parser:   parser,
		renderer: renderer,
		handle:   handle,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Routes returns the resource's router: POST / accepts and validates a
// document, GET /schema serves the request JSON Schema.
func (r *Resource) Routes() chi.Router {
	mux := chi.NewRouter()
	mux.Post("/", r.create)
	mux.Get("/schema", r.schemaDoc)
	return mux
}

// Mount attaches the resource under a path prefix on a parent router.
func (r *Resource) Mount(parent chi.Router, pattern string) {
	parent.Mount(pattern, r.Routes())
}

func (r *Resource) create(w http.ResponseWriter, req *http.Request) {
	value, err := r.parser.Parse(req.Body, Context{})
	if err != nil {
		r.writeError(w, err)
		return
	}
	result := value
	if r.handle != nil {
		result, err = r.handle(req.Context(), value)
		if err != nil {
			r.logger.Error("handler failed", zap.String("resource", r.name), zap.Error(err))
			r.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	}
	body, err := r.renderer.Render(result, Context{})
	if err != nil {
		r.logger.Error("render failed", zap.String("resource", r.name), zap.Error(err))
		r.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (r *Resource) schemaDoc(w http.ResponseWriter, _ *http.Request) {
	a := r.parser.Adapter
	if a == nil {
		r.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no schema configured"})
		return
	}
	doc, err := a.JSONSchema()
	if err != nil {
		r.logger.Error("schema generation failed", zap.String("resource", r.name), zap.Error(err))
		r.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	r.writeJSON(w, http.StatusOK, doc)
}

func (r *Resource) writeError(w http.ResponseWriter, err error) {
	var pe *ParseError
	if errors.As(err, &pe) {
		status := http.StatusBadRequest
		if pe.Kind == ParseErrorValidation {
			status = http.StatusUnprocessableEntity
		}
		r.logger.Info("request rejected",
			zap.String("resource", r.name),
			zap.Int("status", status),
			zap.Error(err))
		r.writeJSON(w, status, map[string]string{"error": pe.Error()})
		return
	}
	var ice *adapter.ImproperlyConfiguredSchema
	if errors.As(err, &ice) {
		r.logger.Error("resource misconfigured", zap.String("resource", r.name), zap.Error(err))
		r.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	r.logger.Error("parse failed", zap.String("resource", r.name), zap.Error(err))
	r.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (r *Resource) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := gojson.Marshal(body)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(status)
	w.Write(data)
}
