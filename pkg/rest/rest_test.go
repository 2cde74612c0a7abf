package rest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/schema"
)

func pointStruct() *schema.Struct {
	return schema.NewStruct("Point",
		schema.NewField("x", schema.Int),
		schema.NewField("y", schema.Int).WithDefault(int64(0)),
	)
}

type testSerializer struct {
	name string
}

func (s *testSerializer) Name() string                  { return s.name }
func (s *testSerializer) Annotation(string) (any, bool) { return nil, false }
func (s *testSerializer) Scope() *schema.Scope          { return schema.NewScope() }

func TestParserValidInput(t *testing.T) {
	p := &SchemaParser{Adapter: adapter.New(pointStruct())}

	v, err := p.Parse(strings.NewReader(`{"x": 1}`), Context{})
	require.NoError(t, err)

	inst := v.(*schema.Instance)
	x, _ := inst.Get("x")
	assert.Equal(t, int64(1), x)
}

func TestParserErrorKinds(t *testing.T) {
	p := &SchemaParser{Adapter: adapter.New(pointStruct())}

	_, err := p.Parse(strings.NewReader(`{"x": 1,`), Context{})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ParseErrorDecode, pe.Kind)

	_, err = p.Parse(strings.NewReader(`{}`), Context{})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ParseErrorValidation, pe.Kind)
}

func TestParserSchemaFromContext(t *testing.T) {
	p := &SchemaParser{}
	ctx := Context{ParserSchemaKey: pointStruct()}

	v, err := p.Parse(strings.NewReader(`{"x": 2}`), ctx)
	require.NoError(t, err)
	assert.IsType(t, &schema.Instance{}, v)
}

func TestParserMissingSchemaIsHardError(t *testing.T) {
	p := &SchemaParser{}

	_, err := p.Parse(strings.NewReader(`{}`), Context{})
	var ice *adapter.ImproperlyConfiguredSchema
	require.ErrorAs(t, err, &ice)
}

func TestParserUnresolvableSchemaIsNotAParseError(t *testing.T) {
	p := &SchemaParser{}
	ctx := Context{ParserSchemaKey: "Nowhere"}

	_, err := p.Parse(strings.NewReader(`{"x": 1}`), ctx)
	var ice *adapter.ImproperlyConfiguredSchema
	require.ErrorAs(t, err, &ice)

	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
}

func TestRendererRoundTrip(t *testing.T) {
	r := &SchemaRenderer{Adapter: adapter.New(pointStruct())}

	body, err := r.Render(map[string]any{"x": 1, "y": 2}, Context{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1, "y": 2}`, string(body))
}

func TestRendererValidationErrorBody(t *testing.T) {
	r := &SchemaRenderer{Adapter: adapter.New(pointStruct())}

	body, err := r.Render(map[string]any{"x": "nope"}, Context{})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, gojson.Unmarshal(body, &payload))
	assert.Contains(t, payload, "error")
}

func TestRendererDirectInstanceFallback(t *testing.T) {
	point := pointStruct()
	inst, err := point.New(map[string]any{"x": 5})
	require.NoError(t, err)

	r := &SchemaRenderer{}
	body, err := r.Render(inst, Context{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 5, "y": 0}`, string(body))
}

func TestRendererMissingSchemaIsHardError(t *testing.T) {
	r := &SchemaRenderer{}

	_, err := r.Render(map[string]any{"x": 1}, Context{})
	var ice *adapter.ImproperlyConfiguredSchema
	require.ErrorAs(t, err, &ice)
}

func TestRendererContextConfig(t *testing.T) {
	r := &SchemaRenderer{}
	ctx := Context{
		RendererSchemaKey: pointStruct(),
		RendererConfigKey: adapter.ExportOptions{Exclude: adapter.Keys("y")},
	}

	body, err := r.Render(map[string]any{"x": 1, "y": 2}, ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1}`, string(body))
}

func TestFieldBindOnce(t *testing.T) {
	f := NewField(pointStruct())
	f.Bind(&testSerializer{name: "PointSerializer"}, "location")
	require.True(t, f.Adapter().IsBound())
	assert.Equal(t, "location", f.Adapter().Attname())

	// rebinding keeps the first attachment
	f.Bind(&testSerializer{name: "Other"}, "position")
	assert.Equal(t, "location", f.Adapter().Attname())
}

func TestFieldToInternal(t *testing.T) {
	f := NewField(pointStruct())

	v, err := f.ToInternal(`{"x": 3}`)
	require.NoError(t, err)
	x, _ := v.(*schema.Instance).Get("x")
	assert.Equal(t, int64(3), x)

	v, err = f.ToInternal(map[string]any{"x": 4})
	require.NoError(t, err)
	x, _ = v.(*schema.Instance).Get("x")
	assert.Equal(t, int64(4), x)
}

func TestFieldToRepresentation(t *testing.T) {
	f := NewField(pointStruct(), adapter.WithExportOptions(adapter.ExportOptions{
		Exclude: adapter.Keys("y"),
	}))

	out, err := f.ToRepresentation(map[string]any{"x": 1, "y": 9})
	require.NoError(t, err)

	d, ok := out.(*schema.Dict)
	require.True(t, ok)
	assert.Equal(t, 1, d.Len())
	x, _ := d.Get("x")
	assert.Equal(t, int64(1), x)
}

func TestOperationFor(t *testing.T) {
	in := adapter.New(pointStruct())
	out := adapter.New(schema.ListOf(schema.Int))

	op, err := OperationFor("createPoint", in, out)
	require.NoError(t, err)

	require.NotNil(t, op.RequestBody)
	assert.True(t, op.RequestBody.Required)
	assert.Contains(t, op.RequestBody.Content, "application/json")
	assert.Contains(t, op.Responses, 200)

	op, err = OperationFor("deletePoint", in, nil)
	require.NoError(t, err)
	assert.Contains(t, op.Responses, 204)
}

func newTestResource() *Resource {
	a := adapter.New(pointStruct())
	return NewResource("points",
		&SchemaParser{Adapter: a},
		&SchemaRenderer{Adapter: a},
		nil)
}

func TestResourceCreate(t *testing.T) {
	srv := httptest.NewServer(newTestResource().Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"x": 1, "y": 2}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]any
	require.NoError(t, gojson.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, float64(1), payload["x"])
}

func TestResourceRejectsBadInput(t *testing.T) {
	srv := httptest.NewServer(newTestResource().Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"x": 1,`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestResourceMisconfigurationMapsTo500(t *testing.T) {
	a := adapter.New("Nowhere")
	res := NewResource("points",
		&SchemaParser{Adapter: a},
		&SchemaRenderer{Adapter: a},
		nil)
	srv := httptest.NewServer(res.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"x": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, gojson.NewDecoder(resp.Body).Decode(&payload))
	// internal diagnostics stay out of the response body
	assert.Equal(t, "internal error", payload["error"])
}

func TestResourceSchemaRoute(t *testing.T) {
	mux := chi.NewRouter()
	newTestResource().Mount(mux, "/points")
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/points/schema")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]any
	require.NoError(t, gojson.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc, "$ref")
}
