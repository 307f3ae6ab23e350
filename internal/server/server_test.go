package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/designfile"
	"github.com/ha1tch/designdoc/pkg/diagram"
	"github.com/ha1tch/designdoc/pkg/docx"
	"github.com/ha1tch/designdoc/pkg/pipeline"
)

func newTestServer(t *testing.T, r diagram.Renderer) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	p := pipeline.New(r, diagram.Rasterizer{}, docx.Assembler{})
	p.Metrics = pipeline.NewMetrics(reg)
	return NewHandler(&Server{Pipeline: p, Gatherer: reg})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func demoText(t *testing.T) string {
	t.Helper()
	text, err := designfile.Serialize(design.Document{
		Purpose:     "demo",
		States:      []design.State{{Name: "START"}, {Name: "END"}},
		Transitions: []design.Transition{{From: "START", To: "END", Function: "go"}},
	})
	require.NoError(t, err)
	return text
}

func TestHealth(t *testing.T) {
	rr := do(newTestServer(t, diagram.NativeEngine{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestYAMLFromForm(t *testing.T) {
	form := `{"purpose":" demo ","functions":[{"name":"f","description":"d","parameters":"p","returns":"r"}]}`
	rr := do(newTestServer(t, nil), http.MethodPost, "/api/yaml", form)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "purpose: demo\n")
	assert.Contains(t, rr.Body.String(), "- name: f")
}

func TestYAMLRejectsBadJSON(t *testing.T) {
	rr := do(newTestServer(t, nil), http.MethodPost, "/api/yaml", "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDot(t *testing.T) {
	rr := do(newTestServer(t, nil), http.MethodPost, "/api/dot", demoText(t))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"START" -> "END" [label="go"];`)
}

func TestParseErrorIsBadRequest(t *testing.T) {
	rr := do(newTestServer(t, nil), http.MethodPost, "/api/export", "purpose: [broken\n")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Positive(t, body.Line)
}

func TestDiagramPNG(t *testing.T) {
	rr := do(newTestServer(t, diagram.NativeEngine{}), http.MethodPost, "/api/diagram", demoText(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	_, err := png.DecodeConfig(bytes.NewReader(rr.Body.Bytes()))
	assert.NoError(t, err)
}

func TestDiagramWithoutTransitions(t *testing.T) {
	rr := do(newTestServer(t, diagram.NativeEngine{}), http.MethodPost, "/api/diagram", "purpose: x\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDiagramEngineUnavailable(t *testing.T) {
	h := newTestServer(t, diagram.GraphvizEngine{Path: "/nonexistent/dir/dot"})
	rr := do(h, http.MethodPost, "/api/diagram", demoText(t))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExport(t *testing.T) {
	rr := do(newTestServer(t, diagram.NativeEngine{}), http.MethodPost, "/api/export", demoText(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, docx.MediaType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="assignment_design.docx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "included", rr.Header().Get(HeaderDiagramStatus))
	assert.Empty(t, rr.Header().Get(HeaderDiagramError))

	sections, err := docx.ReadOutline(rr.Body.Bytes())
	require.NoError(t, err)
	var hasImage bool
	for _, s := range sections {
		hasImage = hasImage || s.Type == "image"
	}
	assert.True(t, hasImage)
}

func TestLastExportSlot(t *testing.T) {
	p := pipeline.New(diagram.NativeEngine{}, diagram.Rasterizer{}, docx.Assembler{})
	h := NewHandler(&Server{Pipeline: p, Workspace: &pipeline.Workspace{}})

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/last", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/last/docx", "").Code)

	exported := do(h, http.MethodPost, "/api/export", demoText(t))
	require.Equal(t, http.StatusOK, exported.Code, exported.Body.String())
	assert.Empty(t, exported.Header().Get(HeaderSuperseded))

	// A failed run leaves the published export in place.
	require.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/export", "purpose: [broken\n").Code)

	rr := do(h, http.MethodGet, "/api/last", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, demoText(t), rr.Body.String())
	assert.Equal(t, "1", rr.Header().Get(HeaderTicket))

	rr = do(h, http.MethodGet, "/api/last/docx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, docx.MediaType, rr.Header().Get("Content-Type"))
	assert.Equal(t, exported.Body.Bytes(), rr.Body.Bytes())

	// Generating text publishes it, but the last document stays.
	form := `{"purpose":"other"}`
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/yaml", form).Code)
	rr = do(h, http.MethodGet, "/api/last", "")
	assert.Contains(t, rr.Body.String(), "purpose: other\n")
	assert.Equal(t, "3", rr.Header().Get(HeaderTicket))
	assert.Equal(t, exported.Body.Bytes(), do(h, http.MethodGet, "/api/last/docx", "").Body.Bytes())
}

func TestLastRoutesNeedWorkspace(t *testing.T) {
	rr := do(newTestServer(t, nil), http.MethodGet, "/api/last", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExportOmitsDiagramWhenEngineFails(t *testing.T) {
	h := newTestServer(t, diagram.GraphvizEngine{Path: "/nonexistent/dir/dot"})
	rr := do(h, http.MethodPost, "/api/export", demoText(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, "omitted", rr.Header().Get(HeaderDiagramStatus))
	assert.NotEmpty(t, rr.Header().Get(HeaderDiagramError))
	assert.NotContains(t, rr.Header().Get(HeaderDiagramError), "\n")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, diagram.NativeEngine{})
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/export", demoText(t)).Code)

	rr := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `designdoc_exports_total{outcome="ok"} 1`)
}

func TestBodyTooLarge(t *testing.T) {
	big := "purpose: " + strings.Repeat("x", MaxBodyBytes) + "\n"
	rr := do(newTestServer(t, nil), http.MethodPost, "/api/dot", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHeaderValue(t *testing.T) {
	assert.Equal(t, "a b c", headerValue("a\nb\t\tc\r\n"))
}
