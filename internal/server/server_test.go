package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowview/pkg/cache"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/observability"
	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/sankey"
)

const budget = `{
  "title": "Budget",
  "edges": [
    {"source": "A", "dest": "X", "qty": 10},
    {"source": "A", "dest": "Y", "qty": 5},
    {"source": "B", "dest": "X", "qty": 3}
  ],
  "names": {"A": "Alpha"}
}`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewMemoryCache(64), nil, logger)
	ts := httptest.NewServer(New(runner, logger, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDPropagates(t *testing.T) {
	ts := newTestServer(t)
	const id = "6f1c2a4e-8f5b-4c5e-9d7a-2b3c4d5e6f70"

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp2.Header.Get(RequestIDHeader))
}

func TestDiagramSVG(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/v1/diagrams", "application/json", budget)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Run-ID"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(body), `<path class="link"`))
	assert.Contains(t, string(body), "Alpha")

	again := post(t, ts.URL+"/api/v1/diagrams", "application/json", budget)
	assert.Equal(t, "hit", again.Header.Get("X-Cache"))
}

func TestDiagramJSON(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/v1/diagrams?format=json", "application/json", budget)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	d, err := sankey.UnmarshalDiagram(data)
	require.NoError(t, err)
	assert.Equal(t, 18.0, d.TotalFlow)
	assert.Len(t, d.Nodes, 4)
	assert.Len(t, d.Links, 3)
}

func TestDiagramDOT(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/v1/diagrams?format=dot", "application/json", budget)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))
}

func TestDiagramCSVBody(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/v1/diagrams?format=json", "text/csv; charset=utf-8", "A,X,10\nA,A,3\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Dropped-Edges"))
}

func TestDiagramErrors(t *testing.T) {
	ts := newTestServer(t, WithMaxBodyBytes(512))

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		status      int
		code        fverrors.Code
	}{
		{"malformed json", "/api/v1/diagrams", "application/json", "{", http.StatusBadRequest, fverrors.ErrCodeInvalidInput},
		{"unknown field", "/api/v1/diagrams", "application/json", `{"edges": [], "colour": "red"}`, http.StatusBadRequest, fverrors.ErrCodeInvalidInput},
		{"empty id", "/api/v1/diagrams", "application/json", `{"edges": [{"source": "", "dest": "X", "qty": 1}]}`, http.StatusBadRequest, fverrors.ErrCodeInvalidInput},
		{"bad format", "/api/v1/diagrams?format=gif", "application/json", budget, http.StatusBadRequest, fverrors.ErrCodeInvalidFormat},
		{"bad type", "/api/v1/diagrams?type=pie", "application/json", budget, http.StatusBadRequest, fverrors.ErrCodeInvalidVizType},
		{"bad theme", "/api/v1/diagrams", "application/json", `{"edges": [], "theme": {"primary": "blue"}}`, http.StatusBadRequest, fverrors.ErrCodeInvalidTheme},
		{"bad content type", "/api/v1/diagrams", "application/xml", "<edges/>", http.StatusBadRequest, fverrors.ErrCodeInvalidFormat},
		{"bad query flag", "/api/v1/diagrams?values=maybe", "application/json", budget, http.StatusBadRequest, fverrors.ErrCodeInvalidInput},
		{"too large", "/api/v1/diagrams", "text/csv", strings.Repeat("A,X,1\n", 200), http.StatusBadRequest, fverrors.ErrCodeInvalidInput},
		{"no route", "/api/v1/nothing", "application/json", "{}", http.StatusNotFound, fverrors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.contentType, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			detail := decodeError(t, resp)
			assert.Equal(t, tt.code, detail.Code, "message: %s", detail.Message)
			assert.NotEmpty(t, detail.RequestID)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/diagrams")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, fverrors.ErrCodeMethodNotAllowed, decodeError(t, resp).Code)
}

func TestHighlight(t *testing.T) {
	ts := newTestServer(t)
	withState := func(state string) string {
		return strings.TrimSuffix(strings.TrimSpace(budget), "}") + `, "state": ` + state + "}"
	}

	tests := []struct {
		name  string
		state string
		valid bool
		links []int
		nodes []string
	}{
		{"none", `{"kind": "none"}`, true, []int{0, 1, 2}, []string{"source:A", "source:B", "target:X", "target:Y"}},
		{"node A", `{"kind": "node", "node": "A"}`, true, []int{0, 1}, []string{"source:A"}},
		{"node X", `{"kind": "node", "node": "X"}`, true, []int{0, 2}, []string{"target:X"}},
		{"link", `{"kind": "link", "link": 1}`, true, []int{1}, []string{"source:A", "target:Y"}},
		{"missing link", `{"kind": "link", "link": 9}`, false, []int{}, []string{}},
		{"missing node", `{"kind": "node", "node": "Q"}`, false, []int{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/v1/highlight", "application/json", withState(tt.state))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var got highlightResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.valid, got.Valid)
			assert.ElementsMatch(t, tt.links, got.Links)
			assert.ElementsMatch(t, tt.nodes, got.Nodes)
			if tt.name == "link" {
				src, dst, ok := got.State.Endpoints()
				assert.True(t, ok)
				assert.Equal(t, []string{"A", "Y"}, []string{src, dst})
			}
		})
	}
}

func TestHighlightRejectsRawBody(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/v1/highlight", "text/csv", "A,X,1\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, fverrors.ErrCodeInvalidFormat, decodeError(t, resp).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	prom := observability.NewPrometheus()
	observability.SetHTTPHooks(prom)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, WithMetrics(prom.Handler()))
	post(t, ts.URL+"/api/v1/diagrams", "application/json", budget)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `flowview_http_requests_total{method="POST",route="/api/v1/diagrams",status="200"} 1`)
}

func TestMetricsAbsentWithoutHandler(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", time.Second, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
