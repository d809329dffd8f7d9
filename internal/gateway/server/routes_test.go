package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/archive"
	"tonide/internal/compiler"
	"tonide/internal/funcsrc"
	"tonide/internal/gateway/handler/rpc"
	"tonide/internal/gateway/repository/content"
	"tonide/internal/gateway/repository/projectstore"
	"tonide/internal/gateway/service/buildlog"
	"tonide/internal/gateway/service/project"
	"tonide/internal/metrics"
)

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hub := buildlog.New(10)
	parser := funcsrc.New()
	comp := compiler.Func(func(context.Context, compiler.Request) (compiler.Response, error) {
		return compiler.Response{Status: compiler.StatusOK}, nil
	})
	svc, err := project.New(project.Deps{
		Projects:  projectstore.New(""),
		Contents:  content.NewMemoryStore(),
		Compiler:  comp,
		Extractor: parser,
		Parser:    parser,
		Reporter:  hub,
		Metrics:   m,
	})
	require.NoError(t, err)
	return NewMux(Routes{
		Project:  rpc.NewProjectHandler(svc, hub, archive.DefaultLimits(), nil),
		BuildLog: rpc.NewBuildLogHandler(hub, nil),
		Gatherer: reg,
		Metrics:  m,
	})
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	mux := newTestMux(t)
	req := httptest.NewRequest(http.MethodOptions, "/"+rpc.ProjectServiceName+"/ListProjects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConnectRouteAndMetrics(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/"+rpc.ProjectServiceName+"/ListProjects", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"projects":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `route="/tonide.v1.ProjectService/ListProjects"`), text)
	assert.Contains(t, text, `route="other"`)
}
