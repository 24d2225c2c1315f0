package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/circuitdag/pkg/cache"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/graph"
	"github.com/matzehuels/circuitdag/pkg/pipeline"
)

const bellQASM = "qreg q[2];\ncreg c[2];\nh q[0];\ncx q[0], q[1];\nmeasure q -> c;\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logger := log.New(io.Discard)
	srv := httptest.NewServer(New(pipeline.NewRunner(fc, nil, logger), logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postConvert(t *testing.T, srv *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+"/v1/convert", "application/json", strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
	body := decode[HealthResponse](t, resp)
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestConvertJSON(t *testing.T) {
	srv := newTestServer(t)
	resp := postConvert(t, srv, map[string]any{"source": bellQASM, "name": "bell"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[ConvertResponse](t, resp)
	if body.Program != "bell" || body.CacheHit || body.RunID == "" {
		t.Errorf("body = %+v", body)
	}
	if body.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("request ID %q vs header %q", body.RequestID, resp.Header.Get(RequestIDHeader))
	}
	if body.Stats.Size != 4 || body.Stats.Depth != 3 {
		t.Errorf("stats = %+v", body.Stats)
	}
	g, err := graph.UnmarshalGraph(body.Graph)
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}
	if g.Name != "bell" || len(g.OpNodes()) != 4 {
		t.Errorf("graph %q with %d ops", g.Name, len(g.OpNodes()))
	}

	again := decode[ConvertResponse](t, postConvert(t, srv, map[string]any{"source": bellQASM, "name": "bell"}))
	if !again.CacheHit {
		t.Error("second request should hit the cache")
	}
}

func TestConvertText(t *testing.T) {
	srv := newTestServer(t)
	for _, output := range []string{"text", "TEXT", "Text"} {
		t.Run(output, func(t *testing.T) {
			resp := postConvert(t, srv, map[string]any{"source": bellQASM, "output": output})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			body := decode[ConvertResponse](t, resp)
			if body.Graph != nil {
				t.Errorf("graph should be omitted for text output")
			}
			if n := strings.Count(body.Schedule, "\n"); n != 4 {
				t.Errorf("schedule has %d lines:\n%s", n, body.Schedule)
			}
		})
	}
}

func TestConvertNameOverrideIsCachedSeparately(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"alpha", "beta"} {
		body := decode[ConvertResponse](t, postConvert(t, srv, map[string]any{"source": bellQASM, "name": name}))
		if body.CacheHit {
			t.Errorf("%s: served from another name's entry", name)
		}
		g, err := graph.UnmarshalGraph(body.Graph)
		if err != nil {
			t.Fatalf("UnmarshalGraph: %v", err)
		}
		if body.Program != name || g.Name != name {
			t.Errorf("program %q, graph name %q, want %q", body.Program, g.Name, name)
		}
	}
}

func TestConvertRequestIDPropagates(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/convert", strings.NewReader(`{"source": "qreg q[1];\nh q[0];"}`))
	req.Header.Set(RequestIDHeader, "trace-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "trace-42" {
		t.Errorf("header = %q", got)
	}
	if body := decode[ConvertResponse](t, resp); body.RequestID != "trace-42" {
		t.Errorf("body request ID = %q", body.RequestID)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   apperr.Code
	}{
		{"NotJSON", `source=x`, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"UnknownField", `{"source": "qreg q[1];", "layout": "tower"}`, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"MissingSource", `{}`, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
		{"BadFormat", `{"source": "qreg q[1];", "format": "quil"}`, http.StatusBadRequest, apperr.ErrCodeInvalidFormat},
		{"BadOwnership", `{"source": "qreg q[1];", "ownership": "lend"}`, http.StatusBadRequest, apperr.ErrCodeInvalidOwnership},
		{"Syntax", `{"source": "qreg q[1];\n@@@;"}`, http.StatusBadRequest, apperr.ErrCodeInvalidProgram},
		{"UnknownWire", `{"source": "qreg q[1];\nx q[7];"}`, http.StatusUnprocessableEntity, apperr.ErrCodeConversion},
		{"DuplicateWire", `{"source": "qreg q[2];\ncx q[1], q[1];"}`, http.StatusUnprocessableEntity, apperr.ErrCodeConversion},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/convert", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decode[ErrorBody](t, resp)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%s)", body.Error.Code, tt.wantCode, body.Error.Message)
			}
			if body.Error.Message == "" || body.RequestID == "" {
				t.Errorf("incomplete error body %+v", body)
			}
		})
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/convert")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/convert status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v2/convert")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d", resp.StatusCode)
	}
	if body := decode[ErrorBody](t, resp); body.Error.Code != apperr.ErrCodeNotFound {
		t.Errorf("code = %s", body.Error.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.ErrCodeInvalidProgram, "x"), http.StatusBadRequest},
		{apperr.New(apperr.ErrCodeConversion, "x"), http.StatusUnprocessableEntity},
		{fmt.Errorf("run: %w", apperr.New(apperr.ErrCodeFileNotFound, "x")), http.StatusNotFound},
		{apperr.New(apperr.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestInternalErrorsAreMasked(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, log.New(io.Discard)), log.New(io.Discard))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", nil)
	s.writeError(rec, req, errors.New("redis: connection pool exhausted"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != apperr.ErrCodeInternal || strings.Contains(body.Error.Message, "redis") {
		t.Errorf("body = %+v", body)
	}
}
