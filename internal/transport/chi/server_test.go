package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/domain"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/transport/backend"
	"github.com/kailas-cloud/modelsearch/internal/transport/dto"
	healthuc "github.com/kailas-cloud/modelsearch/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

// --- Mocks ---

type mockSearcher struct {
	items []item.Item
	err   error
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int) ([]item.Item, error) {
	return m.items, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Helpers ---

func dl(v int64) *int64 { return &v }

func fixture() []item.Item {
	return []item.Item{
		item.New("meta/llama-7b", []string{"llama", "gguf"}, dl(500), 0.3, "**7B** chat model"),
		item.New("meta/llama-13b", []string{"llama"}, dl(900), 0.1, ""),
		item.New("google/bert-base", []string{"fill-mask", "arxiv:1810.04805"}, dl(2000), 0.5, ""),
	}
}

func newTestServer(t *testing.T, searcher *mockSearcher, cache healthuc.Pinger) http.Handler {
	t.Helper()
	return newServerFor(t, searcher, cache)
}

func newServerFor(t *testing.T, searcher sessionuc.Searcher, cache healthuc.Pinger) http.Handler {
	t.Helper()
	sess := sessionuc.New(searcher, sessionuc.Config{})
	health := healthuc.New(map[string]healthuc.Pinger{"cache": cache})
	srv := NewServer(sess, health, "https://huggingface.co", zap.NewNop())
	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) dto.View {
	t.Helper()
	var v dto.View
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return e
}

func groupIDs(v dto.View) []string {
	var out []string
	for _, g := range v.Groups {
		for _, it := range g.Items {
			out = append(out, it.ID)
		}
	}
	return out
}

// --- Tests ---

func TestSearch_ReturnsGroupedView(t *testing.T) {
	h := newTestServer(t, &mockSearcher{items: fixture()}, nil)

	rr := do(t, h, http.MethodPost, "/search", `{"query":"llama"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	v := decodeView(t, rr)

	if v.Query != "llama" || v.Total != 3 {
		t.Errorf("query=%q total=%d", v.Query, v.Total)
	}
	if len(v.Groups) != 2 || v.Groups[0].BaseName != "meta/llama" || v.Groups[0].Size != 2 {
		t.Fatalf("groups = %+v", v.Groups)
	}
	stats := v.Groups[0].Stats
	if *stats.MinDownloads != 500 || *stats.MaxDownloads != 900 || stats.BestDistance != 0.1 {
		t.Errorf("stats = %+v", stats)
	}
	if !slices.Equal(v.Facets.AvailableTags, []string{"fill-mask", "gguf", "llama"}) {
		t.Errorf("facets = %v", v.Facets.AvailableTags)
	}
	if v.Filter.Downloads.High != 2000 || v.Filter.Sort != "relevance" || v.Filter.Limit != 40 {
		t.Errorf("filter = %+v", v.Filter)
	}
	first := v.Groups[0].Items[0]
	if first.ProfileURL != "https://huggingface.co/meta/llama-13b" {
		t.Errorf("profile url = %q", first.ProfileURL)
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		backendErr error
		wantStatus int
		wantCode   dto.ErrorCode
		wantMsg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, dto.ErrorCodeBadRequest, ""},
		{"empty query", `{"query":" "}`, nil, http.StatusBadRequest, dto.ErrorCodeEmptyQuery, "query is empty"},
		{
			"backend status", `{"query":"x"}`, domain.NewStatusError(503, "503 Service Unavailable"),
			http.StatusBadGateway, dto.ErrorCodeBackendError, "search failed: 503 Service Unavailable",
		},
		{
			"backend down", `{"query":"x"}`, errors.Join(domain.ErrBackendUnavailable, errors.New("dial tcp")),
			http.StatusBadGateway, dto.ErrorCodeBackendUnavailable, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &mockSearcher{err: tt.backendErr}, nil)
			rr := do(t, h, http.MethodPost, "/search", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			e := decodeErr(t, rr)
			if e.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", e.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && e.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", e.Message, tt.wantMsg)
			}
		})
	}
}

func TestSearch_FailureVisibleInView(t *testing.T) {
	h := newTestServer(t, &mockSearcher{err: domain.NewStatusError(500, "")}, nil)
	_ = do(t, h, http.MethodPost, "/search", `{"query":"x"}`)

	v := decodeView(t, do(t, h, http.MethodGet, "/view", ""))
	if v.Error != "search failed: 500" {
		t.Errorf("view error = %q", v.Error)
	}
	if v.Total != 0 {
		t.Errorf("total = %d, want 0", v.Total)
	}
}

func TestSearch_MalformedBackendBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	}))
	defer upstream.Close()

	client, err := backend.NewClient(backend.Config{URL: upstream.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	h := newServerFor(t, client, nil)

	rr := do(t, h, http.MethodPost, "/search", `{"query":"llama"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if e := decodeErr(t, rr); e.Code != dto.ErrorCodeBackendError {
		t.Errorf("code = %s, want %s", e.Code, dto.ErrorCodeBackendError)
	}

	v := decodeView(t, do(t, h, http.MethodGet, "/view", ""))
	if v.Error != domain.ErrBackendResponse.Error() {
		t.Errorf("view error = %q, want %q", v.Error, domain.ErrBackendResponse.Error())
	}
}

func TestFilters_Flow(t *testing.T) {
	h := newTestServer(t, &mockSearcher{items: fixture()}, nil)
	_ = do(t, h, http.MethodPost, "/search", `{"query":"llama"}`)

	v := decodeView(t, do(t, h, http.MethodPost, "/filters/tags/gguf/toggle", ""))
	if got := groupIDs(v); !slices.Equal(got, []string{"meta/llama-7b"}) {
		t.Errorf("after toggle = %v", got)
	}
	if len(v.Facets.AvailableTags) != 3 {
		t.Errorf("facets shrank: %v", v.Facets.AvailableTags)
	}

	_ = do(t, h, http.MethodPost, "/filters/tags/gguf/toggle", "")
	v = decodeView(t, do(t, h, http.MethodPut, "/filters/sort", `{"sort":"downloads-asc"}`))
	if got := groupIDs(v); !slices.Equal(got, []string{"meta/llama-7b", "meta/llama-13b", "google/bert-base"}) {
		t.Errorf("downloads-asc = %v", got)
	}

	v = decodeView(t, do(t, h, http.MethodPut, "/filters/downloads", `{"low":600}`))
	if v.Filter.Downloads.Low != 600 || v.Filter.Downloads.High != 2000 {
		t.Errorf("range = %+v", v.Filter.Downloads)
	}
	if v.Total != 2 {
		t.Errorf("total = %d, want 2", v.Total)
	}

	v = decodeView(t, do(t, h, http.MethodPut, "/filters/limit", `{"limit":1}`))
	if got := groupIDs(v); !slices.Equal(got, []string{"meta/llama-13b"}) {
		t.Errorf("limit 1 = %v", got)
	}

	rr := do(t, h, http.MethodPut, "/filters/limit", `{"limit":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("limit 0 status = %d", rr.Code)
	}
	if e := decodeErr(t, rr); e.Code != dto.ErrorCodeInvalidFilter || !strings.HasPrefix(e.Message, "invalid filter:") {
		t.Errorf("error = %+v", e)
	}

	rr = do(t, h, http.MethodPut, "/filters/downloads", `{"low":5000}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d", rr.Code)
	}

	v = decodeView(t, do(t, h, http.MethodDelete, "/filters", ""))
	if v.Total != 3 || v.Filter.Limit != 40 || v.Filter.Sort != "relevance" || len(v.Filter.SelectedTags) != 0 {
		t.Errorf("cleared = %+v total %d", v.Filter, v.Total)
	}
}

func TestSetSort_UnknownModeAccepted(t *testing.T) {
	h := newTestServer(t, &mockSearcher{items: fixture()}, nil)
	_ = do(t, h, http.MethodPost, "/search", `{"query":"llama"}`)

	rr := do(t, h, http.MethodPut, "/filters/sort", `{"sort":"stars"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	v := decodeView(t, rr)
	if got := groupIDs(v); !slices.Equal(got, []string{"meta/llama-7b", "meta/llama-13b", "google/bert-base"}) {
		t.Errorf("pass-through order = %v", got)
	}
}

func TestSelect(t *testing.T) {
	h := newTestServer(t, &mockSearcher{items: fixture()}, nil)
	_ = do(t, h, http.MethodPost, "/search", `{"query":"llama"}`)

	v := decodeView(t, do(t, h, http.MethodPut, "/selection", `{"id":"meta/llama-7b"}`))
	if v.Selected == nil || v.Selected.Description != "**7B** chat model" {
		t.Fatalf("selected = %+v", v.Selected)
	}
	if v.Selected.Relevance != 1-0.3 {
		t.Errorf("relevance = %f", v.Selected.Relevance)
	}

	rr := do(t, h, http.MethodPut, "/selection", `{"id":"nope"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown item status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer(t, &mockSearcher{}, &mockPinger{})
	if rr := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rr.Code)
	}

	h = newTestServer(t, &mockSearcher{}, &mockPinger{err: errors.New("down")})
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d", rr.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["cache"] != "error" {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, &mockSearcher{}, nil)
	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rr.Code)
	}
}
