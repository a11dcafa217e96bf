package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/filters/tags/{tag}/toggle", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tg := range []string{"llama", "gguf"} {
		req := httptest.NewRequest(http.MethodPost, "/filters/tags/"+tg+"/toggle", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/filters/tags/{tag}/toggle", "200"))
	if got < 2 {
		t.Errorf("requests_total = %f, want >= 2", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/view", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	r.Put("/filters/limit", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	tests := []struct {
		method, path, route, status string
	}{
		{http.MethodGet, "/view", "/view", "200"},
		{http.MethodPut, "/filters/limit", "/filters/limit", "400"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status)); v < 1 {
				t.Errorf("requests_total{%s %s %s} = %f", tc.method, tc.route, tc.status, v)
			}
		})
	}
}

func TestRouteLabel_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody)
	if got := routeLabel(req); got != "unmatched" {
		t.Errorf("routeLabel() = %q, want unmatched", got)
	}
}

func TestHandler_ExposesSearchMetrics(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics() // idempotent

	StaleResponsesTotal.Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "modelsearch_stale_responses_total") {
		t.Error("stale_responses_total missing from exposition")
	}
}
