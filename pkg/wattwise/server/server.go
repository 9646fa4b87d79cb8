package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/catalog"
	"github.com/gridlens/wattwise/pkg/wattwise/query"
	"github.com/gridlens/wattwise/pkg/wattwise/store"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// Server hosts the dashboard-facing HTTP API. The pure computation has no
// timeout; the request timeout bounds the store access inside each query.
type Server struct {
	svc     *query.Service
	router  *mux.Router
	timeout time.Duration
}

// New builds a server with all routes registered.
func New(svc *query.Service, timeout time.Duration, metricsEnabled bool) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Server{
		svc:     svc,
		router:  mux.NewRouter(),
		timeout: timeout,
	}
	s.routes(metricsEnabled)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(metricsEnabled bool) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/forecast", s.handleForecast).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/chart", s.handleChart).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/summary", s.handleSummary).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/workloads", s.handleSubmitWorkload).Methods(http.MethodPost)
	if metricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleForecast implements:
//
//	GET /api/v1/forecast?granularity=day&ownerId=...&zoneId=...&windowDays=30&periodsAhead=7
//
// An empty ledger yields 200 with zero-filled buckets, never an error, so
// the dashboard can distinguish "no data yet" from a failing backend.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.svc.Forecast(ctx, req)
	if err != nil {
		klog.ErrorS(err, "Forecast query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChart implements:
//
//	GET /api/v1/chart?metric=energy&granularity=day&...
//
// returning one row per period across the combined window.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metric, err := parseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.svc.Forecast(ctx, req)
	if err != nil {
		klog.ErrorS(err, "Chart query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rows := query.FormatChart(resp.AggregatedHistorical, resp.Forecasts[metric], metric)
	writeJSON(w, http.StatusOK, rows)
}

// handleSummary returns the per-metric KPI reductions for the scope.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.svc.Forecast(ctx, req)
	if err != nil {
		klog.ErrorS(err, "Summary query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp.Summary)
}

// handleSubmitWorkload implements:
//
//	POST /api/v1/workloads
//
// with a JSON SubmitRequest body. Unknown workload types are a client
// error, not a server failure.
func (s *Server) handleSubmitWorkload(w http.ResponseWriter, r *http.Request) {
	var req query.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rec, err := s.svc.SubmitWorkload(ctx, req)
	if err != nil {
		var unknownType *catalog.UnknownWorkloadTypeError
		if errors.As(err, &unknownType) {
			http.Error(w, unknownType.Error(), http.StatusBadRequest)
			return
		}
		klog.ErrorS(err, "Workload submission failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func parseRequest(r *http.Request) (query.Request, error) {
	q := r.URL.Query()
	req := query.Request{
		Scope: store.Scope{
			OwnerID: q.Get("ownerId"),
			ZoneID:  q.Get("zoneId"),
		},
	}

	switch g := q.Get("granularity"); g {
	case "", string(types.GranularityDay):
		req.Granularity = types.GranularityDay
	case string(types.GranularityWeek):
		req.Granularity = types.GranularityWeek
	case string(types.GranularityMonth):
		req.Granularity = types.GranularityMonth
	default:
		return req, fmt.Errorf("invalid granularity %q, must be day, week, or month", g)
	}

	var err error
	if req.HistoricalWindowDays, err = parseIntParam(q.Get("windowDays")); err != nil {
		return req, fmt.Errorf("invalid windowDays: %v", err)
	}
	if req.PeriodsAhead, err = parseIntParam(q.Get("periodsAhead")); err != nil {
		return req, fmt.Errorf("invalid periodsAhead: %v", err)
	}
	return req, nil
}

func parseIntParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

func parseMetric(v string) (types.Metric, error) {
	switch v {
	case "", string(types.MetricEnergy):
		return types.MetricEnergy, nil
	case string(types.MetricCost):
		return types.MetricCost, nil
	case string(types.MetricCarbon):
		return types.MetricCarbon, nil
	default:
		return "", fmt.Errorf("invalid metric %q, must be energy, cost, or carbon", v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.V(2).InfoS("Failed to encode response", "error", err)
	}
}
