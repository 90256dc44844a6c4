package server

import (
	"encoding/json"
	"net/http"

	"github.com/matst80/slask-filter/pkg/facets"
	"github.com/matst80/slask-filter/pkg/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	productQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskfilter_product_queries_total",
		Help: "The total number of filtered product queries",
	})
	countRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskfilter_count_requests_total",
		Help: "The total number of facet count requests",
	})
)

type countsResponse struct {
	Counts facets.CountMap `json:"counts"`
}

// Products runs the filtered listing query and returns one page of
// results.
func (ws *WebServer) Products(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
	cfg := ws.Store.Current()
	req, err := request.FromHTTP(cfg, r)
	if err != nil {
		// A malformed request still yields a valid, less filtered
		// query, worse-than-unfiltered results are never returned.
		req.Sanitize()
	}
	productQueries.Inc()
	spec := ws.Processor.BuildQuery(r.Context(), cfg, req)
	result, err := ws.Executor.Search(r.Context(), spec)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return err
	}
	return enc.Encode(result)
}

// Counts returns the per-option product counts for every configured
// filter given the current selection.
func (ws *WebServer) Counts(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
	cfg := ws.Store.Current()
	if !cfg.Settings.ShowCounts {
		return enc.Encode(countsResponse{Counts: facets.CountMap{}})
	}
	req, err := request.FromHTTP(cfg, r)
	if err != nil {
		req.Sanitize()
	}
	countRequests.Inc()
	counts := ws.Calculator.Calculate(r.Context(), cfg, req)
	return enc.Encode(countsResponse{Counts: counts})
}
