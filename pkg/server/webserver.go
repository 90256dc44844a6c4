package server

import (
	"net/http"

	"github.com/matst80/slask-filter/pkg/common"
	"github.com/matst80/slask-filter/pkg/facets"
	"github.com/matst80/slask-filter/pkg/query"
	"github.com/matst80/slask-filter/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebServer exposes the filtered product listing and the facet counts
// over HTTP. Transport auth and rendering live outside this service.
type WebServer struct {
	Store      *storage.ConfigStore
	Processor  *query.Processor
	Calculator *facets.Calculator
	Executor   query.Executor
}

func (ws *WebServer) CreateHandler() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/products", common.JsonHandler(ws.Products))
	mux.HandleFunc("/api/counts", common.JsonHandler(ws.Counts))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
