package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	abci "github.com/tendermint/tendermint/abci/types"
	"golang.org/x/net/netutil"

	"github.com/Nish0483/NFT-market/config"
	"github.com/Nish0483/NFT-market/libs/log"
)

// newOpsRouter serves the operational endpoints: Prometheus metrics and a
// health check reporting the last committed height.
func newOpsRouter(app abci.Application) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
	))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		info := app.Info(abci.RequestInfo{})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status  string `json:"status"`
			Height  int64  `json:"height"`
			Version string `json:"version"`
		}{"ok", info.LastBlockHeight, info.Version})
	})
	return r
}

// serveOps serves handler on the Prometheus listen address until ctx ends.
func serveOps(ctx context.Context, cfg *config.InstrumentationConfig, handler http.Handler, logger log.Logger) error {
	ln, err := net.Listen("tcp", cfg.PrometheusListenAddr)
	if err != nil {
		return err
	}
	if cfg.MaxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxOpenConnections)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("failed to shut down ops server", "err", err)
		}
	}()

	logger.Info("serving operational endpoints", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
