package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/creachadair/taskgroup"
	"github.com/spf13/cobra"

	"github.com/Nish0483/NFT-market/abci/app"
	"github.com/Nish0483/NFT-market/config"
	"github.com/Nish0483/NFT-market/internal/indexer"
	"github.com/Nish0483/NFT-market/internal/indexer/sink"
	"github.com/Nish0483/NFT-market/internal/market"
	"github.com/Nish0483/NFT-market/libs/log"
)

// AddNodeFlags exposes the options most often changed per deployment.
func AddNodeFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.Flags().String("chain_id", conf.ChainID, "chain the node serves")
	cmd.Flags().String("db_backend", conf.DBBackend, "database backend: goleveldb | memdb")
	cmd.Flags().String("db_dir", conf.DBPath, "database directory")

	cmd.Flags().String("abci.laddr", conf.ABCI.ListenAddress, "address the ABCI server listens on")
	cmd.Flags().String("abci.transport", conf.ABCI.Transport, "ABCI transport (socket | grpc)")

	cmd.Flags().Bool("market.auto_settle", conf.Market.AutoSettle, "settle expired auctions at the end of every block")
	cmd.Flags().String("market.excess_payment", conf.Market.ExcessPayment, "overpayment policy (reject | refund | keep)")

	cmd.Flags().StringSlice("indexer.sinks", conf.Indexer.Sinks, "event sinks (null | kv | psql | pubsub)")
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve /metrics and /healthz")
}

// MakeStartCommand returns the command that serves the marketplace until it
// receives SIGINT or SIGTERM.
func MakeStartCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"node", "run"},
		Short:   "Run the marketplace ABCI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runNode(ctx, conf, logger)
		},
	}
	AddNodeFlags(cmd, conf)
	return cmd
}

func runNode(ctx context.Context, conf *config.Config, logger log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineCfg, err := conf.Market.EngineConfig()
	if err != nil {
		return err
	}

	marketMetrics, indexerMetrics := market.NopMetrics(), indexer.NopMetrics()
	if conf.Instrumentation.Prometheus {
		marketMetrics = market.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.ChainID)
		indexerMetrics = indexer.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.ChainID)
	}

	sinks, err := sink.EventSinksFromConfig(conf, config.DefaultDBProvider)
	if err != nil {
		return fmt.Errorf("creating event sinks: %w", err)
	}
	running := false
	defer func() {
		if running {
			return
		}
		for _, s := range sinks {
			if err := s.Stop(); err != nil {
				logger.Error("failed to close eventsink", "eventsink", s.Type(), "err", err)
			}
		}
	}()
	is := indexer.NewService(indexer.ServiceArgs{
		Sinks:     sinks,
		Metrics:   indexerMetrics,
		Logger:    logger.With("module", "indexer"),
		QueueSize: conf.Indexer.QueueSize,
	})

	db, err := config.DefaultDBProvider(&config.DBContext{ID: "state", Config: conf})
	if err != nil {
		return err
	}
	defer db.Close()

	application, err := app.NewApplication(engineCfg, db,
		app.WithLogger(logger.With("module", "app")),
		app.WithMetrics(marketMetrics),
		app.WithIndexer(is),
		app.WithAutoSettle(conf.Market.AutoSettle),
	)
	if err != nil {
		return err
	}
	srv, err := app.NewServer(conf.ABCI.ListenAddress, conf.ABCI.Transport, application, logger.With("module", "abci-server"))
	if err != nil {
		return err
	}

	// The first task to fail stops the others.
	running = true
	g := taskgroup.New(taskgroup.Trigger(cancel))
	g.Go(func() error { return is.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if conf.Instrumentation.Prometheus {
		g.Go(func() error {
			return serveOps(ctx, conf.Instrumentation, newOpsRouter(application), logger.With("module", "ops"))
		})
	}
	logger.Info("started marketd",
		"chain_id", conf.ChainID,
		"abci", conf.ABCI.ListenAddress,
		"transport", conf.ABCI.Transport,
		"sinks", conf.Indexer.Sinks)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("stopped marketd", "err", err)
	return err
}
