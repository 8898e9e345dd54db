package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"rbindex/api/grpcserver"
	"rbindex/config"
	"rbindex/domain/rbtree"
	"rbindex/infra/codec"
	"rbindex/infra/kafka"
	"rbindex/infra/outbox"
	"rbindex/infra/sequence"
	"rbindex/jobs/broadcaster"
	"rbindex/service"
)

// publisherRetries bounds broker connection attempts at startup.
var publisherRetries uint64 = 8

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the index behind a gRPC server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("grpc-addr", ":50051", "gRPC listen address")
	flags.String("metrics-addr", ":9090", "prometheus listen address, empty to disable")
	flags.Bool("unique-keys", false, "reject duplicate keys")
	flags.Bool("verify", false, "check tree invariants after every mutation")
	flags.String("outbox-dir", "./outbox", "pebble directory for undelivered change events")
	flags.Bool("outbox-in-memory", false, "keep the outbox in memory")
	flags.String("format", "proto", "change event encoding: json or proto")
	flags.String("broker-driver", config.DriverLog, "none, log, sarama or kafka-go")
	flags.StringSlice("brokers", []string{"localhost:9092"}, "kafka bootstrap brokers")
	flags.String("topic", "rbindex.changes", "kafka topic for change events")

	for key, flag := range map[string]string{
		"server.grpc-addr":    "grpc-addr",
		"server.metrics-addr": "metrics-addr",
		"index.unique-keys":   "unique-keys",
		"index.verify":        "verify",
		"outbox.dir":          "outbox-dir",
		"outbox.in-memory":    "outbox-in-memory",
		"outbox.format":       "format",
		"broker.driver":       "broker-driver",
		"broker.brokers":      "brokers",
		"broker.topic":        "topic",
	} {
		mustBind(flags, key, flag)
	}

	RootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) (err error) {
	logger := log.StandardLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var opts []rbtree.Option
	if cfg.Index.UniqueKeys {
		opts = append(opts, rbtree.WithUniqueKeys())
	}

	ser, err := codec.ForName(cfg.Outbox.Format)
	if err != nil {
		return err
	}
	deps := service.Deps{
		Sequencer:  sequence.New(0),
		Serializer: ser,
		Metrics:    service.NewMetrics(reg),
		Log:        logger,
	}

	var bc *broadcaster.Broadcaster
	if cfg.Broker.Driver != config.DriverNone {
		var ob *outbox.Outbox
		ob, err = outbox.Open(outbox.Options{
			Dir:      cfg.Outbox.Dir,
			InMemory: cfg.Outbox.InMemory,
			NoSync:   cfg.Outbox.NoSync,
		})
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, ob.Close()) }()

		// Numbering continues after the highest sequence the outbox has ever
		// stored, including events already delivered and deleted.
		if deps.Sequencer, err = sequence.Restore(ob); err != nil {
			return err
		}
		deps.Journal = ob

		var pub broadcaster.Publisher
		if pub, err = newPublisher(ctx, cfg.Broker, ser); err != nil {
			return err
		}
		bc = broadcaster.New(ob, pub, broadcaster.Config{
			Interval:   cfg.Broker.Interval,
			MaxRetries: cfg.Broker.MaxRetries,
		}, logger)
		defer func() { err = multierr.Append(err, bc.Close()) }()
	}

	svc := service.NewIndexService(rbtree.New[int64](opts...), deps, cfg.Index.Verify)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.Server.GRPCAddr)
	}
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(logger)))
	grpcserver.RegisterIndexServer(grpcSrv, grpcserver.NewServer(svc))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", lis.Addr().String()).Info("grpc server listening")
		return grpcSrv.Serve(lis)
	})

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.WithField("addr", metricsSrv.Addr).Info("metrics server listening")
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if bc != nil {
		g.Go(func() error { return bc.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

func newPublisher(ctx context.Context, cfg config.BrokerConfig, ser codec.Serializer) (broadcaster.Publisher, error) {
	if cfg.Driver == config.DriverLog {
		return broadcaster.LogPublisher{Log: log.WithField("component", "publisher"), Serializer: ser}, nil
	}

	var pub kafka.Publisher
	op := func() error {
		var err error
		pub, err = kafka.NewPublisher(cfg.Driver, cfg.Brokers, cfg.Topic)
		if errors.Is(err, kafka.ErrUnknownDriver) {
			return backoff.Permanent(err)
		}
		if err != nil {
			log.WithError(err).Warn("broker not ready")
		}
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), publisherRetries),
		ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s publisher", cfg.Driver)
	}
	return pub, nil
}
