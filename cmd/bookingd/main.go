package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fjod/go_booking/internal/config"
	"github.com/fjod/go_booking/internal/consumer"
	bookinggrpc "github.com/fjod/go_booking/internal/grpc"
	bookinghttp "github.com/fjod/go_booking/internal/http"
	"github.com/fjod/go_booking/internal/persist"
	"github.com/fjod/go_booking/internal/publisher"
	"github.com/fjod/go_booking/internal/service"
	"github.com/fjod/go_booking/internal/session"
	"github.com/fjod/go_booking/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "bookingd",
		Usage: "venue booking session engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file read before the environment",
				EnvVars: []string{"BOOKING_ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "purge",
				Usage:  "delete the persisted session",
				Action: purge,
			},
			{
				Name:   "inspect",
				Usage:  "print the persisted session as JSON",
				Action: inspect,
			},
			{
				Name:      "set-status",
				Usage:     "move a booking to a new status through a running bookingd",
				ArgsUsage: "<booking-id> <upcoming|completed|cancelled>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: "localhost:9090",
						Usage: "staff gRPC address",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 5 * time.Second,
					},
				},
				Action: setStatus,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by all commands.
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func persistOptions(cfg *config.Config) persist.Options {
	return persist.Options{
		Key:          cfg.Persist.Key,
		WriteTimeout: cfg.Persist.WriteTimeout,
	}
}

func serve(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	var (
		pub       service.EventPublisher = service.NopPublisher()
		events    *publisher.Publisher
		workersWG sync.WaitGroup
	)
	workersCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Kafka.Enabled() {
		events = publisher.NewPublisher(log, cfg.Kafka.EventsTopic, cfg.Kafka.BufferSize, cfg.Kafka.Brokers...)
		pub = events
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			events.Run(workersCtx)
		}()
		log.Info("publishing booking events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EventsTopic))
	}

	sess := session.New(storage, pub, log, persistOptions(cfg))
	if err := sess.Init(ctx); err != nil {
		return err
	}

	var statusConsumer *consumer.StatusConsumer
	if cfg.Kafka.Enabled() {
		statusConsumer = consumer.NewStatusConsumer(sess.History, log, cfg.Kafka.StatusTopic, cfg.Kafka.ConsumerGroup, cfg.Kafka.Brokers...)
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			statusConsumer.Run(ctx)
		}()
		log.Info("consuming status updates", zap.String("topic", cfg.Kafka.StatusTopic))
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: bookinghttp.NewRouter(sess, log, bookinghttp.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 2)
	go func() {
		log.Info("bookingd starting", zap.String("port", cfg.HTTPPort), zap.String("backend", cfg.Persist.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var staffServer *bookinggrpc.Server
	if cfg.GRPCPort != "" {
		staffServer = bookinggrpc.NewServer(bookinggrpc.NewStaffHandler(sess.History, sess.AdminAuth, log), log)
		go func() {
			lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				serverErr <- fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GRPCPort, err)
				return
			}
			if err := staffServer.Serve(lis); err != nil {
				serverErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-serverErr:
	}

	// Graceful shutdown
	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if staffServer != nil {
		staffServer.Stop()
	}
	if statusConsumer != nil {
		statusConsumer.Close()
	}
	if err := sess.Dispose(shutdownCtx); err != nil {
		log.Error("failed to dispose session", zap.Error(err))
	}

	// publisher stops last, Dispose may still publish
	cancelWorkers()
	workersWG.Wait()
	if events != nil {
		if err := events.Close(); err != nil {
			log.Warn("error closing kafka writer", zap.Error(err))
		}
		log.Info("publisher stopped", zap.Int64("dropped", events.Dropped()), zap.Int64("failed", events.Failed()))
	}

	log.Info("server exited")
	return err
}

func purge(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	storage, err := openStorage(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	sess := session.New(storage, service.NopPublisher(), log, persistOptions(cfg))
	if err := sess.Init(c.Context); err != nil {
		return err
	}
	before := sess.Persistor().Failures()
	if err := sess.Purge(c.Context); err != nil {
		return err
	}
	if sess.Persistor().Failures() > before {
		sess.Dispose(c.Context)
		return fmt.Errorf("blob %q could not be deleted", cfg.Persist.Key)
	}
	log.Info("session purged", zap.String("key", cfg.Persist.Key))
	return sess.Dispose(c.Context)
}

func inspect(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	storage, err := openStorage(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	p := persist.NewPersistor(storage, log, persistOptions(cfg))
	st := p.Rehydrate(c.Context)

	payload, err := persist.Encode(st)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		return fmt.Errorf("indent state: %w", err)
	}
	fmt.Fprintln(c.App.Writer, out.String())
	return nil
}

func setStatus(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <booking-id> <status>, got %d arguments", c.NArg())
	}
	conn, err := grpc.NewClient(c.String("addr"), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.String("addr"), err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	resp, err := bookinggrpc.NewStaffClient(conn).SetStatus(ctx, &bookinggrpc.SetStatusRequest{
		BookingID: c.Args().Get(0),
		Status:    c.Args().Get(1),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s %s changed=%t\n", resp.Booking.ID, resp.Booking.Status, resp.Changed)
	return nil
}
