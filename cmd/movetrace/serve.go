package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/movetrace"
	mtgrpc "github.com/arloliu/movetrace/grpc"
	mthttp "github.com/arloliu/movetrace/http"
	"github.com/arloliu/movetrace/internal/logging"
	"github.com/arloliu/movetrace/moves"
	mtnats "github.com/arloliu/movetrace/nats"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

type serveFlags struct {
	listen     string
	grpcListen string
	logLevel   string
}

// apply overrides cfg with the flags that were set.
func (f serveFlags) apply(cfg *movetrace.Config) {
	if cfg.Server == nil {
		cfg.Server = &movetrace.ServerConfig{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &movetrace.LoggingConfig{}
	}

	if f.listen != "" {
		cfg.Server.Addr = f.listen
	}
	if f.grpcListen != "" {
		cfg.Server.GRPCAddr = f.grpcListen
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the move lookup service",
		Long: `Start the move lookup service.

HTTP routes (under the configured base path, default /api/v1):
  GET /moves/{move}   a single move, 404 when unknown
  GET /moves          every move

The gRPC listener starts only when server.grpcAddr (or --grpc-listen) is set.
On SIGINT or SIGTERM the listeners drain and every queued span is flushed.

Examples:
  # Start with defaults
  movetrace serve

  # Export spans to the console and NATS
  OTEL_TRACES_EXPORTER=console,nats MOVETRACE_TELEMETRY_ENABLED=true movetrace serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			flags.apply(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return a.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&flags.listen, "listen", "l", "", "override HTTP listen address")
	cmd.Flags().StringVar(&flags.grpcListen, "grpc-listen", "", "override gRPC listen address")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	return cmd
}

// app is a wired service instance.
type app struct {
	server movetrace.ServerConfig
	tel    *movetrace.Telemetry
	tracer *movetrace.SDKTracer
	logger *slog.Logger

	http *http.Server
	grpc *grpc.Server
}

// newApp wires telemetry, logging, the move chain and both transports.
func newApp(ctx context.Context, cfg *movetrace.Config, logOut io.Writer, tracerOpts ...movetrace.TracerOption) (*app, error) {
	tel, err := movetrace.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	lc := cfg.GetLoggingConfig()
	logger := logging.New(logging.Options{
		Level:          lc.Level,
		Format:         lc.Format,
		Writer:         logOut,
		LoggerProvider: tel.LogProvider(),
	})

	opts := append([]movetrace.TracerOption{
		movetrace.WithLogger(logger),
		movetrace.WithExporterFactory("nats", mtnats.Factory()),
	}, tracerOpts...)

	tracer, err := tel.StartTracer(ctx, opts...)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to start tracer: %w", err)
	}

	var daoOpts []moves.Option
	if tel.MeterProvider != nil {
		daoOpts = append(daoOpts, moves.WithMeterProvider(tel.MeterProvider))
	}
	handler := moves.NewHandler(moves.NewDAO(moves.NewStaticStore(), tracer, daoOpts...), tracer)

	sc := cfg.GetServerConfig()
	httpSrv, err := mthttp.NewServer(handler, tracer,
		mthttp.WithBasePath(sc.BasePath),
		mthttp.WithGzip(sc.GzipEnabled()),
		mthttp.WithLogger(logger),
	).HTTPServer(sc.Addr)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build http server: %w", err)
	}

	a := &app{
		server: sc,
		tel:    tel,
		tracer: tracer,
		logger: logger,
		http:   httpSrv,
	}
	if sc.GRPCAddr != "" {
		a.grpc = mtgrpc.NewServer(handler, tracer, mtgrpc.WithLogger(logger))
	}

	logger.Info("movetrace configured",
		slog.String("service", cfg.Telemetry.GetServiceName()),
		slog.Any("exporters", tracer.Exporters()),
		slog.String("base_path", sc.BasePath),
		slog.Bool("gzip", sc.GzipEnabled()),
	)

	return a, nil
}

// run serves until ctx is done or a listener fails, then shuts down.
func (a *app) run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("http listening", slog.String("addr", a.server.Addr))
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpc != nil {
		lis, err := net.Listen("tcp", a.server.GRPCAddr)
		if err != nil {
			return errors.Join(fmt.Errorf("grpc listen %s: %w", a.server.GRPCAddr, err), a.shutdown())
		}
		go func() {
			a.logger.Info("grpc listening", slog.String("addr", lis.Addr().String()))
			if err := a.grpc.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case runErr = <-errCh:
		a.logger.Error("listener failed", slog.Any("error", runErr))
	}

	return errors.Join(runErr, a.shutdown())
}

// shutdown drains the listeners, then flushes telemetry.
func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if a.grpc != nil {
		a.stopGRPC(ctx)
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}

	a.logger.Info("movetrace stopped")

	return errors.Join(errs...)
}

// stopGRPC drains in-flight RPCs, forcing a stop when ctx expires.
func (a *app) stopGRPC(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.grpc.Stop()
		<-done
	}
}
