package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/arloliu/movetrace"
	mtgrpc "github.com/arloliu/movetrace/grpc"
	mthttp "github.com/arloliu/movetrace/http"
	"github.com/arloliu/movetrace/moves"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type probeOptions struct {
	url      string
	grpcAddr string
	moves    []string
	timeout  time.Duration

	grpcDialOpts []grpc.DialOption
}

func newProbeCmd() *cobra.Command {
	opts := probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send sample lookups to a running service",
		Long: `Send sample lookups to a running service and print the answers.

Each requested move is fetched over HTTP (and gRPC when --grpc is set), then the
full move list. Client spans are exported like the service's own spans; the
service starts a separate trace for every request it receives.

Examples:
  movetrace probe
  movetrace probe --url http://moves:1991/api/v1 --grpc moves:1992 --move windmill,headspin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tel, err := movetrace.Setup(ctx, cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("failed to set up telemetry: %w", err)
			}
			lc := cfg.GetLoggingConfig()
			tracer, err := tel.StartTracer(ctx, movetrace.WithLogger(newCLILogger(cmd.ErrOrStderr(), lc.Level)))
			if err != nil {
				_ = tel.Shutdown(ctx)
				return fmt.Errorf("failed to start tracer: %w", err)
			}

			probeErr := runProbe(ctx, cmd.OutOrStdout(), tracer, opts)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetServerConfig().ShutdownTimeout)
			defer cancel()

			return errors.Join(probeErr, tel.Shutdown(shutdownCtx))
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://127.0.0.1:1991/api/v1", "base URL of the HTTP API")
	cmd.Flags().StringVar(&opts.grpcAddr, "grpc", "", "gRPC target; empty skips the gRPC probe")
	cmd.Flags().StringSliceVar(&opts.moves, "move", []string{"windmill", "headspin"}, "moves to look up")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-request timeout")

	return cmd
}

// runProbe performs the lookups under one probe span. An unknown move is an
// answer, not a failure; transport and server errors are returned joined.
func runProbe(ctx context.Context, out io.Writer, tracer *movetrace.SDKTracer, opts probeOptions) error {
	ctx, span := tracer.StartSpan(ctx, "movetrace.probe")
	defer span.End()

	var errs []error

	hc := mthttp.NewClient(tracer.Provider(), nil, nil, mthttp.WithTimeout(opts.timeout))
	mc := mthttp.NewMovesClient(opts.url, hc)
	for _, name := range opts.moves {
		m, err := mc.GetMove(ctx, name)
		errs = appendResult(errs, report(out, "http", name, m, err))
	}
	all, err := mc.ListMoves(ctx)
	errs = appendResult(errs, reportList(out, "http", all, err))

	if opts.grpcAddr != "" {
		dialOpts := append([]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}, opts.grpcDialOpts...)

		c, err := mtgrpc.Dial(opts.grpcAddr, tracer.Provider(), nil, nil, dialOpts...)
		if err != nil {
			errs = append(errs, err)
		} else {
			for _, name := range opts.moves {
				callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
				m, err := c.GetMove(callCtx, name)
				cancel()
				errs = appendResult(errs, report(out, "grpc", name, m, err))
			}
			callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
			all, err := c.ListMoves(callCtx)
			cancel()
			errs = appendResult(errs, reportList(out, "grpc", all, err))
			_ = c.Close()
		}
	}

	fmt.Fprintf(out, "probe trace %s\n", span.SpanContext().TraceID())

	span.SetAttribute("probe.failures", len(errs))
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)

		return err
	}
	span.SetSuccess()

	return nil
}

func report(out io.Writer, transport, name string, m moves.Move, err error) error {
	switch {
	case errors.Is(err, moves.ErrNotFound):
		fmt.Fprintf(out, "%s %s: not found\n", transport, name)
		return nil
	case err != nil:
		fmt.Fprintf(out, "%s %s: error: %v\n", transport, name, err)
		return fmt.Errorf("%s lookup %q: %w", transport, name, err)
	default:
		fmt.Fprintf(out, "%s %s: %s (%s)\n", transport, name, m.Description, m.Type)
		return nil
	}
}

func reportList(out io.Writer, transport string, all map[string]moves.Move, err error) error {
	if err != nil {
		fmt.Fprintf(out, "%s list: error: %v\n", transport, err)
		return fmt.Errorf("%s list: %w", transport, err)
	}
	fmt.Fprintf(out, "%s list: %v\n", transport, slices.Sorted(maps.Keys(all)))

	return nil
}

func appendResult(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}

	return errs
}
