// Command stocktake maintains a product catalogue, runs barcode scanning
// sessions that build an order and reports on order history.
//
// Storage and blob backends are chosen through STOCKTAKE_* environment
// variables; see core.OpenPersistentStore and blob.Open.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"stocktake/internal/blob"
	"stocktake/internal/core"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const usage = `usage: stocktake [flags] <command> [args]

commands:
  catalogue list|search|add|edit|delete|import
  scan          interactive scanning session on stdin
  report        aggregate order quantities [-from -to -q -all -json]
  last-order    show the most recent order
  exports       list exported order files
`

var (
	exitFunc  = os.Exit
	openStore = core.OpenPersistentStore
	openBlobs = blob.Open
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

type app struct {
	svc    *core.Service
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stderr, format, args...)
}

func cli(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stocktake", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = io.WriteString(stderr, usage)
		fs.PrintDefaults()
	}
	var (
		logLevel    string
		metricsAddr string
		trace       bool
	)
	fs.StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /debug/vars on this address while the command runs")
	fs.BoolVar(&trace, "trace", false, "write JSON trace spans to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid -log-level %q\n", logLevel)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	store, err := openStore()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open storage: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()
	blobs, err := openBlobs(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open blob store: %v\n", err)
		return 1
	}

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger}),
		core.WithBlobStore(blobs),
	}
	if trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	var handler http.Handler
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "metrics: %v\n", err)
			return 1
		}
		opts = append(opts, core.WithMetricsRecorder(core.MultiMetricsRecorder{prom, core.NewExpvarMetricsRecorder("")}))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.Handle("/debug/vars", expvar.Handler())
		handler = mux
	}

	a := &app{
		svc:    core.NewService(store, opts...),
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	if handler == nil {
		return a.dispatch(ctx, fs.Args())
	}
	return a.withMetricsServer(ctx, metricsAddr, handler, fs.Args())
}

// withMetricsServer runs the command while serving handler on addr. The
// server shuts down once the command returns.
func (a *app) withMetricsServer(ctx context.Context, addr string, handler http.Handler, args []string) int {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.errorf("metrics listen: %v\n", err)
		return 1
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	a.logger.Info("serving metrics", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	code := 0
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		code = a.dispatch(gctx, args)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		a.errorf("%v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

func (a *app) dispatch(ctx context.Context, args []string) int {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "catalogue", "catalog":
		return a.catalogue(ctx, rest)
	case "scan":
		return a.scan(ctx, rest)
	case "report":
		return a.report(ctx, rest)
	case "last-order":
		return a.lastOrder(ctx, rest)
	case "exports":
		return a.exports(ctx, rest)
	case "help", "-h", "--help":
		_, _ = io.WriteString(a.stdout, usage)
		return 0
	default:
		a.errorf("unknown command %q\n%s", cmd, usage)
		return 2
	}
}

// fail prints err and returns the exit status for a failed operation.
func (a *app) fail(err error) int {
	a.errorf("error: %v\n", err)
	return 1
}
