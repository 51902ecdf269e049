package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"proof-of-portfolio/internal/api"
	"proof-of-portfolio/internal/reporting"
	"proof-of-portfolio/internal/scheduler"
)

var (
	serveAddr      string
	serveSchedule  string
	serveReportDir string
	serveRate      float64
	serveBurst     int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API. With --schedule the snapshot is re-evaluated on a
cron schedule.

Endpoints:
  GET  /health              - Health check
  GET  /metrics             - Prometheus metrics
  POST /evaluate            - Evaluate a portfolio
  GET  /evaluations/{id}    - Stored evaluation
  GET  /commitments/{id}    - Stored commitment with paths

Example:
  pop serve --addr :8080
  pop serve --schedule "@every 1h" --report-dir reports/`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: $HTTP_ADDR)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "cron schedule for snapshot re-evaluation")
	serveCmd.Flags().StringVar(&serveReportDir, "report-dir", "", "write a report after each scheduled run")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 10, "POST /evaluate requests per second (0 disables limiting)")
	serveCmd.Flags().IntVar(&serveBurst, "burst", 20, "POST /evaluate burst size")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.rt.HTTPAddr
	}

	var limiter *rate.Limiter
	if serveRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(serveRate), serveBurst)
	}

	h := api.NewHandler(a.evaluator, a.evaluations, a.commitments, a.log)
	srv := api.NewServer(addr, a.log, api.NewRouter(h, a.log, a.metrics, limiter))

	if serveSchedule != "" {
		sched := scheduler.New(a.log, scheduler.Options{MaxRetries: 2, RetryDelay: 30 * time.Second})
		job := &scheduler.SnapshotEvaluation{
			Path:        snapshotPath,
			Cron:        serveSchedule,
			Evaluator:   a.evaluator,
			Options:     scoreOptions(),
			Parallelism: a.rt.Parallelism,
			Reports:     reporting.NewGenerator(a.evaluations, a.commitments),
			ReportDir:   serveReportDir,
			Logger:      a.log,
		}
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.rt.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
