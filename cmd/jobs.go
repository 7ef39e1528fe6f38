package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-payment-links/app/service"
	"github.com/vibast-solutions/ms-go-payment-links/config"
)

var (
	workerMode bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the expiry sweep (warnings then expirations)",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sweep",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.SweepInterval },
			func(s *service.PaymentLinkService, ctx context.Context) error {
				return s.RunSweep(ctx)
			},
		)
	},
}

var sweepWarningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "Send expiry warning emails for links approaching their deadline",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sweep_warnings",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.SweepInterval },
			func(s *service.PaymentLinkService, ctx context.Context) error {
				return s.RunWarningBatch(ctx)
			},
		)
	},
}

var sweepExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark overdue pending payments as expired and deactivate their links",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sweep_expire",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.SweepInterval },
			func(s *service.PaymentLinkService, ctx context.Context) error {
				return s.RunExpireBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.AddCommand(sweepWarningsCmd)
	sweepCmd.AddCommand(sweepExpireCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.PaymentLinkService, ctx context.Context) error,
) {
	cfg, paymentService, cleanup := mustCreatePaymentLinkService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), paymentService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(paymentService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	paymentService *service.PaymentLinkService,
	fn func(s *service.PaymentLinkService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(paymentService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(paymentService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
