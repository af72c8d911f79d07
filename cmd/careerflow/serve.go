package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"careerflow/internal/api"
	"careerflow/internal/application/service"
	"careerflow/internal/application/session"
	"careerflow/internal/application/submit"
	cfaws "careerflow/internal/common/aws"
	"careerflow/internal/common/config"
	httpclient "careerflow/internal/common/http"
	"careerflow/internal/common/logger"
	"careerflow/internal/common/observability"
	"careerflow/internal/notify"
	"careerflow/internal/store"
)

const sweepInterval = time.Minute

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the application API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	ctx := cmd.Context()
	obs := observability.New(cfg.App.Name, log)
	defer func() { _ = obs.Shutdown(context.Background()) }()

	checks := map[string]api.HealthCheck{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	// --- Sessions ---
	var (
		sessions session.Store
		memory   *session.MemoryStore
	)
	ttl := config.GetDuration(cfg.Session.TTL)
	switch cfg.Session.Store {
	case "redis":
		rdb, err := connectRedis(ctx, cfg.Database.Redis, log)
		if err != nil {
			return err
		}
		closers = append(closers, rdb.Close)
		checks["redis"] = rdb.Ping
		sessions = session.NewRedisStore(rdb.Client, rdb.KeyPrefix(), ttl, config.GetDuration(cfg.Session.SubmitLockTTL))
	default:
		memory = session.NewMemoryStore(ttl)
		sessions = memory
	}

	// --- Postgres repositories ---
	deps := service.Deps{Store: sessions, Metrics: obs}
	outreachDeps := service.OutreachDeps{}
	var recorder notify.Recorder
	if cfg.Database.Postgres.Enabled {
		pg, err := connectPostgres(ctx, cfg.Database.Postgres, log)
		if err != nil {
			return err
		}
		closers = append(closers, pg.Close)
		checks["postgres"] = pg.Ping

		deps.Jobs = store.NewJobRepository(pg.DB)
		deps.Records = store.NewApplicationRepository(pg.DB, log)
		outreachDeps.Contacts = store.NewContactRepository(pg.DB)
		outreachDeps.Subscribers = store.NewSubscriberRepository(pg.DB)
		recorder = store.NewNotificationRepository(pg.DB)
	}

	// --- Notifications ---
	var (
		email notify.EmailSender
		sms   notify.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := cfaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		if cfg.Notifications.Email.Enabled {
			email = cfaws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			sms = cfaws.NewSNSClient(awsCfg)
		}
	}
	notifier := notify.New(notify.Config{
		EmailEnabled:   cfg.Notifications.Email.Enabled,
		SMSEnabled:     cfg.Notifications.SMS.Enabled,
		RecruiterPhone: cfg.Notifications.SMS.RecruiterPhone,
	}, email, sms, recorder, log)
	deps.Notifier = notifier
	outreachDeps.Notifier = notifier

	// --- Webhooks ---
	client := httpclient.NewClient(config.GetDuration(cfg.Submission.Timeout))
	deps.Submitter = submit.NewWebhook(cfg.Submission.WebhookURL, client, log)
	outreachDeps.ContactForwarder = submit.NewForwarder(cfg.Submission.ContactWebhookURL, client)
	outreachDeps.NewsletterForward = submit.NewForwarder(cfg.Submission.SubscribeWebhookURL, client)

	apps := service.New(service.Config{ConfirmationRoute: cfg.Submission.ConfirmationRoute}, deps, log)
	outreach := service.NewOutreach(outreachDeps, log)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := api.New(api.Config{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		AllowedOrigin:   cfg.Server.AllowedOrigin,
		MetricsPath:     metricsPath,
		RateLimitPerMin: cfg.Server.RateLimit.RequestsPerMinute,
		RateLimitBurst:  cfg.Server.RateLimit.Burst,
	}, apps, outreach, checks, log)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx)
	})
	if memory != nil {
		g.Go(func() error {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					if n := memory.Sweep(); n > 0 {
						log.Debug("expired sessions removed", map[string]interface{}{"count": n})
					}
				}
			}
		})
	}

	log.Info("CareerFlow started", map[string]interface{}{
		"addr":           cfg.Server.Addr(),
		"sessionStore":   cfg.Session.Store,
		"postgres":       cfg.Database.Postgres.Enabled,
		"webhookTimeout": client.Timeout().String(),
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("CareerFlow stopped", nil)
	return nil
}
