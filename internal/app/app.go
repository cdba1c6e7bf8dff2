// Package app wires configuration into repositories, transport and services.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/config"
	"github.com/unclebandit/campaign-mailer/internal/db"
	"github.com/unclebandit/campaign-mailer/internal/mailer"
	"github.com/unclebandit/campaign-mailer/internal/metrics"
	"github.com/unclebandit/campaign-mailer/internal/queue"
	"github.com/unclebandit/campaign-mailer/internal/repository"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *sql.DB
	Metrics   *metrics.Metrics
	Campaigns *service.CampaignService
	Templates *service.TemplateService
	Queue     queue.Queue
}

// Build connects storage and constructs the services. The queue is left nil;
// callers attach one with UseQueue.
func Build(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(nil)}

	var (
		campaignRepo repository.CampaignRepositoryInterface
		templateRepo repository.TemplateRepositoryInterface
		contactRepo  repository.ContactRepositoryInterface
		outboundRepo repository.OutboundMessageRepositoryInterface
	)

	switch cfg.Database.Driver {
	case "postgres":
		conn, err := db.Open(cfg.Database.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(conn); err != nil {
			conn.Close()
			return nil, err
		}
		a.DB = conn
		campaignRepo = repository.NewCampaignRepository(conn)
		templateRepo = repository.NewTemplateRepository(conn)
		contactRepo = repository.NewContactRepository(conn)
		outboundRepo = repository.NewOutboundMessageRepository(conn)
	default:
		campaignRepo = repository.NewMemoryCampaignRepository()
		templateRepo = repository.NewMemoryTemplateRepository()
		contactRepo = repository.NewMemoryContactRepository(DemoContacts()...)
		outboundRepo = repository.NewMemoryOutboundMessageRepository()
		logger.Info("Using in-memory storage")
	}

	limiter, err := cfg.Limiter()
	if err != nil {
		return nil, err
	}

	var transport mailer.Transport
	if cfg.Dispatch.Transport == "memory" {
		transport = mailer.NewMemoryTransport()
		logger.Warn("Using in-memory mail transport, no email leaves this process")
	} else {
		transport = mailer.NewSMTPTransport(cfg.SMTP, logger)
	}

	a.Templates = service.NewTemplateService(templateRepo, logger)
	a.Campaigns = &service.CampaignService{
		CampaignRepo: campaignRepo,
		TemplateRepo: templateRepo,
		ContactRepo:  contactRepo,
		OutboundRepo: outboundRepo,
		Transport:    transport,
		Limiter:      limiter,
		Envelope:     service.NewEnvelope(cfg.Branding),
		Attachments:  cfg.Attachments(),
		SenderRole:   cfg.Dispatch.SenderRole,
		StaleAfter:   cfg.Dispatch.StaleAfter,
		Metrics:      a.Metrics,
		Logger:       logger,
	}
	return a, nil
}

// Start seeds templates and pauses campaigns a previous process left in sending.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.Templates.SeedTemplates(ctx); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	if _, err := a.Campaigns.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconcile campaigns: %w", err)
	}
	return nil
}

// UseQueue attaches q as the dispatch queue.
func (a *App) UseQueue(q queue.Queue) {
	a.Queue = q
	a.Campaigns.Queue = q
}

// ConnectQueue returns an AMQP queue when AMQP_URL is set, otherwise an in-process one.
func (a *App) ConnectQueue() (queue.Queue, error) {
	if a.Config.AMQP.URL == "" {
		return queue.NewInMemoryQueue(a.Logger), nil
	}
	return queue.NewAMQPQueue(a.Config.AMQP.URL, a.Logger)
}

func (a *App) Close() error {
	if c, ok := a.Queue.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.Logger.Warn("Failed to close queue", zap.Error(err))
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
