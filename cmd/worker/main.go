package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/app"
	"github.com/unclebandit/campaign-mailer/internal/config"
	"github.com/unclebandit/campaign-mailer/internal/logger"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/queue"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("Worker stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	if cfg.AMQP.URL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(cfg, zl)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}

	q, err := a.ConnectQueue()
	if err != nil {
		return err
	}
	a.UseQueue(q)

	consumer := &jobConsumer{worker: service.NewWorker(a.Campaigns, nil, zl), logger: zl}
	if err := consumer.subscribe(q); err != nil {
		return err
	}

	zl.Info("Worker running, waiting for messages", zap.String("queue", queue.CampaignSendsTopic))
	<-ctx.Done()

	zl.Info("Worker stopping, waiting for the running job")
	consumer.drain()
	zl.Info("Worker exited")
	return nil
}

// jobConsumer runs queued sends one at a time. A delivery is only acknowledged
// after its send has finished.
type jobConsumer struct {
	mu     sync.Mutex
	worker *service.Worker
	logger *zap.Logger
}

func (c *jobConsumer) subscribe(q queue.Queue) error {
	if err := queue.HandleCampaignSends(q, c.handle, c.logger); err != nil {
		return fmt.Errorf("subscribe to %s: %w", queue.CampaignSendsTopic, err)
	}
	return nil
}

func (c *jobConsumer) handle(job model.DispatchJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.worker.Process(context.Background(), job); err != nil {
		c.logger.Error("Dispatch job failed", zap.String("campaign_id", job.CampaignID), zap.Error(err))
		return err
	}
	return nil
}

// drain waits for the running job and blocks later deliveries until the
// connection closes, which leaves them unacked for redelivery.
func (c *jobConsumer) drain() {
	c.mu.Lock()
}
