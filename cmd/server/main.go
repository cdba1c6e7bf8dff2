// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/app"
	"github.com/unclebandit/campaign-mailer/internal/config"
	"github.com/unclebandit/campaign-mailer/internal/controller"
	"github.com/unclebandit/campaign-mailer/internal/handler"
	"github.com/unclebandit/campaign-mailer/internal/logger"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/queue"
	"github.com/unclebandit/campaign-mailer/internal/scheduler"
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
		zl.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
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

	// Without a broker, queued sends run on an in-process worker.
	if _, inProcess := q.(*queue.InMemoryQueue); inProcess {
		jobs := make(chan model.DispatchJob, 16)
		if err := queue.StartCampaignSendSubscriber(q, jobs, zl); err != nil {
			return fmt.Errorf("subscribe to %s: %w", queue.CampaignSendsTopic, err)
		}
		go service.NewWorker(a.Campaigns, jobs, zl).Start(ctx)
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler.Spec, a.Campaigns, zl)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	previews := cache.New(cfg.Server.PreviewCacheTTL, 2*cfg.Server.PreviewCacheTTL)
	validate := validator.New()

	router := handler.NewRouter(handler.Routes{
		Campaigns: &controller.CampaignController{
			CampaignService: a.Campaigns,
			Previews:        previews,
			Validate:        validate,
			Logger:          zl,
		},
		Details:           handler.NewCampaignHandler(a.Campaigns, zl),
		Templates:         &handler.TemplateHandler{Service: a.Templates, Validate: validate, Previews: previews},
		Metrics:           a.Metrics,
		Logger:            zl,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("Server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
