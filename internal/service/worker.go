package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/model"
)

// Dispatcher defines the methods the worker needs
type Dispatcher interface {
	ResolveRecipients(ctx context.Context, contactIDs []string) ([]model.Contact, error)
	SendMassEmail(ctx context.Context, campaignID string, recipients []model.Contact, templateID string, sender model.SenderIdentity) (*model.SendResult, error)
}

// Worker runs queued dispatch jobs one at a time
type Worker struct {
	Dispatcher Dispatcher
	JobChan    <-chan model.DispatchJob
	Logger     *zap.Logger
}

// Constructor
func NewWorker(d Dispatcher, jobChan <-chan model.DispatchJob, logger *zap.Logger) *Worker {
	return &Worker{
		Dispatcher: d,
		JobChan:    jobChan,
		Logger:     logger,
	}
}

// Start processes jobs until the channel closes or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			if _, err := w.Process(ctx, job); err != nil {
				w.Logger.Error("Dispatch job failed", zap.String("campaign_id", job.CampaignID), zap.Error(err))
			}
		}
	}
}

// Process sends one job. Inline recipients win over contact ids.
func (w *Worker) Process(ctx context.Context, job model.DispatchJob) (*model.SendResult, error) {
	recipients := job.Recipients
	if len(recipients) == 0 && len(job.ContactIDs) > 0 {
		var err error
		recipients, err = w.Dispatcher.ResolveRecipients(ctx, job.ContactIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve recipients: %w", err)
		}
	}

	result, err := w.Dispatcher.SendMassEmail(ctx, job.CampaignID, recipients, job.TemplateID, job.Sender)
	if err != nil {
		return nil, err
	}
	w.Logger.Info("Dispatch job finished",
		zap.String("campaign_id", job.CampaignID),
		zap.Bool("success", result.Success),
		zap.Int("sent", result.SentCount),
	)
	return result, nil
}
