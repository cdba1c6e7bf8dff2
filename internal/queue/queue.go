package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/model"
)

// CampaignSendsTopic carries DispatchJob payloads.
const CampaignSendsTopic = "campaign_sends"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers jobs to in-process subscribers with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(payload any) error
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		logger:     logger,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// WithBackoff sets the base delay between retries.
func (q *InMemoryQueue) WithBackoff(d time.Duration) *InMemoryQueue {
	q.backoff = d
	return q
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: q.maxRetries,
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			q.logger.Debug("Job processed", zap.String("topic", topic))
			return
		}

		job.RetryCount++
		q.logger.Warn("Job failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("Job permanently failed", zap.String("topic", topic), zap.Int("attempts", job.RetryCount))
			return
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// DecodeDispatchJob accepts the payload shapes the queues deliver: the job itself
// from the in-memory queue, or its JSON body from AMQP.
func DecodeDispatchJob(payload any) (model.DispatchJob, error) {
	switch p := payload.(type) {
	case model.DispatchJob:
		return p, nil
	case *model.DispatchJob:
		if p == nil {
			return model.DispatchJob{}, fmt.Errorf("nil dispatch job")
		}
		return *p, nil
	case []byte:
		var job model.DispatchJob
		if err := json.Unmarshal(p, &job); err != nil {
			return model.DispatchJob{}, fmt.Errorf("decode dispatch job: %w", err)
		}
		return job, nil
	default:
		return model.DispatchJob{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}

// HandleCampaignSends runs process for every decodable job on CampaignSendsTopic.
// The queue sees the job as handled only once process returns, so a broker
// acknowledges a delivery after the send has finished. Undecodable payloads are dropped.
func HandleCampaignSends(q Queue, process func(job model.DispatchJob) error, logger *zap.Logger) error {
	return q.Subscribe(CampaignSendsTopic, func(payload any) error {
		job, err := DecodeDispatchJob(payload)
		if err != nil {
			logger.Warn("Dropping invalid dispatch job", zap.Error(err))
			return nil
		}
		logger.Info("Dispatch job received", zap.String("campaign_id", job.CampaignID))
		return process(job)
	})
}

// StartCampaignSendSubscriber forwards every decodable job on CampaignSendsTopic to jobs.
// Jobs count as handled once they are on the channel.
func StartCampaignSendSubscriber(q Queue, jobs chan<- model.DispatchJob, logger *zap.Logger) error {
	return HandleCampaignSends(q, func(job model.DispatchJob) error {
		jobs <- job
		return nil
	}, logger)
}
