package queue

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/model"
)

func TestInMemoryQueue_PublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	err := q.Publish(CampaignSendsTopic, model.DispatchJob{CampaignID: "1"})
	assert.Error(t, err)
}

func TestInMemoryQueue_RetriesUntilSuccess(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop()).WithBackoff(time.Millisecond)
	var calls int32
	done := make(chan struct{})

	require.NoError(t, q.Subscribe("t", func(payload any) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))
	require.NoError(t, q.Publish("t", "x"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never succeeded")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInMemoryQueue_GivesUpAfterMaxRetries(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop()).WithBackoff(time.Millisecond)
	var calls int32
	require.NoError(t, q.Subscribe("t", func(payload any) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}))
	require.NoError(t, q.Publish("t", "x"))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 4 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDecodeDispatchJob(t *testing.T) {
	job := model.DispatchJob{
		CampaignID: "7",
		TemplateID: "2",
		ContactIDs: []string{"1", "3"},
		Sender:     model.SenderIdentity{Name: "Ann", Email: "ann@agency.test", Role: "Account Manager"},
	}
	body, err := json.Marshal(job)
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
		wantErr bool
	}{
		{"value", job, false},
		{"pointer", &job, false},
		{"json", body, false},
		{"bad json", []byte("{"), true},
		{"wrong type", 42, true},
		{"nil pointer", (*model.DispatchJob)(nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDispatchJob(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, job, got)
		})
	}
}

func TestStartCampaignSendSubscriber(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	jobs := make(chan model.DispatchJob, 1)
	require.NoError(t, StartCampaignSendSubscriber(q, jobs, zap.NewNop()))

	require.NoError(t, q.Publish(CampaignSendsTopic, model.DispatchJob{CampaignID: "9"}))

	select {
	case job := <-jobs:
		assert.Equal(t, "9", job.CampaignID)
	case <-time.After(2 * time.Second):
		t.Fatal("job not forwarded")
	}
}

// captureQueue keeps subscribed handlers so tests can deliver payloads directly,
// the way a broker consumer loop would before acking.
type captureQueue struct {
	handlers map[string]func(payload any) error
}

func (c *captureQueue) Publish(string, any) error { return nil }

func (c *captureQueue) Subscribe(topic string, handler func(payload any) error) error {
	if c.handlers == nil {
		c.handlers = map[string]func(payload any) error{}
	}
	c.handlers[topic] = handler
	return nil
}

func TestHandleCampaignSends_HandledAfterProcess(t *testing.T) {
	q := &captureQueue{}
	var processed []string
	fail := errors.New("campaign busy")
	require.NoError(t, HandleCampaignSends(q, func(job model.DispatchJob) error {
		processed = append(processed, job.CampaignID)
		if job.CampaignID == "2" {
			return fail
		}
		return nil
	}, zap.NewNop()))

	deliver := q.handlers[CampaignSendsTopic]
	require.NotNil(t, deliver)

	body, err := json.Marshal(model.DispatchJob{CampaignID: "1"})
	require.NoError(t, err)
	assert.NoError(t, deliver(body))
	assert.Equal(t, []string{"1"}, processed)

	body, err = json.Marshal(model.DispatchJob{CampaignID: "2"})
	require.NoError(t, err)
	assert.ErrorIs(t, deliver(body), fail)

	// undecodable payloads are dropped without reaching process
	assert.NoError(t, deliver([]byte("not json")))
	assert.Equal(t, []string{"1", "2"}, processed)
}
