package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

// MockDispatcher records what the worker asked for
type MockDispatcher struct {
	mu         sync.Mutex
	contacts   map[string]model.Contact
	sent       [][]model.Contact
	resolveErr error
	done       chan struct{}
}

func (m *MockDispatcher) ResolveRecipients(_ context.Context, ids []string) ([]model.Contact, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	out := []model.Contact{}
	for _, id := range ids {
		out = append(out, m.contacts[id])
	}
	return out, nil
}

func (m *MockDispatcher) SendMassEmail(_ context.Context, _ string, recipients []model.Contact, _ string, _ model.SenderIdentity) (*model.SendResult, error) {
	m.mu.Lock()
	m.sent = append(m.sent, recipients)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return &model.SendResult{Success: len(recipients) > 0, SentCount: len(recipients)}, nil
}

func TestWorker_Process(t *testing.T) {
	d := &MockDispatcher{contacts: map[string]model.Contact{
		"1": {ID: "1", Email: "a@x.com", IsSubscribed: true},
		"2": {ID: "2", Email: "b@x.com", IsSubscribed: true},
	}}
	w := service.NewWorker(d, nil, zap.NewNop())

	res, err := w.Process(context.Background(), model.DispatchJob{CampaignID: "1", TemplateID: "1", ContactIDs: []string{"2", "1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SentCount)
	assert.Equal(t, "b@x.com", d.sent[0][0].Email)

	inline := []model.Contact{{ID: "9", Email: "inline@x.com", IsSubscribed: true}}
	_, err = w.Process(context.Background(), model.DispatchJob{CampaignID: "1", TemplateID: "1", ContactIDs: []string{"1"}, Recipients: inline})
	require.NoError(t, err)
	assert.Equal(t, inline, d.sent[1])

	d.resolveErr = errors.New("db down")
	_, err = w.Process(context.Background(), model.DispatchJob{CampaignID: "1", ContactIDs: []string{"1"}})
	assert.Error(t, err)
}

func TestWorker_Start(t *testing.T) {
	d := &MockDispatcher{done: make(chan struct{}, 1)}
	jobs := make(chan model.DispatchJob, 1)
	w := service.NewWorker(d, jobs, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	jobs <- model.DispatchJob{CampaignID: "1", Recipients: []model.Contact{{Email: "a@x.com"}}}
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
