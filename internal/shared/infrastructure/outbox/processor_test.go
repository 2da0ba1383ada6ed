package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
	deleted      int
}

func (r *memoryRepository) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		msg.ID = int64(len(r.messages) + 1)
		r.messages = append(r.messages, msg)
	}
	return nil
}

func (r *memoryRepository) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *memoryRepository) find(id int64) *outbox.Message {
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (r *memoryRepository) MarkPublished(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishedIDs = append(r.publishedIDs, id)
	now := time.Now()
	r.find(id).PublishedAt = &now
	return nil
}

func (r *memoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedIDs = append(r.failedIDs, id)
	msg := r.find(id)
	msg.RetryCount++
	msg.LastError = &errMsg
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (r *memoryRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadIDs = append(r.deadIDs, id)
	now := time.Now()
	msg := r.find(id)
	msg.DeadLetteredAt = &now
	msg.DeadLetterReason = &reason
	return nil
}

func (r *memoryRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted++
	return 0, nil
}

func (r *memoryRepository) publishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.publishedIDs)
}

type recordingPublisher struct {
	mu          sync.Mutex
	routingKeys []string
	failForKeys map[string]bool
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{failForKeys: make(map[string]bool)}
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("broker unavailable")
	}
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.routingKeys)
}

func testMessage(routingKey string) *outbox.Message {
	payload, _ := json.Marshal(map[string]string{"session_id": uuid.NewString()})
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "Session",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       payload,
		CreatedAt:     time.Now().Add(-time.Second),
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newRecordingPublisher()
	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil).WithMetrics(metrics)

	require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{
		testMessage("scheduling.session.booked"),
		testMessage("scheduling.session.cancelled"),
	}))

	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 2, publisher.count())
	assert.Len(t, repo.publishedIDs, 2)

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
	assert.Greater(t, stats.LagSeconds, 0.0)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOutboxPublished,
		observability.T("routing_key", "scheduling.session.booked")))
}

func TestProcessor_ProcessOnce_PublishFailureSchedulesRetry(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newRecordingPublisher()
	publisher.failForKeys["scheduling.session.deleted"] = true
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	failing := testMessage("scheduling.session.deleted")
	require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{
		testMessage("scheduling.session.booked"),
		failing,
	}))

	before := time.Now()
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 1, publisher.count())
	assert.Equal(t, []int64{failing.ID}, repo.failedIDs)
	require.NotNil(t, failing.NextRetryAt)
	assert.True(t, failing.NextRetryAt.After(before))
	assert.Equal(t, 1, failing.RetryCount)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker unavailable", stats.LastError)

	// Not yet due, so the second pass skips it.
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Len(t, repo.failedIDs, 1)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newRecordingPublisher()
	publisher.failForKeys["scheduling.session.booked"] = true
	config := outbox.DefaultProcessorConfig()
	config.MaxRetries = 1
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{testMessage("scheduling.session.booked")}))
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Empty(t, repo.failedIDs)
	assert.Len(t, repo.deadIDs, 1)
	assert.Equal(t, uint64(1), processor.GetStats().DeadCount)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newRecordingPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.ProcessorConfig{
		PollInterval:     5 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
		Retention:        time.Hour,
		CleanupInterval:  5 * time.Millisecond,
	}, nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.IsRunning())
	assert.True(t, processor.GetStats().IsRunning)

	require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{testMessage("scheduling.session.booked")}))

	assert.Eventually(t, func() bool { return repo.publishedCount() == 1 }, time.Second, 5*time.Millisecond)

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
}

func TestProcessor_StopsWithContext(t *testing.T) {
	repo := &memoryRepository{}
	processor := outbox.NewProcessor(repo, newRecordingPublisher(), outbox.DefaultProcessorConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, processor.Start(ctx))
	cancel()

	processor.Stop()
	assert.False(t, processor.IsRunning())
}
