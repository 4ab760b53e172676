package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/domain/entities"
)

// MockRefresher es un mock de la fuente de tasas
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error) {
	args := m.Called(ctx, id)
	snapshot, _ := args.Get(0).(*entities.RateSnapshot)
	return snapshot, args.Error(1)
}

// MockArchive es un mock del archivo de snapshots
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, id entities.ResourceID, snapshot *entities.RateSnapshot) error {
	args := m.Called(ctx, id, snapshot)
	return args.Error(0)
}

func (m *MockArchive) LatestFetchedAt(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

type capturingPublisher struct {
	mu        sync.Mutex
	snapshots []*entities.RateSnapshot
}

func (p *capturingPublisher) Publish(_ context.Context, snapshot *entities.RateSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func testSnapshot() *entities.RateSnapshot {
	return entities.NewRateSnapshot(time.Now(), "Bank of Taiwan", "2025/11/20 16:00:00",
		map[entities.CurrencyCode]*float64{entities.USD: entities.Float(30.97)}, nil)
}

func TestNewJob(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "default spec", spec: ""},
		{name: "descriptor", spec: "@every 1m"},
		{name: "five field expression", spec: "*/5 * * * *"},
		{name: "invalid expression", spec: "every five minutes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewJob(&MockRefresher{}, Options{Spec: tt.spec})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, job)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, job)
		})
	}
}

func TestJob_RunOnce(t *testing.T) {
	t.Run("publishes and archives the refreshed snapshot", func(t *testing.T) {
		snapshot := testSnapshot()
		refresher := &MockRefresher{}
		refresher.On("Refresh", mock.Anything, entities.LatestResource()).Return(snapshot, nil)
		archive := &MockArchive{}
		archive.On("Save", mock.Anything, entities.LatestResource(), snapshot).Return(nil)
		publisher := &capturingPublisher{}

		job, err := NewJob(refresher, Options{Publisher: publisher, Archive: archive})
		require.NoError(t, err)

		require.NoError(t, job.RunOnce(context.Background()))

		assert.Equal(t, []*entities.RateSnapshot{snapshot}, publisher.snapshots)
		refresher.AssertExpectations(t)
		archive.AssertExpectations(t)
	})

	t.Run("archive failure does not fail the refresh", func(t *testing.T) {
		snapshot := testSnapshot()
		refresher := &MockRefresher{}
		refresher.On("Refresh", mock.Anything, mock.Anything).Return(snapshot, nil)
		archive := &MockArchive{}
		archive.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
		publisher := &capturingPublisher{}

		job, err := NewJob(refresher, Options{Publisher: publisher, Archive: archive})
		require.NoError(t, err)

		assert.NoError(t, job.RunOnce(context.Background()))
		assert.Len(t, publisher.snapshots, 1)
	})

	t.Run("source failure skips publish and archive", func(t *testing.T) {
		fetchErr := errors.New("all mirrors failed")
		refresher := &MockRefresher{}
		refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil, fetchErr)
		archive := &MockArchive{}
		publisher := &capturingPublisher{}

		job, err := NewJob(refresher, Options{Publisher: publisher, Archive: archive})
		require.NoError(t, err)

		err = job.RunOnce(context.Background())

		assert.ErrorIs(t, err, fetchErr)
		assert.Empty(t, publisher.snapshots)
		archive.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("works without publisher or archive", func(t *testing.T) {
		refresher := &MockRefresher{}
		refresher.On("Refresh", mock.Anything, mock.Anything).Return(testSnapshot(), nil)

		job, err := NewJob(refresher, Options{})
		require.NoError(t, err)

		assert.NoError(t, job.RunOnce(context.Background()))
	})
}

func TestJob_RunStopsOnCancel(t *testing.T) {
	job, err := NewJob(&MockRefresher{}, Options{Spec: "@every 1h"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestJob_RunTwiceRejected(t *testing.T) {
	job, err := NewJob(&MockRefresher{}, Options{Spec: "@every 1h"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = job.Run(ctx) }()

	require.Eventually(t, func() bool {
		job.mu.Lock()
		defer job.mu.Unlock()
		return job.running
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, job.Run(ctx), ErrJobRunning)
}

func TestPublisherFunc(t *testing.T) {
	called := false
	PublisherFunc(func(context.Context, *entities.RateSnapshot) { called = true }).Publish(context.Background(), nil)
	assert.True(t, called)
}
