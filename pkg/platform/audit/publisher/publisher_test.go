package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "grunnlag/pkg/platform/audit"
	"grunnlag/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return assert.AnError }

func TestPublisherEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)

	err := pub.Emit(context.Background(), audit.Event{
		Action:        string(audit.EventGrunnlagLaast),
		AggregateType: "behandling",
		AggregateID:   "b-1",
	})
	require.NoError(t, err)

	events, err := store.ListByAggregate(context.Background(), "behandling", "b-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherKeepsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, New(store).Emit(context.Background(), audit.Event{
		Action:    string(audit.EventOpplysningerLagret),
		Timestamp: ts,
	}))

	events, _ := store.ListAll(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisherRequiresAction(t *testing.T) {
	err := New(memory.NewInMemoryStore()).Emit(context.Background(), audit.Event{})
	require.Error(t, err)
}

func TestPublisherFailsClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetricsWithRegistry(reg)
	pub := New(failingStore{}, WithMetrics(metrics))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventGrunnlagLaast)})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistFailures.WithLabelValues(string(audit.CategoryCompliance))))
}
