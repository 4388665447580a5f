package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "grunnlag/pkg/platform/audit"
)

type recordingPublisher struct {
	msgs []Message
}

func (r *recordingPublisher) Publish(_ context.Context, msgs ...Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func TestOutboxSinkKeysByAggregate(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewOutboxSink(pub, "grunnlag.audit")

	err := sink.PublishEntries(context.Background(), []audit.OutboxEntry{
		{ID: "1", AggregateType: "behandling", AggregateID: "b-1", EventType: "grunnlag_laast", Payload: []byte(`{"a":1}`)},
		{ID: "2", AggregateType: "sak", AggregateID: "42", EventType: "opplysninger_lagret", Payload: []byte(`{}`)},
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 2)

	assert.Equal(t, "grunnlag.audit", pub.msgs[0].Topic)
	assert.Equal(t, []byte("behandling:b-1"), pub.msgs[0].Key)
	assert.Equal(t, []byte(`{"a":1}`), pub.msgs[0].Value)
	assert.Equal(t, "grunnlag_laast", pub.msgs[0].Headers["event_type"])
	assert.Equal(t, []byte("sak:42"), pub.msgs[1].Key)
}
