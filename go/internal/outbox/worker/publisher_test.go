package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/refbox/go/internal/events"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	args := m.Called(ctx, name)
	s, _ := args.Get(0).(jetstream.Stream)
	return s, args.Error(1)
}

func (m *mockJetStream) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	s, _ := args.Get(0).(jetstream.Stream)
	return s, args.Error(1)
}

func (m *mockJetStream) UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	s, _ := args.Get(0).(jetstream.Stream)
	return s, args.Error(1)
}

func (m *mockJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, msg, opts)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

func newTestPublisher(js *mockJetStream) *JetStreamPublisher {
	return &JetStreamPublisher{
		js:     js,
		config: DefaultJetStreamConfig(),
		now:    func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func TestJetStreamPublisher_Publish(t *testing.T) {
	js := &mockJetStream{}
	p := newTestPublisher(js)
	id := uuid.New()

	var sent *nats.Msg
	js.On("PublishMsg", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*nats.Msg) }).
		Return(&jetstream.PubAck{Stream: "REFBOX_EVENTS", Sequence: 3}, nil)

	err := p.Publish(context.Background(), OutboxEvent{
		ID:         id,
		GameNumber: 12,
		EventType:  events.TypeGoal,
		Payload:    []byte(`{"game_number":12}`),
	})
	require.NoError(t, err)
	js.AssertExpectations(t)

	require.NotNil(t, sent)
	assert.Equal(t, "refbox.events.goal", sent.Subject)
	assert.Equal(t, "12", sent.Header.Get("Game-Number"))
	assert.Equal(t, id.String(), sent.Header.Get("Event-ID"))

	var env events.Envelope
	require.NoError(t, json.Unmarshal(sent.Data, &env))
	assert.Equal(t, id.String(), env.EventID)
	assert.Equal(t, uint32(12), env.GameNumber)
	assert.JSONEq(t, `{"game_number":12}`, string(env.Payload))
}

func TestJetStreamPublisher_PublishError(t *testing.T) {
	js := &mockJetStream{}
	p := newTestPublisher(js)
	js.On("PublishMsg", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no responders"))

	err := p.Publish(context.Background(), OutboxEvent{ID: uuid.New(), EventType: events.TypeGameEnded, Payload: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to JetStream")
}

func TestJetStreamPublisher_EnsureStreamCreates(t *testing.T) {
	js := &mockJetStream{}
	p := newTestPublisher(js)

	js.On("Stream", mock.Anything, "REFBOX_EVENTS").Return(nil, jetstream.ErrStreamNotFound)
	js.On("CreateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return len(cfg.Subjects) == 1 && cfg.Subjects[0] == "refbox.events.>"
	})).Return(nil, nil)

	require.NoError(t, p.ensureStream(context.Background()))
	js.AssertExpectations(t)
}

func TestIsStreamConfigEqual(t *testing.T) {
	p := newTestPublisher(&mockJetStream{})
	a := p.streamConfig()
	b := a
	assert.True(t, isStreamConfigEqual(a, b))

	b.MaxAge = time.Hour
	assert.False(t, isStreamConfigEqual(a, b))
}
