package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/refbox/go/internal/models"
)

func startGateway(t *testing.T) (*ConnectionManager, *httptest.Server) {
	t.Helper()

	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go cm.Start(ctx)

	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return cm, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func waitForConnections(t *testing.T, cm *ConnectionManager, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return cm.GetConnectionStats().TotalConnections == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnectionManager_BroadcastSnapshot(t *testing.T) {
	cm, srv := startGateway(t)
	conn := dial(t, srv, "/ws/snapshots")
	waitForConnections(t, cm, 1)

	cm.Broadcast(&models.GameSnapshot{CurrentPeriod: models.FirstHalf, SecsInPeriod: 600, GameNumber: 5})

	frame := readFrame(t, conn)
	assert.Equal(t, "FIRST_HALF", frame["current_period"])
	assert.Equal(t, float64(600), frame["secs_in_period"])
	assert.Equal(t, float64(5), frame["game_number"])
}

func TestConnectionManager_ReplaysLatestFrame(t *testing.T) {
	cm, srv := startGateway(t)

	cm.Broadcast(&models.GameSnapshot{CurrentPeriod: models.BetweenGames, GameNumber: 1})
	cm.Broadcast(&models.GameSnapshot{CurrentPeriod: models.BetweenGames, GameNumber: 2})
	require.Eventually(t, func() bool {
		frame, ok := cm.latestFrame(TopicSnapshots)
		return ok && strings.Contains(string(frame), `"game_number":2`)
	}, 2*time.Second, 10*time.Millisecond)

	conn := dial(t, srv, "/ws/snapshots")
	assert.Equal(t, float64(2), readFrame(t, conn)["game_number"])
}

func TestConnectionManager_TopicsAreSeparate(t *testing.T) {
	cm, srv := startGateway(t)
	snaps := dial(t, srv, "/ws/snapshots")
	evs := dial(t, srv, "/ws/events")
	waitForConnections(t, cm, 2)

	cm.Broadcast(&models.GameSnapshot{CurrentPeriod: models.HalfTime, GameNumber: 3})
	cm.BroadcastEvent(json.RawMessage(`{"eventId":"e1","eventType":"goal","gameNumber":3}`))

	assert.Equal(t, "goal", readFrame(t, evs)["eventType"])
	assert.Equal(t, "HALF_TIME", readFrame(t, snaps)["current_period"])
}

func TestConnectionManager_UnregistersClosedConnections(t *testing.T) {
	cm, srv := startGateway(t)
	conn := dial(t, srv, "/ws/snapshots")
	waitForConnections(t, cm, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, cm, 0)
}

func TestConnectionManager_DropsSlowConnection(t *testing.T) {
	_, srv := startGateway(t)
	client := dial(t, srv, "/ws/events")

	cm := NewConnectionManager(DefaultConnectionConfig())
	slow := &Connection{ID: "slow", Topic: TopicSnapshots, Conn: client, Send: make(chan []byte), Manager: cm}
	cm.registerConnection(slow)

	cm.handleBroadcast(BroadcastMessage{Topic: TopicSnapshots, Payload: json.RawMessage(`{"n":1}`)})

	assert.Equal(t, 0, cm.GetConnectionStats().TotalConnections)
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestConnectionManager_BroadcastWhileDisconnecting(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	frame := json.RawMessage(`{"n":1}`)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cm.handleBroadcast(BroadcastMessage{Topic: TopicSnapshots, Payload: frame})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			// room for every frame, so no connection is dropped as slow
			conn := &Connection{ID: "c", Topic: TopicSnapshots, Send: make(chan []byte, 1024), Manager: cm}
			cm.registerConnection(conn)
			cm.unregisterConnection(conn)
		}
	}()

	wg.Wait()
	assert.Equal(t, 0, cm.GetConnectionStats().TotalConnections)
}

func TestWebSocketHandler_ConnectionStats(t *testing.T) {
	cm, srv := startGateway(t)
	dial(t, srv, "/ws/snapshots")
	dial(t, srv, "/ws/snapshots")
	dial(t, srv, "/ws/events")
	waitForConnections(t, cm, 3)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalConnections)
	assert.Equal(t, map[string]int{"snapshots": 2, "events": 1}, stats.Topics)
}

type recordingBroadcaster struct {
	frames []json.RawMessage
}

func (r *recordingBroadcaster) BroadcastEvent(envelope json.RawMessage) {
	r.frames = append(r.frames, envelope)
}

type fakeMsg struct {
	jetstream.Msg
	data                []byte
	acked, naked, termd bool
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return "refbox.events.goal" }
func (m *fakeMsg) Ack() error      { m.acked = true; return nil }
func (m *fakeMsg) Nak() error      { m.naked = true; return nil }
func (m *fakeMsg) Term() error     { m.termd = true; return nil }

func TestEventConsumer_Handle(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		forwarded bool
		acked     bool
		termd     bool
	}{
		{
			name:      "known event is forwarded",
			data:      `{"eventId":"e1","eventType":"penalty","gameNumber":4,"payload":{}}`,
			forwarded: true,
			acked:     true,
		},
		{
			name:  "unknown type is terminated",
			data:  `{"eventId":"e2","eventType":"PickMade"}`,
			termd: true,
		},
		{
			name:  "bad json is terminated",
			data:  `not json`,
			termd: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingBroadcaster{}
			ec := &EventConsumer{broadcaster: rec, config: DefaultJetStreamConsumerConfig()}
			msg := &fakeMsg{data: []byte(tt.data)}

			ec.handle(msg)

			assert.Equal(t, tt.acked, msg.acked)
			assert.Equal(t, tt.termd, msg.termd)
			assert.False(t, msg.naked)
			if tt.forwarded {
				require.Len(t, rec.frames, 1)
				assert.JSONEq(t, tt.data, string(rec.frames[0]))
			} else {
				assert.Empty(t, rec.frames)
			}
		})
	}
}
