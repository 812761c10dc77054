package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/notify"
)

// attach 注册一个没有底层连接的客户端，只用于观察投递
func attach(h *Hub, id string) *Client {
	c := &Client{ID: id, ControllerID: id, hub: h, logger: h.logger, send: make(chan []byte, 8)}
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()
	return c
}

func next(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg Envelope
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("等待消息超时")
		return Envelope{}
	}
}

func TestHub_LocalBroadcast(t *testing.T) {
	notify.SetNatsConn(nil)
	h := NewHub(log.NewNopLogger())
	require.NoError(t, h.Start())

	a := attach(h, "a")
	b := attach(h, "b")
	outsider := attach(h, "c")
	h.Join(a, "battle-1")
	h.Join(b, "battle-1")
	h.Join(outsider, "battle-2")

	h.Broadcast(context.Background(), "battle-1", "battle:turn_result", map[string]int{"turnNumber": 1})

	for _, c := range []*Client{a, b} {
		msg := next(t, c)
		assert.Equal(t, "battle:turn_result", msg.Event)
		assert.JSONEq(t, `{"turnNumber":1}`, string(msg.Data))
	}
	assert.Empty(t, outsider.send)
}

func TestHub_LeaveAndUnregister(t *testing.T) {
	h := NewHub(log.NewNopLogger())
	a := attach(h, "a")

	h.Join(a, "battle-1")
	h.Join(a, "battle-2")
	assert.Equal(t, 1, h.RoomSize("battle-1"))

	h.Leave(a, "battle-1")
	assert.Equal(t, 0, h.RoomSize("battle-1"))
	assert.Equal(t, 1, h.RoomSize("battle-2"))

	h.unregister(a)
	assert.Equal(t, 0, h.RoomSize("battle-2"))
	assert.Equal(t, 0, h.ClientCount())

	// 关闭后的推送直接丢弃
	a.Send("battle:ended", nil)
	a.mu.RLock()
	assert.Nil(t, a.send)
	a.mu.RUnlock()
}

func TestHub_JoinRequiresRegisteredClient(t *testing.T) {
	h := NewHub(log.NewNopLogger())
	ghost := &Client{ID: "ghost", hub: h, logger: h.logger}

	h.Join(ghost, "battle-1")
	assert.Equal(t, 0, h.RoomSize("battle-1"))
}

func TestEncode(t *testing.T) {
	raw, err := encode("battle:error", json.RawMessage(`{"code":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"battle:error","data":{"code":1}}`, string(raw))

	raw, err = encode("battle:ended", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"battle:ended"}`, string(raw))
}

// TestHub_NatsRelay 需要本地 NATS：NATS_ADDRESS=nats://localhost:4222
func TestHub_NatsRelay(t *testing.T) {
	addr := os.Getenv("NATS_ADDRESS")
	if addr == "" {
		t.Skip("跳过依赖 NATS 的测试，未设置 NATS_ADDRESS")
	}
	nc, err := nats.Connect(addr)
	if err != nil {
		t.Skipf("无法连接 NATS: %v", err)
	}
	notify.SetNatsConn(nc)
	t.Cleanup(func() {
		notify.SetNatsConn(nil)
		nc.Close()
	})

	// 两个实例共享同一主题
	h1 := NewHub(log.NewNopLogger())
	h2 := NewHub(log.NewNopLogger())
	require.NoError(t, h1.Start())
	require.NoError(t, h2.Start())
	t.Cleanup(h1.Stop)
	t.Cleanup(h2.Stop)
	require.NoError(t, nc.Flush())

	remote := attach(h2, "remote")
	h2.Join(remote, "battle-relay")

	h1.Broadcast(context.Background(), "battle-relay", "battle:started", map[string]string{"battleId": "battle-relay"})

	msg := next(t, remote)
	assert.Equal(t, "battle:started", msg.Event)
	assert.JSONEq(t, `{"battleId":"battle-relay"}`, string(msg.Data))
}
