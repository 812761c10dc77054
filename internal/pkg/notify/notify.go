package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// Subjects
const (
	// SubjectBattleRoomPrefix 战斗房间事件，完整主题为 battle.room.<battleId>
	SubjectBattleRoomPrefix = "battle.room."
	subjectBattleRoomAll    = "battle.room.*"
)

// RoomEvent 跨实例广播的房间事件
type RoomEvent struct {
	BattleID string          `json:"battle_id"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
	TraceID  string          `json:"trace_id,omitempty"`
}

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

func conn() *nats.Conn {
	ncMu.RLock()
	defer ncMu.RUnlock()
	return nc
}

// Healthy NATS 连接是否可用；未配置连接时视为不可用
func Healthy() bool {
	c := conn()
	return c != nil && c.IsConnected() && !c.IsClosed()
}

// PublishRoomEvent 发布战斗房间事件
// 没有可用连接时返回 published=false，由调用方决定本地投递
func PublishRoomEvent(ctx context.Context, battleID, event string, payload any) (bool, error) {
	c := conn()
	if c == nil || c.IsClosed() {
		return false, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal room event failed: %w", err)
	}
	data, err := json.Marshal(RoomEvent{
		BattleID: battleID,
		Event:    event,
		Payload:  raw,
		TraceID:  trace.GetTraceID(ctx),
	})
	if err != nil {
		return false, fmt.Errorf("marshal room envelope failed: %w", err)
	}

	err = c.Publish(SubjectBattleRoomPrefix+battleID, data)
	metrics.DefaultStoreMetrics.RecordNatsPublish("", strings.TrimSuffix(SubjectBattleRoomPrefix, "."), err == nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SubscribeRoomEvents 订阅全部战斗房间事件
func SubscribeRoomEvents(handler func(RoomEvent)) (*nats.Subscription, error) {
	c := conn()
	if c == nil {
		return nil, nil
	}
	return c.Subscribe(subjectBattleRoomAll, func(msg *nats.Msg) {
		var evt RoomEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return
		}
		handler(evt)
	})
}
