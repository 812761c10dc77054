package realtime

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/nats-io/nats.go"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/notify"
)

// Hub 管理战斗房间与连接
// 启用 NATS 中继后所有实例的事件都经 battle.room.<id> 投递，否则只在本实例内投递
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}

	sub    *nats.Subscription
	logger log.Logger
}

var _ service.Broadcaster = (*Hub)(nil)

// NewHub 创建房间管理器
func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		logger:  logger.With("component", "battle_hub"),
	}
}

// Start 订阅跨实例房间事件；没有 NATS 连接时保持本地投递
func (h *Hub) Start() error {
	sub, err := notify.SubscribeRoomEvents(func(evt notify.RoomEvent) {
		msg, err := encode(evt.Event, evt.Payload)
		if err != nil {
			h.logger.Error("编码房间事件失败", err, log.String("battle_id", evt.BattleID))
			return
		}
		h.deliver(evt.BattleID, msg)
	})
	if err != nil {
		return err
	}
	if sub == nil {
		h.logger.Warn("NATS 未连接，房间事件仅在本实例投递")
		return nil
	}
	h.mu.Lock()
	h.sub = sub
	h.mu.Unlock()
	h.logger.Info("房间事件中继已启动", log.String("subject", notify.SubjectBattleRoomPrefix+"*"))
	return nil
}

// Stop 取消订阅并断开所有连接
func (h *Hub) Stop() {
	h.mu.Lock()
	sub := h.sub
	h.sub = nil
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("取消房间事件订阅失败", log.Any("error", err))
		}
	}
	for _, c := range clients {
		if c.conn != nil {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// Serve 接管一个已升级的连接，阻塞到连接断开
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, controllerID, characterID string, handle InboundHandler) {
	c := newClient(h, conn, controllerID, characterID)

	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()
	c.logger.Debug("WebSocket 已连接")

	go c.writePump(ctx)
	c.readPump(ctx, handle)
}

// Join 加入战斗房间
func (h *Hub) Join(c *Client, battleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clients[c]
	if !ok {
		return
	}
	room, ok := h.rooms[battleID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[battleID] = room
	}
	room[c] = struct{}{}
	joined[battleID] = struct{}{}
}

// Leave 离开战斗房间
func (h *Hub) Leave(c *Client, battleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, battleID)
}

func (h *Hub) leaveLocked(c *Client, battleID string) {
	if room, ok := h.rooms[battleID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, battleID)
		}
	}
	if joined, ok := h.clients[c]; ok {
		delete(joined, battleID)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	for battleID := range h.clients[c] {
		h.leaveLocked(c, battleID)
	}
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	c.logger.Debug("WebSocket 已断开")
}

// Broadcast 向战斗房间推送事件
func (h *Hub) Broadcast(ctx context.Context, battleID, event string, payload any) {
	h.mu.RLock()
	relay := h.sub != nil
	h.mu.RUnlock()

	if relay {
		published, err := notify.PublishRoomEvent(ctx, battleID, event, payload)
		if err != nil {
			h.logger.WarnContext(ctx, "发布房间事件失败，改为本地投递",
				log.String("battle_id", battleID),
				log.String("event", event),
				log.Any("error", err),
			)
		}
		if published {
			return
		}
	}

	msg, err := encode(event, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "编码房间事件失败", log.String("battle_id", battleID), log.Any("error", err))
		return
	}
	h.deliver(battleID, msg)
}

func (h *Hub) deliver(battleID string, msg []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[battleID]))
	for c := range h.rooms[battleID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(msg)
	}
}

// RoomSize 房间内连接数
func (h *Hub) RoomSize(battleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[battleID])
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
