package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

const (
	sendBufferSize = 64
	writeTimeout   = 10 * time.Second
	readLimit      = 64 << 10
)

// InboundHandler 处理客户端上行消息
type InboundHandler func(ctx context.Context, c *Client, msg Envelope)

// Client 一个 WebSocket 连接
type Client struct {
	ID           string
	ControllerID string
	CharacterID  string

	conn   *websocket.Conn
	hub    *Hub
	logger log.Logger

	mu   sync.RWMutex
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, controllerID, characterID string) *Client {
	id := uuid.NewString()
	return &Client{
		ID:           id,
		ControllerID: controllerID,
		CharacterID:  characterID,
		conn:         conn,
		hub:          hub,
		logger:       hub.logger.With("client_id", id, "controller_id", controllerID),
		send:         make(chan []byte, sendBufferSize),
	}
}

// Send 向本连接推送事件
func (c *Client) Send(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		c.logger.Error("编码推送消息失败", err, log.String("event", event))
		return
	}
	c.enqueue(msg)
}

func (c *Client) enqueue(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.send == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("发送队列已满，丢弃消息")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// readPump 读取上行消息直到连接断开
func (c *Client) readPump(ctx context.Context, handle InboundHandler) {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(readLimit)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				c.logger.Warn("读取 WebSocket 消息失败", log.Any("error", err))
			}
			return
		}

		var msg Envelope
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			c.Send(service.EventBattleError, service.ErrorPayload{Code: int(xerrors.CodeInvalidParams), Message: "消息格式错误"})
			continue
		}
		handle(ctx, c, msg)
	}
}

// writePump 把发送队列写入连接，队列关闭后结束
func (c *Client) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	c.mu.RLock()
	send := c.send
	c.mu.RUnlock()

	for msg := range send {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(writeCtx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			c.logger.Warn("写入 WebSocket 消息失败", log.Any("error", err))
			return
		}
	}
}
