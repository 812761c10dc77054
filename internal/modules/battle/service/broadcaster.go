package service

import "context"

// 推送给战斗房间的事件
const (
	EventBattleStarted = "battle:started"
	EventTurnResult    = "battle:turn_result"
	EventBattleEnded   = "battle:ended"
	EventBattleError   = "battle:error"
)

// Broadcaster 向加入战斗房间的所有连接推送事件
type Broadcaster interface {
	Broadcast(ctx context.Context, battleID, event string, payload any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, string, string, any) {}
