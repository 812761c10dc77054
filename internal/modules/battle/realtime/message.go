package realtime

import "encoding/json"

// 客户端上行事件
const (
	EventStart         = "battle:start"
	EventSubmitActions = "battle:submit_actions"
	EventJoin          = "battle:join"
)

// Envelope 上下行统一的消息外壳
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encode 组装下行消息
func encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		data = p
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
