package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishWithoutConnectionDegrades(t *testing.T) {
	SetNatsConn(nil)

	published, err := PublishRoomEvent(context.Background(), "b1", "battle:turn_result", map[string]int{"turn": 1})
	require.NoError(t, err)
	require.False(t, published)
	require.False(t, Healthy())

	sub, err := SubscribeRoomEvents(func(RoomEvent) {})
	require.NoError(t, err)
	require.Nil(t, sub)
}
