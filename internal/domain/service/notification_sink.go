package service

import (
	"context"
)

const (
	EventLevelUp         = "level_up"
	EventFriendLeveledUp = "friend_leveled_up"
	EventQuestCompleted  = "quest_completed"
)

// NotificationEvent is the payload handed to the delivery layer. Delivery is
// fire-and-forget: a sink failure never fails the mutation that produced it.
type NotificationEvent struct {
	Kind    string                 `json:"kind"`
	UserID  string                 `json:"userId"`
	Payload map[string]interface{} `json:"payload"`
}

type NotificationSink interface {
	Publish(ctx context.Context, event NotificationEvent) error
}
