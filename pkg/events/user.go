package events

import "time"

// TopicUserEvents carries user lifecycle events published by the user service.
const TopicUserEvents = "user.events"

// TypeUserDeleted identifies UserDeleted on TopicUserEvents.
const TypeUserDeleted = "user.deleted"

// UserDeleted is emitted when a user is removed from the system. Receiving it
// purges every goal, habit and achievement document owned by the user.
type UserDeleted struct {
	UserID    string    `json:"userId"`
	DeletedAt time.Time `json:"deletedAt"`
}
