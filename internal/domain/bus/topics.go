package bus

// Topic vocabulary emitted by the lifecycle engine
const (
	TopicOpened    = "app:opened"
	TopicClosed    = "app:closed"
	TopicDestroyed = "app:destroyed"
	TopicMinimized = "app:minimized"
	TopicRestored  = "app:restored"
	TopicFocus     = "window:focus"
	TopicBlur      = "window:blur"
	TopicSpeak     = "system:speak"
	TopicTaskStats = "taskmgr:update"

	readyPrefix  = "app:ready:"
	closedPrefix = "app:closed:"
)

// AppEvent is the payload of app-scoped notifications
type AppEvent struct {
	ID string `json:"id"`
}

// ReadyTopic is published once a presentation surface exists for id,
// before application-specific initialization runs
func ReadyTopic(id string) string {
	return readyPrefix + id
}

// ClosedTopic is the scoped close signal for id
func ClosedTopic(id string) string {
	return closedPrefix + id
}
