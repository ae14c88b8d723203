package service

// Типы событий живой ленты администратора
const (
	EventUserLogin         = "user:login"
	EventSubmissionCreated = "submission:created"
)

// EventBroadcaster рассылает события подключенным администраторам
type EventBroadcaster interface {
	Broadcast(eventType string, data interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, interface{}) {}
