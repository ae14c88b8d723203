package websocket

import (
	"sync"
	"time"
)

// HubMetrics содержит счетчики живой ленты
type HubMetrics struct {
	totalConnections  int64
	activeConnections int64
	messagesSent      int64
	messagesDropped   int64
	startTime         time.Time

	mu sync.RWMutex
}

// NewHubMetrics создает новый экземпляр метрик Hub
func NewHubMetrics() *HubMetrics {
	return &HubMetrics{startTime: time.Now()}
}

func (m *HubMetrics) connected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalConnections++
	m.activeConnections++
}

func (m *HubMetrics) disconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeConnections > 0 {
		m.activeConnections--
	}
}

func (m *HubMetrics) sent(count, dropped int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent += count
	m.messagesDropped += dropped
}

// Snapshot возвращает метрики в виде карты для JSON-ответа
func (m *HubMetrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"total_connections":  m.totalConnections,
		"active_connections": m.activeConnections,
		"messages_sent":      m.messagesSent,
		"messages_dropped":   m.messagesDropped,
		"uptime_seconds":     int64(time.Since(m.startTime).Seconds()),
	}
}
