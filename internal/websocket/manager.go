package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Manager обрабатывает WebSocket сообщения и рассылает события
type Manager struct {
	hub            *Hub
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler(CLIENT_PING, func(data json.RawMessage, client *Client) error {
		return m.hub.SendJSON(client, Event{Type: SERVER_PONG, Data: data})
	})
	return m
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}

	return handler(event.Data, client)
}

// SendErrorToClient отправляет сообщение об ошибке, не закрывая соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	errorEvent := Event{
		Type: SERVER_ERROR,
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := m.hub.SendJSON(client, errorEvent); err != nil {
		log.Printf("[WebSocketManager] Ошибка отправки ошибки клиенту %s: %v", client.ConnectionID, err)
	}
}

// Welcome отправляет только что подключенному клиенту приветствие
func (m *Manager) Welcome(client *Client) {
	event := Event{Type: SERVER_HELLO, Data: map[string]string{"connection_id": client.ConnectionID}}
	if err := m.hub.SendJSON(client, event); err != nil {
		log.Printf("[WebSocketManager] Ошибка отправки приветствия %s: %v", client.ConnectionID, err)
	}
}

// Broadcast отправляет событие всем подключенным администраторам
func (m *Manager) Broadcast(eventType string, data interface{}) {
	if err := m.hub.BroadcastJSON(Event{Type: eventType, Data: data}); err != nil {
		log.Printf("[WebSocketManager] Ошибка рассылки события %s: %v", eventType, err)
	}
}

// Metrics возвращает метрики хаба
func (m *Manager) Metrics() map[string]interface{} {
	return m.hub.Metrics().Snapshot()
}
