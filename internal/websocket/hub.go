package websocket

import (
	"context"
	"encoding/json"
	"log"
)

// outbound - сообщение для всех клиентов или для одного
type outbound struct {
	target  *Client
	message []byte
}

// Hub хранит подключения администраторов и рассылает им сообщения.
// Все изменения набора клиентов и записи в их каналы выполняются в Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	done       chan struct{}
	metrics    *HubMetrics
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, 256),
		done:       make(chan struct{}),
		metrics:    NewHubMetrics(),
	}
}

// Run обрабатывает события хаба до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.metrics.connected()
			log.Printf("[WebSocketHub] Клиент %s подключен (всего: %d)", client.ConnectionID, len(h.clients))
			if client.registered != nil {
				close(client.registered)
			}
		case client := <-h.unregister:
			h.remove(client)
		case out := <-h.outbound:
			h.deliver(out)
		case <-ctx.Done():
			log.Printf("[WebSocketHub] Остановка, закрываем %d соединений", len(h.clients))
			for client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.CloseSend()
	h.metrics.disconnected()
	log.Printf("[WebSocketHub] Клиент %s отключен (всего: %d)", client.ConnectionID, len(h.clients))
}

func (h *Hub) deliver(out outbound) {
	var sent, dropped int64
	send := func(client *Client) {
		select {
		case client.send <- out.message:
			sent++
		default:
			// Медленный клиент не должен блокировать остальных
			dropped++
			log.Printf("[WebSocketHub] Буфер клиента %s переполнен, отключаем", client.ConnectionID)
			h.remove(client)
		}
	}

	if out.target != nil {
		if h.clients[out.target] {
			send(out.target)
		}
	} else {
		for client := range h.clients {
			send(client)
		}
	}
	h.metrics.sent(sent, dropped)
}

func (h *Hub) enqueue(out outbound) {
	select {
	case h.outbound <- out:
	case <-h.done:
	}
}

// BroadcastJSON отправляет структуру JSON всем клиентам
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.enqueue(outbound{message: data})
	return nil
}

// SendJSON отправляет структуру JSON одному клиенту
func (h *Hub) SendJSON(client *Client, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.enqueue(outbound{target: client, message: data})
	return nil
}

// Metrics возвращает метрики хаба
func (h *Hub) Metrics() *HubMetrics {
	return h.metrics
}
