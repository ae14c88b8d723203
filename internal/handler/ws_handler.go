package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/assessment-api/internal/websocket"
)

// WSHandler подключает администраторов к живой ленте событий
type WSHandler struct {
	hub        *websocket.Hub
	manager    *websocket.Manager
	upgrader   gorillaws.Upgrader
	bufferSize int
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с CORS; "*" разрешает любой origin.
func NewWSHandler(hub *websocket.Hub, manager *websocket.Manager, allowedOrigins []string, bufferSize int) *WSHandler {
	return &WSHandler{
		hub:        hub,
		manager:    manager,
		bufferSize: bufferSize,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Не браузерный клиент (терминал, curl)
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || origin == allowed {
				return true
			}
		}
		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение
// GET /ws/admin
func (h *WSHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		log.Printf("[WSHandler] Error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, h.bufferSize)
	client.Serve(h.manager.HandleMessage)
	h.manager.Welcome(client)
}

// Metrics отдает счетчики живой ленты
// GET /api/debug-ws
func (h *WSHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Metrics())
}
