package websocket

// Служебные типы сообщений живой ленты
const (
	// CLIENT_PING - проверка связи от клиента
	CLIENT_PING = "client:ping"

	// SERVER_PONG - ответ на CLIENT_PING
	SERVER_PONG = "server:pong"

	// SERVER_ERROR - ошибка обработки сообщения клиента
	SERVER_ERROR = "server:error"

	// SERVER_HELLO отправляется сразу после подключения
	SERVER_HELLO = "server:hello"
)
