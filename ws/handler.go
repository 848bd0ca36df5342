package ws

import (
	"net/http"
	"strings"

	"admin_console/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	opts     Options
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(manager *WebSocketManager, opts Options) *WebSocketHandler {
	opts = opts.withDefaults()
	return &WebSocketHandler{
		Manager: manager,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

// RegisterRoutes вешает /ws на роутер
func (h *WebSocketHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.ServeWS)
}

// ServeWS поднимает соединение. Ключ маршрутизации клиент присылает
// отдельным сообщением register_admin / register_user.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		logger.CtxWithError(c.Request.Context(), "WebSocket upgrade error", err)
		return
	}

	client := newClient(conn, h.Manager, h.opts)
	h.Manager.Add(client)

	go client.readPump()
	go client.writePump()
}

// originChecker: пустой список или "*" разрешают все. Запросы без Origin (не браузер) пропускаются.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		set[strings.ToLower(o)] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}
