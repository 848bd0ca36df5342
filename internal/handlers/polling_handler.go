package handlers

import (
	"net/http"

	"admin_console/internal/longpoll"
	"admin_console/internal/middleware"

	"github.com/gin-gonic/gin"
)

// PollingHandler - запасной канал для клиентов без сокетов
type PollingHandler struct {
	*BaseHandler
	queue *longpoll.Queue
}

func NewPollingHandler(base *BaseHandler, queue *longpoll.Queue) *PollingHandler {
	return &PollingHandler{
		BaseHandler: base,
		queue:       queue,
	}
}

func (h *PollingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/polling/api", h.Authenticated(), middleware.RequirePermission("notifications:read"), h.Poll)
}

// Poll - GET /polling/api. Держит запрос до события или таймаута очереди.
// @Summary Long-poll нового пользователя
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} longpoll.Result "event=null по таймауту"
// @Router /polling/api [get]
func (h *PollingHandler) Poll(c *gin.Context) {
	result := h.queue.Poll(c.Request.Context())
	if c.Request.Context().Err() != nil {
		// клиент ушел
		return
	}

	if result.IsEmpty() {
		c.JSON(http.StatusOK, gin.H{"event": nil, "message": result.Message})
		return
	}
	c.JSON(http.StatusOK, result)
}
