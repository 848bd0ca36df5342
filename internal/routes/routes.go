package routes

import (
	"net/http"

	_ "admin_console/docs"
	"admin_console/internal/handlers"
	"admin_console/internal/logger"
	"admin_console/ws"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerDisableEnv - если переменная задана, /swagger отвечает 404
const SwaggerDisableEnv = "DISABLE_SWAGGER"

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
// Пути совпадают с теми, что ждет фронтенд консоли, поэтому без префикса версии.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	ginRouter.GET("/swagger/*any", ginSwagger.DisablingWrapHandler(swaggerFiles.Handler, SwaggerDisableEnv))

	api := ginRouter.Group("")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.PollingHandler.RegisterRoutes(api)
	}

	// Сокет без авторизации: клиент представляется сообщением register_admin/register_user
	wsHandler.RegisterRoutes(ginRouter)
	logger.Info("WebSocket route /ws registered")
}
