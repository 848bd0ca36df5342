package handlers

import (
	"net/http"

	"admin_console/internal/auth"
	"admin_console/internal/dto"
	"admin_console/internal/middleware"
	"admin_console/internal/services"
	"admin_console/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Админская лента отдела
	admin := r.Group("/notifications/api")
	admin.Use(h.Authenticated(), middleware.RequirePermission("notifications:read"))
	{
		admin.GET("", h.ListUnread)
		admin.DELETE("", h.ClearAll)
		admin.DELETE("/delete", h.ClearAll)
		admin.PUT("/:id/read", h.MarkAsRead)
	}

	// Уведомления пользователя об изменениях его профиля
	user := r.Group("/notifications/user/api")
	user.Use(h.Authenticated())
	{
		user.GET("", h.ListUserNotifications)
		user.PUT("/read", h.MarkUserNotificationsRead)
	}
}

// ListUnread - GET /notifications/api?department=
// @Summary Непрочитанные уведомления отдела
// @Description Записи отдела и глобального отдела "All", новые сверху
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param department query string true "Отдел"
// @Success 200 {object} dto.NotificationListResponse
// @Failure 400 {object} apperrors.ErrorResponse "Не указан отдел"
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /notifications/api [get]
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	notifications, err := h.notificationService.ListUnread(c.Request.Context(), c.Query("department"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NotificationListResponse{Notifications: notifications})
}

// ClearAll - DELETE /notifications/api
// @Summary Удалить все уведомления
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Router /notifications/api [delete]
// @Router /notifications/api/delete [delete]
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	n, err := h.notificationService.ClearAll(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "All notifications deleted successfully", Count: &n})
}

// MarkAsRead godoc
// @Summary Отметить уведомление прочитанным
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID уведомления"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /notifications/api/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if err := h.notificationService.MarkAsRead(c.Request.Context(), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Notification marked as read"})
}

// ListUserNotifications godoc
// @Summary Непрочитанные изменения профиля пользователя
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param userId query int false "ID пользователя, по умолчанию текущий"
// @Success 200 {object} dto.UserNotificationListResponse
// @Failure 403 {object} apperrors.ErrorResponse "Чужой userId"
// @Router /notifications/user/api [get]
func (h *NotificationHandler) ListUserNotifications(c *gin.Context) {
	userID, ok := h.targetUserID(c)
	if !ok {
		return
	}
	notifications, err := h.notificationService.ListUserNotifications(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserNotificationListResponse{Notifications: notifications})
}

// MarkUserNotificationsRead godoc
// @Summary Отметить все уведомления пользователя прочитанными
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param userId query int false "ID пользователя, по умолчанию текущий"
// @Success 200 {object} dto.MessageResponse
// @Router /notifications/user/api/read [put]
func (h *NotificationHandler) MarkUserNotificationsRead(c *gin.Context) {
	userID, ok := h.targetUserID(c)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAllUserNotificationsRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Notifications marked as read", Count: &n})
}

// targetUserID читает ?userId=. Не-админ видит только свои уведомления.
func (h *NotificationHandler) targetUserID(c *gin.Context) (uint, bool) {
	claims, ok := h.GetClaims(c)
	if !ok {
		return 0, false
	}

	if c.Query("userId") == "" {
		return claims.UserID, true
	}
	userID, err := ParseQueryUint(c, "userId")
	if err != nil {
		h.HandleServiceError(c, apperrors.ErrInvalidUserID)
		return 0, false
	}
	if userID != claims.UserID && !auth.IsAdmin(claims) {
		h.HandleServiceError(c, apperrors.ErrInsufficientPermissions)
		return 0, false
	}
	return userID, true
}
