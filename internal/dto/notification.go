package dto

import "admin_console/internal/models"

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

type UserNotificationListResponse struct {
	Notifications []models.UserNotification `json:"notifications"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Count   *int64 `json:"count,omitempty"`
}
