package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification - запись о новом пользователе для админов отдела.
// Не больше одной непрочитанной записи на пару (пользователь, отдел).
type Notification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_notifications_unread_user_department,where:is_read = false" json:"userId"`
	UserName       string    `gorm:"not null" json:"userName"`
	UserEmail      string    `gorm:"not null" json:"userEmail"`
	UserDepartment string    `gorm:"not null;uniqueIndex:idx_notifications_unread_user_department" json:"userDepartment"`
	IsRead         bool      `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

// UserNotification - запись об изменении профиля для самого пользователя
type UserNotification struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"not null;index" json:"userId"`
	UserName       string            `json:"userName"`
	UserEmail      string            `json:"userEmail"`
	UserDepartment string            `json:"userDepartment"`
	UpdatedBy      string            `gorm:"not null" json:"updatedBy"`
	Changes        datatypes.JSONMap `json:"changes"`
	IsRead         bool              `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt      time.Time         `gorm:"index" json:"createdAt"`
}
