package repositories

import (
	"context"
	"errors"

	"admin_console/internal/events"
	"admin_console/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	// Admin notifications (new users)
	Create(ctx context.Context, n *models.Notification) error
	UpsertNewUser(ctx context.Context, n *models.Notification) (bool, error)
	ListUnreadByDepartment(ctx context.Context, department string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)

	// User notifications (profile updates)
	CreateUserNotification(ctx context.Context, n *models.UserNotification) error
	ListUnreadForUser(ctx context.Context, userID uint) ([]models.UserNotification, error)
	MarkAllReadForUser(ctx context.Context, userID uint) (int64, error)
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// UpsertNewUser вставляет запись, если непрочитанной пары (user_id, user_department) еще нет.
// Возвращает true, если строка действительно добавлена.
func (r *NotificationRepositoryImpl) UpsertNewUser(ctx context.Context, n *models.Notification) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "user_department"}},
			// литерал, а не параметр: иначе postgres не сопоставит частичный индекс
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "is_read = false"}}},
			DoNothing:   true,
		}).
		Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListUnreadByDepartment - непрочитанные записи отдела и глобального отдела, новые сверху
func (r *NotificationRepositoryImpl) ListUnreadByDepartment(ctx context.Context, department string) ([]models.Notification, error) {
	var notifications []models.Notification

	department = events.NormalizeDepartment(department)

	err := r.db.WithContext(ctx).
		Where("is_read = ?", false).
		Where("user_department IN ?", []string{department, events.AllDepartments}).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 0 строк бывает и при повторной отметке: отличаем от отсутствующей записи
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}
	return nil
}

// DeleteAll удаляет все записи без условий
func (r *NotificationRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) CreateUserNotification(ctx context.Context, n *models.UserNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepositoryImpl) ListUnreadForUser(ctx context.Context, userID uint) ([]models.UserNotification, error) {
	var notifications []models.UserNotification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) MarkAllReadForUser(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.UserNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
