package services

import (
	"context"
	"errors"

	"admin_console/internal/events"
	"admin_console/internal/logger"
	"admin_console/internal/longpoll"
	"admin_console/internal/models"
	"admin_console/internal/repositories"
	"admin_console/pkg/apperrors"

	"gorm.io/datatypes"
)

// LiveNotifier - реестр живых сокет-соединений (ws.WebSocketManager)
type LiveNotifier interface {
	BroadcastToDepartment(department string, frame []byte) int
	BroadcastToUser(userID uint, frame []byte) int
}

// PollPublisher - очередь long-poll (longpoll.Queue)
type PollPublisher interface {
	Publish(r longpoll.Result) int
}

// NotificationService объединяет диспетчер событий и API чтения уведомлений.
// Notify* никогда не возвращают ошибку вызывающему CRUD-коду: сбои только логируются.
type NotificationService interface {
	NotifyNewUser(ctx context.Context, ev events.NewUser)
	NotifyUserUpdate(ctx context.Context, ev events.UserUpdated)

	ListUnread(ctx context.Context, department string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uint) error
	ClearAll(ctx context.Context) (int64, error)

	ListUserNotifications(ctx context.Context, userID uint) ([]models.UserNotification, error)
	MarkAllUserNotificationsRead(ctx context.Context, userID uint) (int64, error)
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	live             LiveNotifier
	poll             PollPublisher
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	live LiveNotifier,
	poll PollPublisher,
) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		live:             live,
		poll:             poll,
	}
}

// ---------------- Dispatcher ----------------

// NotifyNewUser: живая отправка админам отдела и "All", публикация в long-poll,
// затем одна запись на отдел события.
func (s *NotificationServiceImpl) NotifyNewUser(ctx context.Context, ev events.NewUser) {
	ev.Department = events.NormalizeDepartment(ev.Department)

	frame, err := events.Encode(ev)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to encode new_user event", err, "user_id", ev.ID)
		return
	}

	delivered := 0
	if s.live != nil {
		delivered = s.live.BroadcastToDepartment(ev.Department, frame)
	}
	polled := 0
	if s.poll != nil {
		polled = s.poll.Publish(longpoll.NewUserResult(ev))
	}
	logger.CtxInfo(ctx, "new_user dispatched",
		"user_id", ev.ID, "department", ev.Department, "live", delivered, "pollers", polled)

	// Запись не должна обрываться, если клиент CRUD-запроса отключился.
	// Одна запись на отдел события: выборка по отделу сама добавляет записи "All".
	inserted, err := s.notificationRepo.UpsertNewUser(context.WithoutCancel(ctx), &models.Notification{
		UserID:         ev.ID,
		UserName:       ev.Name,
		UserEmail:      ev.Email,
		UserDepartment: ev.Department,
	})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to persist new_user notification", err,
			"user_id", ev.ID, "department", ev.Department)
		return
	}
	if !inserted {
		logger.CtxDebug(ctx, "new_user notification already stored", "user_id", ev.ID, "department", ev.Department)
	}
}

// NotifyUserUpdate: живая отправка соединениям пользователя, затем запись UserNotification.
// Недостающие имя/email/отдел дочитываются из хранилища; при ошибке запись пропускается.
func (s *NotificationServiceImpl) NotifyUserUpdate(ctx context.Context, ev events.UserUpdated) {
	frame, err := events.Encode(ev)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to encode user_updated event", err, "user_id", ev.UserID)
		return
	}

	delivered := 0
	if s.live != nil {
		delivered = s.live.BroadcastToUser(ev.UserID, frame)
	}
	logger.CtxInfo(ctx, "user_updated dispatched", "user_id", ev.UserID, "live", delivered)

	storeCtx := context.WithoutCancel(ctx)

	if !ev.HasUserDetails() {
		user, err := s.userRepo.FindByID(storeCtx, ev.UserID)
		if err != nil {
			logger.CtxWithError(ctx, "User lookup failed, user_updated notification not stored", err,
				"user_id", ev.UserID)
			return
		}
		if ev.UserName == "" {
			ev.UserName = user.Name
		}
		if ev.UserEmail == "" {
			ev.UserEmail = user.Email
		}
		if ev.UserDepartment == "" {
			ev.UserDepartment = user.Department
		}
	}

	err = s.notificationRepo.CreateUserNotification(storeCtx, &models.UserNotification{
		UserID:         ev.UserID,
		UserName:       ev.UserName,
		UserEmail:      ev.UserEmail,
		UserDepartment: ev.UserDepartment,
		UpdatedBy:      ev.UpdatedBy,
		Changes:        datatypes.JSONMap(ev.Changes),
	})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to persist user_updated notification", err, "user_id", ev.UserID)
	}
}

// ---------------- Read API ----------------

func (s *NotificationServiceImpl) ListUnread(ctx context.Context, department string) ([]models.Notification, error) {
	department = events.NormalizeDepartment(department)
	if department == "" {
		return nil, apperrors.ErrDepartmentRequired
	}

	notifications, err := s.notificationRepo.ListUnreadByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "Failed to fetch notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id uint) error {
	if err := s.notificationRepo.MarkAsRead(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.DatabaseError(err, "Failed to update notification")
	}
	return nil
}

func (s *NotificationServiceImpl) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.notificationRepo.DeleteAll(ctx)
	if err != nil {
		return 0, apperrors.DatabaseError(err, "Failed to delete notifications")
	}
	logger.CtxInfo(ctx, "Notifications cleared", "deleted", n)
	return n, nil
}

func (s *NotificationServiceImpl) ListUserNotifications(ctx context.Context, userID uint) ([]models.UserNotification, error) {
	if userID == 0 {
		return nil, apperrors.ErrInvalidUserID
	}
	notifications, err := s.notificationRepo.ListUnreadForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "Failed to fetch notifications")
	}
	if notifications == nil {
		notifications = []models.UserNotification{}
	}
	return notifications, nil
}

func (s *NotificationServiceImpl) MarkAllUserNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, apperrors.ErrInvalidUserID
	}
	n, err := s.notificationRepo.MarkAllReadForUser(ctx, userID)
	if err != nil {
		return 0, apperrors.DatabaseError(err, "Failed to update notifications")
	}
	return n, nil
}
