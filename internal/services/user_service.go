package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"admin_console/internal/auth"
	"admin_console/internal/config"
	"admin_console/internal/dto"
	"admin_console/internal/events"
	"admin_console/internal/logger"
	"admin_console/internal/models"
	"admin_console/internal/repositories"
	"admin_console/internal/storage"
	"admin_console/internal/validator"
	"admin_console/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const profilePicturePrefix = "profile-pictures/"

// UserEventNotifier - часть диспетчера, нужная CRUD-слою
type UserEventNotifier interface {
	NotifyNewUser(ctx context.Context, ev events.NewUser)
	NotifyUserUpdate(ctx context.Context, ev events.UserUpdated)
}

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, picture *dto.Upload) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, req *dto.UpdateUserRequest, updatedBy string) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	UploadProfilePicture(ctx context.Context, id uint, picture *dto.Upload) (*dto.UploadResponse, error)
	GetProfilePicture(ctx context.Context, id uint) (io.ReadCloser, string, error)
	ImportUsers(ctx context.Context, records []dto.ImportRecord) (*dto.ImportResult, error)
}

type UserServiceImpl struct {
	userRepo  repositories.UserRepository
	notifier  UserEventNotifier
	storage   storage.Storage
	policy    config.UploadPolicy
	validator *validator.Validator
}

func NewUserService(
	userRepo repositories.UserRepository,
	notifier UserEventNotifier,
	storage storage.Storage,
	policy config.UploadPolicy,
	validator *validator.Validator,
) UserService {
	return &UserServiceImpl{
		userRepo:  userRepo,
		notifier:  notifier,
		storage:   storage,
		policy:    policy,
		validator: validator,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "Error fetching users")
	}
	return users, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapUserError(err, "Error fetching user")
	}
	return user, nil
}

// CreateUser создает пользователя и только после записи уведомляет админов
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest, picture *dto.Upload) (*models.User, error) {
	email := normalizeEmail(req.Email)

	taken, err := s.userRepo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "Error saving user")
	}
	if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	var pictureKey, pictureType string
	if picture != nil {
		data, mimeType, err := s.readPicture(picture)
		if err != nil {
			return nil, err
		}
		pictureKey, err = s.storePicture(ctx, data, mimeType)
		if err != nil {
			return nil, err
		}
		pictureType = mimeType
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.discardPicture(ctx, pictureKey)
		return nil, apperrors.InternalError(err)
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.UserRoleUser
	}

	user := &models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       hash,
		Department:         events.NormalizeDepartment(req.Department),
		Role:               role,
		Status:             models.UserStatus(req.Status),
		ProfilePictureKey:  pictureKey,
		ProfilePictureType: pictureType,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.discardPicture(ctx, pictureKey)
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.DatabaseError(err, "Error saving user")
	}

	logger.CtxInfo(ctx, "User created", "user_id", user.ID, "department", user.Department)
	s.notifier.NotifyNewUser(ctx, newUserEvent(user))
	return user, nil
}

// UpdateUser применяет изменения и уведомляет пользователя, если что-то поменялось
func (s *UserServiceImpl) UpdateUser(ctx context.Context, id uint, req *dto.UpdateUserRequest, updatedBy string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapUserError(err, "Error updating user")
	}

	changes := map[string]any{}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != user.Name {
			user.Name = name
			changes["name"] = name
		}
	}
	if req.Email != nil {
		if email := normalizeEmail(*req.Email); email != user.Email {
			taken, err := s.userRepo.EmailTaken(ctx, email, id)
			if err != nil {
				return nil, apperrors.DatabaseError(err, "Error updating user")
			}
			if taken {
				return nil, apperrors.ErrEmailAlreadyExists
			}
			user.Email = email
			changes["email"] = email
		}
	}
	if req.Status != nil {
		if status := models.UserStatus(*req.Status); status != user.Status {
			user.Status = status
			changes["status"] = string(status)
		}
	}
	if req.Department != nil {
		if dept := events.NormalizeDepartment(*req.Department); dept != user.Department {
			user.Department = dept
			changes["department"] = dept
		}
	}

	if len(changes) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.mapUserError(err, "Error updating user")
	}

	if updatedBy != "" {
		s.notifier.NotifyUserUpdate(ctx, events.UserUpdated{
			UserID:         user.ID,
			UpdatedBy:      updatedBy,
			Changes:        changes,
			UserName:       user.Name,
			UserEmail:      user.Email,
			UserDepartment: user.Department,
		})
	}
	return user, nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return s.mapUserError(err, "Error deleting user")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return s.mapUserError(err, "Error deleting user")
	}

	s.discardPicture(ctx, user.ProfilePictureKey)
	logger.CtxInfo(ctx, "User deleted", "user_id", id)
	return nil
}

func (s *UserServiceImpl) UploadProfilePicture(ctx context.Context, id uint, picture *dto.Upload) (*dto.UploadResponse, error) {
	if picture == nil {
		return nil, apperrors.ErrNoImageProvided
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapUserError(err, "Error uploading image")
	}

	data, mimeType, err := s.readPicture(picture)
	if err != nil {
		return nil, err
	}

	key, err := s.storePicture(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfilePicture(ctx, id, key, mimeType); err != nil {
		s.discardPicture(ctx, key)
		return nil, s.mapUserError(err, "Error uploading image")
	}

	s.discardPicture(ctx, user.ProfilePictureKey)
	return &dto.UploadResponse{
		Message:  "Profile picture updated successfully",
		MimeType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

func (s *UserServiceImpl) GetProfilePicture(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", s.mapUserError(err, "Error fetching image")
	}
	if !user.HasProfilePicture() {
		return nil, "", apperrors.ErrPictureNotFound
	}

	rc, err := s.storage.Get(ctx, user.ProfilePictureKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperrors.ErrPictureNotFound
		}
		return nil, "", apperrors.InternalError(err)
	}
	return rc, user.ProfilePictureType, nil
}

// ImportUsers создает пользователей из уже разобранных строк CSV.
// Невалидные строки пропускаются, существующие email попадают в duplicates.
func (s *UserServiceImpl) ImportUsers(ctx context.Context, records []dto.ImportRecord) (*dto.ImportResult, error) {
	result := &dto.ImportResult{
		TotalRecords: len(records),
		Duplicates:   []dto.ImportRecord{},
	}
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if err := s.validator.Validate(&rec); err != nil {
			result.Skipped++
			continue
		}

		email := normalizeEmail(rec.Email)
		if _, ok := seen[email]; ok {
			result.Duplicates = append(result.Duplicates, rec)
			continue
		}
		seen[email] = struct{}{}

		taken, err := s.userRepo.EmailTaken(ctx, email, 0)
		if err != nil {
			return nil, apperrors.DatabaseError(err, "Error importing users")
		}
		if taken {
			result.Duplicates = append(result.Duplicates, rec)
			continue
		}

		password := rec.Password
		if password == "" {
			// случайный пароль: войти с ним никто не сможет
			password = uuid.NewString()
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		status := models.UserStatus(rec.Status)
		if status == "" {
			status = models.UserStatusActive
		}

		user := &models.User{
			Name:         strings.TrimSpace(rec.Name),
			Email:        email,
			PasswordHash: hash,
			Department:   events.NormalizeDepartment(rec.Department),
			Role:         models.UserRoleUser,
			Status:       status,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrUserAlreadyExists) {
				result.Duplicates = append(result.Duplicates, rec)
				continue
			}
			return nil, apperrors.DatabaseError(err, "Error importing users")
		}

		result.AddedRecords++
		s.notifier.NotifyNewUser(ctx, newUserEvent(user))
	}

	logger.CtxInfo(ctx, "Users imported",
		"total", result.TotalRecords, "added", result.AddedRecords,
		"duplicates", len(result.Duplicates), "skipped", result.Skipped)
	return result, nil
}

// readPicture читает файл с ограничением размера и определяет MIME по содержимому
func (s *UserServiceImpl) readPicture(picture *dto.Upload) ([]byte, string, error) {
	if picture.Size > s.policy.MaxSize {
		return nil, "", apperrors.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(picture.Reader, s.policy.MaxSize+1))
	if err != nil {
		return nil, "", apperrors.NewBadRequestError("Failed to process file")
	}
	if int64(len(data)) > s.policy.MaxSize {
		return nil, "", apperrors.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, "", apperrors.ErrNoImageProvided
	}

	mimeType := mimetype.Detect(data).String()
	if !s.policy.Allows(mimeType) {
		return nil, "", apperrors.ErrInvalidFileType.WithDetails(map[string]string{"mimeType": mimeType})
	}
	return data, mimeType, nil
}

func (s *UserServiceImpl) storePicture(ctx context.Context, data []byte, mimeType string) (string, error) {
	key := profilePicturePrefix + uuid.NewString()
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return "", apperrors.InternalError(err)
	}
	return key, nil
}

// discardPicture удаляет файл; ошибка только логируется
func (s *UserServiceImpl) discardPicture(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		logger.CtxWithError(ctx, "Failed to delete profile picture", err, "key", key)
	}
}

func (s *UserServiceImpl) mapUserError(err error, message string) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.DatabaseError(err, message)
}

func newUserEvent(u *models.User) events.NewUser {
	return events.NewUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
