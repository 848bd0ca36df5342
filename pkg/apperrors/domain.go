package apperrors

import (
	"net/http"
)

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusConflict)
}

// --- Users ---

var ErrUserNotFound = New(
	CodeNotFound,
	"users",
	"User not found",
	http.StatusNotFound,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"users",
	"Email is already registered",
	http.StatusBadRequest, // 400, как ожидает фронтенд импорта
)

var ErrInvalidUserID = New(
	CodeValidationFailed,
	"request",
	"Invalid user ID",
	http.StatusBadRequest,
)

// --- Uploads ---

// ErrFileTooLarge - файл превышает максимальный размер
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"Photo size must be less than the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType - MIME-тип файла не разрешен
var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

var ErrNoImageProvided = New(
	CodeValidationFailed,
	"validation",
	"No image provided",
	http.StatusBadRequest,
)

var ErrPictureNotFound = New(
	CodeNotFound,
	"storage",
	"Profile picture not found",
	http.StatusNotFound,
)

// --- Notifications ---

var ErrDepartmentRequired = New(
	CodeValidationFailed,
	"notifications",
	"Admin department is required",
	http.StatusBadRequest,
)

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notifications",
	"Notification not found",
	http.StatusNotFound,
)

// --- Auth ---

// ErrInvalidCredentials - неверный email или пароль
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrInvalidToken - неверный или просроченный токен
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
