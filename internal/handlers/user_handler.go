package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"admin_console/internal/auth"
	"admin_console/internal/dto"
	"admin_console/internal/logger"
	"admin_console/internal/middleware"
	"admin_console/internal/services"
	"admin_console/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ProfilePictureField - имя поля файла в multipart-форме
const ProfilePictureField = "profilePicture"

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	users.Use(h.Authenticated())
	{
		users.GET("/api", middleware.RequirePermission("users:read"), h.ListUsers)
		users.POST("/api", middleware.RequirePermission("users:write"), h.CreateUser)

		users.GET("/:id", h.GetUser)
		users.GET("/:id/picture", h.GetProfilePicture)
		users.PUT("/:id", middleware.RequirePermission("users:write"), h.UpdateUser)
		users.POST("/:id", middleware.RequirePermission("users:write"), h.UploadProfilePicture)
		users.DELETE("/:id", middleware.RequirePermission("users:delete"), h.DeleteUser)
	}

	r.POST("/import/api", h.Authenticated(), middleware.RequirePermission("users:import"), h.ImportUsers)
}

// ListUsers godoc
// @Summary Список пользователей
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string][]dto.UserResponse
// @Router /users/api [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": dto.NewUserListResponse(users)})
}

// CreateUser - POST /users/api. Принимает multipart-форму (с необязательной
// картинкой) или JSON без картинки.
// @Summary Создать пользователя
// @Tags users
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Имя"
// @Param email formData string true "Email"
// @Param department formData string true "Отдел"
// @Param password formData string true "Пароль"
// @Param status formData string true "active или inactive"
// @Param role formData string false "admin или user"
// @Param profilePicture formData file false "Фото профиля"
// @Success 201 {object} dto.CreateUserResponse
// @Failure 400 {object} apperrors.ErrorResponse "Ошибка валидации или email занят"
// @Router /users/api [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	var picture *dto.Upload

	if c.ContentType() == binding.MIMEJSON {
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}
	} else {
		if !h.BindAndValidate_Form(c, &req) {
			return
		}
		upload, closeFn, err := formUpload(c, false)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		defer closeFn()
		picture = upload
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req, picture)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateUserResponse{
		Message: "User created successfully",
		User:    dto.NewUserResponse(user),
	})
}

// GetUser godoc
// @Summary Пользователь по ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.accessibleUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// UpdateUser godoc
// @Summary Обновить пользователя
// @Description Изменения уходят пользователю по сокету и сохраняются в его уведомлениях
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param user body dto.UpdateUserRequest true "Изменяемые поля"
// @Success 200 {object} dto.CreateUserResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	claims, ok := h.GetClaims(c)
	if !ok {
		return
	}
	id, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, &req, claims.DisplayName())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// DeleteUser godoc
// @Summary Удалить пользователя
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} dto.MessageResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "User deleted successfully"})
}

// UploadProfilePicture - POST /users/:id, поле profilePicture обязательно
// @Summary Загрузить фото профиля
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param profilePicture formData file true "Фото профиля"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /users/{id} [post]
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	id, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	upload, closeFn, err := formUpload(c, true)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer closeFn()

	resp, err := h.userService.UploadProfilePicture(c.Request.Context(), id, upload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProfilePicture godoc
// @Summary Фото профиля
// @Tags users
// @Produce image/png
// @Produce image/jpeg
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {file} file
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/{id}/picture [get]
func (h *UserHandler) GetProfilePicture(c *gin.Context) {
	id, ok := h.accessibleUserID(c)
	if !ok {
		return
	}

	body, mimeType, err := h.userService.GetProfilePicture(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", mimeType)
	c.Header("Content-Disposition", "inline")
	c.Header("Cache-Control", "private, max-age=300")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to stream profile picture", err, "user_id", id)
	}
}

// ImportUsers - POST /import/api, записи уже разобраны клиентом
// @Summary Импорт пользователей
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param records body dto.ImportRequest true "Записи"
// @Success 200 {object} dto.ImportResult
// @Router /import/api [post]
func (h *UserHandler) ImportUsers(c *gin.Context) {
	var req dto.ImportRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.userService.ImportUsers(c.Request.Context(), req.Records)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// accessibleUserID - :id из пути; не-админ может читать только себя
func (h *UserHandler) accessibleUserID(c *gin.Context) (uint, bool) {
	claims, ok := h.GetClaims(c)
	if !ok {
		return 0, false
	}
	id, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return 0, false
	}
	if id != claims.UserID && !auth.CanPerformAction(claims, "users:read") {
		logger.CtxWarn(c.Request.Context(), "Access to foreign user denied",
			"target_id", strconv.FormatUint(uint64(id), 10))
		h.HandleServiceError(c, apperrors.ErrInsufficientPermissions)
		return 0, false
	}
	return id, true
}

// formUpload открывает файл profilePicture из формы.
// Без файла возвращает nil, если required=false.
func formUpload(c *gin.Context, required bool) (*dto.Upload, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile(ProfilePictureField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return nil, noop, apperrors.ErrNoImageProvided
			}
			return nil, noop, nil
		}
		return nil, noop, apperrors.NewBadRequestError("failed to parse form: " + err.Error())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, apperrors.InternalError(err)
	}
	return uploadFromHeader(fileHeader, file), func() { file.Close() }, nil
}

func uploadFromHeader(h *multipart.FileHeader, file multipart.File) *dto.Upload {
	return &dto.Upload{
		Filename: h.Filename,
		Size:     h.Size,
		Reader:   file,
	}
}
