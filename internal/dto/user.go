package dto

import (
	"strconv"

	"admin_console/internal/models"
)

// CreateUserRequest - поля multipart-формы POST /users/api
type CreateUserRequest struct {
	Name       string `form:"name" json:"name" validate:"required,min=2,max=100"`
	Email      string `form:"email" json:"email" validate:"required,email"`
	Department string `form:"department" json:"department" validate:"required,is-department"`
	Password   string `form:"password" json:"password" validate:"required,min=8"`
	Status     string `form:"status" json:"status" validate:"required,is-user-status"`
	Role       string `form:"role" json:"role" validate:"omitempty,is-user-role"`
}

// UpdateUserRequest - PUT /users/:id. Пустые поля не меняются.
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,is-department"`
	Status     *string `json:"status" validate:"omitempty,is-user-status"`
}

type UserResponse struct {
	ID                uint              `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Department        string            `json:"department"`
	Role              models.UserRole   `json:"role"`
	Status            models.UserStatus `json:"status"`
	HasProfilePicture bool              `json:"hasProfilePicture"`
	ProfilePictureURL string            `json:"profilePicture,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Department:        u.Department,
		Role:              u.Role,
		Status:            u.Status,
		HasProfilePicture: u.HasProfilePicture(),
	}
	if resp.HasProfilePicture {
		resp.ProfilePictureURL = userPictureURL(u.ID)
	}
	return resp
}

func NewUserListResponse(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

type CreateUserResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ImportRecord - одна уже разобранная строка CSV
type ImportRecord struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required,is-department"`
	Password   string `json:"password" validate:"omitempty,min=8"`
	Status     string `json:"status" validate:"omitempty,is-user-status"`
}

type ImportRequest struct {
	Records []ImportRecord `json:"records" validate:"required"`
}

type ImportResult struct {
	TotalRecords int            `json:"totalRecords"`
	AddedRecords int            `json:"addedRecords"`
	Duplicates   []ImportRecord `json:"duplicates"`
	Skipped      int            `json:"skipped"`
}

func userPictureURL(id uint) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10) + "/picture"
}
