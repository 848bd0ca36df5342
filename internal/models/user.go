package models

type User struct {
	BaseModel
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Department   string     `gorm:"index;not null" json:"department"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// Ключ файла в хранилище и его MIME-тип
	ProfilePictureKey  string `json:"-"`
	ProfilePictureType string `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) HasProfilePicture() bool {
	return u.ProfilePictureKey != ""
}
