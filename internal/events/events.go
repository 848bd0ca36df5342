// Package events описывает доменные события уведомлений, которые CRUD-слой
// передает диспетчеру, и их JSON-представление для сокет-клиентов.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AllDepartments - глобальный отдел. Событие для него получают все админы,
// а админ, подписанный на него, получает события всех отделов.
const AllDepartments = "All"

// Имена событий в протоколе сервер -> клиент
const (
	NameNewUser     = "new_user"
	NameUserUpdated = "user_updated"
)

// Event - закрытое объединение событий. Реализации только в этом пакете.
type Event interface {
	EventName() string
	isEvent()
}

// NewUser - создан новый пользователь
type NewUser struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

func (NewUser) EventName() string { return NameNewUser }
func (NewUser) isEvent()          {}

// UserUpdated - пользователь изменен администратором.
// UserName/UserEmail/UserDepartment опциональны: если пусты, диспетчер
// дочитает их из хранилища пользователей перед сохранением.
type UserUpdated struct {
	UserID         uint
	UpdatedBy      string
	Changes        map[string]any
	UserName       string
	UserEmail      string
	UserDepartment string
}

func (UserUpdated) EventName() string { return NameUserUpdated }
func (UserUpdated) isEvent()          {}

// HasUserDetails сообщает, заполнены ли данные пользователя для записи в хранилище
func (e UserUpdated) HasUserDetails() bool {
	return e.UserName != "" && e.UserEmail != "" && e.UserDepartment != ""
}

type newUserFrame struct {
	Event string  `json:"event"`
	User  NewUser `json:"user"`
}

type userUpdatedData struct {
	UserID    string         `json:"userId"`
	UpdatedBy string         `json:"updatedBy"`
	Changes   map[string]any `json:"changes"`
}

type userUpdatedFrame struct {
	Event string          `json:"event"`
	Data  userUpdatedData `json:"data"`
}

// Encode сериализует событие в текстовый фрейм протокола
func Encode(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case NewUser:
		return json.Marshal(newUserFrame{Event: NameNewUser, User: e})
	case UserUpdated:
		changes := e.Changes
		if changes == nil {
			changes = map[string]any{}
		}
		return json.Marshal(userUpdatedFrame{
			Event: NameUserUpdated,
			Data: userUpdatedData{
				UserID:    strconv.FormatUint(uint64(e.UserID), 10),
				UpdatedBy: e.UpdatedBy,
				Changes:   changes,
			},
		})
	default:
		return nil, fmt.Errorf("unsupported event type %T", ev)
	}
}

// NormalizeDepartment убирает пробелы и приводит любое написание "all" к AllDepartments
func NormalizeDepartment(department string) string {
	department = strings.TrimSpace(department)
	if strings.EqualFold(department, AllDepartments) {
		return AllDepartments
	}
	return department
}

// IsAllDepartments проверяет, является ли отдел глобальным
func IsAllDepartments(department string) bool {
	return NormalizeDepartment(department) == AllDepartments
}
