package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedMessage = errors.New("malformed message")
)

// Имена событий клиент -> сервер
const (
	EventRegisterAdmin = "register_admin"
	EventRegisterUser  = "register_user"
)

// ClientMessage - закрытое объединение входящих сообщений
type ClientMessage interface {
	// Key возвращает ключ маршрутизации, который устанавливает сообщение
	Key() RoutingKey
	isClientMessage()
}

// RegisterAdmin - админ подписывается на отдел
type RegisterAdmin struct {
	Department string
}

func (m RegisterAdmin) Key() RoutingKey { return Department(m.Department) }
func (RegisterAdmin) isClientMessage()  {}

// RegisterUser - пользователь подписывается на свои обновления
type RegisterUser struct {
	UserID uint
}

func (m RegisterUser) Key() RoutingKey { return UserID(m.UserID) }
func (RegisterUser) isClientMessage()  {}

type rawClientMessage struct {
	Event      string          `json:"event"`
	Department *string         `json:"department"`
	UserID     json.RawMessage `json:"userId"`
}

// DecodeClientMessage разбирает текстовый фрейм клиента и проверяет его форму
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var raw rawClientMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch raw.Event {
	case EventRegisterAdmin:
		if raw.Department == nil || strings.TrimSpace(*raw.Department) == "" {
			return nil, fmt.Errorf("%w: department is required", ErrMalformedMessage)
		}
		return RegisterAdmin{Department: strings.TrimSpace(*raw.Department)}, nil

	case EventRegisterUser:
		id, err := parseUserID(raw.UserID)
		if err != nil {
			return nil, err
		}
		return RegisterUser{UserID: id}, nil

	case "":
		return nil, fmt.Errorf("%w: event is required", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, raw.Event)
	}
}

// parseUserID принимает userId строкой ("42") или числом (42)
func parseUserID(raw json.RawMessage) (uint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: userId is required", ErrMalformedMessage)
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(raw)
	}

	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid userId %q", ErrMalformedMessage, s)
	}
	return uint(id), nil
}
