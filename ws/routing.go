package ws

import (
	"strconv"

	"admin_console/internal/events"
)

type keyKind uint8

const (
	kindNone keyKind = iota
	kindDepartment
	kindUser
)

// RoutingKey определяет, какие события получает соединение:
// отдел для админов или id пользователя для обычных клиентов.
// Нулевое значение означает "еще не зарегистрирован".
type RoutingKey struct {
	kind       keyKind
	department string
	userID     uint
}

// Department - ключ админского соединения
func Department(name string) RoutingKey {
	return RoutingKey{kind: kindDepartment, department: events.NormalizeDepartment(name)}
}

// UserID - ключ пользовательского соединения
func UserID(id uint) RoutingKey {
	return RoutingKey{kind: kindUser, userID: id}
}

// IsZero - соединение без ключа не получает ничего
func (k RoutingKey) IsZero() bool {
	return k.kind == kindNone
}

// MatchesDepartment: ключ-отдел совпадает с dept, либо одна из сторон - "All"
func (k RoutingKey) MatchesDepartment(dept string) bool {
	if k.kind != kindDepartment {
		return false
	}
	dept = events.NormalizeDepartment(dept)
	return k.department == dept ||
		k.department == events.AllDepartments ||
		dept == events.AllDepartments
}

// MatchesUser: ключ-пользователь с тем же id
func (k RoutingKey) MatchesUser(id uint) bool {
	return k.kind == kindUser && k.userID == id
}

func (k RoutingKey) String() string {
	switch k.kind {
	case kindDepartment:
		return "department:" + k.department
	case kindUser:
		return "user:" + strconv.FormatUint(uint64(k.userID), 10)
	default:
		return "unregistered"
	}
}
