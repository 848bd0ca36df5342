package validator

import (
	"strings"

	"admin_console/internal/logger"
	"admin_console/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные функции валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// ошибка времени запуска
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err.Error())
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-user-status", validateUserStatus)
	mustRegister("is-department", validateDepartment)
}

// Пустые значения пропускаются: для них есть 'required'

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).IsValid()
}

func validateUserStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserStatus(value).IsValid()
}

func validateDepartment(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && len(trimmed) <= 100
}
