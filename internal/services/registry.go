package services

// ServiceContainer содержит все сервисы приложения
type ServiceContainer struct {
	UserService         UserService
	AuthService         AuthService
	NotificationService NotificationService
}
