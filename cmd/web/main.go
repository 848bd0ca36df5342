// @title           Admin Console API
// @version         1.0
// @description     Пользователи и уведомления админ-консоли.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import "admin_console/internal/app"

func main() {
	app.Run()
}
