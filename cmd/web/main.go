// @title           Meetspace API
// @version         1.0
// @description     Бронирование переговорных комнат Flat, подписки и счета (документация Swagger).
// @contact.name    Meetspace support
// @contact.email   support@meetspace.app
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import "meetspace_backend/internal/app"

func main() {
	app.Run()
}
