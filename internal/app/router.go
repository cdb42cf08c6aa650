// internal/app/router.go
package app

import (
	phoneHandler "almudeer-service/internal/handlers/telegramphone"
	"almudeer-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	PhoneHandler      *phoneHandler.PhoneHandler
	LicenseMiddleware *middleware.LicenseMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health Check ====================
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Telegram Phone (MTProto) ====================
	tgPhone := r.Group("/api/integrations/telegram-phone")
	tgPhone.Use(h.LicenseMiddleware.Require())
	{
		tgPhone.POST("/start", h.PhoneHandler.StartLogin)
		tgPhone.POST("/verify", h.PhoneHandler.VerifyCode)
		tgPhone.POST("/test", h.PhoneHandler.TestConnection)
		tgPhone.GET("/config", h.PhoneHandler.GetConfig)
		tgPhone.POST("/send", h.PhoneHandler.SendMessage)
		tgPhone.POST("/disconnect", h.PhoneHandler.Disconnect)
	}
}
