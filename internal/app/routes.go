package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *App) RegisterRoutes(payment *handlers.PaymentHandler, health *handlers.HealthHandler) {
	app := a.Router.Group("/payment")
	app.POST("", payment.CreatePayment)

	registerOpsRoutes(a.Router, health)
}

func (w *Worker) RegisterRoutes(health *handlers.HealthHandler) {
	registerOpsRoutes(w.Router, health)
}

func registerOpsRoutes(r *gin.Engine, health *handlers.HealthHandler) {
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
