package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fleetops-service/internal/model"
)

func NewRouter(handler *Handler, authMiddleware, idempotency gin.HandlerFunc, metricsHandler http.Handler, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type", "Idempotent-Replay"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := handler.fleetService.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	if idempotency != nil {
		protected.Use(idempotency)
	}
	{
		protected.GET("/capabilities", handler.capabilities)
		protected.GET("/views/:kind", handler.getView)
		protected.POST("/transitions", handler.transition)

		protected.GET("/vehicles", handler.listVehicles)
		protected.POST("/vehicles", handler.createVehicle)
		protected.POST("/vehicles/:id/actions", handler.actOn(model.EntityVehicle))
		protected.GET("/vehicles/:id/history", handler.history(model.EntityVehicle))

		protected.GET("/bookings", handler.listBookings)
		protected.POST("/bookings", handler.createBooking)
		protected.POST("/bookings/:id/actions", handler.actOn(model.EntityBooking))
		protected.GET("/bookings/:id/history", handler.history(model.EntityBooking))

		protected.GET("/tickets", handler.listTickets)
		protected.POST("/tickets", handler.createTicket)
		protected.POST("/tickets/:id/actions", handler.actOn(model.EntityMaintenance))
		protected.GET("/tickets/:id/history", handler.history(model.EntityMaintenance))
	}

	return router
}
