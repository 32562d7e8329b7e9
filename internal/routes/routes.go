package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"practice-scheduler-server/internal/config"
	"practice-scheduler-server/internal/handlers"
	"practice-scheduler-server/internal/middleware"
	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	// Initialize services and handlers
	appointmentSeries := scheduling.NewAppointmentSeries(db, logger.Named("appointments"), cfg.Recurrence)
	availabilitySeries := scheduling.NewAvailabilitySeries(db, logger.Named("availabilities"), cfg.Recurrence)

	appointmentHandler := handlers.NewAppointmentHandler(appointmentSeries)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilitySeries)
	recurrenceHandler := handlers.NewRecurrenceHandler(cfg.Recurrence)

	router.Use(middleware.RequestLogger(logger))

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		// Clinicians and front-desk staff book sessions; admins can do everything
		schedulers := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleClinician, models.RoleStaff)

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", schedulers, appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.GET("/:id/series", appointmentHandler.GetAppointmentSeries)
			// ?editOption= and ?deleteOption= take single, future or all
			appointmentRoutes.PUT("/:id", schedulers, appointmentHandler.UpdateAppointment)
			appointmentRoutes.DELETE("/:id", schedulers, appointmentHandler.DeleteAppointment)
		}

		// Availability is managed by clinicians for themselves and by admins
		availabilityManagers := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleClinician)

		availabilityRoutes := private.Group("/availabilities")
		{
			availabilityRoutes.POST("", availabilityManagers, availabilityHandler.CreateAvailability)
			availabilityRoutes.GET("", availabilityHandler.GetAvailabilities)
			availabilityRoutes.GET("/:id", availabilityHandler.GetAvailabilityByID)
			availabilityRoutes.GET("/:id/series", availabilityHandler.GetAvailabilitySeries)
			availabilityRoutes.PUT("/:id", availabilityManagers, availabilityHandler.UpdateAvailability)
			availabilityRoutes.DELETE("/:id", availabilityManagers, availabilityHandler.DeleteAvailability)
		}

		private.POST("/recurrence/preview", recurrenceHandler.Preview)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(503, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(200, gin.H{"status": "UP"})
	})
}
