package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

// InitRoutes builds the HTTP router.
func InitRoutes(h *NotificationHandler, corsOrigin string, logger *logrus.Entry) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(CORS(corsOrigin))
	router.Use(Logger(logger))
	router.Use(Timeout(requestTimeout))

	api := router.Group("/api")
	{
		api.GET("/create_info", h.CreateInfo)
		api.POST("/create", h.Create)
		api.GET("/info", h.Info)
		api.GET("/delete", h.Delete)
		api.GET("/list", h.List)
		api.POST("/active", h.SetActive)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
