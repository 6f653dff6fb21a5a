package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student-api/internal/service"
)

const homeMessage = "JWT-Secured Student API"

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth     service.AuthService
	students service.StudentService
	logger   logrus.FieldLogger
}

func NewHandler(auth service.AuthService, students service.StudentService, logger logrus.FieldLogger) *Handler {
	return &Handler{
		auth:     auth,
		students: students,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, homeMessage)
	})
	router.POST("/register", h.register)
	router.POST("/login", h.login)

	students := router.Group("/students", h.requireToken())
	{
		students.GET("", h.listStudents)
		students.POST("", h.createStudent)
		students.PUT("/:id", h.updateStudent)
		students.DELETE("/:id", h.deleteStudent)
		students.POST("/export", h.exportStudents)
		students.GET("/exports", h.listExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func message(msg string) gin.H {
	return gin.H{"message": msg}
}

// internalError logs err and answers with a generic 500; store detail never reaches the client.
func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.WithError(err).WithField("op", op).Error("request failed")
	c.JSON(http.StatusInternalServerError, message("Internal server error"))
}
