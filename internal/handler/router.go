package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/middleware"
	"github.com/noah-isme/sma-roster-api/internal/models"
)

// Handlers groups every HTTP handler. Exports and Attachments are optional.
type Handlers struct {
	Auth        *AuthHandler
	Fields      *FieldHandler
	Forms       *FormHandler
	Students    *StudentHandler
	Exports     *ExportHandler
	Attachments *AttachmentHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts probes at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h Handlers) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	authn := middleware.JWT(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	student := middleware.RequireRoles(models.RoleStudent)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.GET("/session", authn, h.Auth.Session)
		auth.POST("/logout", authn, h.Auth.Logout)
		auth.GET("/me", authn, h.Auth.Me)
	}

	fields := api.Group("/fields", authn, admin)
	{
		fields.GET("", h.Fields.List)
		fields.POST("/custom", h.Fields.Add)
		fields.PUT("/custom", h.Fields.Save)
		fields.POST("/custom/preview", h.Fields.Preview)
		fields.DELETE("/custom/:id", h.Fields.Remove)
	}

	forms := api.Group("/forms", authn)
	{
		forms.GET("/new", admin, h.Forms.New)
		forms.POST("/validate", admin, h.Forms.Validate)
		forms.GET("/students/:id", h.Forms.Open)
	}

	students := api.Group("/students", authn, admin)
	{
		students.GET("", h.Students.List)
		students.POST("", h.Students.Create)
		students.GET("/groups/:key", h.Students.Groups)
		if h.Exports != nil {
			students.GET("/export", h.Exports.Roster)
		}
		students.GET("/:id", h.Students.Get)
		students.PUT("/:id", h.Students.Update)
		students.DELETE("/:id", h.Students.Delete)
	}

	api.GET("/me/details", authn, student, h.Students.MyDetails)

	if h.Attachments != nil {
		api.GET("/attachments/download", h.Attachments.Download)
		attachments := api.Group("/attachments", authn, admin)
		{
			attachments.POST("", h.Attachments.Upload)
			attachments.GET("/link", h.Attachments.Link)
		}
	}

	if h.Metrics != nil {
		api.GET("/metrics/summary", authn, admin, h.Metrics.Summary)
	}
}
