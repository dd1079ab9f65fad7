// Package handler is the gin HTTP transport of the complaint registry.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"ouvidoria/backend/internal/feed"
	"ouvidoria/backend/internal/localization"
	"ouvidoria/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Registry is the set of complaint operations exposed over HTTP.
// *complaint.Service satisfies it.
type Registry interface {
	Register(ctx context.Context, in models.RegistrationInput) (string, error)
	GetByProtocol(ctx context.Context, protocol string) (*models.Complaint, error)
	FindByNationalID(ctx context.Context, id string) ([]models.Complaint, error)
	FindByEnrollmentID(ctx context.Context, id string) ([]models.Complaint, error)
	ListAll(ctx context.Context) []models.Complaint
	AttachResponse(ctx context.Context, protocol, text string) error
}

// Handler holds the dependencies of the HTTP routes.
type Handler struct {
	Registry    Registry
	Hub         *feed.Hub
	Localizer   *localization.Localizer
	AdminSecret []byte
	Logger      *slog.Logger

	// IntakeLimiter throttles POST /complaints when set.
	IntakeLimiter *RateLimiter
}

func NewHandler(reg Registry, hub *feed.Hub, loc *localization.Localizer, adminSecret string, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = localization.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Registry:    reg,
		Hub:         hub,
		Localizer:   loc,
		AdminSecret: []byte(adminSecret),
		Logger:      logger,
	}
}

// NewRouter mounts every route on a fresh gin engine. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	complaints := r.Group("/complaints")
	{
		intake := []gin.HandlerFunc{h.RegisterComplaint}
		if h.IntakeLimiter != nil {
			intake = append([]gin.HandlerFunc{h.Limit(h.IntakeLimiter)}, intake...)
		}
		complaints.POST("", intake...)
		complaints.GET("", h.SearchComplaints)
		complaints.GET("/:protocol", h.GetComplaint)
	}

	admin := r.Group("/admin", h.AdminAuth())
	{
		admin.GET("/complaints", h.ListComplaints)
		admin.POST("/complaints/:protocol/response", h.AttachResponse)
		admin.GET("/feed", h.ServeFeed)
	}

	return r
}
