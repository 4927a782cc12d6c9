package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/shelter-map/internal/controller"
	"github.com/jengzang/shelter-map/internal/mapsurface"
	"github.com/jengzang/shelter-map/internal/middleware"
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/registry"
	"github.com/jengzang/shelter-map/internal/session"
	"github.com/jengzang/shelter-map/pkg/response"
)

// MapHandler handles HTTP requests from the map client
type MapHandler struct {
	sessions *session.Manager
	report   models.LoadReport
}

// NewMapHandler creates a new map handler
func NewMapHandler(sessions *session.Manager, report models.LoadReport) *MapHandler {
	return &MapHandler{sessions: sessions, report: report}
}

type mapView struct {
	State controller.State    `json:"state"`
	Scene mapsurface.Snapshot `json:"scene"`
}

type sessionView struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
	View      mapView   `json:"view"`
}

func viewOf(s *session.Session) mapView {
	return mapView{State: s.Controller.State(), Scene: s.Scene.Snapshot()}
}

// CreateSession handles POST /api/v1/sessions (map ready)
func (h *MapHandler) CreateSession(c *gin.Context) {
	s, token, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to initialise map", err)
		return
	}

	response.Success(c, sessionView{
		Token:     token,
		SessionID: s.ID,
		ExpiresAt: s.ExpiresAt,
		View:      viewOf(s),
	})
}

// GetSession handles GET /api/v1/sessions/current
func (h *MapHandler) GetSession(c *gin.Context) {
	response.Success(c, viewOf(middleware.CurrentSession(c)))
}

// ListCategories handles GET /api/v1/categories
func (h *MapHandler) ListCategories(c *gin.Context) {
	cats := middleware.CurrentSession(c).Controller.Categories()
	response.Success(c, gin.H{
		"data":  cats,
		"count": len(cats),
	})
}

// SetCategoryVisibility handles PUT /api/v1/categories/:category
func (h *MapHandler) SetCategoryVisibility(c *gin.Context) {
	var req models.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	s := middleware.CurrentSession(c)
	err := s.Controller.SetCategoryVisible(models.Category(c.Param("category")), *req.Visible)
	h.respondToggle(c, s, err)
}

// ChangeCategory handles POST /api/v1/categories/:category/change (checkbox event)
func (h *MapHandler) ChangeCategory(c *gin.Context) {
	var ev models.CheckboxEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.BadRequest(c, "Invalid change event", err)
		return
	}

	s := middleware.CurrentSession(c)
	err := s.Controller.HandleCheckboxChange(models.Category(c.Param("category")), ev)
	h.respondToggle(c, s, err)
}

func (h *MapHandler) respondToggle(c *gin.Context, s *session.Session, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownCategory):
		response.NotFound(c, "Unknown category", err)
	case err != nil:
		response.InternalError(c, "Failed to update markers", err)
	default:
		response.Success(c, viewOf(s))
	}
}

// ClickMarker handles POST /api/v1/markers/:handle/click
func (h *MapHandler) ClickMarker(c *gin.Context) {
	s := middleware.CurrentSession(c)
	err := s.Controller.ClickMarker(mapsurface.MarkerHandle(c.Param("handle")))
	if errors.Is(err, mapsurface.ErrNoMarker) {
		response.NotFound(c, "Unknown marker", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to handle click", err)
		return
	}
	response.Success(c, viewOf(s))
}

// CloseComparison handles POST /api/v1/comparison/close
func (h *MapHandler) CloseComparison(c *gin.Context) {
	s := middleware.CurrentSession(c)
	s.Controller.CloseComparison()
	response.Success(c, viewOf(s))
}

// GetDatasetReport handles GET /api/v1/dataset/report
func (h *MapHandler) GetDatasetReport(c *gin.Context) {
	response.Success(c, h.report)
}
