package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	profileService "github.com/jwalitptl/medrecords-api/internal/service/profile"
	"github.com/jwalitptl/medrecords-api/pkg/httputil"
)

type Handler struct {
	service profileService.Service
}

func NewHandler(service profileService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/get-user-profile", h.GetUserProfile)
}

func (h *Handler) GetUserProfile(c *gin.Context) {
	var q model.ProfileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, handler.BindError(err), "Error fetching user")
		return
	}

	profile, err := h.service.GetUserProfile(c.Request.Context(), &q)
	if err != nil {
		httputil.RespondWithError(c, err, "Error fetching user")
		return
	}

	c.JSON(http.StatusOK, handler.ProfileResponse{Success: true, User: profile})
}
