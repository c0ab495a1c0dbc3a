package record

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	recordService "github.com/jwalitptl/medrecords-api/internal/service/record"
	"github.com/jwalitptl/medrecords-api/pkg/httputil"
)

type Handler struct {
	service recordService.Service
}

func NewHandler(service recordService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/create-record", h.CreateRecord)
	r.GET("/get-records", h.GetRecords)
	r.PATCH("/update-accepted-status", h.UpdateAcceptedStatus)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req model.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err), "Error creating medical record")
		return
	}

	record, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err, "Error creating medical record")
		return
	}

	c.JSON(http.StatusCreated, handler.RecordResponse{Success: true, Record: record})
}

func (h *Handler) GetRecords(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, handler.BindError(err), "Error fetching patient records")
		return
	}

	records, err := h.service.ListByPatientAndStatus(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err, "Error fetching patient records")
		return
	}

	c.JSON(http.StatusOK, handler.RecordsResponse{Success: true, Records: records})
}

func (h *Handler) UpdateAcceptedStatus(c *gin.Context) {
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err), "Error updating record status")
		return
	}

	record, err := h.service.Transition(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err, "Error updating record status")
		return
	}

	c.JSON(http.StatusOK, handler.RecordResponse{Success: true, Record: record})
}
