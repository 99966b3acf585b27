package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// JobHandler serves the asynchronous screening endpoints.
type JobHandler struct {
	svc    screening.Service
	logger logging.Logger
}

func NewJobHandler(svc screening.Service, logger logging.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/v1/jobs/screen and answers 202 with the queued job.
func (h *JobHandler) Submit(c *gin.Context) {
	var req types.JobRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.svc.SubmitJob(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.Header("Location", "/api/v1/jobs/"+job.JobID)
	c.JSON(http.StatusAccepted, job)
}

// Status handles GET /api/v1/jobs/:id.
func (h *JobHandler) Status(c *gin.Context) {
	job, err := h.svc.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, job)
}

//Personal.AI order the ending
