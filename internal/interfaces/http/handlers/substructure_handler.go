package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// SubstructureHandler serves the single-target search endpoints.
type SubstructureHandler struct {
	svc    screening.Service
	logger logging.Logger
}

func NewSubstructureHandler(svc screening.Service, logger logging.Logger) *SubstructureHandler {
	return &SubstructureHandler{svc: svc, logger: logger}
}

// Match handles POST /api/v1/substructure/match.
func (h *SubstructureHandler) Match(c *gin.Context) {
	h.match(c, h.svc.Match)
}

// Any handles POST /api/v1/substructure/any.
func (h *SubstructureHandler) Any(c *gin.Context) {
	h.match(c, h.svc.Any)
}

func (h *SubstructureHandler) match(c *gin.Context, run func(context.Context, *types.MatchRequest) (*types.MatchResponse, error)) {
	var req types.MatchRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := run(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Rings handles POST /api/v1/substructure/rings.
func (h *SubstructureHandler) Rings(c *gin.Context) {
	var req types.RingsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Rings(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Aromatic handles POST /api/v1/substructure/aromatic.
func (h *SubstructureHandler) Aromatic(c *gin.Context) {
	var req types.AromaticRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Aromatic(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

//Personal.AI order the ending
