package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// LibraryHandler serves the molecule library and screening endpoints.
type LibraryHandler struct {
	svc    screening.Service
	logger logging.Logger
}

func NewLibraryHandler(svc screening.Service, logger logging.Logger) *LibraryHandler {
	return &LibraryHandler{svc: svc, logger: logger}
}

// CreateLibrary handles POST /api/v1/library.
func (h *LibraryHandler) CreateLibrary(c *gin.Context) {
	var req types.CreateLibraryRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.CreateLibrary(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetLibrary handles GET /api/v1/library/:id.
func (h *LibraryHandler) GetLibrary(c *gin.Context) {
	resp, err := h.svc.GetLibrary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddMolecule handles POST /api/v1/library/molecules.
func (h *LibraryHandler) AddMolecule(c *gin.Context) {
	var req types.AddMoleculeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.AddMolecule(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetMolecule handles GET /api/v1/library/molecules/:id. The molfile is
// included with ?molfile=true.
func (h *LibraryHandler) GetMolecule(c *gin.Context) {
	withMolfile, _ := strconv.ParseBool(c.Query("molfile"))
	resp, err := h.svc.GetMolecule(c.Request.Context(), c.Param("id"), withMolfile)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Screen handles POST /api/v1/library/:id/screen.
func (h *LibraryHandler) Screen(c *gin.Context) {
	var req types.ScreenRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.ScreenLibrary(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, resp)
}

//Personal.AI order the ending
