package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bloomdesk/backend/internal/application/fields"
	"github.com/bloomdesk/backend/internal/interfaces/http/dto"
)

// FieldDefinitionHandler serves the tenant's field configuration. The
// definitions are written by the settings surface; this endpoint is
// read-only.
type FieldDefinitionHandler struct {
	BaseHandler
	fields *fields.Service
}

// NewFieldDefinitionHandler creates a new FieldDefinitionHandler
func NewFieldDefinitionHandler(fieldsSvc *fields.Service) *FieldDefinitionHandler {
	return &FieldDefinitionHandler{fields: fieldsSvc}
}

// List returns all field definitions for the tenant, ordered by position
func (h *FieldDefinitionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	defs, err := h.fields.GetFieldConfig(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToFieldDefinitionResponses(defs))
}
