package handler

import (
	"net/http"

	"github.com/dandantas/pimpush/internal/model"
)

// MappingHandler serves the read-only field mapping table
type MappingHandler struct {
	fields       model.FieldMap
	environments []string
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(fields model.FieldMap, environments []string) *MappingHandler {
	return &MappingHandler{
		fields:       fields,
		environments: environments,
	}
}

// MappingResponse lists the editable columns and the push targets
type MappingResponse struct {
	IDField      string               `json:"idField"`
	Fields       []model.FieldMapping `json:"fields"`
	Environments []string             `json:"environments"`
}

// Get handles GET /api/v1/field-mappings
func (h *MappingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MappingResponse{
		IDField:      h.fields.IDField,
		Fields:       h.fields.Fields,
		Environments: h.environments,
	})
}
