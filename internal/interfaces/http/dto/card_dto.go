package dto

import (
	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
)

// CardsViewResponse is the payload of the cards board endpoint: rendered
// main and add-on cards plus the field definitions the client needs to lay
// the columns out. Card entries are maps keyed by field definition ID.
type CardsViewResponse struct {
	MainCards  []map[string]any          `json:"mainCards"`
	AddOnCards []map[string]any          `json:"addOnCards"`
	Fields     []FieldDefinitionResponse `json:"fields"`
}

// FieldDefinitionResponse is the client-facing shape of a field definition
type FieldDefinitionResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	IsVisible   bool   `json:"isVisible"`
	IsSystem    bool   `json:"isSystem"`
	IsEditable  bool   `json:"isEditable"`
	Position    int    `json:"position"`
}

// ToFieldDefinitionResponse converts a domain field definition
func ToFieldDefinitionResponse(def *fieldconfig.FieldDefinition) FieldDefinitionResponse {
	return FieldDefinitionResponse{
		ID:          def.ID,
		Label:       def.Label,
		Description: def.Description,
		Type:        def.Type.String(),
		IsVisible:   def.IsVisible,
		IsSystem:    def.IsSystem,
		IsEditable:  def.IsEditable,
		Position:    def.Position,
	}
}

// ToFieldDefinitionResponses converts a slice of domain field definitions
func ToFieldDefinitionResponses(defs []fieldconfig.FieldDefinition) []FieldDefinitionResponse {
	out := make([]FieldDefinitionResponse, 0, len(defs))
	for i := range defs {
		out = append(out, ToFieldDefinitionResponse(&defs[i]))
	}
	return out
}

// UpdateStatusRequest is the body of the status click endpoint. The status
// is the button the user clicked; toggle semantics are applied server-side.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=unassigned assigned completed"`
}

// UpdateNotesRequest is the body of the notes endpoint. An empty string
// clears the notes, so the field carries no required binding.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// CardStateResponse is the per-card triage state returned after an edit
type CardStateResponse struct {
	CardID       string `json:"cardId"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	AssignedTo   string `json:"assignedTo"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
}

// ToCardStateResponse converts a domain card's mutable state
func ToCardStateResponse(c *card.Card) CardStateResponse {
	return CardStateResponse{
		CardID:       c.CardID,
		Status:       c.Status.String(),
		Notes:        c.Notes,
		AssignedTo:   c.AssignedTo,
		DeliveryDate: c.DeliveryDate,
	}
}

// UpdateStatusResponse is the payload of the status click endpoint.
// Persisted reports whether the write reached the card state store; a
// false value tells the client to show a transient save indicator.
type UpdateStatusResponse struct {
	Card      CardStateResponse `json:"card"`
	Persisted bool              `json:"persisted"`
}
