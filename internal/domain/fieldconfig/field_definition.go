package fieldconfig

import (
	"context"

	"github.com/bloomdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FieldType represents the display type of a field definition
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeDate     FieldType = "date"
	FieldTypeTags     FieldType = "tags"
	FieldTypeStatus   FieldType = "status"
	FieldTypeSelect   FieldType = "select"
)

// IsValid checks if the type is a valid FieldType
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeDate, FieldTypeTags, FieldTypeStatus, FieldTypeSelect:
		return true
	}
	return false
}

// String returns the string representation of FieldType
func (t FieldType) String() string {
	return string(t)
}

// Well-known field definition IDs. These resolve from card attributes
// computed during expansion and classification, ahead of any path lookup.
const (
	FieldIDOrderID        = "orderId"
	FieldIDProductTitle   = "productTitle"
	FieldIDProductVariant = "productVariant"
	FieldIDDifficulty     = "difficulty"
	FieldIDAssignedTo     = "assignedTo"
)

// FieldDefinition describes how one displayed value on an order card is
// found and formatted. Definitions are tenant-scoped, created and edited by
// the settings surface, and read-only to this service. The ID is immutable
// once created; it is the merge and join key everywhere.
type FieldDefinition struct {
	ID             string
	Label          string
	Description    string
	Type           FieldType
	IsVisible      bool
	IsSystem       bool
	IsEditable     bool
	Position       int
	SourcePaths    []string
	Transformation Transformation
}

// PrimarySourcePath returns the path used for extraction. Only the first
// entry of SourcePaths drives resolution; the rest are informational.
func (d *FieldDefinition) PrimarySourcePath() string {
	if len(d.SourcePaths) == 0 {
		return ""
	}
	return d.SourcePaths[0]
}

// Validate checks structural invariants of the definition
func (d *FieldDefinition) Validate() error {
	if d.ID == "" {
		return shared.NewDomainError("INVALID_FIELD_ID", "Field definition ID cannot be empty")
	}
	if d.Label == "" {
		return shared.NewDomainError("INVALID_FIELD_LABEL", "Field definition label cannot be empty")
	}
	if !d.Type.IsValid() {
		return shared.NewDomainError("INVALID_FIELD_TYPE", "Unknown field type: "+string(d.Type))
	}
	if !d.Transformation.Kind.IsValid() {
		return shared.NewDomainError("INVALID_TRANSFORMATION", "Unknown transformation kind: "+string(d.Transformation.Kind))
	}
	if d.Transformation.Kind == TransformationExtract && d.Transformation.Rule == "" {
		return shared.NewDomainError("INVALID_TRANSFORMATION", "Extract transformation requires a rule")
	}
	return nil
}

// Repository loads field definitions for a tenant, ordered by position.
// Definitions are written only by the settings surface; this service never
// mutates them.
type Repository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]FieldDefinition, error)
}
