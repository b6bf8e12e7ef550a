package models

import (
	"time"

	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FieldDefinitionModel is the persistence model for a tenant's card field
// configuration. Field IDs are tenant-stable strings ("orderId", "timeslot"),
// so the primary key is composite over (tenant_id, id).
type FieldDefinitionModel struct {
	TenantID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ID                 string         `gorm:"type:varchar(64);primaryKey"`
	Label              string         `gorm:"type:varchar(200);not null"`
	Description        string         `gorm:"type:text"`
	Type               string         `gorm:"type:varchar(20);not null"`
	IsVisible          bool           `gorm:"not null;default:true"`
	IsSystem           bool           `gorm:"not null;default:false"`
	IsEditable         bool           `gorm:"not null;default:false"`
	Position           int            `gorm:"not null;default:0"`
	SourcePaths        pq.StringArray `gorm:"type:text[]"`
	TransformationKind string         `gorm:"type:varchar(20)"`
	TransformationRule string         `gorm:"type:text"`
	OutputFormat       string         `gorm:"type:varchar(20)"`
	CreatedAt          time.Time      `gorm:"not null"`
	UpdatedAt          time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FieldDefinitionModel) TableName() string {
	return "field_definitions"
}

// ToDomain converts the persistence model to a domain FieldDefinition.
func (m *FieldDefinitionModel) ToDomain() fieldconfig.FieldDefinition {
	return fieldconfig.FieldDefinition{
		ID:          m.ID,
		Label:       m.Label,
		Description: m.Description,
		Type:        fieldconfig.FieldType(m.Type),
		IsVisible:   m.IsVisible,
		IsSystem:    m.IsSystem,
		IsEditable:  m.IsEditable,
		Position:    m.Position,
		SourcePaths: append([]string(nil), m.SourcePaths...),
		Transformation: fieldconfig.Transformation{
			Kind:         fieldconfig.TransformationKind(m.TransformationKind),
			Rule:         m.TransformationRule,
			OutputFormat: fieldconfig.OutputFormat(m.OutputFormat),
		},
	}
}

// FieldDefinitionModelFromDomain converts a domain FieldDefinition to its persistence model.
func FieldDefinitionModelFromDomain(tenantID uuid.UUID, def fieldconfig.FieldDefinition) *FieldDefinitionModel {
	return &FieldDefinitionModel{
		TenantID:           tenantID,
		ID:                 def.ID,
		Label:              def.Label,
		Description:        def.Description,
		Type:               string(def.Type),
		IsVisible:          def.IsVisible,
		IsSystem:           def.IsSystem,
		IsEditable:         def.IsEditable,
		Position:           def.Position,
		SourcePaths:        pq.StringArray(def.SourcePaths),
		TransformationKind: string(def.Transformation.Kind),
		TransformationRule: def.Transformation.Rule,
		OutputFormat:       string(def.Transformation.OutputFormat),
	}
}
