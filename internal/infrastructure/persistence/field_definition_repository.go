package persistence

import (
	"context"

	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/bloomdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFieldDefinitionRepository implements fieldconfig.Repository using GORM
type GormFieldDefinitionRepository struct {
	db *gorm.DB
}

// NewGormFieldDefinitionRepository creates a new GormFieldDefinitionRepository
func NewGormFieldDefinitionRepository(db *gorm.DB) *GormFieldDefinitionRepository {
	return &GormFieldDefinitionRepository{db: db}
}

// FindAllForTenant returns the tenant's field definitions ordered by position.
func (r *GormFieldDefinitionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	var rows []models.FieldDefinitionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	defs := make([]fieldconfig.FieldDefinition, 0, len(rows))
	for i := range rows {
		defs = append(defs, rows[i].ToDomain())
	}
	return defs, nil
}

// Save inserts or replaces a field definition for the tenant.
func (r *GormFieldDefinitionRepository) Save(ctx context.Context, tenantID uuid.UUID, def fieldconfig.FieldDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	model := models.FieldDefinitionModelFromDomain(tenantID, def)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}
