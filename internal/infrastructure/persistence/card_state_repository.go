package persistence

import (
	"context"
	"time"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCardStateRepository implements card.StateRepository using GORM
type GormCardStateRepository struct {
	db *gorm.DB
}

// NewGormCardStateRepository creates a new GormCardStateRepository
func NewGormCardStateRepository(db *gorm.DB) *GormCardStateRepository {
	return &GormCardStateRepository{db: db}
}

// Upsert writes the card's state, replacing any previous row for the same
// (tenant_id, card_id). Returns the write timestamp used for reconciliation
// cursors.
func (r *GormCardStateRepository) Upsert(ctx context.Context, tenantID uuid.UUID, cardID string, state card.State) (time.Time, error) {
	now := time.Now().UTC()
	model := models.CardRecordModelFromState(tenantID, cardID, state)
	model.CreatedAt = now
	model.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "card_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "notes", "assigned_to", "delivery_date", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// ListChangedSince returns all card deltas for the tenant written after the
// cursor, oldest first.
func (r *GormCardStateRepository) ListChangedSince(ctx context.Context, tenantID uuid.UUID, cursor time.Time) ([]card.Delta, error) {
	var rows []models.CardRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND updated_at > ?", tenantID, cursor).
		Order("updated_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	deltas := make([]card.Delta, 0, len(rows))
	for i := range rows {
		deltas = append(deltas, rows[i].Delta())
	}
	return deltas, nil
}

// FindByCardIDs returns stored deltas for the given card IDs. Cards with no
// stored state are simply absent from the result.
func (r *GormCardStateRepository) FindByCardIDs(ctx context.Context, tenantID uuid.UUID, cardIDs []string) ([]card.Delta, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}

	var rows []models.CardRecordModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND card_id IN ?", tenantID, cardIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	deltas := make([]card.Delta, 0, len(rows))
	for i := range rows {
		deltas = append(deltas, rows[i].Delta())
	}
	return deltas, nil
}
