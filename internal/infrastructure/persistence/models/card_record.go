package models

import (
	"time"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/google/uuid"
)

// CardRecordModel is the persistence model for mutable card state. Only the
// fields staff can edit are stored; everything else on a card is derived from
// the upstream order on each pipeline run.
type CardRecordModel struct {
	TenantID     uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_card_records_tenant_updated,priority:1"`
	CardID       string    `gorm:"type:varchar(128);primaryKey"`
	Status       string    `gorm:"type:varchar(20);not null"`
	Notes        string    `gorm:"type:text"`
	AssignedTo   string    `gorm:"type:varchar(100)"`
	DeliveryDate string    `gorm:"type:varchar(10)"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null;index:idx_card_records_tenant_updated,priority:2"`
}

// TableName returns the table name for GORM
func (CardRecordModel) TableName() string {
	return "card_records"
}

// State converts the persistence model to a domain card State.
func (m *CardRecordModel) State() card.State {
	return card.State{
		Status:       card.CardStatus(m.Status),
		Notes:        m.Notes,
		AssignedTo:   m.AssignedTo,
		DeliveryDate: m.DeliveryDate,
	}
}

// Delta converts the persistence model to a domain card Delta.
func (m *CardRecordModel) Delta() card.Delta {
	return card.Delta{
		CardID:    m.CardID,
		State:     m.State(),
		UpdatedAt: m.UpdatedAt,
	}
}

// CardRecordModelFromState builds a persistence model from a domain card State.
func CardRecordModelFromState(tenantID uuid.UUID, cardID string, state card.State) *CardRecordModel {
	return &CardRecordModel{
		TenantID:     tenantID,
		CardID:       cardID,
		Status:       string(state.Status),
		Notes:        state.Notes,
		AssignedTo:   state.AssignedTo,
		DeliveryDate: state.DeliveryDate,
	}
}
