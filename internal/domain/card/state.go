package card

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AddOnLabel is the product label that classifies a card as an add-on.
const AddOnLabel = "Add-Ons"

// HasAddOnLabel reports whether a product label set carries the add-on label.
func HasAddOnLabel(labels []string) bool {
	for _, label := range labels {
		if label == AddOnLabel {
			return true
		}
	}
	return false
}

// ProductLabelLookup resolves the label set for a product variant. It is an
// external collaborator; lookups may fail per card and classification
// treats a failure as "not an add-on" rather than aborting the batch.
type ProductLabelLookup interface {
	GetLabels(ctx context.Context, tenantID uuid.UUID, productID, variantID string) ([]string, error)
}

// State is the mutable per-card state held by the external store.
type State struct {
	Status       CardStatus `json:"status"`
	Notes        string     `json:"notes"`
	AssignedTo   string     `json:"assignedTo"`
	DeliveryDate string     `json:"deliveryDate"`
}

// Delta is one changed card state read back from the store.
type Delta struct {
	CardID    string
	State     State
	UpdatedAt time.Time
}

// StateRepository is the per-card persistence contract. Upsert is
// idempotent and keyed by (tenant, card); reconciliation polls
// ListChangedSince and merges the returned deltas field-by-field.
type StateRepository interface {
	// Upsert writes the card state and returns the stored update time.
	Upsert(ctx context.Context, tenantID uuid.UUID, cardID string, state State) (time.Time, error)
	// ListChangedSince returns states updated strictly after the cursor.
	ListChangedSince(ctx context.Context, tenantID uuid.UUID, cursor time.Time) ([]Delta, error)
	// FindByCardIDs returns the stored states for the given cards, omitting
	// cards with no stored record.
	FindByCardIDs(ctx context.Context, tenantID uuid.UUID, cardIDs []string) ([]Delta, error)
}
