package card

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bloomdesk/backend/internal/domain/order"
)

// CardStatus represents the triage status of a card
type CardStatus string

const (
	StatusUnassigned CardStatus = "unassigned"
	StatusAssigned   CardStatus = "assigned"
	StatusCompleted  CardStatus = "completed"
)

// IsValid checks if the status is a valid CardStatus
func (s CardStatus) IsValid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of CardStatus
func (s CardStatus) String() string {
	return string(s)
}

// Card is one independently trackable unit of work: a single unit of
// quantity of a single order line item. Expansion yields quantity-many
// cards per line item, each with Quantity 1 and a CardID that is
// reproducible from the same (order, line item, instance) triple on every
// run; local UI state and the per-card store are both keyed by it.
type Card struct {
	CardID       string
	OrderID      string
	LineItemID   string
	ProductID    string
	VariantID    string
	Title        string
	VariantTitle string
	SKU          string
	ProductType  string
	Quantity     int
	Price        decimal.Decimal
	IsAddOn      bool
	Difficulty   string

	// Order is a shared read-only reference back to the parent record; all
	// cards expanded from one order point at the same normalized document.
	Order *order.SourceOrderRecord

	// Mutable triage state, converged with the external per-card store.
	Status       CardStatus
	Notes        string
	AssignedTo   string
	DeliveryDate string
}

// NewCardID derives the deterministic card identity from its triple. GID
// prefixes are stripped so the same order produces the same IDs no matter
// which upstream shape it arrived in.
func NewCardID(orderID, lineItemID string, instance int) string {
	return fmt.Sprintf("%s-%s-%d", numericTail(orderID), numericTail(lineItemID), instance)
}

func numericTail(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// ClickStatus applies one status button click. Clicking the currently
// active status toggles back to unassigned; clicking any other status sets
// it directly. Entering assigned or completed stamps the acting user's
// display name; leaving either state clears it.
func (c *Card) ClickStatus(clicked CardStatus, actor string) {
	if clicked == c.Status {
		c.Status = StatusUnassigned
		c.AssignedTo = ""
		return
	}
	c.Status = clicked
	if clicked == StatusAssigned || clicked == StatusCompleted {
		c.AssignedTo = actor
	} else {
		c.AssignedTo = ""
	}
}

// State returns the card's mutable state as persisted to the per-card store.
func (c *Card) State() State {
	return State{
		Status:       c.Status,
		Notes:        c.Notes,
		AssignedTo:   c.AssignedTo,
		DeliveryDate: c.DeliveryDate,
	}
}

// ApplyState overwrites the card's mutable fields from a stored state.
func (c *Card) ApplyState(s State) {
	c.Status = s.Status
	c.Notes = s.Notes
	c.AssignedTo = s.AssignedTo
	c.DeliveryDate = s.DeliveryDate
}

// Attribute returns the card's own value for a field definition ID, or nil
// when the card carries no such attribute. Field resolution consults this
// both for the authoritative allowlist and as the fallback when path
// resolution yields nothing.
func (c *Card) Attribute(fieldID string) any {
	switch fieldID {
	case "orderId":
		return c.OrderID
	case "productTitle":
		return c.Title
	case "productVariant":
		return c.VariantTitle
	case "difficulty":
		return c.Difficulty
	case "assignedTo":
		return c.AssignedTo
	case "status":
		return string(c.Status)
	case "notes":
		return c.Notes
	case "deliveryDate":
		return c.DeliveryDate
	case "sku":
		return c.SKU
	case "productType":
		return c.ProductType
	case "quantity":
		return c.Quantity
	case "price":
		return c.Price.String()
	default:
		return nil
	}
}
