package fields

import (
	"context"

	"github.com/google/uuid"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/bloomdesk/backend/internal/domain/order"
)

const (
	// defaultOrderTag prefixes the short display code derived from long
	// numeric order IDs.
	defaultOrderTag = "FL-"
	// orderTagDigits is how many trailing digits the short code keeps.
	orderTagDigits = 5
	// longOrderIDLength is the threshold above which an order ID is
	// shortened instead of shown verbatim.
	longOrderIDLength = 10

	// orderNumberAttribute is the note attribute consulted as a last resort
	// for the order display code.
	orderNumberAttribute = "order_number"
	// unknownOrderLabel renders when no display code can be derived at all.
	unknownOrderLabel = "Unknown Order"
)

// attributeFirst lists field IDs whose values were computed authoritatively
// during expansion and classification. They resolve from the card itself
// ahead of any path lookup and are never overridden by one.
var attributeFirst = map[string]bool{
	fieldconfig.FieldIDProductTitle:   true,
	fieldconfig.FieldIDProductVariant: true,
	fieldconfig.FieldIDDifficulty:     true,
	fieldconfig.FieldIDAssignedTo:     true,
}

// Service renders display values for (card, field definition) pairs. It
// performs no I/O in RenderField/RenderCard and is safe to call once per
// visible field on every render.
type Service struct {
	repo     fieldconfig.Repository
	orderTag string
}

// NewService creates a field resolution Service
func NewService(repo fieldconfig.Repository) *Service {
	return &Service{
		repo:     repo,
		orderTag: defaultOrderTag,
	}
}

// SetOrderTag overrides the tag prefixed to shortened order display codes.
func (s *Service) SetOrderTag(tag string) {
	if tag != "" {
		s.orderTag = tag
	}
}

// GetFieldConfig loads the tenant's field definitions.
func (s *Service) GetFieldConfig(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	return s.repo.FindAllForTenant(ctx, tenantID)
}

// RenderCard renders every visible definition against one card, keyed by
// definition ID.
func (s *Service) RenderCard(c *card.Card, defs []fieldconfig.FieldDefinition) map[string]any {
	rendered := make(map[string]any, len(defs))
	for i := range defs {
		def := &defs[i]
		if !def.IsVisible {
			continue
		}
		rendered[def.ID] = s.RenderField(c, def)
	}
	return rendered
}

// RenderField resolves one displayed value. Precedence: the card-attribute
// allowlist, then the bespoke order ID rule, then the definition's first
// source path resolved against the parent order with the transformation
// applied, falling back to the card attribute of the same ID when the path
// yields nothing.
func (s *Service) RenderField(c *card.Card, def *fieldconfig.FieldDefinition) any {
	if attributeFirst[def.ID] {
		if value := c.Attribute(def.ID); !isEmpty(value) {
			return value
		}
	}

	if def.ID == fieldconfig.FieldIDOrderID {
		return s.renderOrderID(c)
	}

	path := def.PrimarySourcePath()
	if path != "" {
		if raw := order.Resolve(c.Order, path); raw != nil {
			if def.Transformation.Kind != fieldconfig.TransformationNone && def.Transformation.Kind != "" {
				return def.Transformation.Apply(raw)
			}
			return raw
		}
	}
	return c.Attribute(def.ID)
}

// renderOrderID derives the order display code: the canonical name when the
// upstream record carries one; a tagged short code for long numeric IDs;
// "#" plus the raw ID otherwise; and the order-number attribute or the
// unknown-order label when there is no ID at all.
func (s *Service) renderOrderID(c *card.Card) string {
	rec := c.Order
	if rec != nil && rec.Name != "" {
		return rec.Name
	}

	var raw string
	if rec != nil {
		raw = rec.NumericID()
	}
	if raw != "" {
		if len(raw) >= longOrderIDLength {
			return s.orderTag + raw[len(raw)-orderTagDigits:]
		}
		return "#" + raw
	}

	if rec != nil {
		if number, ok := rec.NoteAttribute(orderNumberAttribute); ok && number != "" {
			return number
		}
		if rec.OrderNumber != "" {
			return "#" + rec.OrderNumber
		}
	}
	return unknownOrderLabel
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
