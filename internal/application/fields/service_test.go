package fields

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/bloomdesk/backend/internal/domain/order"
)

// MockFieldRepository is a mock implementation of fieldconfig.Repository
type MockFieldRepository struct {
	mock.Mock
}

func (m *MockFieldRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fieldconfig.FieldDefinition), args.Error(1)
}

func testCard(t *testing.T) *card.Card {
	t.Helper()
	rec, err := order.Normalize(map[string]any{
		"id":   "4567890123456",
		"name": "",
		"note_attributes": []any{
			map[string]any{"name": "timeslot", "value": "Deliver between 09:30-11:30 today"},
		},
		"line_items": []any{
			map[string]any{
				"id": "111", "title": "Spring Bouquet", "variant_title": "Large",
				"sku": "SPR-L", "product_id": "501", "variant_id": "901",
				"quantity": float64(1), "price": "89.00",
			},
		},
		"shipping_address": map[string]any{"first_name": "Ada", "city": "Melbourne"},
	})
	require.NoError(t, err)

	return &card.Card{
		CardID:       card.NewCardID(rec.ID, "111", 0),
		OrderID:      rec.ID,
		LineItemID:   "111",
		Title:        "Spring Bouquet",
		VariantTitle: "Large",
		Difficulty:   "Hard",
		AssignedTo:   "Maya",
		Quantity:     1,
		Order:        rec,
	}
}

func newTestService() *Service {
	return NewService(new(MockFieldRepository))
}

func TestRenderField_AttributeAllowlistWinsOverPaths(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	// The path points somewhere else entirely; the card attribute computed
	// during expansion still wins.
	def := &fieldconfig.FieldDefinition{
		ID:          fieldconfig.FieldIDProductTitle,
		Label:       "Product",
		Type:        fieldconfig.FieldTypeText,
		IsVisible:   true,
		SourcePaths: []string{"shippingAddress.city"},
	}
	assert.Equal(t, "Spring Bouquet", svc.RenderField(c, def))

	def.ID = fieldconfig.FieldIDDifficulty
	assert.Equal(t, "Hard", svc.RenderField(c, def))

	def.ID = fieldconfig.FieldIDAssignedTo
	assert.Equal(t, "Maya", svc.RenderField(c, def))
}

func TestRenderField_OrderID(t *testing.T) {
	svc := newTestService()

	def := &fieldconfig.FieldDefinition{
		ID: fieldconfig.FieldIDOrderID, Label: "Order", Type: fieldconfig.FieldTypeText, IsVisible: true,
	}

	t.Run("prefers the canonical display name", func(t *testing.T) {
		c := testCard(t)
		c.Order.Name = "#FL10234"
		assert.Equal(t, "#FL10234", svc.RenderField(c, def))
	})

	t.Run("shortens a long numeric id with the tenant tag", func(t *testing.T) {
		c := testCard(t)
		assert.Equal(t, "FL-23456", svc.RenderField(c, def))
	})

	t.Run("prefixes a short id with a hash", func(t *testing.T) {
		c := testCard(t)
		c.Order.ID = "1001"
		assert.Equal(t, "#1001", svc.RenderField(c, def))
	})

	t.Run("falls back to the order number attribute", func(t *testing.T) {
		c := testCard(t)
		c.Order.ID = ""
		c.Order.NoteAttributes = append(c.Order.NoteAttributes,
			order.NoteAttribute{Key: "order_number", Value: "1001"})
		assert.Equal(t, "1001", svc.RenderField(c, def))
	})

	t.Run("renders the unknown label when nothing is derivable", func(t *testing.T) {
		c := testCard(t)
		c.Order.ID = ""
		assert.Equal(t, "Unknown Order", svc.RenderField(c, def))
	})
}

func TestRenderField_PathWithTransformation(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	def := &fieldconfig.FieldDefinition{
		ID:          "timeslot",
		Label:       "Timeslot",
		Type:        fieldconfig.FieldTypeText,
		IsVisible:   true,
		SourcePaths: []string{"noteAttributes.timeslot"},
		Transformation: fieldconfig.Transformation{
			Kind: fieldconfig.TransformationExtract,
			Rule: `\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}`,
		},
	}

	assert.Equal(t, "09:30-11:30", svc.RenderField(c, def))
}

func TestRenderField_PathWithoutTransformation(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	def := &fieldconfig.FieldDefinition{
		ID:          "suburb",
		Label:       "Suburb",
		Type:        fieldconfig.FieldTypeText,
		IsVisible:   true,
		SourcePaths: []string{"shippingAddress.city"},
	}

	assert.Equal(t, "Melbourne", svc.RenderField(c, def))
}

func TestRenderField_FallsBackToCardAttribute(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	def := &fieldconfig.FieldDefinition{
		ID:          "sku",
		Label:       "SKU",
		Type:        fieldconfig.FieldTypeText,
		IsVisible:   true,
		SourcePaths: []string{"noteAttributes.does_not_exist"},
	}
	c.SKU = "SPR-L"

	assert.Equal(t, "SPR-L", svc.RenderField(c, def))
}

func TestRenderField_NoPathNoAttribute(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	def := &fieldconfig.FieldDefinition{
		ID: "ribbonColour", Label: "Ribbon", Type: fieldconfig.FieldTypeText, IsVisible: true,
	}

	assert.Nil(t, svc.RenderField(c, def))
}

func TestRenderCard_SkipsHiddenFields(t *testing.T) {
	svc := newTestService()
	c := testCard(t)

	defs := []fieldconfig.FieldDefinition{
		{ID: fieldconfig.FieldIDProductTitle, Label: "Product", Type: fieldconfig.FieldTypeText, IsVisible: true},
		{ID: "internalNote", Label: "Internal", Type: fieldconfig.FieldTypeText, IsVisible: false},
	}

	rendered := svc.RenderCard(c, defs)
	assert.Contains(t, rendered, fieldconfig.FieldIDProductTitle)
	assert.NotContains(t, rendered, "internalNote")
}

func TestGetFieldConfig_Delegates(t *testing.T) {
	repo := new(MockFieldRepository)
	svc := NewService(repo)
	tenantID := uuid.New()

	defs := []fieldconfig.FieldDefinition{{ID: "timeslot", Label: "Timeslot", Type: fieldconfig.FieldTypeText}}
	repo.On("FindAllForTenant", mock.Anything, tenantID).Return(defs, nil)

	got, err := svc.GetFieldConfig(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, defs, got)
	repo.AssertExpectations(t)
}
