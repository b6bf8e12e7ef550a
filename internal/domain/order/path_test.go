package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(t *testing.T) *SourceOrderRecord {
	t.Helper()
	rec, err := Normalize(map[string]any{
		"id":        "gid://shopify/Order/4567890123456",
		"name":      "#FL10234",
		"createdAt": "2026-03-14T09:00:00Z",
		"tags":      []any{"wedding", "rush"},
		"customAttributes": []any{
			map[string]any{"key": "timeslot", "value": "09:30-11:30"},
			map[string]any{"key": "card_message", "value": "Happy birthday Mum"},
		},
		"lineItems": map[string]any{
			"edges": []any{
				map[string]any{"node": map[string]any{
					"id":       "gid://shopify/LineItem/111",
					"title":    "Spring Bouquet",
					"quantity": float64(2),
					"variant": map[string]any{
						"id":    "gid://shopify/ProductVariant/901",
						"title": "Large",
						"sku":   "SPR-L",
					},
					"product": map[string]any{
						"id":          "gid://shopify/Product/501",
						"productType": "Bouquet",
					},
					"originalUnitPriceSet": map[string]any{
						"shopMoney": map[string]any{"amount": "89.00", "currencyCode": "AUD"},
					},
				}},
			},
		},
		"shippingAddress": map[string]any{
			"firstName": "Ada",
			"lastName":  "Nguyen",
			"address1":  "12 Rose St",
			"city":      "Melbourne",
		},
		"customer": map[string]any{
			"firstName": "Ben",
			"email":     "ben@example.com",
		},
		"totalPriceSet": map[string]any{
			"shopMoney": map[string]any{"amount": "178.00", "currencyCode": "AUD"},
		},
	})
	require.NoError(t, err)
	return rec
}

func TestResolve_DirectProperty(t *testing.T) {
	rec := testRecord(t)

	assert.Equal(t, "#FL10234", Resolve(rec, "name"))
	assert.Nil(t, Resolve(rec, "doesNotExist"))
}

func TestResolve_NoteAttributes(t *testing.T) {
	rec := testRecord(t)

	t.Run("returns the attribute value by key", func(t *testing.T) {
		assert.Equal(t, "09:30-11:30", Resolve(rec, "noteAttributes.timeslot"))
		assert.Equal(t, "Happy birthday Mum", Resolve(rec, "noteAttributes.card_message"))
	})

	t.Run("returns nil for a missing key", func(t *testing.T) {
		assert.Nil(t, Resolve(rec, "noteAttributes.ribbon_colour"))
	})
}

func TestResolve_NestedLookups(t *testing.T) {
	rec := testRecord(t)

	assert.Equal(t, "Ada", Resolve(rec, "shippingAddress.firstName"))
	assert.Equal(t, "Melbourne", Resolve(rec, "shippingAddress.city"))
	assert.Equal(t, "ben@example.com", Resolve(rec, "customer.email"))
	assert.Nil(t, Resolve(rec, "customer.title"))
}

func TestResolve_NestedLookups_NullSafe(t *testing.T) {
	rec := &SourceOrderRecord{ID: "1", Raw: map[string]any{"id": "1"}}

	assert.Nil(t, Resolve(rec, "shippingAddress.firstName"))
	assert.Nil(t, Resolve(rec, "customer.email"))
}

func TestResolve_MoneyAmount(t *testing.T) {
	rec := testRecord(t)

	assert.Equal(t, "178.00", Resolve(rec, "totalPriceSet.shopMoney.amount"))
	assert.Nil(t, Resolve(rec, "totalTaxSet.shopMoney.amount"))
}

func TestResolve_LineItemLiterals(t *testing.T) {
	rec := testRecord(t)

	assert.Equal(t, "Spring Bouquet", Resolve(rec, "lineItems.title"))
	assert.Equal(t, "Large", Resolve(rec, "lineItems.variantTitle"))
	assert.Equal(t, "SPR-L", Resolve(rec, "lineItems.sku"))
	assert.Equal(t, 2, Resolve(rec, "lineItems.quantity"))
	assert.Equal(t, "Bouquet", Resolve(rec, "lineItems.productType"))
}

func TestResolve_LineItemLiterals_EmptyOrder(t *testing.T) {
	rec := &SourceOrderRecord{ID: "1", Raw: map[string]any{"id": "1"}}

	assert.Nil(t, Resolve(rec, "lineItems.title"))
}

func TestResolve_GenericWalk(t *testing.T) {
	rec := testRecord(t)

	t.Run("numeric segment indexes into an array", func(t *testing.T) {
		assert.Equal(t, "SPR-L", Resolve(rec, "lineItems.0.sku"))
		assert.Equal(t, "wedding", Resolve(rec, "tags.0"))
		assert.Equal(t, "rush", Resolve(rec, "tags.1"))
	})

	t.Run("non-numeric segment selects element 0 implicitly", func(t *testing.T) {
		assert.Equal(t, "501", walkProductID(rec))
		assert.Equal(t, "89.00", Resolve(rec, "lineItems.price"))
	})

	t.Run("out-of-range index yields nil", func(t *testing.T) {
		assert.Nil(t, Resolve(rec, "lineItems.5.sku"))
		assert.Nil(t, Resolve(rec, "tags.9"))
	})

	t.Run("non-object intermediate yields nil", func(t *testing.T) {
		assert.Nil(t, Resolve(rec, "name.first.second"))
		assert.Nil(t, Resolve(rec, "customer.email.domain"))
	})

	t.Run("empty array terminates the walk", func(t *testing.T) {
		empty := &SourceOrderRecord{ID: "1", Raw: map[string]any{"lineItems": []any{}}}
		assert.Nil(t, Resolve(empty, "lineItems.sku.code"))
	})
}

// walkProductID exercises the implicit element-0 selection through the plain
// lineItems array in the canonical document.
func walkProductID(rec *SourceOrderRecord) any {
	return Resolve(rec, "lineItems.productId")
}

func TestParsePath_PriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind PathKind
	}{
		{"no dot is direct", "name", PathDirect},
		{"note attribute prefix", "noteAttributes.timeslot", PathNoteAttribute},
		{"shipping address prefix", "shippingAddress.city", PathShippingAddress},
		{"customer prefix", "customer.email", PathCustomer},
		{"money amount suffix", "totalPriceSet.shopMoney.amount", PathMoneyAmount},
		{"line item literal", "lineItems.title", PathLineItemLiteral},
		{"anything else walks", "lineItems.0.product.vendor", PathGenericWalk},
		{"deep shipping path walks", "shippingAddress.city.suburb", PathGenericWalk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, ParsePath(tt.path).Kind)
		})
	}
}

func TestResolve_NeverPanics(t *testing.T) {
	assert.Nil(t, Resolve(nil, "name"))
	assert.Nil(t, Resolve(&SourceOrderRecord{}, "noteAttributes.x"))
	assert.Nil(t, Resolve(&SourceOrderRecord{}, "a.b.c.d.e"))
}

func TestNumericID(t *testing.T) {
	assert.Equal(t, "4567890123456", (&SourceOrderRecord{ID: "gid://shopify/Order/4567890123456"}).NumericID())
	assert.Equal(t, "1001", (&SourceOrderRecord{ID: "1001"}).NumericID())
}

func TestPriceSet(t *testing.T) {
	rec := testRecord(t)

	set := rec.PriceSet("totalPriceSet")
	require.NotNil(t, set)
	assert.True(t, set.ShopMoney.Amount.Equal(decimal.RequireFromString("178.00")))
	assert.Nil(t, rec.PriceSet("totalTaxSet"))
}
