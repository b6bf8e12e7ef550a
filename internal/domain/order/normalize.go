package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalization errors
var (
	ErrMissingOrderID = errors.New("order: upstream order has no id")
)

// priceSetKeys maps legacy snake_case price set keys to their canonical
// names. Only sets the dashboard ever displays are normalized.
var priceSetKeys = map[string]string{
	"total_price_set":          "totalPriceSet",
	"subtotal_price_set":       "subtotalPriceSet",
	"total_shipping_price_set": "totalShippingPriceSet",
	"total_tax_set":            "totalTaxSet",
	"total_discounts_set":      "totalDiscountsSet",
}

// Normalize converts a decoded upstream order document into the canonical
// nested shape. The upstream platform delivers orders in one of two shapes:
// a flat legacy shape (snake_case keys, a "line_items" array, attributes
// under "note_attributes") and a nested shape (camelCase keys, line items
// wrapped in edges/node, attributes under "customAttributes"). Both are
// folded into the same SourceOrderRecord; all downstream resolution assumes
// that shape only.
func Normalize(raw map[string]any) (*SourceOrderRecord, error) {
	if raw == nil {
		return nil, ErrMissingOrderID
	}
	if _, ok := raw["line_items"]; ok {
		return normalizeLegacy(raw)
	}
	return normalizeNested(raw)
}

// normalizeLegacy folds the flat snake_case shape into the canonical shape.
func normalizeLegacy(raw map[string]any) (*SourceOrderRecord, error) {
	id := stringValue(raw["id"])
	if id == "" {
		return nil, ErrMissingOrderID
	}

	rec := &SourceOrderRecord{
		ID:          id,
		Name:        stringValue(raw["name"]),
		OrderNumber: stringValue(raw["order_number"]),
		CreatedAt:   timeValue(raw["created_at"]),
		Tags:        splitTags(raw["tags"]),
		PriceSets:   map[string]*MoneySet{},
	}

	for _, item := range sliceValue(raw["note_attributes"]) {
		attr, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// Legacy attributes use "name" for the key.
		key := stringValue(attr["name"])
		if key == "" {
			key = stringValue(attr["key"])
		}
		rec.NoteAttributes = append(rec.NoteAttributes, NoteAttribute{
			Key:   key,
			Value: stringValue(attr["value"]),
		})
	}

	for _, item := range sliceValue(raw["line_items"]) {
		li, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec.LineItems = append(rec.LineItems, LineItem{
			ID:           stringValue(li["id"]),
			Title:        stringValue(li["title"]),
			VariantTitle: stringValue(li["variant_title"]),
			SKU:          stringValue(li["sku"]),
			ProductID:    stringValue(li["product_id"]),
			VariantID:    stringValue(li["variant_id"]),
			ProductType:  stringValue(li["product_type"]),
			Quantity:     intValue(li["quantity"]),
			Price:        decimalValue(li["price"]),
		})
	}

	if addr, ok := raw["shipping_address"].(map[string]any); ok {
		rec.ShippingAddress = &Address{
			FirstName: stringValue(addr["first_name"]),
			LastName:  stringValue(addr["last_name"]),
			Company:   stringValue(addr["company"]),
			Address1:  stringValue(addr["address1"]),
			Address2:  stringValue(addr["address2"]),
			City:      stringValue(addr["city"]),
			Province:  stringValue(addr["province"]),
			Zip:       stringValue(addr["zip"]),
			Country:   stringValue(addr["country"]),
			Phone:     stringValue(addr["phone"]),
		}
	}

	if cust, ok := raw["customer"].(map[string]any); ok {
		rec.Customer = &Customer{
			FirstName: stringValue(cust["first_name"]),
			LastName:  stringValue(cust["last_name"]),
			Email:     stringValue(cust["email"]),
			Phone:     stringValue(cust["phone"]),
		}
	}

	for legacyKey, canonicalKey := range priceSetKeys {
		if set := moneySetValue(raw[legacyKey], "shop_money", "currency_code"); set != nil {
			rec.PriceSets[canonicalKey] = set
		}
	}

	rec.Raw = canonicalRaw(rec)
	return rec, nil
}

// normalizeNested folds the edges/node shape into the canonical shape.
func normalizeNested(raw map[string]any) (*SourceOrderRecord, error) {
	id := stringValue(raw["id"])
	if id == "" {
		return nil, ErrMissingOrderID
	}

	rec := &SourceOrderRecord{
		ID:          id,
		Name:        stringValue(raw["name"]),
		OrderNumber: stringValue(raw["orderNumber"]),
		CreatedAt:   timeValue(raw["createdAt"]),
		Tags:        splitTags(raw["tags"]),
		PriceSets:   map[string]*MoneySet{},
	}

	for _, item := range sliceValue(raw["customAttributes"]) {
		attr, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec.NoteAttributes = append(rec.NoteAttributes, NoteAttribute{
			Key:   stringValue(attr["key"]),
			Value: stringValue(attr["value"]),
		})
	}

	for _, node := range edgeNodes(raw["lineItems"]) {
		li := LineItem{
			ID:       stringValue(node["id"]),
			Title:    stringValue(node["title"]),
			Quantity: intValue(node["quantity"]),
		}
		if variant, ok := node["variant"].(map[string]any); ok {
			li.VariantID = stringValue(variant["id"])
			li.VariantTitle = stringValue(variant["title"])
			li.SKU = stringValue(variant["sku"])
			if price, ok := variant["price"]; ok {
				li.Price = decimalValue(price)
			}
		}
		if product, ok := node["product"].(map[string]any); ok {
			li.ProductID = stringValue(product["id"])
			li.ProductType = stringValue(product["productType"])
		}
		if set := moneySetValue(node["originalUnitPriceSet"], "shopMoney", "currencyCode"); set != nil {
			li.Price = set.ShopMoney.Amount
		}
		rec.LineItems = append(rec.LineItems, li)
	}

	if addr, ok := raw["shippingAddress"].(map[string]any); ok {
		rec.ShippingAddress = &Address{
			FirstName: stringValue(addr["firstName"]),
			LastName:  stringValue(addr["lastName"]),
			Company:   stringValue(addr["company"]),
			Address1:  stringValue(addr["address1"]),
			Address2:  stringValue(addr["address2"]),
			City:      stringValue(addr["city"]),
			Province:  stringValue(addr["province"]),
			Zip:       stringValue(addr["zip"]),
			Country:   stringValue(addr["country"]),
			Phone:     stringValue(addr["phone"]),
		}
	}

	if cust, ok := raw["customer"].(map[string]any); ok {
		rec.Customer = &Customer{
			FirstName: stringValue(cust["firstName"]),
			LastName:  stringValue(cust["lastName"]),
			Email:     stringValue(cust["email"]),
			Phone:     stringValue(cust["phone"]),
		}
	}

	for key, value := range raw {
		if !strings.HasSuffix(key, "Set") {
			continue
		}
		if set := moneySetValue(value, "shopMoney", "currencyCode"); set != nil {
			rec.PriceSets[key] = set
		}
	}

	rec.Raw = canonicalRaw(rec)
	return rec, nil
}

// canonicalRaw rebuilds the normalized document as a plain map so the
// generic path walk sees one shape regardless of what upstream delivered.
func canonicalRaw(rec *SourceOrderRecord) map[string]any {
	raw := map[string]any{
		"id":   rec.ID,
		"name": rec.Name,
	}
	if rec.OrderNumber != "" {
		raw["orderNumber"] = rec.OrderNumber
	}
	if !rec.CreatedAt.IsZero() {
		raw["createdAt"] = rec.CreatedAt.Format(time.RFC3339)
	}
	if len(rec.Tags) > 0 {
		tags := make([]any, len(rec.Tags))
		for i, t := range rec.Tags {
			tags[i] = t
		}
		raw["tags"] = tags
	}

	attrs := make([]any, len(rec.NoteAttributes))
	for i, attr := range rec.NoteAttributes {
		attrs[i] = map[string]any{"key": attr.Key, "value": attr.Value}
	}
	raw["noteAttributes"] = attrs

	items := make([]any, len(rec.LineItems))
	for i, li := range rec.LineItems {
		items[i] = map[string]any{
			"id":           li.ID,
			"title":        li.Title,
			"variantTitle": li.VariantTitle,
			"sku":          li.SKU,
			"productId":    li.ProductID,
			"variantId":    li.VariantID,
			"productType":  li.ProductType,
			"quantity":     li.Quantity,
			"price":        li.Price.String(),
		}
	}
	raw["lineItems"] = items

	if rec.ShippingAddress != nil {
		raw["shippingAddress"] = map[string]any{
			"firstName": rec.ShippingAddress.FirstName,
			"lastName":  rec.ShippingAddress.LastName,
			"company":   rec.ShippingAddress.Company,
			"address1":  rec.ShippingAddress.Address1,
			"address2":  rec.ShippingAddress.Address2,
			"city":      rec.ShippingAddress.City,
			"province":  rec.ShippingAddress.Province,
			"zip":       rec.ShippingAddress.Zip,
			"country":   rec.ShippingAddress.Country,
			"phone":     rec.ShippingAddress.Phone,
		}
	}
	if rec.Customer != nil {
		raw["customer"] = map[string]any{
			"firstName": rec.Customer.FirstName,
			"lastName":  rec.Customer.LastName,
			"email":     rec.Customer.Email,
			"phone":     rec.Customer.Phone,
		}
	}
	for key, set := range rec.PriceSets {
		raw[key] = map[string]any{
			"shopMoney": map[string]any{
				"amount":       set.ShopMoney.Amount.String(),
				"currencyCode": set.ShopMoney.CurrencyCode,
			},
		}
	}
	return raw
}

// ---------------------------------------------------------------------------
// Decoding helpers
// ---------------------------------------------------------------------------

// stringValue renders a decoded JSON scalar as a string. Numbers lose no
// precision: upstream numeric IDs are integers and are formatted without an
// exponent.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return decimal.NewFromFloat(val).String()
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	default:
		return ""
	}
}

func intValue(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	default:
		return 0
	}
}

func decimalValue(v any) decimal.Decimal {
	switch val := v.(type) {
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(val)
	default:
		return decimal.Zero
	}
}

func timeValue(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func sliceValue(v any) []any {
	s, _ := v.([]any)
	return s
}

// splitTags accepts either the legacy comma-joined tag string or the nested
// shape's tag array.
func splitTags(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		tags := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	case []any:
		tags := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringValue(item); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}

// moneySetValue decodes a money set with the given inner key naming.
func moneySetValue(v any, moneyKey, currencyKey string) *MoneySet {
	set, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	money, ok := set[moneyKey].(map[string]any)
	if !ok {
		return nil
	}
	return &MoneySet{
		ShopMoney: MoneyAmount{
			Amount:       decimalValue(money["amount"]),
			CurrencyCode: stringValue(money[currencyKey]),
		},
	}
}

// edgeNodes unwraps an edges/node connection into its node maps.
func edgeNodes(v any) []map[string]any {
	conn, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	edges := sliceValue(conn["edges"])
	nodes := make([]map[string]any, 0, len(edges))
	for _, edge := range edges {
		e, ok := edge.(map[string]any)
		if !ok {
			continue
		}
		if node, ok := e["node"].(map[string]any); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
