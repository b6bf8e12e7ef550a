package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoteAttribute is a single custom key/value attribute attached to an order.
type NoteAttribute struct {
	Key   string
	Value string
}

// LineItem is one line of an upstream order in the canonical shape.
// Quantity is the ordered quantity; expansion into cards happens later.
type LineItem struct {
	ID           string
	Title        string
	VariantTitle string
	SKU          string
	ProductID    string
	VariantID    string
	ProductType  string
	Quantity     int
	Price        decimal.Decimal
}

// Address is a normalized shipping address.
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	Province  string
	Zip       string
	Country   string
	Phone     string
}

// Customer is the normalized order customer.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// MoneyAmount is a single money value in the shop currency.
type MoneyAmount struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// MoneySet wraps a money amount the way the upstream platform does.
type MoneySet struct {
	ShopMoney MoneyAmount
}

// SourceOrderRecord is the canonical nested representation of one upstream
// order. Both upstream shapes (the flat legacy shape and the edges/node
// shape) are normalized into this form before any resolution logic runs;
// everything downstream assumes this shape only.
//
// Raw holds the normalized JSON document (camelCase keys, line items as a
// plain array) and backs the generic path walk. The typed fields mirror the
// parts the pipeline and resolver touch directly.
type SourceOrderRecord struct {
	ID              string
	Name            string // canonical display name, e.g. "#FL10234"; may be empty
	OrderNumber     string
	CreatedAt       time.Time
	Tags            []string
	NoteAttributes  []NoteAttribute
	LineItems       []LineItem
	ShippingAddress *Address
	Customer        *Customer
	PriceSets       map[string]*MoneySet
	Raw             map[string]any
}

// NoteAttribute returns the value of the custom attribute with the given
// key, or false when no such attribute exists.
func (r *SourceOrderRecord) NoteAttribute(key string) (string, bool) {
	for _, attr := range r.NoteAttributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// PriceSet returns the money set for the given price set key (for example
// "totalPriceSet"), or nil when the order carries no such amount.
func (r *SourceOrderRecord) PriceSet(key string) *MoneySet {
	if r.PriceSets == nil {
		return nil
	}
	return r.PriceSets[key]
}

// NumericID returns the numeric portion of the order ID. Upstream GraphQL
// IDs arrive as "gid://.../Order/4567890123456"; the legacy shape sends the
// bare number.
func (r *SourceOrderRecord) NumericID() string {
	if idx := strings.LastIndex(r.ID, "/"); idx >= 0 {
		return r.ID[idx+1:]
	}
	return r.ID
}
