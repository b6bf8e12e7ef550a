package order

import (
	"strconv"
	"strings"
)

// PathKind identifies which resolution rule a source path selects. Paths are
// a small closed vocabulary, not a general query language; parsing happens
// once per field definition and resolution is a switch over the kind.
type PathKind int

const (
	// PathDirect reads a top-level property of the canonical record.
	PathDirect PathKind = iota
	// PathNoteAttribute scans the custom-attribute list by key.
	PathNoteAttribute
	// PathShippingAddress reads one field of the shipping address.
	PathShippingAddress
	// PathCustomer reads one field of the customer.
	PathCustomer
	// PathMoneyAmount reads a money set's shop amount.
	PathMoneyAmount
	// PathLineItemLiteral reads a fixed attribute of the first line item.
	PathLineItemLiteral
	// PathGenericWalk walks the canonical document segment by segment.
	PathGenericWalk
)

// lineItemLiterals is the fixed set of first-line-item shortcut paths.
var lineItemLiterals = map[string]string{
	"lineItems.title":        "title",
	"lineItems.variantTitle": "variantTitle",
	"lineItems.sku":          "sku",
	"lineItems.quantity":     "quantity",
	"lineItems.productType":  "productType",
}

// Path is a parsed source path.
type Path struct {
	Kind PathKind
	// Key is the note-attribute key, nested field name, money set key, or
	// line item attribute, depending on Kind.
	Key string
	// Segments holds the split path for PathGenericWalk.
	Segments []string
}

// ParsePath classifies a raw source path string. The priority order of the
// rules is load-bearing: a path matches the first rule that applies and the
// generic walk is only ever a fallback.
func ParsePath(path string) Path {
	if !strings.Contains(path, ".") {
		return Path{Kind: PathDirect, Key: path}
	}
	if key, ok := strings.CutPrefix(path, "noteAttributes."); ok {
		return Path{Kind: PathNoteAttribute, Key: key}
	}
	if field, ok := strings.CutPrefix(path, "shippingAddress."); ok && !strings.Contains(field, ".") {
		return Path{Kind: PathShippingAddress, Key: field}
	}
	if field, ok := strings.CutPrefix(path, "customer."); ok && !strings.Contains(field, ".") {
		return Path{Kind: PathCustomer, Key: field}
	}
	if setKey, ok := strings.CutSuffix(path, ".shopMoney.amount"); ok && strings.HasSuffix(setKey, "Set") && !strings.Contains(setKey, ".") {
		return Path{Kind: PathMoneyAmount, Key: setKey}
	}
	if attr, ok := lineItemLiterals[path]; ok {
		return Path{Kind: PathLineItemLiteral, Key: attr}
	}
	return Path{Kind: PathGenericWalk, Segments: strings.Split(path, ".")}
}

// Resolve evaluates a source path against a canonical order record. It
// never panics; any missing or mismatched segment yields nil.
func Resolve(rec *SourceOrderRecord, path string) any {
	return ParsePath(path).Resolve(rec)
}

// Resolve evaluates the parsed path against a canonical order record.
func (p Path) Resolve(rec *SourceOrderRecord) any {
	if rec == nil {
		return nil
	}
	switch p.Kind {
	case PathDirect:
		if rec.Raw == nil {
			return nil
		}
		v, ok := rec.Raw[p.Key]
		if !ok {
			return nil
		}
		return v
	case PathNoteAttribute:
		if value, ok := rec.NoteAttribute(p.Key); ok {
			return value
		}
		return nil
	case PathShippingAddress:
		return nestedField(rec.Raw, "shippingAddress", p.Key)
	case PathCustomer:
		return nestedField(rec.Raw, "customer", p.Key)
	case PathMoneyAmount:
		set := rec.PriceSet(p.Key)
		if set == nil {
			return nil
		}
		return set.ShopMoney.Amount.String()
	case PathLineItemLiteral:
		if len(rec.LineItems) == 0 {
			return nil
		}
		return lineItemAttribute(rec.LineItems[0], p.Key)
	case PathGenericWalk:
		return walk(rec.Raw, p.Segments)
	default:
		return nil
	}
}

// nestedField performs a null-safe one-level lookup under a top-level key.
func nestedField(raw map[string]any, parent, field string) any {
	if raw == nil {
		return nil
	}
	obj, ok := raw[parent].(map[string]any)
	if !ok {
		return nil
	}
	v, ok := obj[field]
	if !ok {
		return nil
	}
	return v
}

func lineItemAttribute(li LineItem, attr string) any {
	switch attr {
	case "title":
		return li.Title
	case "variantTitle":
		return li.VariantTitle
	case "sku":
		return li.SKU
	case "quantity":
		return li.Quantity
	case "productType":
		return li.ProductType
	default:
		return nil
	}
}

// walk resolves the generic fallback path segment by segment. Arrays accept
// a purely numeric segment as an index; any other segment implicitly
// selects element 0 first and then resolves against it. An empty array or a
// non-object intermediate value terminates the walk with nil.
func walk(current any, segments []string) any {
	if current == nil {
		return nil
	}
	for _, seg := range segments {
		if arr, ok := current.([]any); ok {
			if idx, err := strconv.Atoi(seg); err == nil {
				if idx < 0 || idx >= len(arr) {
					return nil
				}
				current = arr[idx]
				continue
			}
			if len(arr) == 0 {
				return nil
			}
			current = arr[0]
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[seg]
		if !ok {
			return nil
		}
		current = v
	}
	return current
}
