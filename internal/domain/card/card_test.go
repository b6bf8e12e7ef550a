package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCardID(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, NewCardID("1001", "111", 0), NewCardID("1001", "111", 0))
	})

	t.Run("distinguishes instances of the same line item", func(t *testing.T) {
		assert.NotEqual(t, NewCardID("1001", "111", 0), NewCardID("1001", "111", 1))
	})

	t.Run("strips gid prefixes", func(t *testing.T) {
		assert.Equal(t,
			NewCardID("1001", "111", 0),
			NewCardID("gid://shopify/Order/1001", "gid://shopify/LineItem/111", 0),
		)
	})
}

func TestCard_ClickStatus(t *testing.T) {
	t.Run("clicking a different status sets it and stamps the actor", func(t *testing.T) {
		c := &Card{Status: StatusUnassigned}
		c.ClickStatus(StatusAssigned, "Maya")

		assert.Equal(t, StatusAssigned, c.Status)
		assert.Equal(t, "Maya", c.AssignedTo)
	})

	t.Run("clicking the active status toggles back to unassigned", func(t *testing.T) {
		c := &Card{Status: StatusAssigned, AssignedTo: "Maya"}
		c.ClickStatus(StatusAssigned, "Maya")

		assert.Equal(t, StatusUnassigned, c.Status)
		assert.Empty(t, c.AssignedTo)
	})

	t.Run("moving between assigned and completed restamps", func(t *testing.T) {
		c := &Card{Status: StatusAssigned, AssignedTo: "Maya"}
		c.ClickStatus(StatusCompleted, "Noor")

		assert.Equal(t, StatusCompleted, c.Status)
		assert.Equal(t, "Noor", c.AssignedTo)
	})

	t.Run("clicking unassigned from completed clears the assignee", func(t *testing.T) {
		c := &Card{Status: StatusCompleted, AssignedTo: "Maya"}
		c.ClickStatus(StatusUnassigned, "Noor")

		assert.Equal(t, StatusUnassigned, c.Status)
		assert.Empty(t, c.AssignedTo)
	})
}

func TestCard_StateRoundTrip(t *testing.T) {
	c := &Card{
		Status:       StatusAssigned,
		Notes:        "ribbon in gold",
		AssignedTo:   "Maya",
		DeliveryDate: "2026-03-14",
	}

	other := &Card{}
	other.ApplyState(c.State())

	assert.Equal(t, c.Status, other.Status)
	assert.Equal(t, c.Notes, other.Notes)
	assert.Equal(t, c.AssignedTo, other.AssignedTo)
	assert.Equal(t, c.DeliveryDate, other.DeliveryDate)
}

func TestHasAddOnLabel(t *testing.T) {
	assert.True(t, HasAddOnLabel([]string{"Seasonal", AddOnLabel}))
	assert.False(t, HasAddOnLabel([]string{"Seasonal"}))
	assert.False(t, HasAddOnLabel(nil))
}

func TestCard_Attribute(t *testing.T) {
	c := &Card{
		OrderID:      "1001",
		Title:        "Spring Bouquet",
		VariantTitle: "Large",
		Difficulty:   "High",
		AssignedTo:   "Maya",
		Quantity:     1,
	}

	assert.Equal(t, "Spring Bouquet", c.Attribute("productTitle"))
	assert.Equal(t, "Large", c.Attribute("productVariant"))
	assert.Equal(t, "High", c.Attribute("difficulty"))
	assert.Equal(t, "Maya", c.Attribute("assignedTo"))
	assert.Equal(t, 1, c.Attribute("quantity"))
	assert.Nil(t, c.Attribute("somethingElse"))
}
