package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOverview(t *testing.T) {
	texts := []string{
		"ORDER COMPLETE",
		"Order #38291",
		"3 Items",
		"Payment by Credit Card ...0007",
		"Order Total",
		"$14.99",
	}
	o := ParseOverview(texts)

	assert.Equal(t, "Order #38291", o.OrderNumber)
	assert.Equal(t, "3 Items", o.ItemCount)
	assert.Equal(t, "Payment by Credit Card ...0007", o.Payment)
	assert.Equal(t, "Order Total", o.OrderTotal)
	assert.Equal(t, "$14.99", o.OrderTotalAmount)
}

func TestParseOverviewAmountNeedsTotalLabelFirst(t *testing.T) {
	// A price before the "Order Total" label is some other figure, not the
	// total amount.
	o := ParseOverview([]string{"$5.99", "Order Total", "$14.99", "$2.00"})
	assert.Equal(t, "Order Total", o.OrderTotal)
	assert.Equal(t, "$14.99", o.OrderTotalAmount)
}

func TestParseOverviewPaymentFallback(t *testing.T) {
	// The item-count rule claims the line first, then the fallback sweep
	// still recovers the payment mention from it.
	o := ParseOverview([]string{"Paid with Credit Card - 2 Items"})
	assert.Equal(t, "Paid with Credit Card - 2 Items", o.ItemCount)
	assert.Equal(t, "Paid with Credit Card - 2 Items", o.Payment)
}

func TestParseOverviewMissingFields(t *testing.T) {
	o := ParseOverview([]string{"Thanks for your visit"})
	assert.Equal(t, Overview{}, o)
}
