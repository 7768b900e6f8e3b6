// Package verify compares the order the persona negotiated on the call
// against what the app's confirmation screen actually shows, and produces a
// pass/fail verdict with a 0-100 score.
package verify

// Overview holds the structured fields parsed from the confirmation screen's
// Overview tab. Fields are the raw screen strings; empty means not found.
type Overview struct {
	OrderNumber      string `json:"order_number,omitempty"`
	ItemCount        string `json:"item_count,omitempty"`
	Payment          string `json:"payment,omitempty"`
	OrderTotal       string `json:"order_total,omitempty"`
	OrderTotalAmount string `json:"order_total_amount,omitempty"`
}

// Verdict is the outcome of a verification run.
type Verdict struct {
	Passed       bool     `json:"passed"`
	Score        int      `json:"score"`
	MatchedItems []string `json:"matched_items"`
	MissingItems []string `json:"missing_items"`

	// ExtraItems is always empty: the keyword comparison is deterministic
	// and cannot attribute screen text it does not recognize to an item.
	ExtraItems []string `json:"extra_items"`

	Reasoning string    `json:"reasoning"`
	Overview  *Overview `json:"overview,omitempty"`
}

// failingVerdict builds a zero-score verdict with every expected item missing.
func failingVerdict(expected []string, reasoning string) *Verdict {
	return &Verdict{
		Passed:       false,
		Score:        0,
		MatchedItems: []string{},
		MissingItems: append([]string{}, expected...),
		ExtraItems:   []string{},
		Reasoning:    reasoning,
	}
}
