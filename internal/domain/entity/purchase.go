package entity

import "github.com/shopspring/decimal"

// PurchaseSummary is the informational payload sent after a completed
// checkout, independent of the provisioning outcome.
type PurchaseSummary struct {
	Email       string
	Apps        []App
	AmountCents int64
	Currency    string
	Bundle      bool
	EventID     string
}

// Amount renders the charged amount in major units.
func (p *PurchaseSummary) Amount() string {
	return decimal.NewFromInt(p.AmountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
