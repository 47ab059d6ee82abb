package domain

// TierPrice is the tier and per-seat price of a row.
type TierPrice struct {
	Tier  Tier    `json:"tier"`
	Price float64 `json:"price"`
}

// ForRow returns the tier and price of the zero-based row. Rows past the
// premium, regular and economy bands are basic, with no upper bound.
func (c TierConfig) ForRow(row int) TierPrice {
	limit := c.Premium.TotalRows
	if row < limit {
		return TierPrice{Tier: TierPremium, Price: c.Premium.TotalPrice}
	}
	limit += c.Regular.TotalRows
	if row < limit {
		return TierPrice{Tier: TierRegular, Price: c.Regular.TotalPrice}
	}
	limit += c.Economy.TotalRows
	if row < limit {
		return TierPrice{Tier: TierEconomy, Price: c.Economy.TotalPrice}
	}
	return TierPrice{Tier: TierBasic, Price: c.Basic.TotalPrice}
}
