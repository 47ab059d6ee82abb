package domain

import "fmt"

// Tier names a contiguous band of rows sharing one seat price.
type Tier string

const (
	TierPremium Tier = "premium"
	TierRegular Tier = "regular"
	TierEconomy Tier = "economy"
	TierBasic   Tier = "basic"
)

// TierSpec is one tier definition as configured on a theater.
type TierSpec struct {
	TotalRows  int     `json:"totalRows"`
	TotalPrice float64 `json:"totalPrice"`
}

// TierConfig holds the four tier definitions. Tiers are assigned from the
// front row in the order premium, regular, economy; remaining rows are basic.
type TierConfig struct {
	Premium TierSpec `json:"premium"`
	Regular TierSpec `json:"regular"`
	Economy TierSpec `json:"economy"`
	Basic   TierSpec `json:"basic"`
}

// SeatConfiguration is the physical grid of a theater.
type SeatConfiguration struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Theater is the seat layout and pricing of one auditorium.
type Theater struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Location          string            `json:"location"`
	SeatConfiguration SeatConfiguration `json:"seatConfiguration"`
	TierConfig
}

// Validate reports whether the layout can be priced.
func (t Theater) Validate() error {
	if t.SeatConfiguration.Rows <= 0 || t.SeatConfiguration.Columns <= 0 {
		return fmt.Errorf("theater %s: seat configuration must be positive, got %dx%d",
			t.ID, t.SeatConfiguration.Rows, t.SeatConfiguration.Columns)
	}
	for name, spec := range map[Tier]TierSpec{
		TierPremium: t.Premium,
		TierRegular: t.Regular,
		TierEconomy: t.Economy,
		TierBasic:   t.Basic,
	} {
		if spec.TotalRows < 0 {
			return fmt.Errorf("theater %s: %s rows must be non-negative", t.ID, name)
		}
		if spec.TotalPrice < 0 {
			return fmt.Errorf("theater %s: %s price must be non-negative", t.ID, name)
		}
	}
	banded := t.Premium.TotalRows + t.Regular.TotalRows + t.Economy.TotalRows
	if banded > t.SeatConfiguration.Rows {
		return fmt.Errorf("theater %s: tiered rows (%d) exceed configured rows (%d)",
			t.ID, banded, t.SeatConfiguration.Rows)
	}
	return nil
}
