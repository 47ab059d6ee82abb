package booking

import (
	"testing"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

func scenarioTiers() domain.TierConfig {
	return domain.TierConfig{
		Premium: domain.TierSpec{TotalRows: 2, TotalPrice: 20},
		Regular: domain.TierSpec{TotalRows: 4, TotalPrice: 15},
		Economy: domain.TierSpec{TotalRows: 4, TotalPrice: 10},
		Basic:   domain.TierSpec{TotalPrice: 8},
	}
}

func TestTierForRow_Scenario(t *testing.T) {
	tiers := scenarioTiers()
	want := map[domain.Tier][]int{
		domain.TierPremium: {0, 1},
		domain.TierRegular: {2, 3, 4, 5},
		domain.TierEconomy: {6, 7, 8, 9},
		domain.TierBasic:   {10, 11, 12, 13},
	}
	for tier, rows := range want {
		for _, row := range rows {
			if got := TierForRow(tiers, row); got.Tier != tier {
				t.Fatalf("TierForRow(%d) = %s, want %s", row, got.Tier, tier)
			}
		}
	}
}

func TestStatus(t *testing.T) {
	c7 := domain.SeatID{Row: 2, Column: 7}
	booked := map[domain.SeatID]struct{}{c7: {}}

	sel := Selection{}
	if got := Status(c7, booked, sel); got != SeatReserved {
		t.Fatalf("Status(C7) = %s, want reserved", got)
	}
	a1 := domain.SeatID{Row: 0, Column: 1}
	if got := Status(a1, booked, sel); got != SeatAvailable {
		t.Fatalf("Status(A1) = %s, want available", got)
	}
	sel.Toggle(a1)
	if got := Status(a1, booked, sel); got != SeatSelected {
		t.Fatalf("Status(A1) = %s, want selected", got)
	}
}

func TestTotalPrice_ToggleRoundTrip(t *testing.T) {
	tiers := scenarioTiers()
	sel := Selection{}
	sel.Toggle(domain.SeatID{Row: 0, Column: 1})
	sel.Toggle(domain.SeatID{Row: 12, Column: 4})
	before := TotalPrice(tiers, sel)
	if before != 28 {
		t.Fatalf("total = %v, want 28", before)
	}

	seat := domain.SeatID{Row: 7, Column: 3}
	if !sel.Toggle(seat) {
		t.Fatalf("toggle should select")
	}
	if got := TotalPrice(tiers, sel); got != before+10 {
		t.Fatalf("total after add = %v, want %v", got, before+10)
	}
	if sel.Toggle(seat) {
		t.Fatalf("second toggle should deselect")
	}
	if got := TotalPrice(tiers, sel); got != before {
		t.Fatalf("total after round trip = %v, want %v", got, before)
	}
}

func TestSelectionLabelsOrdered(t *testing.T) {
	sel := Selection{}
	for _, id := range []domain.SeatID{{Row: 2, Column: 10}, {Row: 0, Column: 3}, {Row: 2, Column: 2}} {
		sel.Toggle(id)
	}
	got := sel.Labels()
	want := []string{"A3", "C2", "C10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Labels() = %v, want %v", got, want)
		}
	}
}

func TestBuildSeatMap(t *testing.T) {
	theater := domain.Theater{
		ID:                "t1",
		SeatConfiguration: domain.SeatConfiguration{Rows: 3, Columns: 2},
		TierConfig:        domain.TierConfig{Premium: domain.TierSpec{TotalRows: 1, TotalPrice: 12}, Basic: domain.TierSpec{TotalPrice: 6}},
	}
	booked := map[domain.SeatID]struct{}{{Row: 1, Column: 2}: {}}
	sel := Selection{{Row: 0, Column: 1}: {}}

	rows := buildSeatMap(theater, booked, sel)
	if len(rows) != 3 || rows[0].Label != "A" || rows[0].Tier != domain.TierPremium || rows[2].Price != 6 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Seats[0].Status != SeatSelected || rows[1].Seats[1].Status != SeatReserved || rows[2].Seats[0].Status != SeatAvailable {
		t.Fatalf("unexpected statuses: %+v", rows)
	}
}
