package booking

import (
	"fmt"
	"sort"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// SeatStatus is the derived state of one seat.
type SeatStatus int

const (
	SeatAvailable SeatStatus = iota
	SeatSelected
	SeatReserved
)

func (s SeatStatus) String() string {
	switch s {
	case SeatAvailable:
		return "available"
	case SeatSelected:
		return "selected"
	case SeatReserved:
		return "reserved"
	default:
		return fmt.Sprintf("SeatStatus(%d)", int(s))
	}
}

// MarshalText renders the status name.
func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *SeatStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "available":
		*s = SeatAvailable
	case "selected":
		*s = SeatSelected
	case "reserved":
		*s = SeatReserved
	default:
		return fmt.Errorf("booking: unknown seat status %q", text)
	}
	return nil
}

// Selection is the set of seats picked in the current session.
type Selection map[domain.SeatID]struct{}

// Has reports whether id is selected.
func (s Selection) Has(id domain.SeatID) bool {
	_, ok := s[id]
	return ok
}

// Toggle adds id when absent and removes it when present. It reports
// whether the seat is selected afterwards.
func (s Selection) Toggle(id domain.SeatID) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the selected seats ordered by row, then column.
func (s Selection) IDs() []domain.SeatID {
	ids := make([]domain.SeatID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Row != ids[j].Row {
			return ids[i].Row < ids[j].Row
		}
		return ids[i].Column < ids[j].Column
	})
	return ids
}

// Labels returns the ordered seat labels, e.g. ["A1", "C7"].
func (s Selection) Labels() []string {
	ids := s.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Status derives a seat's status. Selection wins over the booked snapshot so
// a seat is never reported as both.
func Status(id domain.SeatID, booked map[domain.SeatID]struct{}, selection Selection) SeatStatus {
	if selection.Has(id) {
		return SeatSelected
	}
	if _, ok := booked[id]; ok {
		return SeatReserved
	}
	return SeatAvailable
}

// TierForRow returns the tier and seat price of a zero-based row.
func TierForRow(tiers domain.TierConfig, row int) domain.TierPrice {
	return tiers.ForRow(row)
}

// TotalPrice sums the row price of every selected seat. It is recomputed on
// each call from the selection and tier configuration.
func TotalPrice(tiers domain.TierConfig, selection Selection) float64 {
	total := 0.0
	for id := range selection {
		total += tiers.ForRow(id.Row).Price
	}
	return total
}

// SeatView is one cell of the seat grid.
type SeatView struct {
	ID     string     `json:"id"`
	Status SeatStatus `json:"status"`
}

// SeatRow is one row of the seat grid with its tier pricing.
type SeatRow struct {
	Label string      `json:"label"`
	Tier  domain.Tier `json:"tier"`
	Price float64     `json:"price"`
	Seats []SeatView  `json:"seats"`
}

func buildSeatMap(theater domain.Theater, booked map[domain.SeatID]struct{}, selection Selection) []SeatRow {
	rows := make([]SeatRow, 0, theater.SeatConfiguration.Rows)
	for r := 0; r < theater.SeatConfiguration.Rows; r++ {
		tier := theater.ForRow(r)
		row := SeatRow{
			Label: domain.RowLabel(r),
			Tier:  tier.Tier,
			Price: tier.Price,
			Seats: make([]SeatView, 0, theater.SeatConfiguration.Columns),
		}
		for c := 1; c <= theater.SeatConfiguration.Columns; c++ {
			id := domain.SeatID{Row: r, Column: c}
			row.Seats = append(row.Seats, SeatView{ID: id.String(), Status: Status(id, booked, selection)})
		}
		rows = append(rows, row)
	}
	return rows
}
