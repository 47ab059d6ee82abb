package backendmock

import (
	"time"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// SampleFixture returns a small catalog whose showtimes fall on today and
// the following two days relative to now.
func SampleFixture(now time.Time) Fixture {
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
	return Fixture{
		Movies: []domain.Movie{
			{ID: "m1", Title: "Inception", Duration: 148, Genres: []string{"Sci-Fi", "Action"}, PosterURL: "https://img.example.com/inception.jpg"},
			{ID: "m2", Title: "Spirited Away", Duration: 125, Genres: []string{"Animation"}, PosterURL: "https://img.example.com/spirited.jpg"},
		},
		Theaters: []domain.Theater{
			{
				ID:                "t1",
				Name:              "Grand Hall",
				Location:          "Downtown",
				SeatConfiguration: domain.SeatConfiguration{Rows: 14, Columns: 12},
				TierConfig: domain.TierConfig{
					Premium: domain.TierSpec{TotalRows: 2, TotalPrice: 20},
					Regular: domain.TierSpec{TotalRows: 4, TotalPrice: 15},
					Economy: domain.TierSpec{TotalRows: 4, TotalPrice: 10},
					Basic:   domain.TierSpec{TotalPrice: 8},
				},
			},
			{
				ID:                "t2",
				Name:              "Studio 2",
				Location:          "Riverside",
				SeatConfiguration: domain.SeatConfiguration{Rows: 6, Columns: 8},
				TierConfig: domain.TierConfig{
					Premium: domain.TierSpec{TotalRows: 1, TotalPrice: 18},
					Regular: domain.TierSpec{TotalRows: 2, TotalPrice: 12},
					Economy: domain.TierSpec{TotalRows: 2, TotalPrice: 9},
					Basic:   domain.TierSpec{TotalPrice: 7},
				},
			},
		},
		Showtimes: []domain.Showtime{
			{ID: "s1", MovieID: "m1", TheaterID: "t1", Date: day(0), Time: "18:30", BookedSeats: []string{"C7"}},
			{ID: "s2", MovieID: "m1", TheaterID: "t2", Date: day(0), Time: "21:00"},
			{ID: "s3", MovieID: "m1", TheaterID: "t1", Date: day(1), Time: "20:00", BookedSeats: []string{"A1", "A2"}},
			{ID: "s4", MovieID: "m2", TheaterID: "t2", Date: day(2), Time: "15:00"},
			{ID: "s5", MovieID: "m1", TheaterID: "t1", Date: day(5), Time: "19:00"},
		},
		Foods: []domain.FoodItem{
			{ID: "popcorn", Name: "Popcorn", Price: 10},
			{ID: "soda", Name: "Soda", Price: 5},
			{ID: "nachos", Name: "Nachos", Price: 15},
			{ID: "candy", Name: "Candy", Price: 4},
		},
	}
}
