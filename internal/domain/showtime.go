package domain

// Showtime is the authenticated showtime detail, including the booked-seat snapshot.
type Showtime struct {
	ID          string   `json:"id"`
	TheaterID   string   `json:"theaterId"`
	MovieID     string   `json:"movieId,omitempty"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	BookedSeats []string `json:"bookedSeats"`
}
