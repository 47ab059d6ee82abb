package domain

// Movie is read-only catalog data fetched from the public backend endpoints.
type Movie struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Duration  int      `json:"duration"`
	Genres    []string `json:"genres"`
	PosterURL string   `json:"posterUrl"`
}

// ShowtimeSlot is a single screening as listed in the grouped showtime catalog.
type ShowtimeSlot struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// TheaterShowtimes groups the screenings of one movie at one theater.
type TheaterShowtimes struct {
	TheaterID   string         `json:"theaterId"`
	TheaterName string         `json:"theaterName"`
	Location    string         `json:"location,omitempty"`
	Showtimes   []ShowtimeSlot `json:"showtimes"`
}

// MovieShowtimes is the movie → theaters → showtimes tree returned by
// GET /public/showtimes/grouped.
type MovieShowtimes struct {
	MovieID  string             `json:"movieId"`
	Title    string             `json:"title"`
	Theaters []TheaterShowtimes `json:"theaters"`
}
