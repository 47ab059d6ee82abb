// Package backendmock is a fixture-driven stand-in for the ticketing backend.
// It serves the endpoints the booking core consumes and records how often
// each one was called.
package backendmock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// Fixture is the data set served by the mock.
type Fixture struct {
	Movies    []domain.Movie    `json:"movies"`
	Theaters  []domain.Theater  `json:"theaters"`
	Showtimes []domain.Showtime `json:"showtimes"`
	Foods     []domain.FoodItem `json:"foods"`
}

// LoadFixture reads a JSON fixture from disk.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return fx, nil
}

type fault struct {
	status int
	body   string
}

// Server is an http.Handler backed by a Fixture.
type Server struct {
	mu        sync.Mutex
	token     string
	movies    map[string]domain.Movie
	theaters  map[string]domain.Theater
	showtimes map[string]*domain.Showtime
	order     []string
	foods     []domain.FoodItem
	calls     map[string]int
	faults    map[string]fault
	seq       int
	router    chi.Router
}

// New builds a mock. When token is non-empty only that bearer token is
// accepted on authenticated routes; otherwise any non-empty token is.
func New(fx Fixture, token string) *Server {
	s := &Server{
		token:     token,
		movies:    make(map[string]domain.Movie, len(fx.Movies)),
		theaters:  make(map[string]domain.Theater, len(fx.Theaters)),
		showtimes: make(map[string]*domain.Showtime, len(fx.Showtimes)),
		foods:     append([]domain.FoodItem(nil), fx.Foods...),
		calls:     make(map[string]int),
		faults:    make(map[string]fault),
	}
	for _, m := range fx.Movies {
		s.movies[m.ID] = m
	}
	for _, th := range fx.Theaters {
		s.theaters[th.ID] = th
	}
	for _, st := range fx.Showtimes {
		st := st
		st.BookedSeats = append([]string(nil), st.BookedSeats...)
		s.showtimes[st.ID] = &st
		s.order = append(s.order, st.ID)
	}

	r := chi.NewRouter()
	r.Get("/public/movies/{id}", s.track("GET /public/movies/{id}", s.handleMovie))
	r.Get("/public/showtimes/grouped", s.track("GET /public/showtimes/grouped", s.handleGrouped))
	r.Get("/public/foods", s.track("GET /public/foods", s.handleFoods))
	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/theaters/{id}", s.track("GET /theaters/{id}", s.handleTheater))
		r.Get("/showtimes/{id}", s.track("GET /showtimes/{id}", s.handleShowtime))
		r.Post("/bookings", s.track("POST /bookings", s.handleBooking))
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Calls returns how many times a route (e.g. "GET /theaters/{id}") was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Fail makes every subsequent call to route answer with status and a JSON
// body. A zero status clears the fault.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, route)
		return
	}
	s.faults[route] = fault{status: status, body: body}
}

// BookedSeats returns a copy of the booked seats of a showtime.
func (s *Server) BookedSeats(showtimeID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[showtimeID]
	if !ok {
		return nil
	}
	return append([]string(nil), st.BookedSeats...)
}

func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		f, failing := s.faults[route]
		s.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next(w, r)
	}
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if !strings.HasPrefix(header, "Bearer ") || token == "" || (s.token != "" && token != s.token) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.movies[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Movie not found"})
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleGrouped(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.MovieShowtimes
	movieIdx := map[string]int{}
	theaterIdx := map[string]map[string]int{}
	for _, id := range s.order {
		st := s.showtimes[id]
		mi, ok := movieIdx[st.MovieID]
		if !ok {
			out = append(out, domain.MovieShowtimes{MovieID: st.MovieID, Title: s.movies[st.MovieID].Title})
			mi = len(out) - 1
			movieIdx[st.MovieID] = mi
			theaterIdx[st.MovieID] = map[string]int{}
		}
		ti, ok := theaterIdx[st.MovieID][st.TheaterID]
		if !ok {
			th := s.theaters[st.TheaterID]
			out[mi].Theaters = append(out[mi].Theaters, domain.TheaterShowtimes{
				TheaterID:   th.ID,
				TheaterName: th.Name,
				Location:    th.Location,
			})
			ti = len(out[mi].Theaters) - 1
			theaterIdx[st.MovieID][st.TheaterID] = ti
		}
		out[mi].Theaters[ti].Showtimes = append(out[mi].Theaters[ti].Showtimes, domain.ShowtimeSlot{
			ID: st.ID, Date: st.Date, Time: st.Time,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.foods)
}

func (s *Server) handleTheater(w http.ResponseWriter, r *http.Request) {
	th, ok := s.theaters[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Theater not found"})
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleShowtime(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.showtimes[chi.URLParam(r, "id")]
	var snapshot domain.Showtime
	if ok {
		snapshot = *st
		snapshot.BookedSeats = append([]string{}, st.BookedSeats...)
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Showtime not found"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed booking request"})
		return
	}
	if len(req.SeatNumbers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "At least one seat is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.showtimes[req.ShowtimeID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Showtime not found"})
		return
	}
	th := s.theaters[st.TheaterID]
	booked := make(map[string]struct{}, len(st.BookedSeats))
	for _, seat := range st.BookedSeats {
		booked[seat] = struct{}{}
	}

	total := 0.0
	seats := make([]string, 0, len(req.SeatNumbers))
	for _, raw := range req.SeatNumbers {
		id, err := domain.ParseSeatID(raw)
		if err != nil || id.Row >= th.SeatConfiguration.Rows || id.Column > th.SeatConfiguration.Columns {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("Seat %s does not exist", raw)})
			return
		}
		if _, taken := booked[id.String()]; taken {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Seat already taken"})
			return
		}
		booked[id.String()] = struct{}{}
		seats = append(seats, id.String())
		total += th.ForRow(id.Row).Price
	}

	st.BookedSeats = append(st.BookedSeats, seats...)
	s.seq++
	writeJSON(w, http.StatusCreated, domain.Confirmation{
		BookingID:  fmt.Sprintf("bk-%04d", s.seq),
		ShowtimeID: st.ID,
		Seats:      seats,
		Total:      total,
		CreatedAt:  time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
