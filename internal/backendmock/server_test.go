package backendmock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

func TestGroupedShowtimes(t *testing.T) {
	srv := New(SampleFixture(time.Now()), "")

	req := httptest.NewRequest(http.MethodGet, "/public/showtimes/grouped?retrieveAll=true", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var grouped []domain.MovieShowtimes
	if err := json.Unmarshal(rec.Body.Bytes(), &grouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("movies = %d, want 2", len(grouped))
	}
	if grouped[0].MovieID != "m1" || len(grouped[0].Theaters) != 2 {
		t.Fatalf("unexpected first group: %+v", grouped[0])
	}
	if got := srv.Calls("GET /public/showtimes/grouped"); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestAuthenticatedRoutesRequireBearer(t *testing.T) {
	srv := New(SampleFixture(time.Now()), "secret")

	req := httptest.NewRequest(http.MethodGet, "/theaters/t1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/theaters/t1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestBookingRejectsTakenSeat(t *testing.T) {
	srv := New(SampleFixture(time.Now()), "")

	book := func(seats ...string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(domain.BookingRequest{ShowtimeID: "s1", SeatNumbers: seats})
		req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer any")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	rec := book("A1", "K3")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var conf domain.Confirmation
	if err := json.Unmarshal(rec.Body.Bytes(), &conf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conf.Total != 28 {
		t.Fatalf("total = %v, want 28", conf.Total)
	}

	rec = book("C7")
	if rec.Code != http.StatusBadRequest || !bytes.Contains(rec.Body.Bytes(), []byte("Seat already taken")) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if got := len(srv.BookedSeats("s1")); got != 3 {
		t.Fatalf("booked seats = %d, want 3", got)
	}
}
