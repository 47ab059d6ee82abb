package backend

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Clark-Hu/cinema-booking/internal/auth"
	"github.com/Clark-Hu/cinema-booking/internal/backendmock"
	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

func newTestClient(t *testing.T) (*HTTPClient, *backendmock.Server) {
	t.Helper()
	mock := backendmock.New(backendmock.SampleFixture(time.Now()), "secret")
	ts := httptest.NewServer(mock)
	t.Cleanup(ts.Close)

	client, err := NewHTTPClient(ts.URL, 2*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client, mock
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("backend.local", time.Second, nil); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestHTTPClient_PublicReads(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()

	movie, err := client.Movie(ctx, "m1")
	if err != nil {
		t.Fatalf("Movie: %v", err)
	}
	if movie.Title != "Inception" || movie.Duration != 148 || len(movie.Genres) != 2 {
		t.Fatalf("unexpected movie: %+v", movie)
	}

	if _, err := client.Movie(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Movie(missing) error = %v, want ErrNotFound", err)
	}

	grouped, err := client.GroupedShowtimes(ctx)
	if err != nil {
		t.Fatalf("GroupedShowtimes: %v", err)
	}
	if len(grouped) == 0 || len(grouped[0].Theaters) == 0 {
		t.Fatalf("unexpected grouped payload: %+v", grouped)
	}

	foods, err := client.Foods(ctx)
	if err != nil {
		t.Fatalf("Foods: %v", err)
	}
	if len(foods) != 4 {
		t.Fatalf("foods = %d, want 4", len(foods))
	}
	if mock.Calls("GET /public/movies/{id}") != 2 {
		t.Fatalf("movie calls = %d, want 2", mock.Calls("GET /public/movies/{id}"))
	}
}

func TestHTTPClient_AuthenticatedReads(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()
	session := auth.Session{Token: "secret"}

	if _, err := client.Theater(ctx, auth.Anonymous, "t1"); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("Theater(anonymous) error = %v, want ErrUnauthenticated", err)
	}
	if mock.Calls("GET /theaters/{id}") != 0 {
		t.Fatalf("anonymous call should not reach the backend")
	}

	if _, err := client.Theater(ctx, auth.Session{Token: "wrong"}, "t1"); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("Theater(wrong token) error = %v, want ErrUnauthenticated", err)
	}

	theater, err := client.Theater(ctx, session, "t1")
	if err != nil {
		t.Fatalf("Theater: %v", err)
	}
	if theater.SeatConfiguration.Rows != 14 || theater.Premium.TotalRows != 2 || theater.Basic.TotalPrice != 8 {
		t.Fatalf("unexpected theater: %+v", theater)
	}

	showtime, err := client.Showtime(ctx, session, "s1")
	if err != nil {
		t.Fatalf("Showtime: %v", err)
	}
	if len(showtime.BookedSeats) != 1 || showtime.BookedSeats[0] != "C7" {
		t.Fatalf("unexpected booked seats: %v", showtime.BookedSeats)
	}
}

func TestHTTPClient_CreateBooking(t *testing.T) {
	client, mock := newTestClient(t)
	ctx := context.Background()
	session := auth.Session{Token: "secret"}

	conf, err := client.CreateBooking(ctx, session, domain.BookingRequest{
		ShowtimeID:  "s2",
		SeatNumbers: []string{"A1", "F8"},
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if conf.BookingID == "" || len(conf.Seats) != 2 || conf.Total != 25 {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}

	_, err = client.CreateBooking(ctx, session, domain.BookingRequest{ShowtimeID: "s1", SeatNumbers: []string{"C7"}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateBooking(taken) error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Seat already taken" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if mock.Calls("POST /bookings") != 2 {
		t.Fatalf("booking calls = %d, want 2", mock.Calls("POST /bookings"))
	}
}

func TestHTTPClient_ServerErrorWithoutMessage(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Fail("GET /public/showtimes/grouped", http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := client.GroupedShowtimes(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "" {
		t.Fatalf("error = %v, want bare 502 APIError", err)
	}
	if got := UserMessage(err, "Failed to load showtimes"); got != "Failed to load showtimes" {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client, err := NewHTTPClient(url, 500*time.Millisecond, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	_, err = client.Movie(context.Background(), "m1")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport error should not be an APIError: %v", err)
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Seat already taken"}`, "Seat already taken"},
		{`{"message":"  padded  "}`, "padded"},
		{`{"error":"Showtime closed"}`, "Showtime closed"},
		{`{"message":"","error":"fallback"}`, "fallback"},
		{`{"code":"X"}`, ""},
		{`not json`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := extractMessage([]byte(tt.body)); got != tt.want {
			t.Fatalf("extractMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
