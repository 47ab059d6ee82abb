package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Clark-Hu/cinema-booking/internal/auth"
	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// ErrNotFound is returned when the backend cannot find the requested entity.
var ErrNotFound = errors.New("backend: not found")

const maxErrorBody = 64 << 10

// APIError is a non-2xx backend response. Message is taken from the response
// body when present and is meant to be shown to the user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: upstream returned %d", e.Status)
	}
	return fmt.Sprintf("backend: upstream returned %d: %s", e.Status, e.Message)
}

// Client is the contract the booking core consumes.
type Client interface {
	Movie(ctx context.Context, id string) (domain.Movie, error)
	GroupedShowtimes(ctx context.Context) ([]domain.MovieShowtimes, error)
	Foods(ctx context.Context) ([]domain.FoodItem, error)
	Theater(ctx context.Context, session auth.Session, id string) (domain.Theater, error)
	Showtime(ctx context.Context, session auth.Session, id string) (domain.Showtime, error)
	CreateBooking(ctx context.Context, session auth.Session, req domain.BookingRequest) (domain.Confirmation, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  *log.Logger
	now     func() time.Time
}

// NewHTTPClient constructs a new HTTP-backed backend client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse backend url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// Movie fetches public movie detail.
func (c *HTTPClient) Movie(ctx context.Context, id string) (domain.Movie, error) {
	var movie domain.Movie
	err := c.do(ctx, auth.Anonymous, http.MethodGet, "/public/movies/"+url.PathEscape(id), nil, nil, &movie)
	return movie, err
}

// GroupedShowtimes fetches the movie → theater → showtime tree.
func (c *HTTPClient) GroupedShowtimes(ctx context.Context) ([]domain.MovieShowtimes, error) {
	q := url.Values{}
	q.Set("retrieveAll", "true")
	var payload []domain.MovieShowtimes
	if err := c.do(ctx, auth.Anonymous, http.MethodGet, "/public/showtimes/grouped", q, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Foods fetches the concession catalog.
func (c *HTTPClient) Foods(ctx context.Context) ([]domain.FoodItem, error) {
	var payload []domain.FoodItem
	if err := c.do(ctx, auth.Anonymous, http.MethodGet, "/public/foods", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Theater fetches seat configuration and tier pricing.
func (c *HTTPClient) Theater(ctx context.Context, session auth.Session, id string) (domain.Theater, error) {
	if err := session.Require(c.now()); err != nil {
		return domain.Theater{}, err
	}
	var theater domain.Theater
	err := c.do(ctx, session, http.MethodGet, "/theaters/"+url.PathEscape(id), nil, nil, &theater)
	return theater, err
}

// Showtime fetches showtime detail including the booked-seat snapshot.
func (c *HTTPClient) Showtime(ctx context.Context, session auth.Session, id string) (domain.Showtime, error) {
	if err := session.Require(c.now()); err != nil {
		return domain.Showtime{}, err
	}
	var showtime domain.Showtime
	err := c.do(ctx, session, http.MethodGet, "/showtimes/"+url.PathEscape(id), nil, nil, &showtime)
	return showtime, err
}

// CreateBooking submits a booking. It is sent exactly once.
func (c *HTTPClient) CreateBooking(ctx context.Context, session auth.Session, req domain.BookingRequest) (domain.Confirmation, error) {
	if err := session.Require(c.now()); err != nil {
		return domain.Confirmation{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("encode booking request: %w", err)
	}
	var confirmation domain.Confirmation
	if err := c.do(ctx, session, http.MethodPost, "/bookings", nil, body, &confirmation); err != nil {
		return domain.Confirmation{}, err
	}
	return confirmation, nil
}

func (c *HTTPClient) do(ctx context.Context, session auth.Session, method, path string, query url.Values, body []byte, dst interface{}) error {
	endpoint := c.baseURL.JoinPath(path)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	session.Apply(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if dst == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return auth.ErrUnauthenticated
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Printf("backend: unexpected status %d for %s %s", resp.StatusCode, method, path)
		return &APIError{Status: resp.StatusCode, Message: extractMessage(raw)}
	}
}

type errorPayload struct {
	Message *string `json:"message"`
	Error   *string `json:"error"`
}

// extractMessage pulls a user-facing message out of an error body. It
// prefers "message", then "error"; anything else yields "".
func extractMessage(raw []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != nil && strings.TrimSpace(*payload.Message) != "" {
		return strings.TrimSpace(*payload.Message)
	}
	if payload.Error != nil && strings.TrimSpace(*payload.Error) != "" {
		return strings.TrimSpace(*payload.Error)
	}
	return ""
}

// UserMessage returns the message to show for a failed call, or fallback
// when the backend did not supply one.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
