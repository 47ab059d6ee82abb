// Package booking implements the seat booking wizard: showtime selection,
// seat selection with tier pricing, and checkout.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinema-booking/internal/auth"
	"github.com/Clark-Hu/cinema-booking/internal/backend"
	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

var (
	// ErrStage is returned when an operation is not valid in the current stage.
	ErrStage = errors.New("booking: operation not allowed in current stage")
	// ErrNoShowtime guards cinema → seats.
	ErrNoShowtime = errors.New("booking: no showtime selected")
	// ErrNoSeats guards seats → checkout and submission.
	ErrNoSeats = errors.New("booking: no seats selected")
	// ErrUnknownDate is returned for a date outside the date picker.
	ErrUnknownDate = errors.New("booking: date not offered")
	// ErrUnknownShowtime is returned for a showtime not listed on the selected date.
	ErrUnknownShowtime = errors.New("booking: showtime not offered on selected date")
	// ErrSeatOutOfRange is returned for a seat outside the theater grid.
	ErrSeatOutOfRange = errors.New("booking: seat outside theater layout")
	// ErrBusy is returned when a fetch or submission is already in flight.
	ErrBusy = errors.New("booking: another request is in progress")
	// ErrDiscarded is returned when a response arrived after the wizard moved
	// on or was closed; the response was not applied.
	ErrDiscarded = errors.New("booking: response discarded")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("booking: wizard closed")
)

const (
	msgLoadMovie   = "Failed to load movie details"
	msgLoadSeats   = "Failed to load seat details. Please try again."
	msgBadLayout   = "This theater's seating is not available right now"
	msgBookFailed  = "Booking failed. Please try again."
	msgBooked      = "Booking confirmed!"
	defaultTimeout = 10 * time.Second
)

// Backend is the subset of the backend API the wizard consumes.
type Backend interface {
	Movie(ctx context.Context, id string) (domain.Movie, error)
	GroupedShowtimes(ctx context.Context) ([]domain.MovieShowtimes, error)
	Theater(ctx context.Context, session auth.Session, id string) (domain.Theater, error)
	Showtime(ctx context.Context, session auth.Session, id string) (domain.Showtime, error)
	CreateBooking(ctx context.Context, session auth.Session, req domain.BookingRequest) (domain.Confirmation, error)
}

// Options tunes a Wizard. Zero values pick sensible defaults.
type Options struct {
	Notifier Notifier
	Logger   *log.Logger
	Now      func() time.Time
	// RequestTimeout bounds every backend call made by the wizard.
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = discardNotifier{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultTimeout
	}
	return o
}

// Stage names the wizard step.
type Stage int

const (
	StageCinema Stage = iota
	StageSeats
	StageCheckout
	StageDone
)

var stageNames = map[Stage]string{
	StageCinema:   "cinema",
	StageSeats:    "seats",
	StageCheckout: "checkout",
	StageDone:     "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText renders the stage name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("booking: unknown stage %q", text)
}

// state is the tagged variant behind Stage. Each concrete type carries
// exactly the data its stage needs.
type state interface {
	stage() Stage
}

type cinemaState struct {
	date       string
	showtimeID string
}

type seatsState struct {
	cinema    cinemaState
	theater   domain.Theater
	showtime  domain.Showtime
	booked    map[domain.SeatID]struct{}
	selection Selection
}

type checkoutState struct {
	seats *seatsState
}

type doneState struct {
	confirmation domain.Confirmation
}

func (*cinemaState) stage() Stage   { return StageCinema }
func (*seatsState) stage() Stage    { return StageSeats }
func (*checkoutState) stage() Stage { return StageCheckout }
func (*doneState) stage() Stage     { return StageDone }

// ShowtimeOption is a showtime offered on the selected date.
type ShowtimeOption struct {
	ShowtimeID  string `json:"showtimeId"`
	TheaterID   string `json:"theaterId"`
	TheaterName string `json:"theaterName"`
	Location    string `json:"location,omitempty"`
	Time        string `json:"time"`
}

// BackOutcome tells the caller where Back led.
type BackOutcome int

const (
	// BackStayed means the wizard moved to an earlier stage.
	BackStayed BackOutcome = iota
	// BackExited means the caller should leave the flow; the wizard is closed.
	BackExited
)

// Wizard is one booking session for a movie. It is safe for concurrent use;
// backend calls run without holding the lock and their results are dropped
// if the wizard changed in the meantime.
type Wizard struct {
	mu       sync.Mutex
	backend  Backend
	opts     Options
	movie    domain.Movie
	theaters []domain.TheaterShowtimes
	dates    []DateOption
	state    state
	gen      uint64
	busy     bool
	closed   bool
}

// New loads the movie and its showtimes and returns a wizard in the cinema
// stage with today's date selected. The date picker is fixed at this point.
func New(ctx context.Context, b Backend, movieID string, opts Options) (*Wizard, error) {
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
	defer cancel()

	var (
		movie   domain.Movie
		grouped []domain.MovieShowtimes
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movie, err = b.Movie(gctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		grouped, err = b.GroupedShowtimes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		opts.Logger.Printf("booking: load movie %s: %v", movieID, err)
		opts.Notifier.Notify(Notice{Level: LevelError, Message: backend.UserMessage(err, msgLoadMovie)})
		return nil, fmt.Errorf("load movie %s: %w", movieID, err)
	}

	var theaters []domain.TheaterShowtimes
	for _, entry := range grouped {
		if entry.MovieID == movie.ID {
			theaters = entry.Theaters
			break
		}
	}

	dates := DateOptions(opts.Now())
	return &Wizard{
		backend:  b,
		opts:     opts,
		movie:    movie,
		theaters: theaters,
		dates:    dates,
		state:    &cinemaState{date: dates[0].ISO},
	}, nil
}

// Stage returns the current stage.
func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.stage()
}

// Movie returns the movie being booked.
func (w *Wizard) Movie() domain.Movie {
	return w.movie
}

// Dates returns the date picker entries.
func (w *Wizard) Dates() []DateOption {
	return append([]DateOption(nil), w.dates...)
}

// SelectDate changes the date filter and clears the showtime selection.
func (w *Wizard) SelectDate(iso string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.cinemaLocked()
	if err != nil {
		return err
	}
	if !w.offersDate(iso) {
		return fmt.Errorf("%w: %s", ErrUnknownDate, iso)
	}
	st.date = iso
	st.showtimeID = ""
	w.gen++
	return nil
}

// Showtimes lists the showtimes of the selected date, ordered by time.
func (w *Wizard) Showtimes() []ShowtimeOption {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.showtimesOn(w.selectedDateLocked())
}

// SelectShowtime picks one of the showtimes offered on the selected date.
func (w *Wizard) SelectShowtime(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.cinemaLocked()
	if err != nil {
		return err
	}
	if _, ok := w.findShowtime(st.date, id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShowtime, id)
	}
	st.showtimeID = id
	w.gen++
	return nil
}

// ProceedToSeats moves cinema → seats. The theater and showtime detail are
// fetched fresh and concurrently; the wizard advances only when both arrive.
// On failure a notice is raised and the wizard stays in the cinema stage.
func (w *Wizard) ProceedToSeats(ctx context.Context, session auth.Session) error {
	w.mu.Lock()
	st, err := w.cinemaLocked()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if st.showtimeID == "" {
		w.mu.Unlock()
		return ErrNoShowtime
	}
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if err := session.Require(w.opts.Now()); err != nil {
		w.mu.Unlock()
		return err
	}
	slot, _ := w.findShowtime(st.date, st.showtimeID)
	cinema := *st
	gen := w.gen
	w.busy = true
	w.mu.Unlock()

	theater, showtime, fetchErr := w.fetchSeatDetail(ctx, session, slot)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if w.closed || w.gen != gen {
		return ErrDiscarded
	}
	if fetchErr != nil {
		w.opts.Logger.Printf("booking: load seat detail for showtime %s: %v", slot.ShowtimeID, fetchErr)
		if errors.Is(fetchErr, auth.ErrUnauthenticated) {
			return fetchErr
		}
		w.notify(LevelError, backend.UserMessage(fetchErr, msgLoadSeats))
		return fmt.Errorf("load seat detail: %w", fetchErr)
	}
	if err := theater.Validate(); err != nil {
		w.opts.Logger.Printf("booking: %v", err)
		w.notify(LevelError, msgBadLayout)
		return err
	}

	w.state = &seatsState{
		cinema:    cinema,
		theater:   theater,
		showtime:  showtime,
		booked:    w.parseBooked(showtime.BookedSeats),
		selection: Selection{},
	}
	w.gen++
	return nil
}

func (w *Wizard) fetchSeatDetail(ctx context.Context, session auth.Session, slot ShowtimeOption) (domain.Theater, domain.Showtime, error) {
	ctx, cancel := context.WithTimeout(ctx, w.opts.RequestTimeout)
	defer cancel()

	var (
		theater  domain.Theater
		showtime domain.Showtime
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		theater, err = w.backend.Theater(gctx, session, slot.TheaterID)
		return err
	})
	g.Go(func() error {
		var err error
		showtime, err = w.backend.Showtime(gctx, session, slot.ShowtimeID)
		return err
	})
	err := g.Wait()
	return theater, showtime, err
}

// ToggleSeat flips a seat in the selection and returns its new status.
// Reserved seats are left untouched.
func (w *Wizard) ToggleSeat(label string) (SeatStatus, error) {
	id, err := domain.ParseSeatID(label)
	if err != nil {
		return SeatAvailable, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return SeatAvailable, ErrClosed
	}
	st, ok := w.state.(*seatsState)
	if !ok {
		return SeatAvailable, fmt.Errorf("%w: toggle seat in %s", ErrStage, w.state.stage())
	}
	if !inLayout(st.theater, id) {
		return SeatAvailable, fmt.Errorf("%w: %s", ErrSeatOutOfRange, id)
	}
	status := Status(id, st.booked, st.selection)
	if status == SeatReserved {
		return status, nil
	}
	st.selection.Toggle(id)
	return Status(id, st.booked, st.selection), nil
}

// SeatStatus reports a seat's status in the seats or checkout stage.
func (w *Wizard) SeatStatus(label string) (SeatStatus, error) {
	id, err := domain.ParseSeatID(label)
	if err != nil {
		return SeatAvailable, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	st := w.seatsLocked()
	if st == nil {
		return SeatAvailable, fmt.Errorf("%w: seat status in %s", ErrStage, w.state.stage())
	}
	if !inLayout(st.theater, id) {
		return SeatAvailable, fmt.Errorf("%w: %s", ErrSeatOutOfRange, id)
	}
	return Status(id, st.booked, st.selection), nil
}

// SelectedSeats returns the selected seat labels in row/column order.
func (w *Wizard) SelectedSeats() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st := w.seatsLocked(); st != nil {
		return st.selection.Labels()
	}
	return nil
}

// Total is the price of the current selection, derived on every call.
func (w *Wizard) Total() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st := w.seatsLocked(); st != nil {
		return TotalPrice(st.theater.TierConfig, st.selection)
	}
	return 0
}

// ProceedToCheckout moves seats → checkout; at least one seat is required.
func (w *Wizard) ProceedToCheckout() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	st, ok := w.state.(*seatsState)
	if !ok {
		return fmt.Errorf("%w: checkout from %s", ErrStage, w.state.stage())
	}
	if len(st.selection) == 0 {
		return ErrNoSeats
	}
	w.state = &checkoutState{seats: st}
	w.gen++
	return nil
}

// Back steps to the previous stage. From checkout the selection is kept;
// from seats it is cleared together with the fetched theater and showtime
// detail. From cinema the wizard closes and BackExited is returned.
func (w *Wizard) Back() (BackOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return BackExited, ErrClosed
	}
	w.gen++
	switch st := w.state.(type) {
	case *cinemaState:
		w.closed = true
		return BackExited, nil
	case *seatsState:
		cinema := st.cinema
		w.state = &cinema
		return BackStayed, nil
	case *checkoutState:
		w.state = st.seats
		return BackStayed, nil
	case *doneState:
		return BackStayed, fmt.Errorf("%w: back from %s", ErrStage, st.stage())
	default:
		panic(fmt.Sprintf("booking: unhandled state %T", st))
	}
}

// Submit sends the booking once. On failure a notice is raised and the
// wizard stays in checkout with the selection intact. On success the wizard
// reaches StageDone and the selection is discarded.
func (w *Wizard) Submit(ctx context.Context, session auth.Session, card domain.CardDetails) (domain.Confirmation, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.Confirmation{}, ErrClosed
	}
	st, ok := w.state.(*checkoutState)
	if !ok {
		stage := w.state.stage()
		w.mu.Unlock()
		return domain.Confirmation{}, fmt.Errorf("%w: submit from %s", ErrStage, stage)
	}
	if len(st.seats.selection) == 0 {
		w.mu.Unlock()
		return domain.Confirmation{}, ErrNoSeats
	}
	if w.busy {
		w.mu.Unlock()
		return domain.Confirmation{}, ErrBusy
	}
	if err := session.Require(w.opts.Now()); err != nil {
		w.mu.Unlock()
		return domain.Confirmation{}, err
	}
	req := domain.BookingRequest{
		ShowtimeID:  st.seats.showtime.ID,
		SeatNumbers: st.seats.selection.Labels(),
		CardDetails: card,
	}
	gen := w.gen
	w.busy = true
	w.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, w.opts.RequestTimeout)
	conf, err := w.backend.CreateBooking(callCtx, session, req)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if w.closed || w.gen != gen {
		if err == nil {
			w.opts.Logger.Printf("booking: confirmation %s arrived after wizard moved on", conf.BookingID)
			return conf, ErrDiscarded
		}
		return domain.Confirmation{}, ErrDiscarded
	}
	if err != nil {
		w.opts.Logger.Printf("booking: submit showtime %s seats %v: %v", req.ShowtimeID, req.SeatNumbers, err)
		if errors.Is(err, auth.ErrUnauthenticated) {
			return domain.Confirmation{}, err
		}
		w.notify(LevelError, backend.UserMessage(err, msgBookFailed))
		return domain.Confirmation{}, fmt.Errorf("submit booking: %w", err)
	}

	w.state = &doneState{confirmation: conf}
	w.gen++
	w.notify(LevelSuccess, msgBooked)
	return conf, nil
}

// Close discards the wizard. Responses still in flight are dropped.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.gen++
}

// Closed reports whether the wizard was closed or exited.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Wizard) notify(level Level, msg string) {
	w.opts.Notifier.Notify(Notice{Level: level, Message: msg})
}

func (w *Wizard) cinemaLocked() (*cinemaState, error) {
	if w.closed {
		return nil, ErrClosed
	}
	st, ok := w.state.(*cinemaState)
	if !ok {
		return nil, fmt.Errorf("%w: expected cinema, in %s", ErrStage, w.state.stage())
	}
	return st, nil
}

// seatsLocked returns the seat data of the seats or checkout stage.
func (w *Wizard) seatsLocked() *seatsState {
	switch st := w.state.(type) {
	case *seatsState:
		return st
	case *checkoutState:
		return st.seats
	default:
		return nil
	}
}

func (w *Wizard) selectedDateLocked() string {
	switch st := w.state.(type) {
	case *cinemaState:
		return st.date
	case *seatsState:
		return st.cinema.date
	case *checkoutState:
		return st.seats.cinema.date
	default:
		return ""
	}
}

func (w *Wizard) offersDate(iso string) bool {
	for _, d := range w.dates {
		if d.ISO == iso {
			return true
		}
	}
	return false
}

func (w *Wizard) showtimesOn(date string) []ShowtimeOption {
	var out []ShowtimeOption
	for _, th := range w.theaters {
		for _, slot := range th.Showtimes {
			if slot.Date != date {
				continue
			}
			out = append(out, ShowtimeOption{
				ShowtimeID:  slot.ID,
				TheaterID:   th.TheaterID,
				TheaterName: th.TheaterName,
				Location:    th.Location,
				Time:        slot.Time,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func (w *Wizard) findShowtime(date, id string) (ShowtimeOption, bool) {
	for _, opt := range w.showtimesOn(date) {
		if opt.ShowtimeID == id {
			return opt, true
		}
	}
	return ShowtimeOption{}, false
}

func (w *Wizard) parseBooked(labels []string) map[domain.SeatID]struct{} {
	booked := make(map[domain.SeatID]struct{}, len(labels))
	for _, label := range labels {
		id, err := domain.ParseSeatID(label)
		if err != nil {
			w.opts.Logger.Printf("booking: ignoring malformed booked seat %q", label)
			continue
		}
		booked[id] = struct{}{}
	}
	return booked
}

func inLayout(theater domain.Theater, id domain.SeatID) bool {
	return id.Row < theater.SeatConfiguration.Rows && id.Column <= theater.SeatConfiguration.Columns
}
