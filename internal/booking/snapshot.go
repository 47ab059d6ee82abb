package booking

import (
	"errors"
	"fmt"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// ErrInvalidSnapshot is returned when a snapshot cannot describe a valid wizard.
var ErrInvalidSnapshot = errors.New("booking: invalid snapshot")

// Snapshot is the serializable form of a Wizard. It holds no credentials.
type Snapshot struct {
	Stage        Stage                     `json:"stage"`
	Movie        domain.Movie              `json:"movie"`
	Theaters     []domain.TheaterShowtimes `json:"theaters"`
	Dates        []DateOption              `json:"dates"`
	SelectedDate string                    `json:"selectedDate"`
	ShowtimeID   string                    `json:"showtimeId,omitempty"`
	Theater      *domain.Theater           `json:"theater,omitempty"`
	Showtime     *domain.Showtime          `json:"showtime,omitempty"`
	Seats        []string                  `json:"seats,omitempty"`
	Confirmation *domain.Confirmation      `json:"confirmation,omitempty"`
}

// Snapshot captures the current state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Stage:        w.state.stage(),
		Movie:        w.movie,
		Theaters:     w.theaters,
		Dates:        append([]DateOption(nil), w.dates...),
		SelectedDate: w.selectedDateLocked(),
	}
	switch st := w.state.(type) {
	case *cinemaState:
		snap.ShowtimeID = st.showtimeID
	case *seatsState:
		fillSnapshotSeats(&snap, st)
	case *checkoutState:
		fillSnapshotSeats(&snap, st.seats)
	case *doneState:
		conf := st.confirmation
		snap.Confirmation = &conf
	}
	return snap
}

func fillSnapshotSeats(snap *Snapshot, st *seatsState) {
	theater := st.theater
	showtime := st.showtime
	snap.ShowtimeID = st.cinema.showtimeID
	snap.Theater = &theater
	snap.Showtime = &showtime
	snap.Seats = st.selection.Labels()
}

// Restore rebuilds a wizard from a snapshot without contacting the backend.
// The date picker keeps the dates captured when the wizard was created.
func Restore(snap Snapshot, b Backend, opts Options) (*Wizard, error) {
	opts = opts.withDefaults()
	if len(snap.Dates) == 0 {
		return nil, fmt.Errorf("%w: no dates", ErrInvalidSnapshot)
	}

	w := &Wizard{
		backend:  b,
		opts:     opts,
		movie:    snap.Movie,
		theaters: snap.Theaters,
		dates:    append([]DateOption(nil), snap.Dates...),
	}
	if !w.offersDate(snap.SelectedDate) {
		return nil, fmt.Errorf("%w: date %q not offered", ErrInvalidSnapshot, snap.SelectedDate)
	}
	cinema := cinemaState{date: snap.SelectedDate, showtimeID: snap.ShowtimeID}

	switch snap.Stage {
	case StageCinema:
		w.state = &cinema
	case StageSeats, StageCheckout:
		if snap.Theater == nil || snap.Showtime == nil || snap.ShowtimeID == "" {
			return nil, fmt.Errorf("%w: %s stage without seat detail", ErrInvalidSnapshot, snap.Stage)
		}
		selection := Selection{}
		for _, label := range snap.Seats {
			id, err := domain.ParseSeatID(label)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
			}
			if !inLayout(*snap.Theater, id) {
				return nil, fmt.Errorf("%w: seat %s outside layout", ErrInvalidSnapshot, id)
			}
			selection[id] = struct{}{}
		}
		seats := &seatsState{
			cinema:    cinema,
			theater:   *snap.Theater,
			showtime:  *snap.Showtime,
			booked:    w.parseBooked(snap.Showtime.BookedSeats),
			selection: selection,
		}
		if snap.Stage == StageSeats {
			w.state = seats
			break
		}
		if len(selection) == 0 {
			return nil, fmt.Errorf("%w: checkout without seats", ErrInvalidSnapshot)
		}
		w.state = &checkoutState{seats: seats}
	case StageDone:
		if snap.Confirmation == nil {
			return nil, fmt.Errorf("%w: done without confirmation", ErrInvalidSnapshot)
		}
		w.state = &doneState{confirmation: *snap.Confirmation}
	default:
		return nil, fmt.Errorf("%w: stage %s", ErrInvalidSnapshot, snap.Stage)
	}
	return w, nil
}
