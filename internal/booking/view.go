package booking

import "github.com/Clark-Hu/cinema-booking/internal/domain"

// TheaterSummary identifies the theater of the seat stage.
type TheaterSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// View is a read-only projection of the wizard for rendering.
type View struct {
	Stage         Stage                `json:"stage"`
	Movie         domain.Movie         `json:"movie"`
	Dates         []DateOption         `json:"dates"`
	SelectedDate  string               `json:"selectedDate"`
	Showtimes     []ShowtimeOption     `json:"showtimes"`
	ShowtimeID    string               `json:"showtimeId,omitempty"`
	Theater       *TheaterSummary      `json:"theater,omitempty"`
	SeatMap       []SeatRow            `json:"seatMap,omitempty"`
	SelectedSeats []string             `json:"selectedSeats"`
	Total         float64              `json:"total"`
	CanContinue   bool                 `json:"canContinue"`
	Confirmation  *domain.Confirmation `json:"confirmation,omitempty"`
}

// View renders the current state.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Stage:         w.state.stage(),
		Movie:         w.movie,
		Dates:         append([]DateOption(nil), w.dates...),
		SelectedDate:  w.selectedDateLocked(),
		SelectedSeats: []string{},
	}
	if v.SelectedDate != "" {
		v.Showtimes = w.showtimesOn(v.SelectedDate)
	}

	switch st := w.state.(type) {
	case *cinemaState:
		v.ShowtimeID = st.showtimeID
		v.CanContinue = st.showtimeID != "" && !w.busy
	case *seatsState:
		w.fillSeats(&v, st)
		v.CanContinue = len(st.selection) > 0
	case *checkoutState:
		w.fillSeats(&v, st.seats)
		v.CanContinue = len(st.seats.selection) > 0 && !w.busy
	case *doneState:
		conf := st.confirmation
		v.Confirmation = &conf
		v.ShowtimeID = conf.ShowtimeID
		v.Total = conf.Total
	}
	return v
}

func (w *Wizard) fillSeats(v *View, st *seatsState) {
	v.ShowtimeID = st.showtime.ID
	v.Theater = &TheaterSummary{ID: st.theater.ID, Name: st.theater.Name, Location: st.theater.Location}
	v.SeatMap = buildSeatMap(st.theater, st.booked, st.selection)
	v.SelectedSeats = st.selection.Labels()
	v.Total = TotalPrice(st.theater.TierConfig, st.selection)
}
