package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinema-booking/internal/auth"
	"github.com/Clark-Hu/cinema-booking/internal/backend"
	"github.com/Clark-Hu/cinema-booking/internal/booking"
	"github.com/Clark-Hu/cinema-booking/internal/domain"
	"github.com/Clark-Hu/cinema-booking/internal/sessions"
	"github.com/Clark-Hu/cinema-booking/internal/ticket"
)

const loginHint = "Please log in to continue booking"

type createSessionRequest struct {
	MovieID string `json:"movieId"`
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type selectShowtimeRequest struct {
	ShowtimeID string `json:"showtimeId"`
}

type checkoutRequest struct {
	Contact domain.Contact     `json:"contact" validate:"required"`
	Card    domain.CardDetails `json:"cardDetails" validate:"required"`
}

type sessionResponse struct {
	ID      string           `json:"id"`
	View    *booking.View    `json:"view,omitempty"`
	Notice  *booking.Notice  `json:"notice,omitempty"`
	Exited  bool             `json:"exited,omitempty"`
	Seat    *seatResponse    `json:"seat,omitempty"`
	Booking *bookingResponse `json:"booking,omitempty"`
}

type seatResponse struct {
	ID     string             `json:"id"`
	Status booking.SeatStatus `json:"status"`
}

type bookingResponse struct {
	Confirmation domain.Confirmation `json:"confirmation"`
	Contact      domain.Contact      `json:"contact"`
	QRCode       string              `json:"qrCode,omitempty"`
}

// wizardOp runs against a restored wizard. The returned response is merged
// into the session response; rec collects the notices the op raised.
type wizardOp func(ctx context.Context, wiz *booking.Wizard) (sessionResponse, error)

func (s *Server) wizardOptions(rec *booking.Recorder) booking.Options {
	return booking.Options{
		Notifier:       rec,
		Logger:         s.logger,
		Now:            s.now,
		RequestTimeout: time.Duration(s.cfg.BookingTimeoutSecs) * time.Second,
	}
}

func (s *Server) expiry() time.Time {
	return s.now().Add(time.Duration(s.cfg.SessionTTLSecs) * time.Second)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	movieID := strings.TrimSpace(req.MovieID)
	if movieID == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "movieId is required")
		return
	}

	rec := &booking.Recorder{}
	wiz, err := booking.New(r.Context(), s.backend, movieID, s.wizardOptions(rec))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		s.respondWizardError(w, err, rec, sessionResponse{})
		return
	}

	id := s.newID()
	if err := s.sessions.Save(r.Context(), id, wiz.Snapshot(), s.expiry()); err != nil {
		s.logger.Printf("save session %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store booking session")
		return
	}
	view := wiz.View()
	s.respondJSON(w, http.StatusCreated, sessionResponse{ID: id, View: &view})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(_ context.Context, _ *booking.Wizard) (sessionResponse, error) {
		return sessionResponse{}, nil
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Booking session not found")
			return
		}
		s.logger.Printf("delete session %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete booking session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	s.withWizard(w, r, func(_ context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		return sessionResponse{}, wiz.SelectDate(strings.TrimSpace(req.Date))
	})
}

func (s *Server) handleSelectShowtime(w http.ResponseWriter, r *http.Request) {
	var req selectShowtimeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	s.withWizard(w, r, func(_ context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		return sessionResponse{}, wiz.SelectShowtime(strings.TrimSpace(req.ShowtimeID))
	})
}

func (s *Server) handleProceedToSeats(w http.ResponseWriter, r *http.Request) {
	session := auth.FromHeader(r.Header.Get("Authorization"))
	s.withWizard(w, r, func(ctx context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		return sessionResponse{}, wiz.ProceedToSeats(ctx, session)
	})
}

func (s *Server) handleToggleSeat(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "seat")
	s.withWizard(w, r, func(_ context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		status, err := wiz.ToggleSeat(label)
		if err != nil {
			return sessionResponse{}, err
		}
		id, _ := domain.ParseSeatID(label)
		return sessionResponse{Seat: &seatResponse{ID: id.String(), Status: status}}, nil
	})
}

func (s *Server) handleProceedToCheckout(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(_ context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		return sessionResponse{}, wiz.ProceedToCheckout()
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withWizard(w, r, func(_ context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		outcome, err := wiz.Back()
		return sessionResponse{Exited: outcome == booking.BackExited}, err
	})
}

func (s *Server) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	session := auth.FromHeader(r.Header.Get("Authorization"))
	if err := session.Require(s.now()); err != nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", loginHint)
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationMessage(err))
		return
	}

	s.withWizard(w, r, func(ctx context.Context, wiz *booking.Wizard) (sessionResponse, error) {
		conf, err := wiz.Submit(ctx, session, req.Card)
		if err != nil {
			return sessionResponse{}, err
		}
		resp := &bookingResponse{Confirmation: conf, Contact: req.Contact}
		qr, qrErr := ticket.QRCodeBase64(conf, s.cfg.QRSize)
		if qrErr != nil {
			s.logger.Printf("render ticket qr for %s: %v", conf.BookingID, qrErr)
		} else {
			resp.QRCode = qr
		}
		return sessionResponse{Booking: resp}, nil
	})
}

// withWizard serializes access to one session: load, restore, run op, then
// persist the result. A wizard that exits is removed from the store.
func (s *Server) withWizard(w http.ResponseWriter, r *http.Request, op wizardOp) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := r.Context()
	snap, err := s.sessions.Load(ctx, id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Booking session not found")
			return
		}
		s.logger.Printf("load session %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking session")
		return
	}

	rec := &booking.Recorder{}
	wiz, err := booking.Restore(snap, s.backend, s.wizardOptions(rec))
	if err != nil {
		s.logger.Printf("restore session %s: %v", id, err)
		_ = s.sessions.Delete(ctx, id)
		s.respondError(w, http.StatusGone, "SESSION_CORRUPT", "Booking session can no longer be resumed")
		return
	}

	resp, opErr := op(ctx, wiz)
	resp.ID = id

	if wiz.Closed() {
		if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, sessions.ErrNotFound) {
			s.logger.Printf("delete exited session %s: %v", id, err)
		}
		if opErr != nil {
			s.respondWizardError(w, opErr, rec, resp)
			return
		}
		resp.Exited = true
		s.respondJSON(w, http.StatusOK, resp)
		return
	}

	if err := s.sessions.Save(ctx, id, wiz.Snapshot(), s.expiry()); err != nil {
		s.logger.Printf("save session %s: %v", id, err)
		if resp.Booking == nil {
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store booking session")
			return
		}
		// Booked upstream already: drop the stale checkout snapshot.
		if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, sessions.ErrNotFound) {
			s.logger.Printf("delete unsaved booked session %s: %v", id, err)
		}
	}

	view := wiz.View()
	resp.View = &view
	if n, ok := rec.Last(); ok {
		resp.Notice = &n
	}
	if opErr != nil {
		s.respondWizardError(w, opErr, rec, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondWizardError maps a wizard or backend error to a status. The body
// carries the session response in details so the caller can re-render.
func (s *Server) respondWizardError(w http.ResponseWriter, err error, rec *booking.Recorder, resp sessionResponse) {
	status, code, message := classifyWizardError(err)
	if n, ok := rec.Last(); ok && n.Level == booking.LevelError {
		message = n.Message
		resp.Notice = &n
	}
	if status >= http.StatusInternalServerError {
		s.logger.Printf("booking session %s: %v", resp.ID, err)
	}
	body := errorResponse{Code: code, Message: message}
	if resp.ID != "" || resp.View != nil {
		body.Details = resp
	}
	s.respondJSON(w, status, body)
}

func classifyWizardError(err error) (int, string, string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED", loginHint
	case errors.Is(err, booking.ErrStage):
		return http.StatusConflict, "INVALID_STAGE", "That step is not available right now"
	case errors.Is(err, booking.ErrBusy):
		return http.StatusConflict, "BUSY", "Another request for this booking is in progress"
	case errors.Is(err, booking.ErrDiscarded), errors.Is(err, booking.ErrClosed):
		return http.StatusConflict, "DISCARDED", "The booking changed before the request completed"
	case errors.Is(err, booking.ErrNoShowtime):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Select a showtime first"
	case errors.Is(err, booking.ErrNoSeats):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Select at least one seat"
	case errors.Is(err, booking.ErrUnknownDate),
		errors.Is(err, booking.ErrUnknownShowtime),
		errors.Is(err, booking.ErrSeatOutOfRange),
		errors.Is(err, domain.ErrInvalidSeatID):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "The requested showtime is no longer available"
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return http.StatusUnprocessableEntity, "UPSTREAM_REJECTED", backend.UserMessage(err, "The request was rejected")
	default:
		return http.StatusBadGateway, "UPSTREAM_ERROR", "The booking service is unavailable"
	}
}
