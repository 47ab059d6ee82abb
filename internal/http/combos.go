package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Clark-Hu/cinema-booking/internal/combo"
	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

type foodListResponse struct {
	Items []domain.FoodItem `json:"items"`
}

type comboQuoteRequest struct {
	Items map[string]int `json:"items"`
}

func (s *Server) handleListFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := s.backend.Foods(r.Context())
	if err != nil {
		s.logger.Printf("list foods: %v", err)
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to load the food menu")
		return
	}
	if foods == nil {
		foods = []domain.FoodItem{}
	}
	s.respondJSON(w, http.StatusOK, foodListResponse{Items: foods})
}

func (s *Server) handleComboQuote(w http.ResponseWriter, r *http.Request) {
	var req comboQuoteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	ids := make([]string, 0, len(req.Items))
	for id, qty := range req.Items {
		if qty < 0 {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("quantity for %s must be non-negative", id))
			return
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	foods, err := s.backend.Foods(r.Context())
	if err != nil {
		s.logger.Printf("list foods for quote: %v", err)
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to load the food menu")
		return
	}

	c := combo.New(combo.NewCatalog(foods))
	for _, id := range ids {
		for n := 0; n < req.Items[id]; n++ {
			if err := c.Add(id); err != nil {
				s.respondComboError(w, err)
				return
			}
		}
	}
	s.respondJSON(w, http.StatusOK, c.Quote())
}

func (s *Server) respondComboError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, combo.ErrComboFull):
		s.respondError(w, http.StatusUnprocessableEntity, "COMBO_TOO_LARGE", fmt.Sprintf("A combo can contain at most %d items", combo.MaxItems))
	case errors.Is(err, combo.ErrUnknownItem):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		s.logger.Printf("build combo quote: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to price combo")
	}
}
