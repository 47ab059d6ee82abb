package domain

import "time"

// CardDetails is the payment card captured at checkout. It is forwarded to
// the backend unchanged.
type CardDetails struct {
	CardholderName string `json:"cardholderName" validate:"required"`
	Number         string `json:"number" validate:"required,credit_card"`
	Expiry         string `json:"expiry" validate:"required,card_expiry"`
	CVV            string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// Contact is the purchaser's contact information.
type Contact struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	ShowtimeID  string      `json:"showtimeId"`
	SeatNumbers []string    `json:"seatNumbers"`
	CardDetails CardDetails `json:"cardDetails"`
}

// Confirmation is the backend's acknowledgement of a booking.
type Confirmation struct {
	BookingID  string    `json:"id"`
	ShowtimeID string    `json:"showtimeId"`
	Seats      []string  `json:"seatNumbers"`
	Total      float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FoodItem is a concession item that can be bundled into a combo.
type FoodItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
