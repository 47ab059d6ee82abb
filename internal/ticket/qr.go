// Package ticket renders scannable tickets for confirmed bookings.
package ticket

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

// DefaultSize is the QR edge length in pixels.
const DefaultSize = 256

// ErrNoBooking is returned for a confirmation without a booking id.
var ErrNoBooking = errors.New("ticket: confirmation has no booking id")

// Payload is the text encoded into the QR code.
func Payload(conf domain.Confirmation) string {
	return fmt.Sprintf("BOOKING:%s|SHOWTIME:%s|SEATS:%s", conf.BookingID, conf.ShowtimeID, strings.Join(conf.Seats, ","))
}

// QRCode returns a PNG QR code for the confirmation.
func QRCode(conf domain.Confirmation, size int) ([]byte, error) {
	if conf.BookingID == "" {
		return nil, ErrNoBooking
	}
	if size <= 0 {
		size = DefaultSize
	}
	qr, err := qrcode.New(Payload(conf), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// QRCodeBase64 is QRCode encoded for embedding in JSON.
func QRCodeBase64(conf domain.Confirmation, size int) (string, error) {
	raw, err := QRCode(conf, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
