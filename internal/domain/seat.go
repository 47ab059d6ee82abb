package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSeatID is returned when a seat label cannot be parsed.
var ErrInvalidSeatID = errors.New("domain: invalid seat id")

// SeatID identifies a seat by zero-based row index and one-based column.
type SeatID struct {
	Row    int
	Column int
}

// String renders the seat as its label, e.g. "C7".
func (s SeatID) String() string {
	return RowLabel(s.Row) + strconv.Itoa(s.Column)
}

// ParseSeatID parses labels such as "C7" or "AB12". Row letters are case
// insensitive.
func ParseSeatID(raw string) (SeatID, error) {
	label := strings.ToUpper(strings.TrimSpace(raw))
	split := 0
	for split < len(label) && label[split] >= 'A' && label[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(label) {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeatID, raw)
	}
	row, err := RowIndex(label[:split])
	if err != nil {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeatID, raw)
	}
	col, err := strconv.Atoi(label[split:])
	if err != nil || col < 1 || label[split] == '+' {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeatID, raw)
	}
	return SeatID{Row: row, Column: col}, nil
}

// RowIndex converts a row label to its zero-based index: "A" is 0, "Z" is 25,
// "AA" is 26.
func RowIndex(label string) (int, error) {
	if label == "" {
		return 0, fmt.Errorf("%w: empty row", ErrInvalidSeatID)
	}
	n := 0
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: row %q", ErrInvalidSeatID, label)
		}
		n = n*26 + int(c-'A') + 1
		if n > 1<<24 {
			return 0, fmt.Errorf("%w: row %q out of range", ErrInvalidSeatID, label)
		}
	}
	return n - 1, nil
}

// RowLabel is the inverse of RowIndex.
func RowLabel(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}
