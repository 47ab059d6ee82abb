package booking

import "time"

// DateWindow is the number of selectable days, starting today.
const DateWindow = 3

// DateOption is one entry of the date picker.
type DateOption struct {
	ISO     string `json:"iso"`
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
}

// DateOptions returns today and the following days in now's location.
func DateOptions(now time.Time) []DateOption {
	out := make([]DateOption, 0, DateWindow)
	for i := 0; i < DateWindow; i++ {
		d := now.AddDate(0, 0, i)
		out = append(out, DateOption{
			ISO:     d.Format("2006-01-02"),
			Day:     d.Day(),
			Weekday: d.Format("Mon"),
		})
	}
	return out
}
