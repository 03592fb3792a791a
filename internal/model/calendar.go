package model

import "time"

// DayCell is one day of the calendar grid.
type DayCell struct {
	Date     string        `json:"date"`
	Day      int           `json:"day"`
	InMonth  bool          `json:"in_month"`
	IsToday  bool          `json:"is_today"`
	Bookings []BookingView `json:"bookings"`
	Counts   StatusTally   `json:"counts"`
}

// MonthGrid is a month laid out in Sunday-first weeks.
type MonthGrid struct {
	Year     int         `json:"year"`
	Month    time.Month  `json:"month"`
	Title    string      `json:"title"`
	Weeks    [][]DayCell `json:"weeks"`
	Counts   StatusTally `json:"counts"`
	Previous string      `json:"previous"`
	Next     string      `json:"next"`
}

// DayView lists the bookings of one calendar day.
type DayView struct {
	Date        string        `json:"date"`
	DisplayDate string        `json:"display_date"`
	Bookings    []BookingView `json:"bookings"`
	Counts      StatusTally   `json:"counts"`
}
