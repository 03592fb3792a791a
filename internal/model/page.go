package model

// BookingPage is what the bookings and dashboard pages render.
type BookingPage struct {
	Scope    BookingScope    `json:"scope"`
	Query    string          `json:"query,omitempty"`
	Filter   BookingStatus   `json:"filter,omitempty"`
	Bookings []BookingView   `json:"bookings"`
	Counts   StatusTally     `json:"counts"`
	Stats    *DashboardStats `json:"stats,omitempty"`
}

// UserPage is what the user management page renders.
type UserPage struct {
	Query  string     `json:"query,omitempty"`
	Filter UserFilter `json:"filter"`
	Users  []UserView `json:"users"`
	Total  int        `json:"total"`
}
