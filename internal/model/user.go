package model

import "encoding/json"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CodeVerified is the verification code of an account whose email is confirmed.
const CodeVerified = 0

// User is a salon account as returned by the backend.
// Code is the email verification marker: 0 means verified.
type User struct {
	ID        EntityID `json:"id"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address1  string   `json:"address1,omitempty"`
	UserType  string   `json:"user_type"`
	Code      int      `json:"code"`
	CreatedAt string   `json:"created_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == RoleAdmin
}

func (u *User) IsVerified() bool {
	return u != nil && u.Code == CodeVerified
}

// Badge is the label shown next to a user in the management list.
func (u *User) Badge() string {
	switch {
	case u.IsAdmin():
		return "Admin"
	case u.IsVerified():
		return "Verified"
	default:
		return "Unverified"
	}
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := u.Firstname
	if u.Lastname != "" {
		if name != "" {
			name += " "
		}
		name += u.Lastname
	}
	if name == "" {
		return u.Username
	}
	return name
}

// UserFilter selects users in the management list.
type UserFilter string

const (
	UserFilterAll        UserFilter = "all"
	UserFilterVerified   UserFilter = "verified"
	UserFilterUnverified UserFilter = "unverified"
	UserFilterAdmin      UserFilter = "admin"
)

// Match reports whether u belongs to the filter. Unknown filters match everything.
func (f UserFilter) Match(u User) bool {
	switch f {
	case UserFilterVerified:
		return u.IsVerified()
	case UserFilterUnverified:
		return !u.IsVerified()
	case UserFilterAdmin:
		return u.IsAdmin()
	default:
		return true
	}
}

// UserView is a user plus the derived flags the list page needs.
type UserView struct {
	User
	Badge     string `json:"badge"`
	CanVerify bool   `json:"can_verify"`
	CanDelete bool   `json:"can_delete"`
}

func NewUserView(u User) UserView {
	return UserView{
		User:      u,
		Badge:     u.Badge(),
		CanVerify: !u.IsAdmin() && !u.IsVerified(),
		CanDelete: !u.IsAdmin(),
	}
}

// SignupRequest registers an account on the backend.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	UserType  string `json:"user_type"`
	Code      int    `json:"code"`
	Address1  string `json:"address1"`
}

// EntityID is an opaque backend identifier. The backend sends numbers for
// some records and strings for others; both decode to the same text form.
type EntityID string

func (id *EntityID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EntityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = EntityID(n.String())
	return nil
}

func (id EntityID) String() string { return string(id) }
