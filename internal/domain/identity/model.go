package identity

// User is a registered account. TotalVisits counts successful logins.
// Appointments are referenced by patient name in the booking ledger, not
// embedded here; the field is kept for the persisted document shape.
type User struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	PasswordHash string   `json:"hashedPassword"`
	TotalVisits  int      `json:"totalVisits"`
	Appointments []string `json:"appointments"`
}

// userDocument is the on-disk shape of users.json.
type userDocument struct {
	Users []*User `json:"users"`
}

// Profile is the user view returned by the API; it never carries the
// password hash.
type Profile struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	TotalVisits int    `json:"total_visits"`
}

func (u *User) Profile() Profile {
	return Profile{
		Username:    u.Username,
		Email:       u.Email,
		Phone:       u.Phone,
		TotalVisits: u.TotalVisits,
	}
}
