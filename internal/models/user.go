package models

import "time"

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу

	Status AccountStatus `json:"-"`

	IsDarkMode      bool   `json:"isDarkMode"`
	PracticesSolved []bool `json:"practicesSolved"`

	// session state; token and heartbeat are set and cleared together
	ActiveSessionToken *string    `json:"-"`
	LastHeartbeat      *time.Time `json:"-"`
	LastLoginAt        *time.Time `json:"lastLoginDate,omitempty"`
	LastLoginDevice    *string    `json:"lastLoginDevice,omitempty"`

	AcceptedTerms                  bool       `json:"acceptedTerms"`
	AcceptedPreliminaryInformation bool       `json:"acceptedPreliminaryInformation"`
	TermsAcceptedAt                *time.Time `json:"termsAcceptanceDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// optimistic concurrency: bumped by every successful write
	Version int64 `json:"-"`
}

// LoggedIn reports whether the user holds a session token.
func (u *User) LoggedIn() bool {
	return u.ActiveSessionToken != nil && *u.ActiveSessionToken != ""
}

// ClearSession drops the session token and heartbeat together.
func (u *User) ClearSession() {
	u.ActiveSessionToken = nil
	u.LastHeartbeat = nil
}

// DefaultPracticesSolved is the progress vector of a freshly registered user.
func DefaultPracticesSolved() []bool {
	return []bool{false, false, false, false}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	IsDarkMode bool   `json:"isDarkMode"`
}
