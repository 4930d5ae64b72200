// Package models holds the client-side domain types shared by the store,
// the API client and the session layer.
package models

// User is the cached profile snapshot owned by the session. It is written
// only by login, profile refresh and profile-update flows.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Verified  bool   `json:"is_verified"`
	Location  string `json:"location,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// FullName joins the name parts, tolerating either being empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Session pairs the bearer credential with its cached profile. A session is
// either fully present (both fields set) or absent; partial shapes exist only
// transiently during the startup check.
type Session struct {
	Token string
	User  *User
}
