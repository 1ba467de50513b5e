package models

// User is the signed-in account's profile
type User struct {
	Email        string `json:"email"`
	BusinessName string `json:"businessName,omitempty"`
}

// DisplayName prefers the business name and falls back to the email
func (u User) DisplayName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	return u.Email
}
