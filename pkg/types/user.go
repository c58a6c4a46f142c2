package types

import "time"

// User is an account in the credential store. The password digest is kept by
// the store and never leaves it.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUser carries the fields for UserStore.Create.
type NewUser struct {
	Username    string
	Password    string
	DisplayName string
	Role        Role
}

// UserUpdate carries the mutable fields for UserStore.Update.
type UserUpdate struct {
	Username    string
	DisplayName string
	Role        Role
	Active      bool
}
