package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a portal account. Contacts, groups and send logs are scoped by its ID.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	APIKey         string    `json:"-"`
	Role           Role      `json:"role"`
	Phone          string    `json:"phone"`
	SenderID       string    `json:"sender_id"`
	SenderApproved bool      `json:"sender_approved"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
