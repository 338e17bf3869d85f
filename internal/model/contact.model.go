package model

import (
	"errors"
	"strings"
	"time"
)

type Contact struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	GroupName   string    `json:"group_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactCreateRequest is the input for adding a single contact.
type ContactCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Group string `json:"group"`
}

func (r ContactCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return errors.New("phone is required")
	}
	if strings.TrimSpace(r.Group) == "" {
		return errors.New("group is required")
	}
	return nil
}

// ImportFailure describes a spreadsheet row that could not be stored.
type ImportFailure struct {
	Row    int    `json:"row"`
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported int             `json:"imported"`
	Skipped  int             `json:"skipped"`
	Failed   []ImportFailure `json:"failed"`
}
