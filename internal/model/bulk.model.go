package model

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusError          = "error"
	StatusFailed         = "failed"
)

// Recipient is a validated bulk recipient.
type Recipient struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// StagedBatch is a validated, not yet sent recipient list held between the
// validate and send calls of one session.
type StagedBatch struct {
	OwnerID   int64       `json:"owner_id"`
	Numbers   []Recipient `json:"numbers"`
	Message   string      `json:"message"`
	Group     string      `json:"group"`
	CreatedAt time.Time   `json:"created_at"`
}

// Expired reports whether the batch is older than window at now.
func (b *StagedBatch) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(b.CreatedAt) > window
}

type BulkValidateRequest struct {
	Group   string `json:"group"`
	Message string `json:"message"`
}

func (r BulkValidateRequest) Validate() error {
	if strings.TrimSpace(r.Group) == "" || strings.TrimSpace(r.Message) == "" {
		return errors.New("group and message are required")
	}
	return nil
}

// ValidationResult is the outcome of the validate phase. Status is "success"
// when a batch was staged, "error" otherwise.
type ValidationResult struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	ValidCount       int      `json:"valid_count"`
	GroupName        string   `json:"group_name,omitempty"`
	InvalidNumbers   []string `json:"invalid_numbers,omitempty"`
	RequiredCredits  int      `json:"required_credits,omitempty"`
	AvailableCredits int      `json:"available_credits,omitempty"`
}

func (r *ValidationResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

type FailedRecipient struct {
	Name        string `json:"name"`
	MaskedPhone string `json:"masked_phone"`
}

// BatchResult aggregates a bulk send. It is derived from the attempts written
// during the call and never persisted.
type BatchResult struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	BatchID          string            `json:"batch_id"`
	TotalRecipients  int               `json:"total_recipients"`
	SuccessfulSends  int               `json:"successful_sends"`
	FailedSends      int               `json:"failed_sends"`
	FailedRecipients []FailedRecipient `json:"failed_recipients"`
}

type IndividualSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (r IndividualSendRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return errors.New("phone is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// SendResult is the outcome of a single-recipient send.
type SendResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Phone   string `json:"phone"`
}

type Balance struct {
	Credits int `json:"credits"`
}
