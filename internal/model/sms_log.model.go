package model

import "time"

type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = "success"
	AttemptStatusFailed  AttemptStatus = "failed"
)

// SendAttempt is one row of the append-only SMS log, written once per
// recipient per send call.
type SendAttempt struct {
	ID           int64         `json:"id"`
	OwnerID      int64         `json:"owner_id"`
	BatchID      *string       `json:"batch_id,omitempty"`
	Phone        string        `json:"phone"`
	Message      string        `json:"message"`
	Status       AttemptStatus `json:"status"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	SentAt       time.Time     `json:"sent_at"`
}

// SMSLogFilter controls List queries.
type SMSLogFilter struct {
	OwnerID int64
	Status  *AttemptStatus
	BatchID *string
	From    *time.Time
	To      *time.Time
	Limit   int // default 50
	Offset  int
	Desc    bool // order by sent_at
}

// BatchSummary is the per-status tally of one bulk send, read back from the log.
type BatchSummary struct {
	BatchID    string `json:"batch_id"`
	Total      int64  `json:"total"`
	Successful int64  `json:"successful"`
	Failed     int64  `json:"failed"`
}

func NewBatchSummary(batchID string, counts map[AttemptStatus]int64) BatchSummary {
	s := BatchSummary{
		BatchID:    batchID,
		Successful: counts[AttemptStatusSuccess],
		Failed:     counts[AttemptStatusFailed],
	}
	s.Total = s.Successful + s.Failed
	return s
}
