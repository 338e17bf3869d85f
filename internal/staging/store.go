// Package staging holds validated bulk batches between the validate and
// send calls of a session.
package staging

import (
	"context"
	"errors"

	"github.com/nimasrn/sms-portal/internal/model"
)

var (
	ErrNotFound     = errors.New("no staged batch for session")
	ErrEmptySession = errors.New("empty session id")
)

// Store keeps at most one batch per session. Put overwrites; Take returns the
// batch and removes it atomically, so a second Take yields ErrNotFound.
type Store interface {
	Put(ctx context.Context, sessionID string, b *model.StagedBatch) error
	Take(ctx context.Context, sessionID string) (*model.StagedBatch, error)
}
