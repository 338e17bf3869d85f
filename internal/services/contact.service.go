package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/phone"
	"github.com/nimasrn/sms-portal/internal/repository"
	"github.com/nimasrn/sms-portal/pkg/logger"
)

var ErrDuplicateContact = errors.New("contact already exists in group")

type ContactRepository interface {
	Create(ctx context.Context, c *model.Contact) (*model.Contact, error)
	CreateMany(ctx context.Context, contacts []*model.Contact) (int, error)
	Groups(ctx context.Context, ownerID int64) ([]string, error)
}

// RowReader yields spreadsheet rows. Next returns io.EOF after the last row.
type RowReader interface {
	Next() ([]string, error)
}

// ContactService stores contacts. Numbers are checked with the strict
// per-country rules before they are stored.
type ContactService struct {
	repo ContactRepository
}

func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) AddContact(ctx context.Context, ownerID int64, req model.ContactCreateRequest) (*model.Contact, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	p, err := phone.Validate(req.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	c, err := s.repo.Create(ctx, &model.Contact{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: p,
		GroupName:   strings.TrimSpace(req.Group),
	})
	if errors.Is(err, repository.ErrDuplicateRecord) {
		return nil, ErrDuplicateContact
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return c, nil
}

// ImportContacts reads name,phone rows into group. A header row is skipped
// when its phone column is not a number. Rows that fail validation are
// reported and the rest are stored.
func (s *ContactService) ImportContacts(ctx context.Context, ownerID int64, group string, rows RowReader) (*model.ImportResult, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, fmt.Errorf("%w: group is required", ErrValidationFailed)
	}

	res := &model.ImportResult{Failed: []model.ImportFailure{}}
	var pending []*model.Contact
	seen := make(map[string]bool)

	for n := 1; ; n++ {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %v", ErrValidationFailed, n, err)
		}
		if n == 1 && isHeader(row) {
			continue
		}
		if len(row) < 2 {
			res.Failed = append(res.Failed, model.ImportFailure{Row: n, Reason: "expected name and phone columns"})
			continue
		}
		name, raw := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if name == "" {
			res.Failed = append(res.Failed, model.ImportFailure{Row: n, Phone: raw, Reason: "name is required"})
			continue
		}
		p, err := phone.Validate(raw)
		if err != nil {
			res.Failed = append(res.Failed, model.ImportFailure{Row: n, Phone: raw, Reason: err.Error()})
			continue
		}
		if seen[p] {
			res.Skipped++
			continue
		}
		seen[p] = true
		pending = append(pending, &model.Contact{OwnerID: ownerID, Name: name, PhoneNumber: p, GroupName: group})
	}

	inserted, err := s.repo.CreateMany(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("%w: store contacts: %v", ErrDatabase, err)
	}
	res.Imported = inserted
	res.Skipped += len(pending) - inserted

	logger.Info("contacts imported", "owner_id", ownerID, "group", group, "imported", res.Imported, "skipped", res.Skipped, "failed", len(res.Failed))
	return res, nil
}

func (s *ContactService) Groups(ctx context.Context, ownerID int64) ([]string, error) {
	groups, err := s.repo.Groups(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if groups == nil {
		groups = []string{}
	}
	return groups, nil
}

func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	v := strings.TrimSpace(row[1])
	return v != "" && strings.IndexFunc(v, func(r rune) bool { return r >= '0' && r <= '9' }) < 0
}
