package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

const (
	welcomeTemplate  = "Welcome to %s, %s! Your account is ready."
	approvedTemplate = "Hello %s, your sender ID %s has been approved. You can now log in and send messages."
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ApproveSenderID(ctx context.Context, id int64) (*model.User, error)
}

type SystemSender interface {
	SendSystemMessage(ctx context.Context, ownerID int64, to, message string) (*model.SendResult, error)
}

// NotificationService sends the account lifecycle messages.
type NotificationService struct {
	users   UserStore
	sender  SystemSender
	appName string
}

func NewNotificationService(users UserStore, sender SystemSender, appName string) *NotificationService {
	return &NotificationService{users: users, sender: sender, appName: appName}
}

func (s *NotificationService) SendWelcome(ctx context.Context, userID int64) (*model.SendResult, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sender.SendSystemMessage(ctx, u.ID, u.Phone, fmt.Sprintf(welcomeTemplate, s.appName, u.Username))
}

// SendSenderApproved approves the user's sender id and tells them so.
func (s *NotificationService) SendSenderApproved(ctx context.Context, userID int64) (*model.SendResult, error) {
	u, err := s.users.ApproveSenderID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return s.sender.SendSystemMessage(ctx, u.ID, u.Phone, fmt.Sprintf(approvedTemplate, u.Username, u.SenderID))
}

func (s *NotificationService) user(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return u, nil
}
