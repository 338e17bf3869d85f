package repository

import (
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
)

type UserEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Username       string    `db:"username"        gorm:"column:username;not null;unique"`
	APIKey         string    `db:"api_key"         gorm:"column:api_key;not null;unique"`
	Role           string    `db:"role"            gorm:"column:role;not null;default:user"`
	Phone          string    `db:"phone"           gorm:"column:phone;not null;default:''"`
	SenderID       string    `db:"sender_id"       gorm:"column:sender_id;not null;default:''"`
	SenderApproved bool      `db:"sender_approved" gorm:"column:sender_approved;not null;default:false"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:             m.ID,
		Username:       m.Username,
		APIKey:         m.APIKey,
		Role:           string(m.Role),
		Phone:          m.Phone,
		SenderID:       m.SenderID,
		SenderApproved: m.SenderApproved,
		CreatedAt:      m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:             e.ID,
		Username:       e.Username,
		APIKey:         e.APIKey,
		Role:           model.Role(e.Role),
		Phone:          e.Phone,
		SenderID:       e.SenderID,
		SenderApproved: e.SenderApproved,
		CreatedAt:      e.CreatedAt,
	}
}
