package repository

import (
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
)

type SMSLogEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	OwnerID      int64     `db:"owner_id"      gorm:"column:owner_id;not null;index"`
	BatchID      *string   `db:"batch_id"      gorm:"column:batch_id;index"`
	Phone        string    `db:"phone"         gorm:"column:phone;not null"`
	Message      string    `db:"message"       gorm:"column:message;not null"`
	Status       string    `db:"status"        gorm:"column:status;not null"`
	ErrorMessage *string   `db:"error_message" gorm:"column:error_message"`
	SentAt       time.Time `db:"sent_at"       gorm:"column:sent_at;not null;index"`
}

func (SMSLogEntity) TableName() string {
	return "sms_logs"
}

func toSMSLogEntity(m *model.SendAttempt) *SMSLogEntity {
	if m == nil {
		return nil
	}
	return &SMSLogEntity{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		BatchID:      m.BatchID,
		Phone:        m.Phone,
		Message:      m.Message,
		Status:       string(m.Status),
		ErrorMessage: m.ErrorMessage,
		SentAt:       m.SentAt,
	}
}

func toSMSLogModel(e *SMSLogEntity) *model.SendAttempt {
	if e == nil {
		return nil
	}
	return &model.SendAttempt{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		BatchID:      e.BatchID,
		Phone:        e.Phone,
		Message:      e.Message,
		Status:       model.AttemptStatus(e.Status),
		ErrorMessage: e.ErrorMessage,
		SentAt:       e.SentAt,
	}
}

func toSMSLogModels(entities []*SMSLogEntity) []*model.SendAttempt {
	if entities == nil {
		return nil
	}
	models := make([]*model.SendAttempt, len(entities))
	for i, e := range entities {
		models[i] = toSMSLogModel(e)
	}
	return models
}
