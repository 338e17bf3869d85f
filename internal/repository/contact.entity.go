package repository

import (
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
)

type ContactEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	OwnerID     int64     `db:"owner_id"     gorm:"column:owner_id;not null;uniqueIndex:ux_contacts_owner_phone_group,priority:1"`
	Name        string    `db:"name"         gorm:"column:name;not null"`
	PhoneNumber string    `db:"phone_number" gorm:"column:phone_number;not null;uniqueIndex:ux_contacts_owner_phone_group,priority:2"`
	GroupName   string    `db:"group_name"   gorm:"column:group_name;not null;uniqueIndex:ux_contacts_owner_phone_group,priority:3"`
	CreatedAt   time.Time `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (ContactEntity) TableName() string {
	return "contacts"
}

func toContactEntity(m *model.Contact) *ContactEntity {
	if m == nil {
		return nil
	}
	return &ContactEntity{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		PhoneNumber: m.PhoneNumber,
		GroupName:   m.GroupName,
		CreatedAt:   m.CreatedAt,
	}
}

func toContactModel(e *ContactEntity) *model.Contact {
	if e == nil {
		return nil
	}
	return &model.Contact{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Name:        e.Name,
		PhoneNumber: e.PhoneNumber,
		GroupName:   e.GroupName,
		CreatedAt:   e.CreatedAt,
	}
}

func toContactModels(entities []*ContactEntity) []*model.Contact {
	if entities == nil {
		return nil
	}
	models := make([]*model.Contact, len(entities))
	for i, e := range entities {
		models[i] = toContactModel(e)
	}
	return models
}
