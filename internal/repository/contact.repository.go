package repository

import (
	"context"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/pkg/pg"
	"gorm.io/gorm/clause"
)

const contactInsertBatch = 200

type ContactRepository struct {
	*pg.DB
}

func NewContactRepository(db *pg.DB) *ContactRepository {
	return &ContactRepository{
		db,
	}
}

// QueryByOwnerAndGroup returns the owner's contacts in group ordered by id.
func (r *ContactRepository) QueryByOwnerAndGroup(ctx context.Context, ownerID int64, group string) ([]*model.Contact, error) {
	var entities []*ContactEntity
	err := r.Read(ctx).
		Where("owner_id = ? AND group_name = ?", ownerID, group).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toContactModels(entities), nil
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	entity := toContactEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRecord
		}
		return nil, err
	}
	return toContactModel(entity), nil
}

// CreateMany inserts contacts, skipping ones already present for the same
// owner, phone and group. It returns the number of rows inserted.
func (r *ContactRepository) CreateMany(ctx context.Context, contacts []*model.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}
	entities := make([]*ContactEntity, len(contacts))
	for i, c := range contacts {
		entities[i] = toContactEntity(c)
	}
	res := r.Write(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(entities, contactInsertBatch)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Groups lists the distinct group names the owner has contacts in.
func (r *ContactRepository) Groups(ctx context.Context, ownerID int64) ([]string, error) {
	var groups []string
	err := r.Read(ctx).
		Model(&ContactEntity{}).
		Where("owner_id = ?", ownerID).
		Distinct("group_name").
		Order("group_name ASC").
		Pluck("group_name", &groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
