package repository

import (
	"context"
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/pkg/pg"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
	logInsertBatch  = 100
)

// SMSLogRepository is the append-only store of send attempts. It has no
// update or delete operations.
type SMSLogRepository struct {
	*pg.DB
}

func NewSMSLogRepository(db *pg.DB) *SMSLogRepository {
	return &SMSLogRepository{
		db,
	}
}

func (r *SMSLogRepository) Append(ctx context.Context, a *model.SendAttempt) (*model.SendAttempt, error) {
	entity := toSMSLogEntity(a)
	if entity.SentAt.IsZero() {
		entity.SentAt = time.Now().UTC()
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toSMSLogModel(entity), nil
}

// AppendBatch writes all attempts in one transaction: either every row is
// stored or none is.
func (r *SMSLogRepository) AppendBatch(ctx context.Context, attempts []*model.SendAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	entities := make([]*SMSLogEntity, len(attempts))
	for i, a := range attempts {
		entities[i] = toSMSLogEntity(a)
		if entities[i].SentAt.IsZero() {
			entities[i].SentAt = now
		}
	}
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		return r.Write(ctx).CreateInBatches(entities, logInsertBatch).Error
	})
}

func (r *SMSLogRepository) List(ctx context.Context, f model.SMSLogFilter) ([]*model.SendAttempt, int64, error) {
	q := r.Read(ctx).Model(&SMSLogEntity{}).Where("owner_id = ?", f.OwnerID)

	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.BatchID != nil && *f.BatchID != "" {
		q = q.Where("batch_id = ?", *f.BatchID)
	}
	if f.From != nil {
		q = q.Where("sent_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("sent_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "sent_at ASC, id ASC"
	if f.Desc {
		order = "sent_at DESC, id DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*SMSLogEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toSMSLogModels(entities), total, nil
}

// CountByBatch returns the number of attempts per status for batchID.
func (r *SMSLogRepository) CountByBatch(ctx context.Context, ownerID int64, batchID string) (map[model.AttemptStatus]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.Read(ctx).
		Model(&SMSLogEntity{}).
		Select("status, COUNT(*) AS n").
		Where("owner_id = ? AND batch_id = ?", ownerID, batchID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.AttemptStatus]int64, len(rows))
	for _, row := range rows {
		out[model.AttemptStatus(row.Status)] = row.N
	}
	return out, nil
}
