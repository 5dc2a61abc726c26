package repository

import (
	"context"

	"studycollab_backend/internal/model"

	"gorm.io/gorm"
)

// ResultRepository stores the result history and the pending sync queue.
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) ListResults(ctx context.Context, userID string) ([]model.SessionResult, error) {
	var recs []model.ResultRecord
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at_ms asc, created_at asc").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]model.SessionResult, 0, len(recs))
	for _, rec := range recs {
		res, err := resultFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ResultRepository) AppendResult(ctx context.Context, userID string, result model.SessionResult) error {
	rec, err := resultToRecord(userID, result)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&rec).Error
}

// AppendOfflineResult writes the history row and the queue row together.
func (r *ResultRepository) AppendOfflineResult(ctx context.Context, userID string, pending model.PendingSyncResult) error {
	rec, err := resultToRecord(userID, pending.Result)
	if err != nil {
		return err
	}
	prec, err := pendingToRecord(userID, pending)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Create(&prec).Error
	})
}

func (r *ResultRepository) ListPending(ctx context.Context, userID string) ([]model.PendingSyncResult, error) {
	var recs []model.PendingSyncRecord
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("queued_at asc").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]model.PendingSyncResult, 0, len(recs))
	for _, rec := range recs {
		p, err := pendingFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CommitReconcile replaces stale offline history rows with the pending
// copies and clears exactly the given queue entries in one transaction.
// Entries queued after pending was loaded stay queued.
func (r *ResultRepository) CommitReconcile(ctx context.Context, userID string, pending []model.PendingSyncResult) error {
	if len(pending) == 0 {
		return nil
	}

	starts := make([]int64, 0, len(pending))
	ids := make([]string, 0, len(pending))
	rows := make([]model.ResultRecord, 0, len(pending))
	for _, p := range pending {
		rec, err := resultToRecord(userID, p.Result)
		if err != nil {
			return err
		}
		starts = append(starts, rec.StartedAtMs)
		ids = append(ids, p.Result.ID)
		rows = append(rows, rec)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND offline = ? AND started_at_ms IN ?", userID, true, starts).
			Delete(&model.ResultRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id IN ?", userID, ids).
			Delete(&model.PendingSyncRecord{}).Error
	})
}
