package repository

import (
	"context"
	"errors"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/util"

	"gorm.io/gorm"
)

type BundleRepository struct {
	DB *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{DB: db}
}

func (r *BundleRepository) SaveBundle(ctx context.Context, userID string, bundle model.OfflineBundle) error {
	rec, err := bundleToRecord(userID, bundle)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&rec).Error
}

// ListBundles returns the user's bundles, newest first.
func (r *BundleRepository) ListBundles(ctx context.Context, userID string) ([]model.OfflineBundle, error) {
	var recs []model.BundleRecord
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]model.OfflineBundle, 0, len(recs))
	for _, rec := range recs {
		b, err := bundleFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *BundleRepository) GetBundle(ctx context.Context, userID, bundleID string) (model.OfflineBundle, error) {
	var rec model.BundleRecord
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", bundleID, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.OfflineBundle{}, util.ErrBundleNotFound
	}
	if err != nil {
		return model.OfflineBundle{}, err
	}
	return bundleFromRecord(rec)
}

func (r *BundleRepository) DeleteBundle(ctx context.Context, userID, bundleID string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", bundleID, userID).
		Delete(&model.BundleRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrBundleNotFound
	}
	return nil
}
