package repository

import (
	"context"
	"time"

	"anoa.com/facultydir/internal/entity"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Profile, error)
	FindByUserID(ctx context.Context, userID uint) (*entity.Profile, error)
	FindAll(ctx context.Context) ([]*entity.Profile, error)
	Search(ctx context.Context, query string) ([]*entity.Profile, error)
	// UpdateColumns writes only the given columns, so concurrent updates to
	// disjoint columns merge instead of clobbering each other.
	UpdateColumns(ctx context.Context, id uint, values map[string]interface{}) error
	// UpdateWithUser applies profile and user column updates in one transaction.
	UpdateWithUser(ctx context.Context, id uint, values map[string]interface{}, userID uint, userValues map[string]interface{}) error
	SetLock(ctx context.Context, id uint, locked bool, expiry *time.Time) error
	SetLockAll(ctx context.Context, locked bool, expiry *time.Time) error
	Delete(ctx context.Context, id uint) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id uint) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uint) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) FindAll(ctx context.Context) ([]*entity.Profile, error) {
	var profiles []*entity.Profile
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *profileRepository) Search(ctx context.Context, query string) ([]*entity.Profile, error) {
	var profiles []*entity.Profile
	pattern := "%" + query + "%"
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR department ILIKE ? OR title ILIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *profileRepository) UpdateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Profile{}).
		Where("id = ?", id).
		Updates(values).Error
}

func (r *profileRepository) UpdateWithUser(ctx context.Context, id uint, values map[string]interface{}, userID uint, userValues map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(values) > 0 {
			if err := tx.Model(&entity.Profile{}).Where("id = ?", id).Updates(values).Error; err != nil {
				return err
			}
		}

		if len(userValues) > 0 {
			if err := tx.Model(&entity.User{}).Where("id = ?", userID).Updates(userValues).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *profileRepository) SetLock(ctx context.Context, id uint, locked bool, expiry *time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked":   locked,
			"lock_expiry": expiry,
		}).Error
}

func (r *profileRepository) SetLockAll(ctx context.Context, locked bool, expiry *time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Profile{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"is_locked":   locked,
			"lock_expiry": expiry,
		}).Error
}

func (r *profileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Profile{}, "id = ?", id).Error
}
