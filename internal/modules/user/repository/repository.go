package repository

import (
	"context"
	"time"

	"anoa.com/facultydir/internal/entity"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByRole(ctx context.Context, role string) ([]*entity.User, error)
	FindAll(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	CreateToken(ctx context.Context, token *entity.EmailToken) error
	FindToken(ctx context.Context, value, purpose string) (*entity.EmailToken, error)
	FindLatestToken(ctx context.Context, userID uint, purpose string) (*entity.EmailToken, error)
	MarkTokenUsed(ctx context.Context, id uint, at time.Time) error
	DeleteTokens(ctx context.Context, userID uint, purpose string) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByRole(ctx context.Context, role string) ([]*entity.User, error) {
	var users []*entity.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Profile").Delete(&entity.User{ID: id}).Error
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) CreateToken(ctx context.Context, token *entity.EmailToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *userRepository) FindToken(ctx context.Context, value, purpose string) (*entity.EmailToken, error) {
	var token entity.EmailToken
	if err := r.db.WithContext(ctx).
		Where("token = ? AND purpose = ?", value, purpose).
		First(&token).Error; err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *userRepository) FindLatestToken(ctx context.Context, userID uint, purpose string) (*entity.EmailToken, error) {
	var token entity.EmailToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").
		First(&token).Error; err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *userRepository) MarkTokenUsed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.EmailToken{}).
		Where("id = ?", id).
		Update("used_at", at).Error
}

func (r *userRepository) DeleteTokens(ctx context.Context, userID uint, purpose string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&entity.EmailToken{}).Error
}

func (r *userRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.EmailToken{}).Error
}
